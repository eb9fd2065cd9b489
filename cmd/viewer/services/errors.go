package services

import (
	"context"
	"errors"
	"net/http"

	"chat-viewer/cmd/viewer/clients/chatbotclient"
)

var (
	ErrMissingUserID  = errors.New("missing user id")
	ErrChatNotActive  = errors.New("chat is not the active chat")
	ErrEmptyMessage   = errors.New("message is empty")
	ErrSendInProgress = errors.New("a message is already being sent")
	ErrChatNotFound   = errors.New("chat not found")
)

// ViewerError 는 서비스 경계에서 핸들러로 넘기는 오류다. StatusCode/ErrorCode 는 그대로 응답에 쓰인다.
type ViewerError struct {
	StatusCode int
	ErrorCode  string
	Cause      error
}

func (e *ViewerError) Error() string {
	if e == nil {
		return "viewer_failed"
	}
	return e.ErrorCode
}

func (e *ViewerError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// AsViewerError 는 임의의 오류를 ViewerError 로 정규화한다.
func AsViewerError(err error) *ViewerError {
	if err == nil {
		return nil
	}
	var verr *ViewerError
	if errors.As(err, &verr) {
		return verr
	}
	return toViewerError(err)
}

func toViewerError(err error) *ViewerError {
	var httpErr *chatbotclient.HTTPError
	switch {
	case errors.Is(err, ErrMissingUserID):
		return &ViewerError{StatusCode: http.StatusBadRequest, ErrorCode: "missing_user_id", Cause: err}
	case errors.Is(err, ErrEmptyMessage):
		return &ViewerError{StatusCode: http.StatusBadRequest, ErrorCode: "empty_message", Cause: err}
	case errors.Is(err, ErrChatNotActive):
		return &ViewerError{StatusCode: http.StatusConflict, ErrorCode: "chat_not_active", Cause: err}
	case errors.Is(err, ErrSendInProgress):
		return &ViewerError{StatusCode: http.StatusConflict, ErrorCode: "send_in_progress", Cause: err}
	case errors.Is(err, ErrChatNotFound), errors.Is(err, chatbotclient.ErrNotFound):
		return &ViewerError{StatusCode: http.StatusNotFound, ErrorCode: "not_found", Cause: err}
	case errors.As(err, &httpErr):
		status, code := normalizeBackendStatus(httpErr.StatusCode)
		return &ViewerError{StatusCode: status, ErrorCode: code, Cause: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &ViewerError{StatusCode: http.StatusGatewayTimeout, ErrorCode: "backend_timeout", Cause: err}
	default:
		return &ViewerError{StatusCode: http.StatusBadGateway, ErrorCode: "backend_unreachable", Cause: err}
	}
}

func normalizeBackendStatus(statusCode int) (normalizedStatus int, errorCode string) {
	switch statusCode {
	case http.StatusTooManyRequests:
		return http.StatusTooManyRequests, "rate_limited"
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return http.StatusBadRequest, "invalid_request"
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return http.StatusServiceUnavailable, "backend_unavailable"
	default:
		return http.StatusInternalServerError, "backend_failed"
	}
}
