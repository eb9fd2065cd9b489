package handlers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-viewer/cmd/internal/logger"
	"chat-viewer/cmd/viewer/dto"
	"chat-viewer/cmd/viewer/services"
	"chat-viewer/cmd/viewer/trace"
	"chat-viewer/cmd/viewer/views"
)

// HeaderFragment 는 viewer.js 가 조각 요청에 붙이는 헤더다. 없으면 일반 폼 제출로 보고 리다이렉트한다.
const HeaderFragment = "X-Fragment"

func isFragment(c *gin.Context) bool {
	return c.GetHeader(HeaderFragment) != ""
}

// Online 은 페이지에 offline 클래스를 붙일지 결정한다.
type Online interface {
	Online() bool
}

func pageState(monitor Online, alert string) views.PageState {
	online := true
	if monitor != nil {
		online = monitor.Online()
	}
	return views.PageState{Online: online, Alert: alert}
}

func logFailure(c *gin.Context, op string, verr *services.ViewerError) {
	fields := logger.Fields{
		"op":         op,
		"path":       c.Request.URL.Path,
		"status":     verr.StatusCode,
		"error_code": verr.ErrorCode,
		"request_id": trace.RequestIDFromContext(c.Request.Context()),
	}
	if verr.Cause != nil {
		fields["cause"] = verr.Cause.Error()
	}
	logger.ErrorWithFields("viewer request failed", fields)
}

// respondJSONError 는 조각/JSON 요청의 실패 응답이다. 화면에서는 alert 로 보여준다.
func respondJSONError(c *gin.Context, op string, err error) {
	verr := services.AsViewerError(err)
	logFailure(c, op, verr)
	c.JSON(verr.StatusCode, dto.ErrorResponseDTO{Error: verr.ErrorCode})
}

// respondPageError 는 전체 페이지 요청의 실패 응답이다. 빈 화면에 경고 배너를 띄운다.
func respondPageError(c *gin.Context, op string, err error, renderer *views.Renderer, monitor Online) {
	verr := services.AsViewerError(err)
	logFailure(c, op, verr)
	renderHTML(c, verr.StatusCode, func(w io.Writer) error {
		return renderer.ErrorPage(w, c.Param("userId"), pageState(monitor, alertText(verr)))
	})
}

func alertText(verr *services.ViewerError) string {
	switch verr.ErrorCode {
	case "not_found":
		return "Chat not found."
	case "missing_user_id":
		return "A user id is required."
	default:
		return "Error talking to the chat backend (" + verr.ErrorCode + "). Please try again."
	}
}

// renderHTML 은 버퍼에 먼저 그려서 템플릿 오류가 반쯤 쓰인 응답으로 나가지 않게 한다.
func renderHTML(c *gin.Context, status int, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		logger.ErrorWithFields("template render failed", logger.Fields{"path": c.Request.URL.Path, "error": err.Error()})
		c.JSON(http.StatusInternalServerError, dto.ErrorResponseDTO{Error: "render_failed"})
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
