package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chat-viewer/cmd/internal/logger"
	"chat-viewer/cmd/viewer/trace"
)

const maxBodyLog = 1024

// RequestTrace 는 요청마다 추적 span 을 시작하고 응답 헤더에 Request ID 를 돌려준 뒤 완료 로그를 남긴다.
// 이 요청이 일으킨 백엔드 호출은 httpclient 에서 같은 Request ID 의 span 1,2,3,... 으로 기록된다.
func RequestTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		ctx, span := trace.Start(c.Request.Context(), c.GetHeader(trace.HeaderRequestID), c.Param("userId"))
		c.Request = c.Request.WithContext(ctx)
		c.Header(trace.HeaderRequestID, span.RequestID)
		c.Header(trace.HeaderSpanID, span.Current())

		body := peekBody(c.Request)

		c.Next()

		fields := logger.Fields{
			"method":        c.Request.Method,
			"route":         c.FullPath(),
			"path":          c.Request.URL.Path,
			"status":        c.Writer.Status(),
			"duration":      time.Since(start).String(),
			"request_id":    span.RequestID,
			"backend_calls": span.Current(),
			"fragment":      c.GetHeader("X-Fragment") != "",
		}
		if span.UserID != "" {
			fields["user_id"] = span.UserID
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields["query"] = q
		}
		if body != "" {
			fields["body"] = body
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		logger.InfoWithFields("completed request", fields)
	}
}

// peekBody 는 폼/JSON 본문 앞부분만 읽어 로그용으로 돌려주고, 핸들러가 전체를 다시 읽을 수 있게 되돌려 놓는다.
func peekBody(req *http.Request) string {
	if req.Body == nil || req.ContentLength == 0 {
		return ""
	}
	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return ""
	}
	head, err := io.ReadAll(io.LimitReader(req.Body, maxBodyLog))
	req.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), req.Body), req.Body}
	if err != nil {
		return ""
	}
	return string(head)
}
