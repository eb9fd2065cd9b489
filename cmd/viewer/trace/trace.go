// Package trace carries the request id of an inbound viewer request down to every backend call it
// triggers. Backend calls are numbered as spans 1,2,3,... under the same request id.
package trace

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-Id"
	HeaderSpanID    = "X-Span-Id"
)

type spanKey struct{}

// Span 은 인바운드 요청 하나의 추적 정보다. UserID 는 라우트의 사용자 ID 로, 로그 상관용이다.
type Span struct {
	RequestID string
	UserID    string

	seq atomic.Int64
}

// GenerateID 는 하이픈 없는 32자리 요청 ID 를 만든다.
func GenerateID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Start 는 requestID 로 span 0 에서 시작하는 추적을 컨텍스트에 붙인다. 빈 값이면 새로 만든다.
func Start(ctx context.Context, requestID, userID string) (context.Context, *Span) {
	if requestID == "" {
		requestID = GenerateID()
	}
	s := &Span{RequestID: requestID, UserID: userID}
	return context.WithValue(ctx, spanKey{}, s), s
}

func FromContext(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(spanKey{}).(*Span)
	return s
}

// Current 는 마지막으로 발급된 span 번호다. 백엔드 호출 전이면 "0".
func (s *Span) Current() string {
	return strconv.FormatInt(s.seq.Load(), 10)
}

// Next 는 다음 백엔드 호출의 span 번호를 발급한다.
func (s *Span) Next() string {
	return strconv.FormatInt(s.seq.Add(1), 10)
}

func RequestIDFromContext(ctx context.Context) string {
	if s := FromContext(ctx); s != nil {
		return s.RequestID
	}
	return ""
}

func UserIDFromContext(ctx context.Context) string {
	if s := FromContext(ctx); s != nil {
		return s.UserID
	}
	return ""
}

// NextSpanID 는 (requestID, spanID) 를 돌려준다. 추적이 없는 컨텍스트(모니터, 캐시 설치)는 새 ID 와 span 1.
func NextSpanID(ctx context.Context) (string, string) {
	s := FromContext(ctx)
	if s == nil {
		return GenerateID(), "1"
	}
	return s.RequestID, s.Next()
}
