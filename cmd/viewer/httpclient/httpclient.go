package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chat-viewer/cmd/internal/logger"
	"chat-viewer/cmd/viewer/trace"
)

const maxBodyLog = 1024

// Config 는 HTTP 클라이언트 공통 설정이다.
// Transport 가 nil 이면 http.DefaultTransport 를 사용한다. 오프라인 캐시 워커는 여기에 끼워 넣는다.
type Config struct {
	Timeout   time.Duration
	Transport http.RoundTripper
}

// tracingTransport 는 백엔드 호출마다 span 을 발급해 헤더로 넘기고 결과를 로그로 남긴다.
// 캐시 워커가 응답한 경우 X-Cache 값이 cache 필드로 찍힌다.
type tracingTransport struct {
	next http.RoundTripper
}

func (t *tracingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	requestID, spanID := trace.NextSpanID(req.Context())

	out := req.Clone(req.Context())
	out.Header.Set(trace.HeaderRequestID, requestID)
	out.Header.Set(trace.HeaderSpanID, spanID)

	fields := logger.Fields{
		"method":     out.Method,
		"url":        out.URL.String(),
		"request_id": requestID,
		"span_id":    spanID,
	}
	if user := trace.UserIDFromContext(req.Context()); user != "" {
		fields["user_id"] = user
	}
	if body := bodySnippet(req); body != "" {
		fields["body"] = body
	}

	resp, err := t.next.RoundTrip(out)
	fields["duration"] = time.Since(start).String()
	if err != nil {
		fields["error"] = err.Error()
		logger.ErrorWithFields("backend call failed", fields)
		return nil, err
	}

	fields["status"] = resp.StatusCode
	if cache := resp.Header.Get("X-Cache"); cache != "" {
		fields["cache"] = cache
	}
	logger.DebugWithFields("backend call completed", fields)
	return resp, nil
}

// bodySnippet 은 GetBody 로 본문 사본을 읽는다. 원래 Body 는 건드리지 않는다.
func bodySnippet(req *http.Request) string {
	if req.GetBody == nil || req.ContentLength == 0 {
		return ""
	}
	rc, err := req.GetBody()
	if err != nil {
		return ""
	}
	defer rc.Close()
	head, err := io.ReadAll(io.LimitReader(rc, maxBodyLog))
	if err != nil {
		return ""
	}
	return string(head)
}

// BaseClient 는 백엔드 base URL 과 http.Client 를 묶는다. 타입별 클라이언트가 이것을 감싼다.
type BaseClient struct {
	HTTPClient *http.Client
	BaseURL    string
}

func NewBaseClient(baseURL string) *BaseClient {
	return NewBaseClientWithClient(nil, baseURL)
}

// NewBaseClientWithClient 는 캐시 워커가 끼워진 클라이언트처럼 미리 만든 http.Client 를 쓴다. nil 이면 기본값.
func NewBaseClientWithClient(httpClient *http.Client, baseURL string) *BaseClient {
	if httpClient == nil {
		httpClient = New(Config{})
	}
	return &BaseClient{HTTPClient: httpClient, BaseURL: baseURL}
}

// NewRequest 는 base URL 뒤에 relPath 를 붙인 요청을 만든다.
// relPath 의 세그먼트는 호출하는 쪽에서 url.PathEscape 해야 하고, 쿼리는 query 로만 넘긴다.
func (c *BaseClient) NewRequest(ctx context.Context, method, relPath string, query url.Values, body io.Reader) (*http.Request, error) {
	if strings.ContainsAny(relPath, "?#") {
		return nil, fmt.Errorf("httpclient: query or fragment in path %q, pass query separately", relPath)
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("httpclient: base url %q: %w", c.BaseURL, err)
	}
	target := base
	if relPath != "" {
		target = base.JoinPath(relPath)
	}
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return http.NewRequestWithContext(ctx, method, target.String(), body)
}

func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	return c.HTTPClient.Do(req)
}

// New 는 추적 로깅 Transport 를 씌운 http.Client 를 만든다. Timeout 이 0 이면 10초.
func New(cfg Config) *http.Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Transport == nil {
		cfg.Transport = http.DefaultTransport
	}
	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &tracingTransport{next: cfg.Transport},
	}
}
