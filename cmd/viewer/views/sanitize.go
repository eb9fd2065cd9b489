package views

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var classPattern = regexp.MustCompile(`^[a-z][a-z0-9 -]*$`)

// Sanitizer 는 포맷된 메시지 마크업에서 스크립트와 이벤트 핸들러를 걷어낸다.
// 포맷터가 만드는 블록의 class 는 남긴다. 동시 사용에 안전하다.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(classPattern).OnElements("div", "span", "pre", "code")
	return &Sanitizer{policy: policy}
}

func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
