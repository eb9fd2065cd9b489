// Package formatter turns raw chat message text, with its embedded pseudo-tags, into display markup.
package formatter

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

const lineBreak = "<br>"

// newlineMark 는 1단계에서 바꾼 줄바꿈 자리다. 본문에 원래 있던 <br> 과 구분하려고 사용 영역 문자를 쓴다.
const newlineMark = "\uE000"

var (
	thoughtPattern      = regexp.MustCompile(`(?s)<thought>(.*?)</thought>`)
	codeBlockPattern    = regexp.MustCompile("(?s)```(.*?)```")
	toolCallPattern     = regexp.MustCompile(`(?s)<tool_call>(.*?)</tool_call>`)
	toolResponsePattern = regexp.MustCompile(`(?s)<tool_call_response>(.*?)</tool_call_response>`)
)

// Format renders message content for display. When isEditing is true the text is returned untouched
// so it can go straight into an editable field.
//
// The transformations run in a fixed order: newlines, thought blocks, code blocks, tool calls,
// tool call responses, then any newline the previous steps introduced. Unterminated tags are left
// as literal text.
func Format(text string, isEditing bool) string {
	if isEditing {
		return text
	}

	out := strings.ReplaceAll(text, "\n", newlineMark)

	out = thoughtPattern.ReplaceAllStringFunc(out, func(m string) string {
		body := thoughtPattern.FindStringSubmatch(m)[1]
		body = strings.ReplaceAll(strings.TrimSpace(body), "\n", newlineMark)
		return `<div class="message-content thought-block"><div class="tag-label">thought</div>` + body + `</div>`
	})

	out = codeBlockPattern.ReplaceAllStringFunc(out, func(m string) string {
		code := codeBlockPattern.FindStringSubmatch(m)[1]
		return "<pre><code>" + code + "</code></pre>"
	})

	out = toolCallPattern.ReplaceAllStringFunc(out, func(m string) string {
		return jsonBlock("function-call", "tool call", toolCallPattern.FindStringSubmatch(m)[1])
	})

	out = toolResponsePattern.ReplaceAllStringFunc(out, func(m string) string {
		return jsonBlock("tool-response", "tool response", toolResponsePattern.FindStringSubmatch(m)[1])
	})

	return strings.ReplaceAll(breakBareNewlines(out), newlineMark, lineBreak)
}

// jsonBlock renders a labeled block. Only the newlines marked by the first step are restored before
// the JSON parse; a literal <br> inside a JSON string stays as it is.
func jsonBlock(class, label, body string) string {
	raw := strings.TrimSpace(strings.ReplaceAll(body, newlineMark, "\n"))
	formatted := PrettyJSON(raw)
	if formatted == raw {
		formatted = strings.ReplaceAll(raw, "\n", lineBreak)
	}
	return `<div class="message-content ` + class + `"><div class="tag-label">` + label + `</div><div class="json-content">` + formatted + `</div></div>`
}

// PrettyJSON re-indents s with two spaces when it is valid JSON and returns it unchanged otherwise.
// Key order and number literals are kept as written.
func PrettyJSON(s string) string {
	b := []byte(s)
	if !json.Valid(b) {
		return s
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return s
	}
	return buf.String()
}

// breakBareNewlines turns every newline that does not directly follow a tag into a line break.
func breakBareNewlines(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' && i > 0 && s[i-1] != '>' {
			sb.WriteString(lineBreak)
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// FormatDate renders a timestamp the way the chat list and message meta show it, e.g. "Jan 2, 3:04 PM".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Jan 2, 3:04 PM")
}
