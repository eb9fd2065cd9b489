package formatter

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const (
	thoughtOpen      = `<div class="message-content thought-block"><div class="tag-label">thought</div>`
	toolCallOpen     = `<div class="message-content function-call"><div class="tag-label">tool call</div><div class="json-content">`
	toolResponseOpen = `<div class="message-content tool-response"><div class="tag-label">tool response</div><div class="json-content">`
)

func TestFormatEditingReturnsTextUnchanged(t *testing.T) {
	text := "line1\n<thought>x</thought>\n```code```"
	assert.Equal(t, text, Format(text, true))
}

func TestFormatPlainAndMalformed(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "no newlines", in: "hello", want: "hello"},
		{name: "newlines", in: "a\nb\n\nc", want: "a<br>b<br><br>c"},
		{name: "unterminated thought", in: "<thought>abc\nxyz", want: "<thought>abc<br>xyz"},
		{name: "unterminated tool call", in: "<tool_call>{\"a\":1}", want: "<tool_call>{\"a\":1}"},
		{name: "single backticks", in: "```only one fence\nhere", want: "```only one fence<br>here"},
		{name: "mismatched closing", in: "<tool_call>x</tool_call_response>", want: "<tool_call>x</tool_call_response>"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, Format(testCase.in, false))
		})
	}
}

func TestFormatThought(t *testing.T) {
	got := Format("pre<thought>  deep  </thought>post", false)
	assert.Equal(t, "pre"+thoughtOpen+"deep</div>post", got)
}

func TestFormatThoughtIsNonGreedyAndMultiLine(t *testing.T) {
	got := Format("<thought>one\ntwo</thought> mid <thought>three</thought>", false)
	want := thoughtOpen + "one<br>two</div> mid " + thoughtOpen + "three</div>"
	assert.Equal(t, want, got)
}

func TestFormatCodeBlock(t *testing.T) {
	got := Format("see:\n```\nx := 1\n```", false)
	assert.Equal(t, "see:<br><pre><code><br>x := 1<br></code></pre>", got)
}

func TestFormatToolCallPrettyPrintsJSON(t *testing.T) {
	got := Format(`before <tool_call>{"name":"get_weather","arguments":{"city":"Paris"}}</tool_call> after`, false)

	pretty := "{\n  \"name\": \"get_weather\",\n  \"arguments\": {\n    \"city\": \"Paris\"\n  }\n}"
	want := "before " + toolCallOpen + strings.ReplaceAll(pretty, "\n", "<br>") + "</div></div> after"
	assert.Equal(t, want, got)
}

func TestFormatToolCallAcceptsMultiLineJSON(t *testing.T) {
	got := Format("<tool_call>\n{\"a\": [1,\n2]}\n</tool_call>", false)

	pretty := "{\n  \"a\": [\n    1,\n    2\n  ]\n}"
	assert.Equal(t, toolCallOpen+strings.ReplaceAll(pretty, "\n", "<br>")+"</div></div>", got)
}

func TestFormatToolCallKeepsLiteralBreakInsideJSONString(t *testing.T) {
	got := Format(`<tool_call>{"name":"say","arguments":{"html":"a<br>b"}}</tool_call>`, false)

	pretty := "{\n  \"name\": \"say\",\n  \"arguments\": {\n    \"html\": \"a<br>b\"\n  }\n}"
	assert.Equal(t, toolCallOpen+strings.ReplaceAll(pretty, "\n", "<br>")+"</div></div>", got)
}

func TestFormatToolResponseMixesLiteralBreakAndNewlines(t *testing.T) {
	got := Format("<tool_call_response>\n{\"msg\": \"x<br>y\"}\n</tool_call_response>\nafter", false)
	want := toolResponseOpen + "{<br>  \"msg\": \"x<br>y\"<br>}</div></div><br>after"
	assert.Equal(t, want, got)
}

func TestFormatToolCallInvalidJSONIsVerbatim(t *testing.T) {
	got := Format("<tool_call> not json\nat all </tool_call>", false)
	assert.Equal(t, toolCallOpen+"not json<br>at all</div></div>", got)
}

func TestFormatToolResponse(t *testing.T) {
	got := Format(`<tool_call_response>{"temp":21}</tool_call_response>`, false)
	assert.Equal(t, toolResponseOpen+"{<br>  \"temp\": 21<br>}</div></div>", got)
}

func TestFormatToolCallAndResponseTogether(t *testing.T) {
	got := Format("<tool_call>[1]</tool_call>\n<tool_call_response>ok</tool_call_response>", false)
	want := toolCallOpen + "[<br>  1<br>]</div></div><br>" + toolResponseOpen + "ok</div></div>"
	assert.Equal(t, want, got)
}

func TestPrettyJSON(t *testing.T) {
	assert.Equal(t, "{\n  \"b\": 1,\n  \"a\": 2\n}", PrettyJSON(`{"b":1,"a":2}`))
	assert.Equal(t, "42", PrettyJSON("42"))
	assert.Equal(t, "{broken", PrettyJSON("{broken"))
	assert.Equal(t, "", PrettyJSON(""))
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2024, 1, 2, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "Jan 2, 3:04 PM", FormatDate(ts))
	assert.Equal(t, "", FormatDate(time.Time{}))
}
