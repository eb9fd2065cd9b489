package views

import (
	"bytes"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"chat-viewer/cmd/viewer/dto"
	"chat-viewer/cmd/viewer/services"
)

func newRenderer(t *testing.T, sanitize bool) *Renderer {
	t.Helper()
	r, err := New(Options{Title: "Chat Viewer", StylesheetHref: "/assets/bootstrap.min.css", Sanitize: sanitize})
	require.NoError(t, err)
	return r
}

func parse(t *testing.T, buf *bytes.Buffer) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	return doc
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func byClass(n *html.Node, class string) []*html.Node {
	return findAll(n, func(n *html.Node) bool { return hasClass(n, class) })
}

func byTag(n *html.Node, tag string) []*html.Node {
	return findAll(n, func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == tag })
}

func text(n *html.Node) string {
	var sb strings.Builder
	for _, t := range findAll(n, func(n *html.Node) bool { return n.Type == html.TextNode }) {
		sb.WriteString(t.Data)
	}
	return sb.String()
}

func sampleChat() dto.Chat {
	ts := dto.NewTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return dto.Chat{ChatID: "abc123", UserID: "u1", Model: "org/modelA", StartedAt: ts, LatestMessageTime: ts, MessageCount: 2}
}

func TestChatListPageShowsTruncatedIDAndModel(t *testing.T) {
	r := newRenderer(t, true)
	var buf bytes.Buffer

	list := services.ChatListView{UserID: "u1", Chats: []dto.Chat{sampleChat()}}
	require.NoError(t, r.ChatListPage(&buf, list, nil, PageState{Online: true}))
	doc := parse(t, &buf)

	nav := findAll(doc, func(n *html.Node) bool { return n.Type == html.ElementNode && attr(n, "id") == "chat-list" })
	require.Len(t, nav, 1)

	links := byTag(nav[0], "a")
	require.Len(t, links, 2)
	assert.True(t, hasClass(links[0], "new-chat-button"))
	assert.Equal(t, "New Chat", text(links[0]))
	assert.Equal(t, "/u1/new", attr(links[0], "href"))

	items := byClass(doc, "chat-item")
	require.Len(t, items, 1)
	assert.Equal(t, "abc123", text(byClass(items[0], "chat-id")[0]))
	assert.Equal(t, "modelA", text(byClass(items[0], "chat-model")[0]))
	assert.Equal(t, "2", text(byClass(items[0], "message-count")[0]))
	assert.Contains(t, text(items[0]), "Last active: Jan 1, 12:00 AM")
	assert.Equal(t, "/u1/chat/abc123", attr(items[0], "href"))
	assert.False(t, hasClass(items[0], "active"))

	assert.Empty(t, byTag(doc, "form"), "composer is hidden without a chat")
}

func TestChatListTruncatesLongIDs(t *testing.T) {
	r := newRenderer(t, true)
	var buf bytes.Buffer

	chat := sampleChat()
	chat.ChatID = "0123456789abcdef"
	list := services.ChatListView{UserID: "u1", Chats: []dto.Chat{chat}, ActiveChatID: chat.ChatID}
	require.NoError(t, r.ChatListPage(&buf, list, nil, PageState{Online: true}))

	items := byClass(parse(t, &buf), "chat-item")
	require.Len(t, items, 1)
	assert.Equal(t, "01234567", text(byClass(items[0], "chat-id")[0]))
	assert.True(t, hasClass(items[0], "active"))
}

func TestChatPageRendersMessagesInOrder(t *testing.T) {
	r := newRenderer(t, true)
	var buf bytes.Buffer

	created := dto.NewTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	edited := dto.NewTimestamp(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	chat := sampleChat()
	view := services.ChatView{
		UserID: "u1",
		ChatID: "abc123",
		Chat:   &chat,
		Messages: []dto.Message{
			{ID: "2", Role: dto.RoleUser, Content: "hi", CreatedAt: created, UpdatedAt: edited},
			{ID: "3", Role: dto.RoleAssistant, Content: "<thought>hmm</thought>hello", CreatedAt: created, UpdatedAt: created, IsPurged: true},
		},
		ComposerEnabled: true,
		List:            services.ChatListView{UserID: "u1", Chats: []dto.Chat{chat}, ActiveChatID: "abc123"},
		History:         []string{"/u1/chat/abc123"},
	}
	require.NoError(t, r.ChatPage(&buf, view, nil, PageState{Online: false}))
	doc := parse(t, &buf)

	bodies := byTag(doc, "body")
	require.Len(t, bodies, 1)
	assert.True(t, hasClass(bodies[0], "offline"))
	assert.Equal(t, `["/u1/chat/abc123"]`, attr(bodies[0], "data-history"))

	msgs := findAll(doc, func(n *html.Node) bool { return hasClass(n, "message") && attr(n, "data-message-id") != "" })
	require.Len(t, msgs, 2)
	assert.Equal(t, "2", attr(msgs[0], "data-message-id"))
	assert.True(t, hasClass(msgs[0], "user"))
	assert.Len(t, byClass(msgs[0], "edited-indicator"), 1)
	assert.Empty(t, byClass(msgs[0], "purged-indicator"))

	assert.Equal(t, "3", attr(msgs[1], "data-message-id"))
	assert.Len(t, byClass(msgs[1], "thought-block"), 1)
	assert.Len(t, byClass(msgs[1], "purged-indicator"), 1)
	assert.Empty(t, byClass(msgs[1], "edited-indicator"))

	forms := findAll(doc, func(n *html.Node) bool { return attr(n, "id") == "message-form" })
	require.Len(t, forms, 1)
	assert.Equal(t, "/u1/chat/abc123/message", attr(forms[0], "action"))

	assert.Contains(t, text(byTag(doc, "header")[0]), "Model: modelA")
}

func TestChatPageHidesComposerForOlderChat(t *testing.T) {
	r := newRenderer(t, true)
	var buf bytes.Buffer

	chat := sampleChat()
	view := services.ChatView{UserID: "u1", ChatID: "abc123", Chat: &chat}
	require.NoError(t, r.ChatPage(&buf, view, nil, PageState{Online: true}))

	doc := parse(t, &buf)
	assert.Empty(t, findAll(doc, func(n *html.Node) bool { return attr(n, "id") == "message-form" }))
	assert.False(t, hasClass(byTag(doc, "body")[0], "offline"))
}

func TestChatPageEditingUsesCanonicalContent(t *testing.T) {
	r := newRenderer(t, true)
	var buf bytes.Buffer

	view := services.ChatView{
		UserID:   "u1",
		ChatID:   "abc123",
		Messages: []dto.Message{{ID: "2", Role: dto.RoleUser, Content: "stale"}},
	}
	canonical := dto.Message{ID: "2", Role: dto.RoleUser, Content: "<thought>raw</thought>"}
	require.NoError(t, r.ChatPage(&buf, view, &canonical, PageState{Online: true}))

	areas := byClass(parse(t, &buf), "edit-textarea")
	require.Len(t, areas, 1)
	assert.Equal(t, "<thought>raw</thought>", text(areas[0]))
}

func TestSanitizerStripsScripts(t *testing.T) {
	r := newRenderer(t, true)
	var buf bytes.Buffer

	msg := dto.Message{ID: "9", Role: dto.RoleAssistant, Content: "<script>alert(1)</script><thought>ok</thought>"}
	require.NoError(t, r.MessageFragment(&buf, "u1", msg))

	out := buf.String()
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "thought-block")
	assert.Contains(t, out, `data-edit-url="/u1/messages/9/edit"`)
}

func TestEditFragmentKeepsRawText(t *testing.T) {
	r := newRenderer(t, false)
	var buf bytes.Buffer

	msg := dto.Message{ID: "4", Role: dto.RoleUser, Content: "line1\nline2"}
	require.NoError(t, r.EditFragment(&buf, "u1", msg))
	doc := parse(t, &buf)

	areas := byClass(doc, "edit-textarea")
	require.Len(t, areas, 1)
	assert.Equal(t, "line1\nline2", text(areas[0]))

	forms := byClass(doc, "edit-form")
	require.Len(t, forms, 1)
	assert.Equal(t, "/u1/messages/4", attr(forms[0], "action"))
	assert.Equal(t, "/u1/messages/4", attr(byClass(doc, "cancel-edit")[0], "href"))
}

func TestSendFragmentAppendsUserThenAssistant(t *testing.T) {
	r := newRenderer(t, false)
	var buf bytes.Buffer

	res := services.SendResult{
		ChatID:    "abc123",
		User:      dto.Message{Role: dto.RoleUser, Content: "call it"},
		Assistant: dto.Message{Role: dto.RoleAssistant, Content: `<tool_call>{"name":"x"}</tool_call>`},
	}
	require.NoError(t, r.SendFragment(&buf, "u1", res))
	doc := parse(t, &buf)

	msgs := findAll(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "div" && hasClass(n, "message")
	})
	require.Len(t, msgs, 2)
	assert.True(t, hasClass(msgs[0], "user"))
	assert.True(t, hasClass(msgs[1], "assistant"))

	calls := byClass(msgs[1], "function-call")
	require.Len(t, calls, 1)
	assert.Contains(t, text(calls[0]), `"name": "x"`)

	// ID 가 없는 메시지는 편집 URL 이 없다.
	for _, content := range byClass(doc, "message-content") {
		assert.Empty(t, attr(content, "data-edit-url"))
	}
}

func TestStaticAssetsEmbedded(t *testing.T) {
	for _, name := range []string{"viewer.js", "viewer.css"} {
		b, err := fs.ReadFile(Static(), name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, b)
	}
}

func TestLayoutLinksIconOnlyWhenConfigured(t *testing.T) {
	isIcon := func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "link" && attr(n, "rel") == "icon"
	}

	var buf bytes.Buffer
	require.NoError(t, newRenderer(t, true).ErrorPage(&buf, "u1", PageState{Online: true}))
	assert.Empty(t, findAll(parse(t, &buf), isIcon))

	r, err := New(Options{Title: "Chat Viewer", StylesheetHref: "/assets/bootstrap.min.css", IconHref: "/assets/icons/chat-dots.svg"})
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, r.ErrorPage(&buf, "u1", PageState{Online: true}))
	icons := findAll(parse(t, &buf), isIcon)
	require.Len(t, icons, 1)
	assert.Equal(t, "/assets/icons/chat-dots.svg", attr(icons[0], "href"))
}
