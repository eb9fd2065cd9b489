package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-viewer/cmd/internal/eventbus"
	"chat-viewer/cmd/viewer/clients/chatbotclient"
	"chat-viewer/cmd/viewer/dto"
	"chat-viewer/cmd/viewer/httpclient"
	"chat-viewer/events"
)

const chatsU1 = `[
	{"chat_id": "abc123", "user_id": "u1", "model": "org/modelA", "started_at": "2024-01-01T00:00:00Z", "latest_message_time": "2024-01-01T00:00:00Z", "message_count": 2},
	{"chat_id": "old456789", "user_id": "u1", "model": "org/modelB", "started_at": "2023-12-01T00:00:00Z", "latest_message_time": "2023-12-01T00:00:00Z", "message_count": 5}
]`

const messagesABC = `[
	{"id": 1, "role": "system", "content": "be nice", "created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z", "is_purged": false},
	{"id": 2, "role": "user", "content": "hi", "created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z", "is_purged": false},
	{"id": 3, "role": "assistant", "content": "hello", "created_at": "2024-01-01T00:00:01Z", "updated_at": "2024-01-01T00:00:01Z", "is_purged": false}
]`

type fakeBackend struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	requests []string
	posts    atomic.Int32
	putBody  string
	sendCode int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{t: t, sendCode: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /chats/{userId}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("userId") != "u1" {
			_, _ = io.WriteString(w, `[]`)
			return
		}
		_, _ = io.WriteString(w, chatsU1)
	})
	mux.HandleFunc("GET /chat/{chatId}/messages", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, messagesABC)
	})
	mux.HandleFunc("GET /message/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "404" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"id": 2, "role": "user", "content": "hi", "created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z"}`)
	})
	mux.HandleFunc("PUT /message/{id}", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		fb.mu.Lock()
		fb.putBody = string(b)
		fb.mu.Unlock()
		// 서버는 입력을 정규화해 돌려준다.
		_, _ = io.WriteString(w, `{"id": 2, "role": "user", "content": "server canonical", "created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-02T00:00:00Z"}`)
	})
	mux.HandleFunc("POST /api/{userId}/{chatId}/message", func(w http.ResponseWriter, r *http.Request) {
		fb.posts.Add(1)
		var req dto.SendMessageRequestDTO
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, r.PathValue("userId"), req.UserID)
		assert.Equal(t, "web", req.ClientType)
		assert.NotNil(t, req.UserMetadata)
		w.WriteHeader(fb.sendCode)
		_, _ = io.WriteString(w, "reply to "+req.Message)
	})

	fb.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.requests = append(fb.requests, r.Method+" "+r.URL.Path)
		fb.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(fb.server.Close)
	return fb
}

func (fb *fakeBackend) requestCount() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.requests)
}

type recordingBus struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (b *recordingBus) Publish(_ context.Context, _ string, event eventbus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *recordingBus) Close() {}

func newService(t *testing.T, fb *fakeBackend) (*ViewerService, *recordingBus) {
	t.Helper()
	bus := &recordingBus{}
	client := chatbotclient.New(httpclient.NewBaseClient(fb.server.URL))
	svc := NewViewerService(client, bus, "")
	svc.newChatID = func() string { return "new-chat-id" }
	return svc, bus
}

func TestLoadChatsRendersBackendList(t *testing.T) {
	fb := newFakeBackend(t)
	svc, _ := newService(t, fb)

	list, err := svc.LoadChats(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list.Chats, 2)

	assert.Equal(t, "abc123", list.Chats[0].ShortID())
	assert.Equal(t, "modelA", list.Chats[0].ModelName())
	assert.Equal(t, 2, list.Chats[0].MessageCount)
	assert.Equal(t, []string{"u1"}, svc.States().Users())
}

func TestLoadChatEnablesComposerOnlyForHeadChat(t *testing.T) {
	fb := newFakeBackend(t)
	svc, _ := newService(t, fb)
	ctx := context.Background()

	head, err := svc.LoadChat(ctx, "u1", "abc123")
	require.NoError(t, err)
	assert.True(t, head.ComposerEnabled)
	assert.Equal(t, "abc123", head.List.ActiveChatID)

	older, err := svc.LoadChat(ctx, "u1", "old456789")
	require.NoError(t, err)
	assert.False(t, older.ComposerEnabled)
	assert.Equal(t, []string{"/u1/chat/abc123", "/u1/chat/old456789"}, older.History)
}

func TestLoadChatFiltersSystemMessagesKeepingOrder(t *testing.T) {
	fb := newFakeBackend(t)
	svc, _ := newService(t, fb)

	view, err := svc.LoadChat(context.Background(), "u1", "abc123")
	require.NoError(t, err)

	require.Len(t, view.Messages, 2)
	assert.Equal(t, dto.MessageID("2"), view.Messages[0].ID)
	assert.Equal(t, dto.MessageID("3"), view.Messages[1].ID)
}

func TestLoadChatUnknownID(t *testing.T) {
	fb := newFakeBackend(t)
	svc, _ := newService(t, fb)

	_, err := svc.LoadChat(context.Background(), "u1", "nope")
	require.ErrorIs(t, err, ErrChatNotFound)
	assert.Equal(t, http.StatusNotFound, AsViewerError(err).StatusCode)
}

func TestSendMessageEmptyTextMakesNoRequest(t *testing.T) {
	fb := newFakeBackend(t)
	svc, _ := newService(t, fb)

	_, err := svc.StartNewChat(context.Background(), "u1")
	require.NoError(t, err)
	before := fb.requestCount()

	for _, text := range []string{"", "   ", "\n\t "} {
		_, err := svc.SendMessage(context.Background(), "u1", "new-chat-id", text)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}
	assert.Equal(t, before, fb.requestCount())
}

func TestSendMessageRejectsInactiveChat(t *testing.T) {
	fb := newFakeBackend(t)
	svc, _ := newService(t, fb)
	ctx := context.Background()

	_, err := svc.LoadChat(ctx, "u1", "old456789")
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, "u1", "old456789", "hello")
	require.ErrorIs(t, err, ErrChatNotActive)
	assert.Equal(t, http.StatusConflict, AsViewerError(err).StatusCode)
	assert.Zero(t, fb.posts.Load())
}

func TestSendMessageToHeadChat(t *testing.T) {
	fb := newFakeBackend(t)
	svc, bus := newService(t, fb)
	ctx := context.Background()

	_, err := svc.LoadChat(ctx, "u1", "abc123")
	require.NoError(t, err)

	res, err := svc.SendMessage(ctx, "u1", "abc123", "how are you")
	require.NoError(t, err)

	assert.Equal(t, dto.RoleUser, res.User.Role)
	assert.Equal(t, "how are you", res.User.Content)
	assert.Equal(t, dto.RoleAssistant, res.Assistant.Role)
	assert.Equal(t, "reply to how are you", res.Assistant.Content)
	assert.False(t, svc.States().Get("u1").Sending)

	require.Len(t, bus.events, 1)
	assert.Equal(t, "abc123", bus.events[0].Key)
	evt, err := eventbus.DecodeJSON[events.MessageEvent](bus.events[0])
	require.NoError(t, err)
	assert.Equal(t, events.MessageSent, evt.Type)
	assert.Equal(t, "abc123", evt.ChatID)
}

func TestSendMessageBackendFailureClearsInFlight(t *testing.T) {
	fb := newFakeBackend(t)
	fb.sendCode = http.StatusServiceUnavailable
	svc, bus := newService(t, fb)
	ctx := context.Background()

	_, err := svc.StartNewChat(ctx, "u1")
	require.NoError(t, err)

	res, err := svc.SendMessage(ctx, "u1", "new-chat-id", "hello")
	require.Error(t, err)
	verr := AsViewerError(err)
	assert.Equal(t, http.StatusServiceUnavailable, verr.StatusCode)
	assert.Equal(t, "backend_unavailable", verr.ErrorCode)

	// 낙관적으로 붙인 사용자 메시지는 실패해도 남는다.
	assert.Equal(t, "hello", res.User.Content)
	assert.False(t, svc.States().Get("u1").Sending)
	assert.Empty(t, bus.events)
}

func TestSendMessageRejectsConcurrentSubmit(t *testing.T) {
	fb := newFakeBackend(t)
	svc, _ := newService(t, fb)
	ctx := context.Background()

	_, err := svc.StartNewChat(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, svc.States().Update("u1", func(st *ViewState) error {
		st.Sending = true
		return nil
	}))

	_, err = svc.SendMessage(ctx, "u1", "new-chat-id", "hello")
	assert.ErrorIs(t, err, ErrSendInProgress)
	assert.Zero(t, fb.posts.Load())
}

func TestStartNewChat(t *testing.T) {
	fb := newFakeBackend(t)
	svc, _ := newService(t, fb)

	_, err := svc.StartNewChat(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrMissingUserID)

	view, err := svc.StartNewChat(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, view.IsNew)
	assert.True(t, view.ComposerEnabled)
	assert.Equal(t, "new-chat-id", view.ChatID)
	assert.Empty(t, view.Messages)
	assert.Empty(t, view.List.ActiveChatID)
	assert.Equal(t, []string{"/u1/new"}, view.History)

	st := svc.States().Get("u1")
	assert.True(t, st.IsNewChat)
	assert.Equal(t, "new-chat-id", st.ActiveChatID)
}

func TestSaveEditReturnsServerCanonicalContent(t *testing.T) {
	fb := newFakeBackend(t)
	svc, bus := newService(t, fb)

	msg, err := svc.SaveEdit(context.Background(), "u1", "2", "locally typed")
	require.NoError(t, err)

	assert.Equal(t, "server canonical", msg.Content)
	assert.NotEqual(t, "locally typed", msg.Content)
	assert.True(t, msg.IsEdited())
	assert.JSONEq(t, `{"content":"locally typed"}`, fb.putBody)
	require.Len(t, bus.events, 1)
}

func TestCancelEditRefetchesOriginal(t *testing.T) {
	fb := newFakeBackend(t)
	svc, _ := newService(t, fb)

	msg, err := svc.CancelEdit(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "hi", msg.Content)

	_, err = svc.BeginEdit(context.Background(), "404")
	assert.Equal(t, "not_found", AsViewerError(err).ErrorCode)
}

func TestBackWalksHistory(t *testing.T) {
	fb := newFakeBackend(t)
	svc, _ := newService(t, fb)
	ctx := context.Background()

	_, err := svc.LoadChat(ctx, "u1", "old456789")
	require.NoError(t, err)
	_, err = svc.LoadChat(ctx, "u1", "abc123")
	require.NoError(t, err)

	route, err := svc.Back("u1")
	require.NoError(t, err)
	assert.Equal(t, "/u1/chat/old456789", route)

	// 돌아간 경로를 다시 열어도 히스토리가 중복되지 않는다.
	_, err = svc.LoadChat(ctx, "u1", "old456789")
	require.NoError(t, err)

	route, err = svc.Back("u1")
	require.NoError(t, err)
	assert.Equal(t, "/u1", route)
}

func TestHistoryKeepsOnlyRecentRoutes(t *testing.T) {
	fb := newFakeBackend(t)
	svc, _ := newService(t, fb)
	ctx := context.Background()

	var view ChatView
	var err error
	for i := 0; i < maxHistory+10; i++ {
		chatID := "abc123"
		if i%2 == 1 {
			chatID = "old456789"
		}
		view, err = svc.LoadChat(ctx, "u1", chatID)
		require.NoError(t, err)
	}

	require.Len(t, view.History, maxHistory)
	assert.Equal(t, "/u1/chat/old456789", view.History[maxHistory-1])
	assert.Equal(t, "/u1/chat/abc123", view.History[maxHistory-2])

	route, err := svc.Back("u1")
	require.NoError(t, err)
	assert.Equal(t, "/u1/chat/abc123", route)
}

func TestPushRouteTrimsOldest(t *testing.T) {
	var st ViewState
	for i := 0; i < maxHistory+5; i++ {
		st.pushRoute(fmt.Sprintf("/u1/chat/c%d", i))
	}

	require.Len(t, st.History, maxHistory)
	assert.Equal(t, "/u1/chat/c5", st.History[0])
	assert.Equal(t, fmt.Sprintf("/u1/chat/c%d", maxHistory+4), st.History[maxHistory-1])
}

func TestNormalizeBackendStatus(t *testing.T) {
	cases := map[int]string{
		http.StatusTooManyRequests:     "rate_limited",
		http.StatusUnprocessableEntity: "invalid_request",
		http.StatusBadGateway:          "backend_unavailable",
		http.StatusTeapot:              "backend_failed",
	}
	for status, code := range cases {
		_, got := normalizeBackendStatus(status)
		assert.Equal(t, code, got, "status %d", status)
	}
}

func TestTransportFailureIsBadGateway(t *testing.T) {
	fb := newFakeBackend(t)
	svc, _ := newService(t, fb)
	fb.server.Close()

	_, err := svc.LoadChats(context.Background(), "u1")
	require.Error(t, err)
	verr := AsViewerError(err)
	assert.Equal(t, http.StatusBadGateway, verr.StatusCode)
	assert.True(t, strings.HasPrefix(verr.Error(), "backend_"))
}
