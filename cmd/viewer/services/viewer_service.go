package services

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"chat-viewer/cmd/internal/eventbus"
	"chat-viewer/cmd/internal/logger"
	"chat-viewer/cmd/viewer/clients/chatbotclient"
	"chat-viewer/cmd/viewer/dto"
	"chat-viewer/events"
)

// ChatListView 는 왼쪽 대화 목록 패널이다. "New Chat" 액션은 템플릿이 항상 맨 앞에 붙인다.
type ChatListView struct {
	UserID       string
	Chats        []dto.Chat
	ActiveChatID string
}

// ChatView 는 대화 화면 전체다. 새 대화면 Chat 이 nil 이다.
type ChatView struct {
	UserID          string
	ChatID          string
	Chat            *dto.Chat
	IsNew           bool
	Messages        []dto.Message
	ComposerEnabled bool
	List            ChatListView
	History         []string
}

// SendResult 는 낙관적으로 붙인 사용자 메시지와 백엔드가 돌려준 어시스턴트 메시지다.
type SendResult struct {
	ChatID    string
	User      dto.Message
	Assistant dto.Message
}

type ViewerService struct {
	client *chatbotclient.Client
	states *ViewStateStore
	bus    eventbus.EventBus
	topic  string

	newChatID func() string
	now       func() time.Time
}

func NewViewerService(client *chatbotclient.Client, bus eventbus.EventBus, topic string) *ViewerService {
	if bus == nil {
		bus = eventbus.NoopEventBus{}
	}
	if topic == "" {
		topic = eventbus.TopicMessageEvents.Base()
	}
	return &ViewerService{
		client:    client,
		states:    NewViewStateStore(),
		bus:       bus,
		topic:     topic,
		newChatID: uuid.NewString,
		now:       time.Now,
	}
}

func (s *ViewerService) States() *ViewStateStore { return s.states }

func ChatRoute(userID, chatID string) string {
	return "/" + url.PathEscape(userID) + "/chat/" + url.PathEscape(chatID)
}

func NewChatRoute(userID string) string {
	return "/" + url.PathEscape(userID) + "/new"
}

func ListRoute(userID string) string {
	return "/" + url.PathEscape(userID)
}

// LoadChats 는 사용자의 대화 목록을 새로 가져온다. 연결 복구 시에도 그대로 다시 호출된다.
func (s *ViewerService) LoadChats(ctx context.Context, userID string) (ChatListView, error) {
	if strings.TrimSpace(userID) == "" {
		return ChatListView{}, toViewerError(ErrMissingUserID)
	}
	s.states.Touch(userID)

	chats, err := s.client.ListChats(ctx, userID)
	if err != nil {
		return ChatListView{}, toViewerError(err)
	}
	return ChatListView{
		UserID:       userID,
		Chats:        chats,
		ActiveChatID: s.states.Get(userID).ActiveChatID,
	}, nil
}

// CurrentRoute 는 사용자가 지금 보고 있는 화면의 경로다.
func (s *ViewerService) CurrentRoute(userID string) string {
	st := s.states.Get(userID)
	switch {
	case st.ActiveChatID == "":
		return ListRoute(userID)
	case st.IsNewChat:
		return NewChatRoute(userID)
	default:
		return ChatRoute(userID, st.ActiveChatID)
	}
}

// ClearSelection 은 목록 화면으로 돌아갈 때 활성 대화를 비운다.
func (s *ViewerService) ClearSelection(userID string) {
	_ = s.states.Update(userID, func(st *ViewState) error {
		st.ActiveChatID = ""
		st.IsNewChat = false
		st.ComposerEnabled = false
		return nil
	})
}

// LoadChat 은 대화를 활성화하고 메시지를 가져온다. 입력창은 새로 받은 목록의 첫 대화일 때만 열린다.
func (s *ViewerService) LoadChat(ctx context.Context, userID, chatID string) (ChatView, error) {
	list, err := s.LoadChats(ctx, userID)
	if err != nil {
		return ChatView{}, err
	}

	var chat *dto.Chat
	for i := range list.Chats {
		if list.Chats[i].ChatID == chatID {
			chat = &list.Chats[i]
			break
		}
	}
	if chat == nil {
		return ChatView{}, toViewerError(ErrChatNotFound)
	}

	_ = s.states.Update(userID, func(st *ViewState) error {
		st.ActiveChatID = chatID
		st.IsNewChat = false
		st.ComposerEnabled = false
		st.pushRoute(ChatRoute(userID, chatID))
		return nil
	})
	list.ActiveChatID = chatID

	msgs, err := s.client.ListMessages(ctx, chatID)
	if err != nil {
		return ChatView{}, toViewerError(err)
	}

	// 메시지를 받는 사이 새 대화가 생겼을 수 있으므로 목록을 다시 받아 맨 앞과 비교한다.
	latest, err := s.client.ListChats(ctx, userID)
	if err != nil {
		return ChatView{}, toViewerError(err)
	}
	enabled := len(latest) > 0 && latest[0].ChatID == chatID

	var history []string
	_ = s.states.Update(userID, func(st *ViewState) error {
		if st.ActiveChatID == chatID {
			st.ComposerEnabled = enabled
		}
		history = append(history, st.History...)
		return nil
	})

	return ChatView{
		UserID:          userID,
		ChatID:          chatID,
		Chat:            chat,
		Messages:        dto.VisibleMessages(msgs),
		ComposerEnabled: enabled,
		List:            list,
		History:         history,
	}, nil
}

// StartNewChat 은 새 대화 ID 를 할당하고 입력창을 항상 연다.
func (s *ViewerService) StartNewChat(ctx context.Context, userID string) (ChatView, error) {
	if strings.TrimSpace(userID) == "" {
		return ChatView{}, toViewerError(ErrMissingUserID)
	}

	chatID := s.newChatID()
	var history []string
	_ = s.states.Update(userID, func(st *ViewState) error {
		st.ActiveChatID = chatID
		st.IsNewChat = true
		st.ComposerEnabled = true
		st.pushRoute(NewChatRoute(userID))
		history = append(history, st.History...)
		return nil
	})

	view := ChatView{
		UserID:          userID,
		ChatID:          chatID,
		IsNew:           true,
		ComposerEnabled: true,
		History:         history,
		List:            ChatListView{UserID: userID},
	}

	// 목록을 못 받아도 새 대화 화면은 열린다.
	list, err := s.LoadChats(ctx, userID)
	if err != nil {
		logger.WarnWithFields("chat list unavailable for new chat", logger.Fields{"user_id": userID, "error": err.Error()})
		return view, nil
	}
	list.ActiveChatID = ""
	view.List = list
	return view, nil
}

// SendMessage 는 활성 대화에 메시지를 보낸다. 빈 메시지는 네트워크 요청 없이 거절된다.
func (s *ViewerService) SendMessage(ctx context.Context, userID, chatID, text string) (SendResult, error) {
	if strings.TrimSpace(userID) == "" {
		return SendResult{}, toViewerError(ErrMissingUserID)
	}
	if strings.TrimSpace(text) == "" {
		return SendResult{}, toViewerError(ErrEmptyMessage)
	}

	err := s.states.Update(userID, func(st *ViewState) error {
		if st.ActiveChatID != chatID || !st.ComposerEnabled {
			return ErrChatNotActive
		}
		if st.Sending {
			return ErrSendInProgress
		}
		st.Sending = true
		return nil
	})
	if err != nil {
		return SendResult{}, toViewerError(err)
	}
	defer func() {
		_ = s.states.Update(userID, func(st *ViewState) error {
			st.Sending = false
			return nil
		})
	}()

	sentAt := dto.NewTimestamp(s.now())
	result := SendResult{
		ChatID: chatID,
		User: dto.Message{
			Role:      dto.RoleUser,
			Content:   text,
			CreatedAt: sentAt,
			UpdatedAt: sentAt,
		},
	}

	reply, err := s.client.SendMessage(ctx, userID, chatID, text)
	if err != nil {
		return result, toViewerError(err)
	}

	repliedAt := dto.NewTimestamp(s.now())
	result.Assistant = dto.Message{
		Role:      dto.RoleAssistant,
		Content:   reply,
		CreatedAt: repliedAt,
		UpdatedAt: repliedAt,
	}

	_ = s.states.Update(userID, func(st *ViewState) error {
		if st.ActiveChatID == chatID && st.IsNewChat {
			st.IsNewChat = false
			st.pushRoute(ChatRoute(userID, chatID))
		}
		return nil
	})

	s.publish(ctx, events.NewMessageSent(userID, chatID, s.now()))
	return result, nil
}

// BeginEdit 은 편집창에 넣을 정본 메시지를 가져온다.
func (s *ViewerService) BeginEdit(ctx context.Context, messageID string) (dto.Message, error) {
	msg, err := s.client.GetMessage(ctx, messageID)
	if err != nil {
		return dto.Message{}, toViewerError(err)
	}
	return msg, nil
}

// SaveEdit 은 새 내용을 저장하고 서버가 돌려준 정본 메시지를 반환한다. 로컬 입력값은 렌더링에 쓰지 않는다.
func (s *ViewerService) SaveEdit(ctx context.Context, userID, messageID, content string) (dto.Message, error) {
	msg, err := s.client.UpdateMessage(ctx, messageID, content)
	if err != nil {
		return dto.Message{}, toViewerError(err)
	}
	chatID := s.states.Get(userID).ActiveChatID
	s.publish(ctx, events.NewMessageEdited(userID, chatID, msg.ID.String(), s.now()))
	return msg, nil
}

// CancelEdit 은 로컬 편집을 버리고 원본을 다시 가져온다.
func (s *ViewerService) CancelEdit(ctx context.Context, messageID string) (dto.Message, error) {
	return s.BeginEdit(ctx, messageID)
}

// Back 은 히스토리에서 현재 경로를 꺼내고 돌아갈 경로를 돌려준다. 더 없으면 목록 화면이다.
func (s *ViewerService) Back(userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", toViewerError(ErrMissingUserID)
	}
	route := ListRoute(userID)
	_ = s.states.Update(userID, func(st *ViewState) error {
		if n := len(st.History); n > 0 {
			st.History = st.History[:n-1]
		}
		if n := len(st.History); n > 0 {
			route = st.History[n-1]
		}
		return nil
	})
	return route, nil
}

func (s *ViewerService) publish(ctx context.Context, evt events.MessageEvent) {
	envelope, err := eventbus.NewJSONEvent("", evt)
	if err != nil {
		logger.ErrorWithFields("message event encode failed", logger.Fields{"type": string(evt.Type), "error": err.Error()})
		return
	}
	// 같은 대화의 이벤트는 같은 파티션으로
	envelope.Key = evt.ChatID

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.bus.Publish(ctx, s.topic, envelope); err != nil {
		logger.ErrorWithFields("message event publish failed", logger.Fields{
			"event_id": envelope.ID,
			"type":     string(evt.Type),
			"chat_id":  evt.ChatID,
			"error":    err.Error(),
		})
	}
}
