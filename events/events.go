package events

import (
	"time"
)

// EventType 이벤트 타입 정의
type EventType string

const (
	MessageSent   EventType = "message.sent"
	MessageEdited EventType = "message.edited"
)

// MessageEvent 는 뷰어에서 메시지를 보내거나 수정했을 때 발행된다.
// 어시스턴트 응답은 백엔드가 ID 없이 원문만 돌려주므로 전송 이벤트의 MessageID 는 비어 있다.
type MessageEvent struct {
	Type      EventType `json:"type"`
	UserID    string    `json:"user_id"`
	ChatID    string    `json:"chat_id"`
	MessageID string    `json:"message_id,omitempty"`
	At        time.Time `json:"at"`
}

func NewMessageSent(userID, chatID string, at time.Time) MessageEvent {
	return MessageEvent{Type: MessageSent, UserID: userID, ChatID: chatID, At: at.UTC()}
}

func NewMessageEdited(userID, chatID, messageID string, at time.Time) MessageEvent {
	return MessageEvent{Type: MessageEdited, UserID: userID, ChatID: chatID, MessageID: messageID, At: at.UTC()}
}
