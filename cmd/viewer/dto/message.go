package dto

import (
	"bytes"
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

const ClientTypeWeb = "web"

// MaxContentRunes 는 전송/편집 입력의 최대 길이다.
const MaxContentRunes = 100_000

// MessageID 는 백엔드가 숫자나 문자열로 보내는 메시지 ID 를 문자열로 보관한다.
type MessageID string

func (id *MessageID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = MessageID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = MessageID(n.String())
	return nil
}

func (id MessageID) String() string { return string(id) }

type Message struct {
	ID        MessageID `json:"id" swaggertype:"string" example:"42"`
	Role      string    `json:"role" example:"assistant"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"created_at" swaggertype:"string"`
	UpdatedAt Timestamp `json:"updated_at" swaggertype:"string"`
	IsPurged  bool      `json:"is_purged"`
}

// IsEdited 는 updated_at 이 created_at 과 다르면 참이다.
func (m Message) IsEdited() bool {
	return !m.UpdatedAt.Equal(m.CreatedAt)
}

// VisibleMessages 는 system 메시지만 빼고 순서를 그대로 유지한다.
func VisibleMessages(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}

// SendMessageRequestDTO 는 POST /api/{userId}/{chatId}/message 본문이다.
type SendMessageRequestDTO struct {
	UserID       string         `json:"user_id" example:"u1"`
	ClientType   string         `json:"client_type" example:"web"`
	Message      string         `json:"message" example:"hello"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// UpdateMessageRequestDTO 는 PUT /message/{id} 본문이다.
type UpdateMessageRequestDTO struct {
	Content string `json:"content"`
}

// ComposeRequestDTO 는 뷰어의 전송 폼/JSON 입력이다.
type ComposeRequestDTO struct {
	Message string `json:"message" form:"message"`
}

// EditRequestDTO 는 뷰어의 편집 저장 폼/JSON 입력이다.
type EditRequestDTO struct {
	Content string `json:"content" form:"content"`
}

// Validate 는 길이만 본다. 공백 메시지는 서비스에서 ErrEmptyMessage 로 거절된다.
func (r ComposeRequestDTO) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Message, validation.RuneLength(0, MaxContentRunes)),
	)
}

func (r EditRequestDTO) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Content, validation.RuneLength(0, MaxContentRunes)),
	)
}
