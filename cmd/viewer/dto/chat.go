package dto

import (
	"strings"
)

const shortIDLength = 8

// Chat 은 GET /chats/{userId} 가 돌려주는 대화 요약이다. 백엔드가 소유하며 뷰어는 사본만 들고 있다.
type Chat struct {
	ChatID            string    `json:"chat_id" example:"abc123"`
	UserID            string    `json:"user_id" example:"u1"`
	Model             string    `json:"model" example:"org/modelA"`
	StartedAt         Timestamp `json:"started_at" swaggertype:"string" example:"2024-01-01T00:00:00Z"`
	LatestMessageTime Timestamp `json:"latest_message_time" swaggertype:"string" example:"2024-01-01T00:00:00Z"`
	MessageCount      int       `json:"message_count" example:"2"`
}

// ShortID 는 목록에 표시하는 앞 8글자 ID 다.
func (c Chat) ShortID() string {
	return ShortID(c.ChatID)
}

// ModelName 은 "namespace/name" 에서 마지막 세그먼트만 돌려준다.
func (c Chat) ModelName() string {
	return ModelName(c.Model)
}

func ShortID(id string) string {
	rs := []rune(id)
	if len(rs) <= shortIDLength {
		return id
	}
	return string(rs[:shortIDLength])
}

func ModelName(model string) string {
	if i := strings.LastIndex(model, "/"); i >= 0 {
		return model[i+1:]
	}
	return model
}
