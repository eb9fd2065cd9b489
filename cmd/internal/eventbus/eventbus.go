package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Topic은 토픽 이름을 감싼다.
type Topic struct {
	base string
}

func NewTopic(base string) Topic {
	return Topic{base: base}
}

func (t Topic) Base() string {
	return t.base
}

// Event는 Kafka 메시지의 페이로드로 사용되는 구조체입니다.
// Key 는 파티션 키로만 쓰이고 직렬화되지 않는다. 비어 있으면 ID 를 쓴다.
type Event struct {
	ID      string          `json:"id"`
	Key     string          `json:"-"`
	Payload json.RawMessage `json:"payload"`
}

func (e Event) partitionKey() []byte {
	if e.Key != "" {
		return []byte(e.Key)
	}
	return []byte(e.ID)
}

// EventBus 는 뷰어가 사용하는 발행 전용 추상화다.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	Close()
}

// NewJSONEvent 는 payload를 JSON으로 인코딩하여 Event를 구성한다.
// id가 빈 문자열이면 UUID를 생성한다.
func NewJSONEvent(id string, payload any) (Event, error) {
	if id == "" {
		id = uuid.NewString()
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("payload marshal 실패: %w", err)
	}
	return Event{ID: id, Payload: b}, nil
}

// DecodeJSON은 Event.Payload를 제네릭 타입으로 언마샬합니다.
func DecodeJSON[T any](evt Event) (T, error) {
	var out T
	if err := json.Unmarshal(evt.Payload, &out); err != nil {
		var zero T
		return zero, fmt.Errorf("payload unmarshal 실패: %w", err)
	}
	return out, nil
}

// NoopEventBus 는 events.enabled=false 일 때 쓰는 구현체다. 발행된 이벤트는 버려진다.
type NoopEventBus struct{}

func (NoopEventBus) Publish(context.Context, string, Event) error { return nil }
func (NoopEventBus) Close()                                       {}
