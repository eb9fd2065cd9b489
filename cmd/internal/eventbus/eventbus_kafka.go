package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"chat-viewer/cmd/internal/logger"
)

const (
	flushTimeout      = 5 * time.Second
	topicAdminTimeout = 30 * time.Second

	headerEventID = "event_id"
)

var ErrBusClosed = errors.New("eventbus: closed")

// KafkaEventBus 는 메시지 이벤트를 Kafka 로 발행한다. 구독은 하지 않는다.
type KafkaEventBus struct {
	producer *kafka.Producer
	brokers  string

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// producerConfig 는 발행 전용 프로듀서 설정이다. KAFKA_MESSAGE_MAX_BYTES 가 있으면 반영한다.
func producerConfig(brokers string) *kafka.ConfigMap {
	cfg := kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"acks":               "all",
		"retries":            5,
		"enable.idempotence": true,
	}
	if n := getKafkaMessageMaxBytesFromEnv(); n > 0 {
		cfg["message.max.bytes"] = n
	}
	return &cfg
}

func NewKafkaEventBus(brokers string) (*KafkaEventBus, error) {
	p, err := kafka.NewProducer(producerConfig(brokers))
	if err != nil {
		return nil, fmt.Errorf("kafka producer 생성 실패: %w", err)
	}
	go logProducerEvents(p.Events())
	return &KafkaEventBus{producer: p, brokers: brokers}, nil
}

// logProducerEvents 는 전달 보고 채널을 지정하지 않은 메시지와 클라이언트 오류를 로그로 남긴다.
func logProducerEvents(events <-chan kafka.Event) {
	for e := range events {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				logger.ErrorWithFields("kafka delivery failed", logger.Fields{
					"partition": ev.TopicPartition.String(),
					"error":     ev.TopicPartition.Error.Error(),
				})
			}
		case kafka.Error:
			logger.ErrorWithFields("kafka client error", logger.Fields{"code": ev.Code().String(), "error": ev.Error()})
		}
	}
}

// Close 는 남은 메시지를 플러시하고 프로듀서를 닫는다. 여러 번 불러도 된다.
func (k *KafkaEventBus) Close() {
	k.closeOnce.Do(func() {
		k.mu.Lock()
		k.closed = true
		k.mu.Unlock()

		if remaining := k.producer.Flush(int(flushTimeout.Milliseconds())); remaining > 0 {
			logger.WarnWithFields("kafka flush incomplete", logger.Fields{"remaining": remaining})
		}
		k.producer.Close()
		logger.InfoWithFields("kafka producer closed", logger.Fields{"brokers": k.brokers})
	})
}

func (k *KafkaEventBus) Publish(ctx context.Context, topic string, event Event) error {
	msg, err := newMessage(topic, event)
	if err != nil {
		return err
	}

	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.closed {
		return ErrBusClosed
	}

	// 버퍼 1: ctx 로 먼저 빠져나가도 전달 보고가 막히지 않는다.
	delivered := make(chan kafka.Event, 1)
	if err := k.producer.Produce(msg, delivered); err != nil {
		return fmt.Errorf("eventbus: produce %s: %w", topic, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case ev := <-delivered:
		m, ok := ev.(*kafka.Message)
		if !ok {
			return fmt.Errorf("eventbus: unexpected delivery event %v", ev)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("eventbus: deliver %s: %w", topic, m.TopicPartition.Error)
		}
		return nil
	}
}

func newMessage(topic string, event Event) (*kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("eventbus: marshal event %s: %w", event.ID, err)
	}
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            event.partitionKey(),
		Value:          data,
		Headers:        []kafka.Header{{Key: headerEventID, Value: []byte(event.ID)}},
	}, nil
}

// EnsureTopic 은 토픽을 만든다. 이미 있으면 성공이다.
func EnsureTopic(ctx context.Context, brokers string, topic Topic, partitions int) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{"bootstrap.servers": brokers})
	if err != nil {
		return fmt.Errorf("kafka admin client 생성 실패: %w", err)
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(ctx, topicAdminTimeout)
	defer cancel()

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{{
		Topic:             topic.Base(),
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	}})
	if err != nil {
		return fmt.Errorf("토픽 생성 요청 실패: %w", err)
	}
	for _, r := range results {
		switch r.Error.Code() {
		case kafka.ErrNoError, kafka.ErrTopicAlreadyExists:
		default:
			return fmt.Errorf("토픽 %s 생성 실패: %v", r.Topic, r.Error)
		}
	}
	return nil
}

func getKafkaMessageMaxBytesFromEnv() int {
	n, err := strconv.Atoi(os.Getenv("KAFKA_MESSAGE_MAX_BYTES"))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
