// Package messaging 购物车事件的 Kafka 发布
package messaging

import (
	"context"
	"time"

	"github.com/wyfcoding/trainly/internal/cart/domain"
	"github.com/wyfcoding/trainly/pkg/logger"
	"github.com/wyfcoding/trainly/pkg/mq"
)

const cartEventsTopic = "cart-events"

// eventEnvelope 事件信封
type eventEnvelope struct {
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// KafkaEventPublisher 购物车事件发布器。
// 购物车事件是通知性质的，发布失败只记日志，不回滚写入。
type KafkaEventPublisher struct {
	producer *mq.KafkaProducer
}

// NewKafkaEventPublisher 创建事件发布器
func NewKafkaEventPublisher(producer *mq.KafkaProducer) domain.EventPublisher {
	return &KafkaEventPublisher{producer: producer}
}

// Publish 发布事件，key 为用户 ID 保证同一用户事件有序
func (p *KafkaEventPublisher) Publish(ctx context.Context, eventType string, key string, payload any) error {
	envelope := eventEnvelope{
		EventType:  eventType,
		OccurredAt: time.Now(),
		Payload:    payload,
	}
	if err := p.producer.SendMessage(ctx, cartEventsTopic, key, envelope); err != nil {
		logger.Warn(ctx, "Failed to publish cart event", "event_type", eventType, "key", key, "error", err)
		return err
	}
	return nil
}
