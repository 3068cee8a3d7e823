// Package notification 订单事件通知
// 消费 order-events 主题，向买家派发订单确认与状态变更通知。
// 当前实现模拟邮件网关，只记录派发日志。
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/wyfcoding/trainly/internal/order/domain"
	"github.com/wyfcoding/trainly/pkg/logger"
	"github.com/wyfcoding/trainly/pkg/mq"
)

// eventEnvelope 与 outbox relay 的出站格式对应
type eventEnvelope struct {
	EventType  string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Listener 订单事件监听器
type Listener struct {
	consumer *mq.KafkaConsumer
}

// NewListener 创建订单事件监听器实例
func NewListener(consumer *mq.KafkaConsumer) *Listener {
	return &Listener{consumer: consumer}
}

// Run 消费循环，ctx 取消后退出
func (l *Listener) Run(ctx context.Context) {
	logger.Info(ctx, "Notification listener started")
	for {
		msg, err := l.consumer.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				logger.Info(ctx, "Notification listener stopped")
				return
			}
			logger.Warn(ctx, "Failed to read order event", "error", err)
			continue
		}
		l.handle(ctx, msg)
	}
}

func (l *Listener) handle(ctx context.Context, msg *mq.Message) {
	var envelope eventEnvelope
	if err := msg.UnmarshalPayload(&envelope); err != nil {
		logger.Warn(ctx, "Failed to decode order event", "offset", msg.Offset, "error", err)
		return
	}

	switch envelope.EventType {
	case "order.created":
		var event domain.OrderCreatedEvent
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			logger.Warn(ctx, "Failed to decode order.created payload", "error", err)
			return
		}
		// 模拟邮件网关：真实实现在这里调用邮件服务
		logger.Info(ctx, "Order confirmation dispatched",
			"order_no", event.OrderNo,
			"user_id", event.UserID,
			"total", event.Total.String(),
		)
	case "order.status.changed":
		var event domain.OrderStatusChangedEvent
		if err := json.Unmarshal(envelope.Payload, &event); err != nil {
			logger.Warn(ctx, "Failed to decode order.status.changed payload", "error", err)
			return
		}
		logger.Info(ctx, "Order status notification dispatched",
			"order_no", event.OrderNo,
			"old_status", event.OldStatus,
			"new_status", event.NewStatus,
		)
	default:
		logger.Debug(ctx, "Ignoring unknown order event", "event_type", envelope.EventType)
	}
}
