package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wyfcoding/trainly/pkg/logger"
	"github.com/wyfcoding/trainly/pkg/metrics"
	"github.com/wyfcoding/trainly/pkg/mq"
	"github.com/wyfcoding/trainly/pkg/utils"
)

const (
	orderEventsTopic = "order-events"
	relayBatchSize   = 100
	cleanupAfter     = 24 * time.Hour
)

// OutboxRelay 后台中继：轮询 outbox 表，把待投递消息发到 Kafka
type OutboxRelay struct {
	publisher *OutboxEventPublisher
	producer  *mq.KafkaProducer
	metrics   *metrics.Metrics
	interval  time.Duration
}

// NewOutboxRelay 创建 outbox 中继
func NewOutboxRelay(publisher *OutboxEventPublisher, producer *mq.KafkaProducer, m *metrics.Metrics, interval time.Duration) *OutboxRelay {
	return &OutboxRelay{
		publisher: publisher,
		producer:  producer,
		metrics:   m,
		interval:  interval,
	}
}

// Run 阻塞运行直到 context 取消
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	logger.Info(ctx, "Outbox relay started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Outbox relay stopped")
			return
		case <-ticker.C:
			r.drain(ctx)
		}
	}
}

func (r *OutboxRelay) drain(ctx context.Context) {
	messages, err := r.publisher.FetchPending(ctx, relayBatchSize)
	if err != nil {
		logger.Error(ctx, "Failed to fetch pending outbox messages", "error", err)
		return
	}

	for _, msg := range messages {
		payload := map[string]any{
			"event_type":  msg.EventType,
			"payload":     json.RawMessage(msg.Payload),
			"occurred_at": msg.CreatedAt,
		}

		err := utils.RetryWithBackoff(3, 100*time.Millisecond, time.Second, func() error {
			return r.producer.SendMessage(ctx, orderEventsTopic, msg.Key, payload)
		})
		if err != nil {
			// 留在 pending，下一轮重试
			r.metrics.OutboxPublishFail.Inc()
			logger.Error(ctx, "Failed to publish outbox message", "message_id", msg.ID, "error", err)
			continue
		}

		if err := r.publisher.MarkSent(ctx, msg.ID); err != nil {
			logger.Error(ctx, "Failed to mark outbox message sent", "message_id", msg.ID, "error", err)
			continue
		}
		r.metrics.OutboxPublished.Inc()
	}

	if err := r.publisher.CleanupSent(ctx, time.Now().Add(-cleanupAfter)); err != nil {
		logger.Warn(ctx, "Failed to cleanup sent outbox messages", "error", err)
	}
}
