// Package messaging 订单事件的事务性 outbox
package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/trainly/internal/order/domain"
	"github.com/wyfcoding/trainly/pkg/contextx"
	"gorm.io/gorm"
)

// OutboxMessage 待投递的事件记录，与业务写入同事务落库
type OutboxMessage struct {
	ID        string    `gorm:"type:varchar(36);primaryKey"`
	EventType string    `gorm:"type:varchar(100);index"`
	Key       string    `gorm:"type:varchar(64)"`
	Payload   string    `gorm:"type:text"`
	Status    string    `gorm:"type:varchar(20);index;default:'pending'"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName 指定表名
func (OutboxMessage) TableName() string {
	return "order_outbox_messages"
}

// OutboxEventPublisher 实现 EventPublisher 接口，使用 Outbox 模式
type OutboxEventPublisher struct {
	db *gorm.DB
}

// NewOutboxEventPublisher 创建 OutboxEventPublisher 实例
func NewOutboxEventPublisher(db *gorm.DB) *OutboxEventPublisher {
	return &OutboxEventPublisher{db: db}
}

// PublishInTx 将事件写入 outbox 表。
// 若 context 携带事务则加入该事务：事件与订单写入一起提交或一起回滚。
func (p *OutboxEventPublisher) PublishInTx(ctx context.Context, eventType string, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	message := OutboxMessage{
		ID:        uuid.New().String(),
		EventType: eventType,
		Key:       key,
		Payload:   string(data),
		Status:    "pending",
	}
	return p.getDB(ctx).WithContext(ctx).Create(&message).Error
}

// FetchPending 读取待投递消息
func (p *OutboxEventPublisher) FetchPending(ctx context.Context, batchSize int) ([]OutboxMessage, error) {
	var messages []OutboxMessage
	err := p.db.WithContext(ctx).
		Where("status = ?", "pending").
		Order("created_at ASC").
		Limit(batchSize).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkSent 标记消息已投递
func (p *OutboxEventPublisher) MarkSent(ctx context.Context, id string) error {
	return p.db.WithContext(ctx).
		Model(&OutboxMessage{}).
		Where("id = ?", id).
		Update("status", "sent").Error
}

// CleanupSent 清理已投递的历史消息
func (p *OutboxEventPublisher) CleanupSent(ctx context.Context, before time.Time) error {
	return p.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", "sent", before).
		Delete(&OutboxMessage{}).Error
}

func (p *OutboxEventPublisher) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return p.db
}

var _ domain.EventPublisher = (*OutboxEventPublisher)(nil)
