package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderCreatedEvent 订单创建事件
type OrderCreatedEvent struct {
	OrderNo   string          `json:"order_no"`
	UserID    string          `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	LineCount int             `json:"line_count"`
	Timestamp time.Time       `json:"timestamp"`
}

// OrderStatusChangedEvent 订单状态变更事件
type OrderStatusChangedEvent struct {
	OrderNo   string    `json:"order_no"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	Timestamp time.Time `json:"timestamp"`
}
