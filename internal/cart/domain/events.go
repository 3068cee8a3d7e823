package domain

import "time"

// CartLineAddedEvent 加购事件
type CartLineAddedEvent struct {
	UserID    string    `json:"user_id"`
	ProductID uint64    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

// CartLineRemovedEvent 删行事件
type CartLineRemovedEvent struct {
	UserID    string    `json:"user_id"`
	ProductID uint64    `json:"product_id"`
	Timestamp time.Time `json:"timestamp"`
}

// CartClearedEvent 清空事件
type CartClearedEvent struct {
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}
