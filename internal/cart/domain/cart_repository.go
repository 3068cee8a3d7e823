package domain

import (
	"context"

	catalogdomain "github.com/wyfcoding/trainly/internal/catalog/domain"
)

// CartRepository 购物车仓储接口
type CartRepository interface {
	// AddQuantity 原子累加加购：行不存在则插入，存在则 quantity = quantity + qty。
	// 并发加购不丢失累加。
	AddQuantity(ctx context.Context, userID string, productID uint64, qty int) error
	// SetQuantity 绝对覆盖数量，调用方保证 qty > 0
	SetQuantity(ctx context.Context, userID string, productID uint64, qty int) error
	// Remove 删除单行，幂等
	Remove(ctx context.Context, userID string, productID uint64) error
	// Clear 清空用户购物车，幂等
	Clear(ctx context.Context, userID string) error
	// RemoveLines 删除指定商品对应的行（结算后清除已购行）
	RemoveLines(ctx context.Context, userID string, productIDs []uint64) error
	GetLines(ctx context.Context, userID string) ([]*CartLine, error)
}

// ProductCatalog 购物车消费的目录定价能力
type ProductCatalog interface {
	GetPricedRefs(ctx context.Context, ids []uint64) (map[uint64]catalogdomain.PricedRef, error)
}

// EventPublisher 购物车事件发布接口，失败不阻断业务
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, key string, payload any) error
}
