package domain

import "context"

// ProductRepository 商品仓储接口
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	Update(ctx context.Context, product *Product) error
	// SoftDelete 下架商品，行保留
	SoftDelete(ctx context.Context, id uint64) error
	// GetByID 仅返回在售商品，未找到时返回 ErrProductNotFound
	GetByID(ctx context.Context, id uint64) (*Product, error)
	// GetByIDAny 管理端读取，不过滤下架商品
	GetByIDAny(ctx context.Context, id uint64) (*Product, error)
	// ListAvailable 在售商品列表，最新优先
	ListAvailable(ctx context.Context, category string) ([]*Product, error)
	ListAll(ctx context.Context, offset, limit int) ([]*Product, int64, error)
	// GetPricedRefs 批量定价视图，只含在售商品
	GetPricedRefs(ctx context.Context, ids []uint64) (map[uint64]PricedRef, error)
	// ExistingIDs 批量存在性检查，不过滤下架商品。
	// 区分“下架”（行在）与“悬挂引用”（行不在）
	ExistingIDs(ctx context.Context, ids []uint64) (map[uint64]bool, error)
}
