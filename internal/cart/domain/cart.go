// Package domain 购物车领域模型
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuantity 数量必须为正整数
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	// ErrInvalidReference 商品不存在或已下架，无法定价
	ErrInvalidReference = errors.New("product cannot be priced")
)

// CartLine 购物车行，(user_id, product_id) 唯一。
// 数量恒为正：加购走原子累加，置零即删除行。
type CartLine struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"type:varchar(64);not null;uniqueIndex:uk_user_product,priority:1"`
	ProductID uint64    `gorm:"not null;uniqueIndex:uk_user_product,priority:2"`
	Quantity  int       `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 指定表名
func (CartLine) TableName() string {
	return "cart_lines"
}

// PricedLine 购物车定价视图的一行，价格来自目录当前价
type PricedLine struct {
	ProductID uint64          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// PricedCart 购物车定价视图
type PricedCart struct {
	Lines []PricedLine    `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// MergePair 本地购物车合并请求中的一对 (商品, 数量)
type MergePair struct {
	ProductID uint64 `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// MergeFailure 合并中单对失败的记录，其余对不受影响
type MergeFailure struct {
	ProductID uint64 `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
}

// MergeReport 合并结果汇总
type MergeReport struct {
	Merged   int            `json:"merged"`
	Failures []MergeFailure `json:"failures"`
}
