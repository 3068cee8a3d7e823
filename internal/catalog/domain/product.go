// Package domain 商品目录领域模型
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrProductNotFound 商品不存在或已下架
var ErrProductNotFound = errors.New("product not found")

// Product 商品实体，价格为两位小数定点数
type Product struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Category    string          `gorm:"type:varchar(64);index" json:"category"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	ImageURL    string          `gorm:"type:varchar(512)" json:"image_url"`
	// 下架商品保留行，所有面向用户的读取均过滤
	Available bool      `gorm:"not null;default:true;index" json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// PricedRef 购物车与结算消费的定价视图
type PricedRef struct {
	ProductID uint64
	Name      string
	UnitPrice decimal.Decimal
}
