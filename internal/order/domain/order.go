// Package domain 订单台账领域模型
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// 订单状态。结算只写 confirmed，pending/cancelled 仅管理端状态变更可达。
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

var (
	// ErrOrderNotFound 订单不存在，或请求者无权查看（对外不区分）
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidStatus 非法的订单状态
	ErrInvalidStatus = errors.New("invalid order status")
)

// ValidStatus 校验状态取值
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Order 订单。金额与行内单价在创建时冻结，之后不随目录变动。
type Order struct {
	ID       uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo  string          `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_no"`
	UserID   string          `gorm:"type:varchar(64);not null;index" json:"user_id"`
	Status   string          `gorm:"type:varchar(20);not null;index" json:"status"`
	Subtotal decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Taxes    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"taxes"`
	Total    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`

	ShippingName    string `gorm:"type:varchar(128)" json:"shipping_name"`
	ShippingAddress string `gorm:"type:varchar(255)" json:"shipping_address"`
	ShippingCity    string `gorm:"type:varchar(128)" json:"shipping_city"`
	ShippingZip     string `gorm:"type:varchar(16)" json:"shipping_zip"`
	ContactEmail    string `gorm:"type:varchar(255)" json:"contact_email"`
	ContactPhone    string `gorm:"type:varchar(32)" json:"contact_phone"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Lines   []OrderLine `gorm:"foreignKey:OrderID" json:"lines,omitempty"`
	Payment *Payment    `gorm:"foreignKey:OrderID" json:"payment,omitempty"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// OrderLine 订单行，商品名称与单价为下单时刻的快照
type OrderLine struct {
	ID          uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     uint64          `gorm:"not null;index" json:"order_id"`
	ProductID   uint64          `gorm:"not null" json:"product_id"`
	ProductName string          `gorm:"type:varchar(255);not null" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
}

// TableName 指定表名
func (OrderLine) TableName() string {
	return "order_lines"
}

// Payment 支付记录，每订单一条
type Payment struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        uint64          `gorm:"not null;uniqueIndex" json:"order_id"`
	UserID         string          `gorm:"type:varchar(64);not null;index" json:"user_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Method         string          `gorm:"type:varchar(32);not null" json:"method"`
	Status         string          `gorm:"type:varchar(20);not null" json:"status"`
	TransactionRef string          `gorm:"type:varchar(64);not null" json:"transaction_ref"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
