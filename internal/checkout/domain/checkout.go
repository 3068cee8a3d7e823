// Package domain 结算编排领域模型
package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/wyfcoding/trainly/internal/catalog/domain"
)

// TaxRate 增值税率 22%
var TaxRate = decimal.NewFromFloat(0.22)

var (
	// ErrEmptyCart 购物车为空（或只剩隐藏行），没有可结算的内容
	ErrEmptyCart = errors.New("cart is empty")
	// ErrPricingMismatch 购物车行引用的商品已无法定价（目录行已消失）
	ErrPricingMismatch = errors.New("cart line references a product that cannot be priced")
	// ErrPaymentDeclined 支付被明确拒绝，不重试
	ErrPaymentDeclined = errors.New("payment declined")
	// ErrPaymentUnavailable 支付通道暂不可用（超时、熔断开启等瞬时故障）
	ErrPaymentUnavailable = errors.New("payment gateway unavailable")
)

// PaymentGateway 支付能力接口。
// 成功返回网关交易引用；明确拒绝返回 ErrPaymentDeclined，其余错误视为瞬时故障。
type PaymentGateway interface {
	Charge(ctx context.Context, amount decimal.Decimal, method string) (string, error)
}

// Catalog 结算消费的目录能力：定价在售商品，并识别悬挂引用
type Catalog interface {
	GetPricedRefs(ctx context.Context, ids []uint64) (map[uint64]catalogdomain.PricedRef, error)
	ExistingIDs(ctx context.Context, ids []uint64) (map[uint64]bool, error)
}

// Totals 结算金额，逐步两位小数定点
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Taxes    decimal.Decimal `json:"taxes"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals 由行小计求总额：taxes = round2(subtotal × 0.22)
func ComputeTotals(subtotal decimal.Decimal) Totals {
	taxes := subtotal.Mul(TaxRate).Round(2)
	return Totals{
		Subtotal: subtotal,
		Taxes:    taxes,
		Total:    subtotal.Add(taxes),
	}
}
