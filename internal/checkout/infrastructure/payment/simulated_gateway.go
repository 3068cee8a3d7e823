// Package payment 支付网关实现
package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/trainly/internal/checkout/domain"
	"github.com/wyfcoding/trainly/pkg/logger"
)

// SimulatedGateway 模拟支付网关：始终批准并返回 FAKE- 前缀的交易引用。
// 真实网关通过 PaymentGateway 接口替换，不触及编排层。
type SimulatedGateway struct{}

// NewSimulatedGateway 创建模拟网关
func NewSimulatedGateway() domain.PaymentGateway {
	return &SimulatedGateway{}
}

// Charge 模拟扣款
func (g *SimulatedGateway) Charge(ctx context.Context, amount decimal.Decimal, method string) (string, error) {
	ref := fmt.Sprintf("FAKE-%s", uuid.New().String())
	logger.Info(ctx, "Simulated payment approved", "amount", amount.String(), "method", method, "transaction_ref", ref)
	return ref, nil
}
