package payment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/wyfcoding/trainly/internal/checkout/domain"
	"github.com/wyfcoding/trainly/pkg/logger"
)

// Config 支付边界配置
type Config struct {
	// 单次扣款超时
	ChargeTimeout time.Duration
	// 瞬时失败最大重试次数（不含首次）
	MaxRetries int
	// 重试退避
	RetryBackoff time.Duration
}

// ResilientGateway 给任意网关加上超时、熔断与有界重试。
// 明确拒绝（ErrPaymentDeclined）立即返回，绝不重试；
// 只有瞬时故障（超时、网络错误）才消耗重试额度。
type ResilientGateway struct {
	inner   domain.PaymentGateway
	breaker *gobreaker.CircuitBreaker
	cfg     Config
}

// NewResilientGateway 创建弹性网关装饰器
func NewResilientGateway(inner domain.PaymentGateway, cfg Config) *ResilientGateway {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// 拒绝是网关的正常业务响应，不计为通道故障
			return err == nil || errors.Is(err, domain.ErrPaymentDeclined)
		},
	})

	return &ResilientGateway{
		inner:   inner,
		breaker: breaker,
		cfg:     cfg,
	}
}

// Charge 执行扣款
func (g *ResilientGateway) Charge(ctx context.Context, amount decimal.Decimal, method string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			logger.Warn(ctx, "Retrying payment charge", "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(g.cfg.RetryBackoff):
			}
		}

		ref, err := g.chargeOnce(ctx, amount, method)
		if err == nil {
			return ref, nil
		}
		if errors.Is(err, domain.ErrPaymentDeclined) {
			return "", err
		}
		lastErr = err
	}

	logger.Error(ctx, "Payment charge exhausted retries", "error", lastErr)
	return "", domain.ErrPaymentUnavailable
}

func (g *ResilientGateway) chargeOnce(ctx context.Context, amount decimal.Decimal, method string) (string, error) {
	chargeCtx, cancel := context.WithTimeout(ctx, g.cfg.ChargeTimeout)
	defer cancel()

	ref, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.Charge(chargeCtx, amount, method)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", domain.ErrPaymentUnavailable
		}
		return "", err
	}
	return ref.(string), nil
}
