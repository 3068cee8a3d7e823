// Package application 结算编排
package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	cartdomain "github.com/wyfcoding/trainly/internal/cart/domain"
	"github.com/wyfcoding/trainly/internal/checkout/domain"
	orderdomain "github.com/wyfcoding/trainly/internal/order/domain"
	"github.com/wyfcoding/trainly/pkg/idgen"
	"github.com/wyfcoding/trainly/pkg/logger"
	"github.com/wyfcoding/trainly/pkg/metrics"
)

// CheckoutCommand 结算命令
type CheckoutCommand struct {
	UserID          string
	ShippingName    string
	ShippingAddress string
	ShippingCity    string
	ShippingZip     string
	ContactEmail    string
	ContactPhone    string
	PaymentMethod   string
}

// CheckoutResult 结算结果
type CheckoutResult struct {
	OrderNo string          `json:"order_no"`
	Totals  domain.Totals   `json:"totals"`
	Lines   int             `json:"lines"`
	Amount  decimal.Decimal `json:"amount"`
}

// pricedLine 结算内部的定价行
type pricedLine struct {
	productID   uint64
	productName string
	unitPrice   decimal.Decimal
	quantity    int
	subtotal    decimal.Decimal
}

// CheckoutService 结算编排服务。
// 每个用户的结算全程持有互斥锁：同一购物车的并发结算最多产生一个订单，
// 后到者看到空购物车。订单、订单行、支付记录、已购行清除与 outbox 事件
// 在同一数据库事务中提交，任一写入失败整体回滚。
type CheckoutService struct {
	cartRepo  cartdomain.CartRepository
	catalog   domain.Catalog
	orderRepo orderdomain.OrderRepository
	publisher orderdomain.EventPublisher
	gateway   domain.PaymentGateway
	metrics   *metrics.Metrics

	// 每用户一把锁
	userLocks sync.Map
}

// NewCheckoutService 创建结算编排服务实例
func NewCheckoutService(
	cartRepo cartdomain.CartRepository,
	catalog domain.Catalog,
	orderRepo orderdomain.OrderRepository,
	publisher orderdomain.EventPublisher,
	gateway domain.PaymentGateway,
	m *metrics.Metrics,
) *CheckoutService {
	return &CheckoutService{
		cartRepo:  cartRepo,
		catalog:   catalog,
		orderRepo: orderRepo,
		publisher: publisher,
		gateway:   gateway,
		metrics:   m,
	}
}

// Checkout 执行结算
func (s *CheckoutService) Checkout(ctx context.Context, cmd CheckoutCommand) (*CheckoutResult, error) {
	lock := s.lockFor(cmd.UserID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	defer func() {
		s.metrics.CheckoutDuration.Observe(time.Since(start).Seconds())
	}()

	priced, err := s.priceCart(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, line := range priced {
		subtotal = subtotal.Add(line.subtotal)
	}
	totals := domain.ComputeTotals(subtotal)

	transactionRef, err := s.gateway.Charge(ctx, totals.Total, cmd.PaymentMethod)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentDeclined) {
			s.metrics.PaymentsDeclined.Inc()
		}
		logger.Warn(ctx, "Checkout payment failed", "user_id", cmd.UserID, "error", err)
		return nil, err
	}
	s.metrics.PaymentsApproved.Inc()

	orderNo := "ORD-" + idgen.GenIDString()
	order := &orderdomain.Order{
		OrderNo:         orderNo,
		UserID:          cmd.UserID,
		Status:          orderdomain.StatusConfirmed,
		Subtotal:        totals.Subtotal,
		Taxes:           totals.Taxes,
		Total:           totals.Total,
		ShippingName:    cmd.ShippingName,
		ShippingAddress: cmd.ShippingAddress,
		ShippingCity:    cmd.ShippingCity,
		ShippingZip:     cmd.ShippingZip,
		ContactEmail:    cmd.ContactEmail,
		ContactPhone:    cmd.ContactPhone,
	}

	purchasedIDs := make([]uint64, 0, len(priced))
	for _, line := range priced {
		order.Lines = append(order.Lines, orderdomain.OrderLine{
			ProductID:   line.productID,
			ProductName: line.productName,
			UnitPrice:   line.unitPrice,
			Quantity:    line.quantity,
		})
		purchasedIDs = append(purchasedIDs, line.productID)
	}

	err = s.orderRepo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.orderRepo.Create(txCtx, order); err != nil {
			return err
		}
		if err := s.orderRepo.CreatePayment(txCtx, &orderdomain.Payment{
			OrderID:        order.ID,
			UserID:         cmd.UserID,
			Amount:         totals.Total,
			Method:         cmd.PaymentMethod,
			Status:         "completed",
			TransactionRef: transactionRef,
		}); err != nil {
			return err
		}
		// 只清除本次快照到订单的行；隐藏行保留，商品恢复在售后重新出现
		if err := s.cartRepo.RemoveLines(txCtx, cmd.UserID, purchasedIDs); err != nil {
			return err
		}
		return s.publisher.PublishInTx(txCtx, "order.created", cmd.UserID, orderdomain.OrderCreatedEvent{
			OrderNo:   orderNo,
			UserID:    cmd.UserID,
			Total:     totals.Total,
			LineCount: len(order.Lines),
			Timestamp: time.Now(),
		})
	})
	if err != nil {
		logger.Error(ctx, "Checkout persistence failed, transaction rolled back", "user_id", cmd.UserID, "error", err)
		return nil, err
	}

	s.metrics.OrdersTotal.Inc()
	logger.Info(ctx, "Checkout completed",
		"user_id", cmd.UserID,
		"order_no", orderNo,
		"total", totals.Total.String(),
		"lines", len(order.Lines),
	)

	return &CheckoutResult{
		OrderNo: orderNo,
		Totals:  totals,
		Lines:   len(order.Lines),
		Amount:  totals.Total,
	}, nil
}

// priceCart 给购物车定价。
// 下架商品的行跳过且保留；目录行彻底消失的引用在任何写入前失败。
func (s *CheckoutService) priceCart(ctx context.Context, userID string) ([]pricedLine, error) {
	lines, err := s.cartRepo.GetLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	ids := make([]uint64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	refs, err := s.catalog.GetPricedRefs(ctx, ids)
	if err != nil {
		return nil, err
	}
	existing, err := s.catalog.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	priced := make([]pricedLine, 0, len(lines))
	for _, line := range lines {
		ref, ok := refs[line.ProductID]
		if !ok {
			if existing[line.ProductID] {
				// 下架但行仍在：跳过，不收费，不删除
				continue
			}
			return nil, domain.ErrPricingMismatch
		}

		priced = append(priced, pricedLine{
			productID:   line.ProductID,
			productName: ref.Name,
			unitPrice:   ref.UnitPrice,
			quantity:    line.Quantity,
			subtotal:    ref.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2),
		})
	}

	if len(priced) == 0 {
		return nil, domain.ErrEmptyCart
	}
	return priced, nil
}

func (s *CheckoutService) lockFor(userID string) *sync.Mutex {
	lock, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}
