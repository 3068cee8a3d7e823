// Package application 订单台账应用服务
package application

import (
	"context"
	"time"

	"github.com/wyfcoding/trainly/internal/order/domain"
	"github.com/wyfcoding/trainly/pkg/logger"
)

// UpdateStatusCommand 管理端订单状态变更命令
type UpdateStatusCommand struct {
	OrderNo string
	Status  string
}

// OrderCommandService 订单命令服务（管理端）。
// 结算流程只产生 confirmed 订单，pending/cancelled 仅由这里可达。
type OrderCommandService struct {
	repo      domain.OrderRepository
	publisher domain.EventPublisher
}

// NewOrderCommandService 创建订单命令服务实例
func NewOrderCommandService(repo domain.OrderRepository, publisher domain.EventPublisher) *OrderCommandService {
	return &OrderCommandService{repo: repo, publisher: publisher}
}

// UpdateStatus 变更订单状态，状态变更事件与写入同事务落 outbox
func (s *OrderCommandService) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) error {
	if !domain.ValidStatus(cmd.Status) {
		return domain.ErrInvalidStatus
	}

	order, err := s.repo.GetByOrderNo(ctx, cmd.OrderNo)
	if err != nil {
		return err
	}
	if order.Status == cmd.Status {
		return nil
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateStatus(txCtx, cmd.OrderNo, cmd.Status); err != nil {
			return err
		}
		return s.publisher.PublishInTx(txCtx, "order.status.changed", order.UserID, domain.OrderStatusChangedEvent{
			OrderNo:   cmd.OrderNo,
			OldStatus: order.Status,
			NewStatus: cmd.Status,
			Timestamp: time.Now(),
		})
	})
	if err != nil {
		logger.Error(ctx, "Failed to update order status", "order_no", cmd.OrderNo, "status", cmd.Status, "error", err)
		return err
	}

	logger.Info(ctx, "Order status updated", "order_no", cmd.OrderNo, "old_status", order.Status, "new_status", cmd.Status)
	return nil
}
