package application

import (
	"context"

	"github.com/wyfcoding/trainly/internal/order/domain"
	"github.com/wyfcoding/trainly/pkg/utils"
)

// DefaultHistoryLimit 用户订单历史默认条数
const DefaultHistoryLimit = 10

// OrderQueryService 订单查询服务
type OrderQueryService struct {
	repo domain.OrderRepository
}

// NewOrderQueryService 创建订单查询服务实例
func NewOrderQueryService(repo domain.OrderRepository) *OrderQueryService {
	return &OrderQueryService{repo: repo}
}

// GetOrder 按订单号读取订单。
// 非特权请求者只能读自己的订单；他人订单一律报不存在，内容不外泄。
func (s *OrderQueryService) GetOrder(ctx context.Context, orderNo, requesterID string, privileged bool) (*domain.Order, error) {
	order, err := s.repo.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if !privileged && order.UserID != requesterID {
		return nil, domain.ErrOrderNotFound
	}
	return order, nil
}

// ListOrders 用户订单历史，最新优先
func (s *OrderQueryService) ListOrders(ctx context.Context, userID string, limit int) ([]*domain.Order, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

// ListAllOrders 管理端全量订单，分页
func (s *OrderQueryService) ListAllOrders(ctx context.Context, page, pageSize int) ([]*domain.Order, *utils.Pagination, error) {
	pagination := utils.NewPagination(page, pageSize, 0)
	orders, total, err := s.repo.ListAll(ctx, pagination.Offset(), pagination.Limit())
	if err != nil {
		return nil, nil, err
	}
	return orders, utils.NewPagination(page, pageSize, total), nil
}
