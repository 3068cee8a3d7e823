package application

import "github.com/wyfcoding/trainly/internal/order/domain"

// OrderService 订单台账门面，聚合命令与查询服务
type OrderService struct {
	*OrderCommandService
	*OrderQueryService
}

// NewOrderService 创建订单台账门面
func NewOrderService(repo domain.OrderRepository, publisher domain.EventPublisher) *OrderService {
	return &OrderService{
		OrderCommandService: NewOrderCommandService(repo, publisher),
		OrderQueryService:   NewOrderQueryService(repo),
	}
}
