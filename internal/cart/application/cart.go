package application

import (
	"github.com/wyfcoding/trainly/internal/cart/domain"
	"github.com/wyfcoding/trainly/pkg/metrics"
)

// CartService 购物车门面，聚合命令与查询服务
type CartService struct {
	*CartCommandService
	*CartQueryService
}

// NewCartService 创建购物车门面
func NewCartService(
	repo domain.CartRepository,
	catalog domain.ProductCatalog,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
) *CartService {
	return &CartService{
		CartCommandService: NewCartCommandService(repo, catalog, publisher, m),
		CartQueryService:   NewCartQueryService(repo, catalog),
	}
}
