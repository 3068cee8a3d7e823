package application

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/trainly/internal/cart/domain"
)

// CartQueryService 购物车查询服务
type CartQueryService struct {
	repo    domain.CartRepository
	catalog domain.ProductCatalog
}

// NewCartQueryService 创建购物车查询服务实例
func NewCartQueryService(repo domain.CartRepository, catalog domain.ProductCatalog) *CartQueryService {
	return &CartQueryService{repo: repo, catalog: catalog}
}

// GetPricedLines 购物车定价视图。
// 价格取目录当前价；已下架或已消失的商品行从视图中隐藏，行本身保留，
// 商品恢复在售后原数量重新出现。
func (s *CartQueryService) GetPricedLines(ctx context.Context, userID string) (*domain.PricedCart, error) {
	lines, err := s.repo.GetLines(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	refs, err := s.catalog.GetPricedRefs(ctx, ids)
	if err != nil {
		return nil, err
	}

	cart := &domain.PricedCart{
		Lines: []domain.PricedLine{},
		Total: decimal.Zero,
	}
	for _, line := range lines {
		ref, ok := refs[line.ProductID]
		if !ok {
			continue
		}

		subtotal := ref.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		cart.Lines = append(cart.Lines, domain.PricedLine{
			ProductID: line.ProductID,
			Name:      ref.Name,
			UnitPrice: ref.UnitPrice,
			Quantity:  line.Quantity,
			Subtotal:  subtotal,
		})
		cart.Total = cart.Total.Add(subtotal)
	}
	return cart, nil
}
