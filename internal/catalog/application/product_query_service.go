package application

import (
	"context"

	"github.com/wyfcoding/trainly/internal/catalog/domain"
	"github.com/wyfcoding/trainly/pkg/utils"
)

// ProductQueryService 商品查询服务
type ProductQueryService struct {
	repo domain.ProductRepository
}

// NewProductQueryService 创建商品查询服务实例
func NewProductQueryService(repo domain.ProductRepository) *ProductQueryService {
	return &ProductQueryService{repo: repo}
}

// GetProduct 获取在售商品
func (s *ProductQueryService) GetProduct(ctx context.Context, id uint64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// GetProductAny 管理端商品详情，含下架商品
func (s *ProductQueryService) GetProductAny(ctx context.Context, id uint64) (*domain.Product, error) {
	return s.repo.GetByIDAny(ctx, id)
}

// ListProducts 在售商品列表，可按分类过滤
func (s *ProductQueryService) ListProducts(ctx context.Context, category string) ([]*domain.Product, error) {
	return s.repo.ListAvailable(ctx, category)
}

// ListAllProducts 管理端分页列表，含下架商品
func (s *ProductQueryService) ListAllProducts(ctx context.Context, page, pageSize int) ([]*domain.Product, *utils.Pagination, error) {
	pagination := utils.NewPagination(page, pageSize, 0)
	products, total, err := s.repo.ListAll(ctx, pagination.Offset(), pagination.Limit())
	if err != nil {
		return nil, nil, err
	}
	return products, utils.NewPagination(page, pageSize, total), nil
}

// GetPricedRefs 批量定价视图，购物车与结算使用
func (s *ProductQueryService) GetPricedRefs(ctx context.Context, ids []uint64) (map[uint64]domain.PricedRef, error) {
	return s.repo.GetPricedRefs(ctx, ids)
}

// ExistingIDs 批量存在性检查，结算用于识别悬挂引用
func (s *ProductQueryService) ExistingIDs(ctx context.Context, ids []uint64) (map[uint64]bool, error) {
	return s.repo.ExistingIDs(ctx, ids)
}
