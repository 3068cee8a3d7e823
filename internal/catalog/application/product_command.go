// Package application 商品目录应用服务
package application

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/trainly/internal/catalog/domain"
	"github.com/wyfcoding/trainly/pkg/logger"
)

// CreateProductCommand 创建商品命令
type CreateProductCommand struct {
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	ImageURL    string
}

// UpdateProductCommand 更新商品命令
type UpdateProductCommand struct {
	ID          uint64
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	ImageURL    string
	Available   bool
}

// ProductCommandService 商品命令服务（管理端）
type ProductCommandService struct {
	repo domain.ProductRepository
}

// NewProductCommandService 创建商品命令服务实例
func NewProductCommandService(repo domain.ProductRepository) *ProductCommandService {
	return &ProductCommandService{repo: repo}
}

// CreateProduct 创建商品
func (s *ProductCommandService) CreateProduct(ctx context.Context, cmd CreateProductCommand) (*domain.Product, error) {
	product := &domain.Product{
		Name:        cmd.Name,
		Description: cmd.Description,
		Category:    cmd.Category,
		Price:       cmd.Price.Round(2),
		ImageURL:    cmd.ImageURL,
		Available:   true,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		logger.Error(ctx, "Failed to create product", "name", cmd.Name, "error", err)
		return nil, err
	}

	logger.Info(ctx, "Product created", "product_id", product.ID, "name", product.Name)
	return product, nil
}

// UpdateProduct 更新商品
func (s *ProductCommandService) UpdateProduct(ctx context.Context, cmd UpdateProductCommand) error {
	product := &domain.Product{
		ID:          cmd.ID,
		Name:        cmd.Name,
		Description: cmd.Description,
		Category:    cmd.Category,
		Price:       cmd.Price.Round(2),
		ImageURL:    cmd.ImageURL,
		Available:   cmd.Available,
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return err
	}

	logger.Info(ctx, "Product updated", "product_id", cmd.ID)
	return nil
}

// DeleteProduct 下架商品，历史购物车行与订单快照不受影响
func (s *ProductCommandService) DeleteProduct(ctx context.Context, id uint64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	logger.Info(ctx, "Product soft deleted", "product_id", id)
	return nil
}
