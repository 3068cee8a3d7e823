package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/trainly/internal/catalog/domain"
	"github.com/wyfcoding/trainly/pkg/contextx"
	"gorm.io/gorm"
)

type productRepository struct{ db *gorm.DB }

// NewProductRepository 创建商品仓储实例
func NewProductRepository(db *gorm.DB) domain.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.getDB(ctx).WithContext(ctx).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	result := r.getDB(ctx).WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":        product.Name,
			"description": product.Description,
			"category":    product.Category,
			"price":       product.Price,
			"image_url":   product.ImageURL,
			"available":   product.Available,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) SoftDelete(ctx context.Context, id uint64) error {
	result := r.getDB(ctx).WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Update("available", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id uint64) (*domain.Product, error) {
	var product domain.Product
	err := r.getDB(ctx).WithContext(ctx).
		Where("id = ? AND available = ?", id, true).
		First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetByIDAny(ctx context.Context, id uint64) (*domain.Product, error) {
	var product domain.Product
	err := r.getDB(ctx).WithContext(ctx).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) ListAvailable(ctx context.Context, category string) ([]*domain.Product, error) {
	query := r.getDB(ctx).WithContext(ctx).Where("available = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var products []*domain.Product
	if err := query.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) ListAll(ctx context.Context, offset, limit int) ([]*domain.Product, int64, error) {
	db := r.getDB(ctx).WithContext(ctx).Model(&domain.Product{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []*domain.Product
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) GetPricedRefs(ctx context.Context, ids []uint64) (map[uint64]domain.PricedRef, error) {
	if len(ids) == 0 {
		return map[uint64]domain.PricedRef{}, nil
	}

	var products []*domain.Product
	err := r.getDB(ctx).WithContext(ctx).
		Where("id IN ? AND available = ?", ids, true).
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	refs := make(map[uint64]domain.PricedRef, len(products))
	for _, p := range products {
		refs[p.ID] = domain.PricedRef{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
		}
	}
	return refs, nil
}

func (r *productRepository) ExistingIDs(ctx context.Context, ids []uint64) (map[uint64]bool, error) {
	if len(ids) == 0 {
		return map[uint64]bool{}, nil
	}

	var found []uint64
	err := r.getDB(ctx).WithContext(ctx).
		Model(&domain.Product{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}

	existing := make(map[uint64]bool, len(found))
	for _, id := range found {
		existing[id] = true
	}
	return existing, nil
}

func (r *productRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}
