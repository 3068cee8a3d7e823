// Package redis 商品读取的 read-through 缓存装饰器
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/trainly/internal/catalog/domain"
	"github.com/wyfcoding/trainly/pkg/cache"
	"github.com/wyfcoding/trainly/pkg/logger"
	"golang.org/x/sync/singleflight"
)

const (
	productKeyPrefix = "catalog:product:"
	productTTL       = 5 * time.Minute
)

// CachedProductRepository 在 mysql 仓储外套一层 redis 缓存。
// 写路径直写数据库并删除缓存键，读路径 read-through，
// singleflight 防止同一商品的并发 miss 打穿到数据库。
type CachedProductRepository struct {
	domain.ProductRepository
	cache *cache.RedisCache
	group singleflight.Group
}

// NewCachedProductRepository 创建缓存装饰器
func NewCachedProductRepository(inner domain.ProductRepository, c *cache.RedisCache) *CachedProductRepository {
	return &CachedProductRepository{
		ProductRepository: inner,
		cache:             c,
	}
}

func productKey(id uint64) string {
	return fmt.Sprintf("%s%d", productKeyPrefix, id)
}

func (r *CachedProductRepository) GetByID(ctx context.Context, id uint64) (*domain.Product, error) {
	key := productKey(id)

	var cached domain.Product
	hit, err := r.cache.GetJSON(ctx, key, &cached)
	if err == nil && hit {
		if !cached.Available {
			return nil, domain.ErrProductNotFound
		}
		return &cached, nil
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		product, err := r.ProductRepository.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := r.cache.SetJSON(ctx, key, product, productTTL); err != nil {
			logger.Warn(ctx, "Failed to cache product", "product_id", id, "error", err)
		}
		return product, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Product), nil
}

func (r *CachedProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.ProductRepository.Create(ctx, product)
}

func (r *CachedProductRepository) Update(ctx context.Context, product *domain.Product) error {
	if err := r.ProductRepository.Update(ctx, product); err != nil {
		return err
	}
	r.invalidate(ctx, product.ID)
	return nil
}

func (r *CachedProductRepository) SoftDelete(ctx context.Context, id uint64) error {
	if err := r.ProductRepository.SoftDelete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *CachedProductRepository) invalidate(ctx context.Context, id uint64) {
	if err := r.cache.Delete(ctx, productKey(id)); err != nil {
		logger.Warn(ctx, "Failed to invalidate product cache", "product_id", id, "error", err)
	}
}
