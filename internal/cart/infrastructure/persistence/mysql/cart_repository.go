package mysql

import (
	"context"

	"github.com/wyfcoding/trainly/internal/cart/domain"
	"github.com/wyfcoding/trainly/pkg/contextx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type cartRepository struct{ db *gorm.DB }

// NewCartRepository 创建购物车仓储实例
func NewCartRepository(db *gorm.DB) domain.CartRepository {
	return &cartRepository{db: db}
}

// AddQuantity 原子累加加购。
// INSERT ... ON DUPLICATE KEY UPDATE quantity = quantity + ?，
// 累加在存储层完成，并发加购互不覆盖。
func (r *cartRepository) AddQuantity(ctx context.Context, userID string, productID uint64, qty int) error {
	line := &domain.CartLine{
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
	}
	return r.getDB(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity": gorm.Expr("quantity + ?", qty),
			}),
		}).
		Create(line).Error
}

func (r *cartRepository) SetQuantity(ctx context.Context, userID string, productID uint64, qty int) error {
	line := &domain.CartLine{
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
	}
	return r.getDB(ctx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"quantity": qty,
			}),
		}).
		Create(line).Error
}

func (r *cartRepository) Remove(ctx context.Context, userID string, productID uint64) error {
	return r.getDB(ctx).WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&domain.CartLine{}).Error
}

func (r *cartRepository) Clear(ctx context.Context, userID string) error {
	return r.getDB(ctx).WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.CartLine{}).Error
}

func (r *cartRepository) RemoveLines(ctx context.Context, userID string, productIDs []uint64) error {
	if len(productIDs) == 0 {
		return nil
	}
	return r.getDB(ctx).WithContext(ctx).
		Where("user_id = ? AND product_id IN ?", userID, productIDs).
		Delete(&domain.CartLine{}).Error
}

func (r *cartRepository) GetLines(ctx context.Context, userID string) ([]*domain.CartLine, error) {
	var lines []*domain.CartLine
	err := r.getDB(ctx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("product_id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *cartRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}
