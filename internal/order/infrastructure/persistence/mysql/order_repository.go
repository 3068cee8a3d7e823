package mysql

import (
	"context"
	"errors"

	"github.com/wyfcoding/trainly/internal/order/domain"
	"github.com/wyfcoding/trainly/pkg/contextx"
	"gorm.io/gorm"
)

type orderRepository struct{ db *gorm.DB }

// NewOrderRepository 创建订单仓储实例
func NewOrderRepository(db *gorm.DB) domain.OrderRepository {
	return &orderRepository{db: db}
}

// WithTx 开启事务并把事务句柄放进 context，
// fn 内通过同一 context 调用的仓储方法都落在该事务上
func (r *orderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)
		return fn(txCtx)
	})
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.getDB(ctx).WithContext(ctx).Create(order).Error
}

func (r *orderRepository) CreatePayment(ctx context.Context, payment *domain.Payment) error {
	return r.getDB(ctx).WithContext(ctx).Create(payment).Error
}

func (r *orderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*domain.Order, error) {
	var order domain.Order
	err := r.getDB(ctx).WithContext(ctx).
		Preload("Lines").
		Preload("Payment").
		Where("order_no = ?", orderNo).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := r.getDB(ctx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) ListAll(ctx context.Context, offset, limit int) ([]*domain.Order, int64, error) {
	db := r.getDB(ctx).WithContext(ctx).Model(&domain.Order{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*domain.Order
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderNo string, status string) error {
	result := r.getDB(ctx).WithContext(ctx).
		Model(&domain.Order{}).
		Where("order_no = ?", orderNo).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok {
		return tx
	}
	return r.db
}
