// Package application 购物车应用服务
package application

import (
	"context"
	"time"

	"github.com/wyfcoding/trainly/internal/cart/domain"
	"github.com/wyfcoding/trainly/pkg/logger"
	"github.com/wyfcoding/trainly/pkg/metrics"
)

// AddLineCommand 加购命令
type AddLineCommand struct {
	UserID    string
	ProductID uint64
	Quantity  int
}

// SetLineQuantityCommand 覆盖数量命令
type SetLineQuantityCommand struct {
	UserID    string
	ProductID uint64
	Quantity  int
}

// CartCommandService 购物车命令服务
type CartCommandService struct {
	repo      domain.CartRepository
	catalog   domain.ProductCatalog
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
}

// NewCartCommandService 创建购物车命令服务实例
func NewCartCommandService(
	repo domain.CartRepository,
	catalog domain.ProductCatalog,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
) *CartCommandService {
	return &CartCommandService{
		repo:      repo,
		catalog:   catalog,
		publisher: publisher,
		metrics:   m,
	}
}

// AddLine 加购：数量必须为正，商品必须可定价，存储层原子累加
func (s *CartCommandService) AddLine(ctx context.Context, cmd AddLineCommand) error {
	if cmd.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}

	refs, err := s.catalog.GetPricedRefs(ctx, []uint64{cmd.ProductID})
	if err != nil {
		return err
	}
	if _, ok := refs[cmd.ProductID]; !ok {
		return domain.ErrInvalidReference
	}

	if err := s.repo.AddQuantity(ctx, cmd.UserID, cmd.ProductID, cmd.Quantity); err != nil {
		logger.Error(ctx, "Failed to add cart line", "user_id", cmd.UserID, "product_id", cmd.ProductID, "error", err)
		return err
	}

	s.metrics.CartOpsTotal.Inc()
	s.publisher.Publish(ctx, "cart.line.added", cmd.UserID, domain.CartLineAddedEvent{
		UserID:    cmd.UserID,
		ProductID: cmd.ProductID,
		Quantity:  cmd.Quantity,
		Timestamp: time.Now(),
	})
	return nil
}

// SetLineQuantity 覆盖数量，0 或负数等同删除该行
func (s *CartCommandService) SetLineQuantity(ctx context.Context, cmd SetLineQuantityCommand) error {
	if cmd.Quantity <= 0 {
		return s.RemoveLine(ctx, cmd.UserID, cmd.ProductID)
	}

	refs, err := s.catalog.GetPricedRefs(ctx, []uint64{cmd.ProductID})
	if err != nil {
		return err
	}
	if _, ok := refs[cmd.ProductID]; !ok {
		return domain.ErrInvalidReference
	}

	if err := s.repo.SetQuantity(ctx, cmd.UserID, cmd.ProductID, cmd.Quantity); err != nil {
		logger.Error(ctx, "Failed to set cart line quantity", "user_id", cmd.UserID, "product_id", cmd.ProductID, "error", err)
		return err
	}

	s.metrics.CartOpsTotal.Inc()
	return nil
}

// RemoveLine 删除单行，幂等
func (s *CartCommandService) RemoveLine(ctx context.Context, userID string, productID uint64) error {
	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		logger.Error(ctx, "Failed to remove cart line", "user_id", userID, "product_id", productID, "error", err)
		return err
	}

	s.metrics.CartOpsTotal.Inc()
	s.publisher.Publish(ctx, "cart.line.removed", userID, domain.CartLineRemovedEvent{
		UserID:    userID,
		ProductID: productID,
		Timestamp: time.Now(),
	})
	return nil
}

// Clear 清空购物车，幂等
func (s *CartCommandService) Clear(ctx context.Context, userID string) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		logger.Error(ctx, "Failed to clear cart", "user_id", userID, "error", err)
		return err
	}

	s.metrics.CartOpsTotal.Inc()
	s.publisher.Publish(ctx, "cart.cleared", userID, domain.CartClearedEvent{
		UserID:    userID,
		Timestamp: time.Now(),
	})
	return nil
}

// MergeLocalCart 登录时合并本地购物车。
// 每一对独立执行加购，单对失败只进入报告，不回滚其他对。
func (s *CartCommandService) MergeLocalCart(ctx context.Context, userID string, pairs []domain.MergePair) *domain.MergeReport {
	report := &domain.MergeReport{Failures: []domain.MergeFailure{}}

	for _, pair := range pairs {
		err := s.AddLine(ctx, AddLineCommand{
			UserID:    userID,
			ProductID: pair.ProductID,
			Quantity:  pair.Quantity,
		})
		if err != nil {
			report.Failures = append(report.Failures, domain.MergeFailure{
				ProductID: pair.ProductID,
				Quantity:  pair.Quantity,
				Reason:    err.Error(),
			})
			continue
		}
		report.Merged++
	}

	s.metrics.CartMergesTotal.Inc()
	logger.Info(ctx, "Local cart merged", "user_id", userID, "merged", report.Merged, "failed", len(report.Failures))
	return report
}
