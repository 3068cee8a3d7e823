package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/trainly/internal/order/domain"
)

type mockOrderRepository struct {
	m      sync.Mutex
	orders []*domain.Order
}

func (m *mockOrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (m *mockOrderRepository) Create(_ context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	order.ID = uint64(len(m.orders) + 1)
	m.orders = append(m.orders, order)
	return nil
}

func (m *mockOrderRepository) CreatePayment(_ context.Context, _ *domain.Payment) error {
	return nil
}

func (m *mockOrderRepository) GetByOrderNo(_ context.Context, orderNo string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, o := range m.orders {
		if o.OrderNo == orderNo {
			return o, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (m *mockOrderRepository) ListByUser(_ context.Context, userID string, limit int) ([]*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []*domain.Order
	// 最新优先
	for i := len(m.orders) - 1; i >= 0 && len(out) < limit; i-- {
		if m.orders[i].UserID == userID {
			out = append(out, m.orders[i])
		}
	}
	return out, nil
}

func (m *mockOrderRepository) ListAll(_ context.Context, offset, limit int) ([]*domain.Order, int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	return m.orders, int64(len(m.orders)), nil
}

func (m *mockOrderRepository) UpdateStatus(_ context.Context, orderNo string, status string) error {
	m.m.Lock()
	defer m.m.Unlock()
	for _, o := range m.orders {
		if o.OrderNo == orderNo {
			o.Status = status
			return nil
		}
	}
	return domain.ErrOrderNotFound
}

type mockPublisher struct {
	m      sync.Mutex
	events []string
}

func (m *mockPublisher) PublishInTx(_ context.Context, eventType string, _ string, _ any) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.events = append(m.events, eventType)
	return nil
}

func seedOrder(repo *mockOrderRepository, orderNo, userID string, total string) *domain.Order {
	amount, _ := decimal.NewFromString(total)
	order := &domain.Order{
		OrderNo:   orderNo,
		UserID:    userID,
		Status:    domain.StatusConfirmed,
		Total:     amount,
		CreatedAt: time.Now(),
		Lines: []domain.OrderLine{
			{ProductID: 1, ProductName: "Yoga Plan", UnitPrice: decimal.NewFromFloat(12.50), Quantity: 2},
		},
	}
	repo.Create(context.Background(), order)
	return order
}

func TestGetOrderEnforcesOwnership(t *testing.T) {
	repo := &mockOrderRepository{}
	svc := NewOrderService(repo, &mockPublisher{})
	seedOrder(repo, "ORD-1", "u1", "30.50")

	// 本人可读
	order, err := svc.GetOrder(context.Background(), "ORD-1", "u1", false)
	require.NoError(t, err)
	assert.Equal(t, "u1", order.UserID)

	// 他人订单按不存在处理，内容不外泄
	_, err = svc.GetOrder(context.Background(), "ORD-1", "u2", false)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	// 特权请求者可读任意订单
	order, err = svc.GetOrder(context.Background(), "ORD-1", "admin-user", true)
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", order.OrderNo)
}

func TestGetOrderUnknownOrderNo(t *testing.T) {
	svc := NewOrderService(&mockOrderRepository{}, &mockPublisher{})

	_, err := svc.GetOrder(context.Background(), "ORD-missing", "u1", false)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestListOrdersDefaultsLimitAndOrdersNewestFirst(t *testing.T) {
	repo := &mockOrderRepository{}
	svc := NewOrderService(repo, &mockPublisher{})
	for i := 0; i < 15; i++ {
		seedOrder(repo, "ORD-"+string(rune('a'+i)), "u1", "10.00")
	}

	orders, err := svc.ListOrders(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.Len(t, orders, DefaultHistoryLimit)
	// 最新的在最前
	assert.Equal(t, "ORD-"+string(rune('a'+14)), orders[0].OrderNo)
}

func TestOrderLinePricesAreImmutableSnapshots(t *testing.T) {
	repo := &mockOrderRepository{}
	svc := NewOrderService(repo, &mockPublisher{})
	seedOrder(repo, "ORD-1", "u1", "30.50")

	order, err := svc.GetOrder(context.Background(), "ORD-1", "u1", false)
	require.NoError(t, err)
	// 行内快照与目录解耦：读取返回的是冻结的单价与名称
	assert.True(t, order.Lines[0].UnitPrice.Equal(decimal.NewFromFloat(12.50)))
	assert.Equal(t, "Yoga Plan", order.Lines[0].ProductName)
}

func TestUpdateStatusValidatesAndPublishes(t *testing.T) {
	repo := &mockOrderRepository{}
	pub := &mockPublisher{}
	svc := NewOrderService(repo, pub)
	seedOrder(repo, "ORD-1", "u1", "30.50")

	err := svc.UpdateStatus(context.Background(), UpdateStatusCommand{OrderNo: "ORD-1", Status: "shipped"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	err = svc.UpdateStatus(context.Background(), UpdateStatusCommand{OrderNo: "ORD-missing", Status: domain.StatusCancelled})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	require.NoError(t, svc.UpdateStatus(context.Background(), UpdateStatusCommand{OrderNo: "ORD-1", Status: domain.StatusCancelled}))
	order, _ := repo.GetByOrderNo(context.Background(), "ORD-1")
	assert.Equal(t, domain.StatusCancelled, order.Status)
	assert.Contains(t, pub.events, "order.status.changed")
}

func TestUpdateStatusNoopWhenUnchanged(t *testing.T) {
	repo := &mockOrderRepository{}
	pub := &mockPublisher{}
	svc := NewOrderService(repo, pub)
	seedOrder(repo, "ORD-1", "u1", "30.50")

	require.NoError(t, svc.UpdateStatus(context.Background(), UpdateStatusCommand{OrderNo: "ORD-1", Status: domain.StatusConfirmed}))
	assert.Empty(t, pub.events)
}
