package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cartdomain "github.com/wyfcoding/trainly/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/trainly/internal/catalog/domain"
	"github.com/wyfcoding/trainly/internal/checkout/domain"
	orderdomain "github.com/wyfcoding/trainly/internal/order/domain"
	"github.com/wyfcoding/trainly/pkg/metrics"
)

type lineKey struct {
	userID    string
	productID uint64
}

type mockCartRepository struct {
	m     sync.Mutex
	lines map[lineKey]int
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{lines: make(map[lineKey]int)}
}

func (m *mockCartRepository) AddQuantity(_ context.Context, userID string, productID uint64, qty int) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.lines[lineKey{userID, productID}] += qty
	return nil
}

func (m *mockCartRepository) SetQuantity(_ context.Context, userID string, productID uint64, qty int) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.lines[lineKey{userID, productID}] = qty
	return nil
}

func (m *mockCartRepository) Remove(_ context.Context, userID string, productID uint64) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.lines, lineKey{userID, productID})
	return nil
}

func (m *mockCartRepository) Clear(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	for key := range m.lines {
		if key.userID == userID {
			delete(m.lines, key)
		}
	}
	return nil
}

func (m *mockCartRepository) RemoveLines(_ context.Context, userID string, productIDs []uint64) error {
	m.m.Lock()
	defer m.m.Unlock()
	for _, id := range productIDs {
		delete(m.lines, lineKey{userID, id})
	}
	return nil
}

func (m *mockCartRepository) GetLines(_ context.Context, userID string) ([]*cartdomain.CartLine, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var lines []*cartdomain.CartLine
	for id := uint64(0); id < 1000; id++ {
		if qty, ok := m.lines[lineKey{userID, id}]; ok {
			lines = append(lines, &cartdomain.CartLine{UserID: userID, ProductID: id, Quantity: qty})
		}
	}
	return lines, nil
}

type mockCatalog struct {
	refs     map[uint64]catalogdomain.PricedRef
	existing map[uint64]bool
}

func (m *mockCatalog) GetPricedRefs(_ context.Context, ids []uint64) (map[uint64]catalogdomain.PricedRef, error) {
	out := make(map[uint64]catalogdomain.PricedRef)
	for _, id := range ids {
		if ref, ok := m.refs[id]; ok {
			out[id] = ref
		}
	}
	return out, nil
}

func (m *mockCatalog) ExistingIDs(_ context.Context, ids []uint64) (map[uint64]bool, error) {
	out := make(map[uint64]bool)
	for _, id := range ids {
		if m.existing[id] {
			out[id] = true
		}
	}
	return out, nil
}

type mockOrderRepository struct {
	m           sync.Mutex
	orders      []*orderdomain.Order
	payments    []*orderdomain.Payment
	failPayment bool
}

func (m *mockOrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.m.Lock()
	ordersBefore := len(m.orders)
	paymentsBefore := len(m.payments)
	m.m.Unlock()

	if err := fn(ctx); err != nil {
		// 回滚：丢弃事务内的写入
		m.m.Lock()
		m.orders = m.orders[:ordersBefore]
		m.payments = m.payments[:paymentsBefore]
		m.m.Unlock()
		return err
	}
	return nil
}

func (m *mockOrderRepository) Create(_ context.Context, order *orderdomain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	order.ID = uint64(len(m.orders) + 1)
	m.orders = append(m.orders, order)
	return nil
}

func (m *mockOrderRepository) CreatePayment(_ context.Context, payment *orderdomain.Payment) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.failPayment {
		return errors.New("payments table unavailable")
	}
	m.payments = append(m.payments, payment)
	return nil
}

func (m *mockOrderRepository) GetByOrderNo(_ context.Context, orderNo string) (*orderdomain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	for _, o := range m.orders {
		if o.OrderNo == orderNo {
			return o, nil
		}
	}
	return nil, orderdomain.ErrOrderNotFound
}

func (m *mockOrderRepository) ListByUser(_ context.Context, userID string, limit int) ([]*orderdomain.Order, error) {
	return nil, nil
}

func (m *mockOrderRepository) ListAll(_ context.Context, offset, limit int) ([]*orderdomain.Order, int64, error) {
	return nil, 0, nil
}

func (m *mockOrderRepository) UpdateStatus(_ context.Context, orderNo string, status string) error {
	return nil
}

type mockOutbox struct {
	m      sync.Mutex
	events []string
	err    error
}

func (m *mockOutbox) PublishInTx(_ context.Context, eventType string, _ string, _ any) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, eventType)
	return nil
}

type mockGateway struct {
	m       sync.Mutex
	charges int
	err     error
}

func (m *mockGateway) Charge(_ context.Context, amount decimal.Decimal, method string) (string, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.charges++
	if m.err != nil {
		return "", m.err
	}
	return "FAKE-test-ref", nil
}

func price(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func validCommand(userID string) CheckoutCommand {
	return CheckoutCommand{
		UserID:          userID,
		ShippingName:    "Marco Rossi",
		ShippingAddress: "Via Roma 1",
		ShippingCity:    "Torino",
		ShippingZip:     "10121",
		ContactEmail:    "marco@example.com",
		PaymentMethod:   "card",
	}
}

func newFixture() (*CheckoutService, *mockCartRepository, *mockCatalog, *mockOrderRepository, *mockOutbox, *mockGateway) {
	cartRepo := newMockCartRepository()
	catalog := &mockCatalog{
		refs: map[uint64]catalogdomain.PricedRef{
			1: {ProductID: 1, Name: "Yoga Plan", UnitPrice: price("12.50")},
			2: {ProductID: 2, Name: "HIIT Course", UnitPrice: price("30.00")},
		},
		existing: map[uint64]bool{1: true, 2: true},
	}
	orderRepo := &mockOrderRepository{}
	outbox := &mockOutbox{}
	gateway := &mockGateway{}
	svc := NewCheckoutService(cartRepo, catalog, orderRepo, outbox, gateway, metrics.New("test"))
	return svc, cartRepo, catalog, orderRepo, outbox, gateway
}

func TestCheckoutComputesTotalsAndSnapshotsLines(t *testing.T) {
	svc, cartRepo, _, orderRepo, outbox, _ := newFixture()
	cartRepo.lines[lineKey{"u1", 1}] = 2 // 25.00

	result, err := svc.Checkout(context.Background(), validCommand("u1"))
	require.NoError(t, err)

	assert.True(t, result.Totals.Subtotal.Equal(price("25.00")))
	assert.True(t, result.Totals.Taxes.Equal(price("5.50")))
	assert.True(t, result.Totals.Total.Equal(price("30.50")))

	require.Len(t, orderRepo.orders, 1)
	order := orderRepo.orders[0]
	assert.Equal(t, orderdomain.StatusConfirmed, order.Status)
	assert.Equal(t, result.OrderNo, order.OrderNo)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "Yoga Plan", order.Lines[0].ProductName)
	assert.True(t, order.Lines[0].UnitPrice.Equal(price("12.50")))

	require.Len(t, orderRepo.payments, 1)
	assert.Equal(t, "completed", orderRepo.payments[0].Status)
	assert.Equal(t, "FAKE-test-ref", orderRepo.payments[0].TransactionRef)

	assert.Contains(t, outbox.events, "order.created")
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc, _, _, orderRepo, _, gateway := newFixture()

	_, err := svc.Checkout(context.Background(), validCommand("u1"))
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Empty(t, orderRepo.orders)
	assert.Zero(t, gateway.charges)
}

func TestCheckoutClearsCartAndSecondAttemptFails(t *testing.T) {
	svc, cartRepo, _, _, _, _ := newFixture()
	cartRepo.lines[lineKey{"u1", 1}] = 2

	_, err := svc.Checkout(context.Background(), validCommand("u1"))
	require.NoError(t, err)
	assert.Empty(t, cartRepo.lines)

	_, err = svc.Checkout(context.Background(), validCommand("u1"))
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCheckoutSkipsHiddenLinesAndKeepsThem(t *testing.T) {
	svc, cartRepo, catalog, orderRepo, _, _ := newFixture()
	cartRepo.lines[lineKey{"u1", 1}] = 2
	cartRepo.lines[lineKey{"u1", 5}] = 4 // 下架：目录行在但不可定价
	catalog.existing[5] = true

	result, err := svc.Checkout(context.Background(), validCommand("u1"))
	require.NoError(t, err)

	require.Len(t, orderRepo.orders[0].Lines, 1)
	assert.True(t, result.Totals.Subtotal.Equal(price("25.00")))

	// 隐藏行未被收费也未被清除
	assert.Equal(t, 4, cartRepo.lines[lineKey{"u1", 5}])
	_, purchased := cartRepo.lines[lineKey{"u1", 1}]
	assert.False(t, purchased)
}

func TestCheckoutDanglingReferenceFailsBeforeAnyWrite(t *testing.T) {
	svc, cartRepo, _, orderRepo, _, gateway := newFixture()
	cartRepo.lines[lineKey{"u1", 1}] = 2
	cartRepo.lines[lineKey{"u1", 9}] = 1 // 目录行已彻底消失

	_, err := svc.Checkout(context.Background(), validCommand("u1"))
	assert.ErrorIs(t, err, domain.ErrPricingMismatch)
	assert.Empty(t, orderRepo.orders)
	assert.Zero(t, gateway.charges)
	assert.Equal(t, 2, cartRepo.lines[lineKey{"u1", 1}])
}

func TestCheckoutPaymentDeclinedLeavesCartIntact(t *testing.T) {
	svc, cartRepo, _, orderRepo, _, gateway := newFixture()
	cartRepo.lines[lineKey{"u1", 1}] = 2
	gateway.err = domain.ErrPaymentDeclined

	_, err := svc.Checkout(context.Background(), validCommand("u1"))
	assert.ErrorIs(t, err, domain.ErrPaymentDeclined)
	assert.Empty(t, orderRepo.orders)
	assert.Equal(t, 2, cartRepo.lines[lineKey{"u1", 1}])
}

func TestCheckoutPersistenceFailureRollsBack(t *testing.T) {
	svc, cartRepo, _, orderRepo, _, _ := newFixture()
	cartRepo.lines[lineKey{"u1", 1}] = 2
	orderRepo.failPayment = true

	_, err := svc.Checkout(context.Background(), validCommand("u1"))
	require.Error(t, err)

	// 事务回滚：没有半写状态
	assert.Empty(t, orderRepo.orders)
	assert.Empty(t, orderRepo.payments)
}

func TestCheckoutOutboxFailureFailsCheckout(t *testing.T) {
	svc, cartRepo, _, orderRepo, outbox, _ := newFixture()
	cartRepo.lines[lineKey{"u1", 1}] = 2
	outbox.err = errors.New("outbox insert failed")

	_, err := svc.Checkout(context.Background(), validCommand("u1"))
	require.Error(t, err)
	assert.Empty(t, orderRepo.orders)
}

func TestConcurrentCheckoutsYieldSingleOrder(t *testing.T) {
	svc, cartRepo, _, orderRepo, _, _ := newFixture()
	cartRepo.lines[lineKey{"u1", 1}] = 2

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Checkout(context.Background(), validCommand("u1"))
		}(i)
	}
	wg.Wait()

	var successes, emptyCarts int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrEmptyCart):
			emptyCarts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, emptyCarts)
	assert.Len(t, orderRepo.orders, 1)
}

func TestComputeTotalsRoundsAtEachStep(t *testing.T) {
	totals := domain.ComputeTotals(price("5.50"))
	assert.True(t, totals.Taxes.Equal(price("1.21")))
	assert.True(t, totals.Total.Equal(price("6.71")))

	totals = domain.ComputeTotals(price("9.99"))
	// 9.99 × 0.22 = 2.1978 → 2.20
	assert.True(t, totals.Taxes.Equal(price("2.20")))
	assert.True(t, totals.Total.Equal(price("12.19")))
}
