package application

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/trainly/internal/cart/domain"
	catalogdomain "github.com/wyfcoding/trainly/internal/catalog/domain"
	"github.com/wyfcoding/trainly/pkg/metrics"
)

type lineKey struct {
	userID    string
	productID uint64
}

type mockCartRepository struct {
	m     sync.Mutex
	lines map[lineKey]int
	err   error
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{lines: make(map[lineKey]int)}
}

func (m *mockCartRepository) AddQuantity(_ context.Context, userID string, productID uint64, qty int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.lines[lineKey{userID, productID}] += qty
	return nil
}

func (m *mockCartRepository) SetQuantity(_ context.Context, userID string, productID uint64, qty int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.lines[lineKey{userID, productID}] = qty
	return nil
}

func (m *mockCartRepository) Remove(_ context.Context, userID string, productID uint64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.lines, lineKey{userID, productID})
	return nil
}

func (m *mockCartRepository) Clear(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
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

func (m *mockCartRepository) GetLines(_ context.Context, userID string) ([]*domain.CartLine, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var lines []*domain.CartLine
	// 稳定输出：按 product_id 升序
	for id := uint64(0); id < 1000; id++ {
		if qty, ok := m.lines[lineKey{userID, id}]; ok {
			lines = append(lines, &domain.CartLine{UserID: userID, ProductID: id, Quantity: qty})
		}
	}
	return lines, nil
}

type mockCatalog struct {
	m    sync.Mutex
	refs map[uint64]catalogdomain.PricedRef
}

func newMockCatalog(refs map[uint64]catalogdomain.PricedRef) *mockCatalog {
	return &mockCatalog{refs: refs}
}

func (m *mockCatalog) GetPricedRefs(_ context.Context, ids []uint64) (map[uint64]catalogdomain.PricedRef, error) {
	m.m.Lock()
	defer m.m.Unlock()
	out := make(map[uint64]catalogdomain.PricedRef)
	for _, id := range ids {
		if ref, ok := m.refs[id]; ok {
			out[id] = ref
		}
	}
	return out, nil
}

type mockPublisher struct {
	m      sync.Mutex
	events []string
}

func (m *mockPublisher) Publish(_ context.Context, eventType string, _ string, _ any) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.events = append(m.events, eventType)
	return nil
}

func price(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func newTestCartService(repo *mockCartRepository, catalog *mockCatalog) (*CartService, *mockPublisher) {
	pub := &mockPublisher{}
	return NewCartService(repo, catalog, pub, metrics.New("test")), pub
}

func TestAddLineAccumulates(t *testing.T) {
	repo := newMockCartRepository()
	catalog := newMockCatalog(map[uint64]catalogdomain.PricedRef{
		7: {ProductID: 7, Name: "Yoga Plan", UnitPrice: price("12.50")},
	})
	svc, pub := newTestCartService(repo, catalog)

	require.NoError(t, svc.AddLine(context.Background(), AddLineCommand{UserID: "u1", ProductID: 7, Quantity: 2}))
	require.NoError(t, svc.AddLine(context.Background(), AddLineCommand{UserID: "u1", ProductID: 7, Quantity: 3}))

	assert.Equal(t, 5, repo.lines[lineKey{"u1", 7}])
	assert.Contains(t, pub.events, "cart.line.added")
}

func TestAddLineRejectsNonPositiveQuantity(t *testing.T) {
	repo := newMockCartRepository()
	svc, _ := newTestCartService(repo, newMockCatalog(nil))

	err := svc.AddLine(context.Background(), AddLineCommand{UserID: "u1", ProductID: 7, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	err = svc.AddLine(context.Background(), AddLineCommand{UserID: "u1", ProductID: 7, Quantity: -4})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Empty(t, repo.lines)
}

func TestAddLineRejectsUnpriceableProduct(t *testing.T) {
	repo := newMockCartRepository()
	svc, _ := newTestCartService(repo, newMockCatalog(nil))

	err := svc.AddLine(context.Background(), AddLineCommand{UserID: "u1", ProductID: 99, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidReference)
	assert.Empty(t, repo.lines)
}

func TestSetLineQuantityIsAbsolute(t *testing.T) {
	repo := newMockCartRepository()
	catalog := newMockCatalog(map[uint64]catalogdomain.PricedRef{
		7: {ProductID: 7, Name: "Yoga Plan", UnitPrice: price("12.50")},
	})
	svc, _ := newTestCartService(repo, catalog)

	require.NoError(t, svc.AddLine(context.Background(), AddLineCommand{UserID: "u1", ProductID: 7, Quantity: 5}))
	require.NoError(t, svc.SetLineQuantity(context.Background(), SetLineQuantityCommand{UserID: "u1", ProductID: 7, Quantity: 1}))

	assert.Equal(t, 1, repo.lines[lineKey{"u1", 7}])
}

func TestSetLineQuantityZeroRemovesLine(t *testing.T) {
	repo := newMockCartRepository()
	catalog := newMockCatalog(map[uint64]catalogdomain.PricedRef{
		7: {ProductID: 7, Name: "Yoga Plan", UnitPrice: price("12.50")},
	})
	svc, pub := newTestCartService(repo, catalog)

	require.NoError(t, svc.AddLine(context.Background(), AddLineCommand{UserID: "u1", ProductID: 7, Quantity: 5}))
	require.NoError(t, svc.SetLineQuantity(context.Background(), SetLineQuantityCommand{UserID: "u1", ProductID: 7, Quantity: 0}))

	_, exists := repo.lines[lineKey{"u1", 7}]
	assert.False(t, exists)
	assert.Contains(t, pub.events, "cart.line.removed")
}

func TestRemoveAndClearAreIdempotent(t *testing.T) {
	repo := newMockCartRepository()
	svc, _ := newTestCartService(repo, newMockCatalog(nil))

	assert.NoError(t, svc.RemoveLine(context.Background(), "u1", 7))
	assert.NoError(t, svc.Clear(context.Background(), "u1"))
	assert.NoError(t, svc.Clear(context.Background(), "u1"))
}

func TestMergeLocalCartCollectsFailuresIndependently(t *testing.T) {
	repo := newMockCartRepository()
	catalog := newMockCatalog(map[uint64]catalogdomain.PricedRef{
		1: {ProductID: 1, Name: "HIIT Course", UnitPrice: price("30.00")},
		3: {ProductID: 3, Name: "Meal Plan", UnitPrice: price("9.90")},
	})
	svc, _ := newTestCartService(repo, catalog)

	report := svc.MergeLocalCart(context.Background(), "u1", []domain.MergePair{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1}, // 不可定价
		{ProductID: 3, Quantity: 0}, // 非法数量
		{ProductID: 3, Quantity: 4},
	})

	assert.Equal(t, 2, report.Merged)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, uint64(2), report.Failures[0].ProductID)
	assert.Equal(t, uint64(3), report.Failures[1].ProductID)
	assert.Equal(t, 2, repo.lines[lineKey{"u1", 1}])
	assert.Equal(t, 4, repo.lines[lineKey{"u1", 3}])
}

func TestGetPricedLinesHidesUnpriceableAndComputesSubtotals(t *testing.T) {
	repo := newMockCartRepository()
	repo.lines[lineKey{"u1", 1}] = 2 // 12.50 × 2 = 25.00
	repo.lines[lineKey{"u1", 2}] = 1 // 已下架，隐藏
	repo.lines[lineKey{"u1", 3}] = 3 // 3.33 × 3 = 9.99

	catalog := newMockCatalog(map[uint64]catalogdomain.PricedRef{
		1: {ProductID: 1, Name: "Yoga Plan", UnitPrice: price("12.50")},
		3: {ProductID: 3, Name: "Stretch Guide", UnitPrice: price("3.33")},
	})
	svc, _ := newTestCartService(repo, catalog)

	cart, err := svc.GetPricedLines(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2)

	assert.Equal(t, uint64(1), cart.Lines[0].ProductID)
	assert.True(t, cart.Lines[0].Subtotal.Equal(price("25.00")))
	assert.Equal(t, uint64(3), cart.Lines[1].ProductID)
	assert.True(t, cart.Lines[1].Subtotal.Equal(price("9.99")))
	assert.True(t, cart.Total.Equal(price("34.99")))

	// 隐藏行仍在存储中
	assert.Equal(t, 1, repo.lines[lineKey{"u1", 2}])
}

func TestGetPricedLinesEmptyCart(t *testing.T) {
	svc, _ := newTestCartService(newMockCartRepository(), newMockCatalog(nil))

	cart, err := svc.GetPricedLines(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, cart.Lines)
	assert.True(t, cart.Total.Equal(decimal.Zero))
}

func TestAddLinePropagatesRepositoryError(t *testing.T) {
	repo := newMockCartRepository()
	repo.err = errors.New("connection reset")
	catalog := newMockCatalog(map[uint64]catalogdomain.PricedRef{
		7: {ProductID: 7, Name: "Yoga Plan", UnitPrice: price("12.50")},
	})
	svc, _ := newTestCartService(repo, catalog)

	err := svc.AddLine(context.Background(), AddLineCommand{UserID: "u1", ProductID: 7, Quantity: 1})
	assert.Error(t, err)
}
