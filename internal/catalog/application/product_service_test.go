package application

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/trainly/internal/catalog/domain"
)

type mockProductRepository struct {
	m        sync.Mutex
	products map[uint64]*domain.Product
	nextID   uint64
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[uint64]*domain.Product), nextID: 1}
}

func (m *mockProductRepository) Create(_ context.Context, product *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	product.ID = m.nextID
	m.nextID++
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Update(_ context.Context, product *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return domain.ErrProductNotFound
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) SoftDelete(_ context.Context, id uint64) error {
	m.m.Lock()
	defer m.m.Unlock()
	product, ok := m.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	product.Available = false
	return nil
}

func (m *mockProductRepository) GetByID(_ context.Context, id uint64) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	product, ok := m.products[id]
	if !ok || !product.Available {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepository) GetByIDAny(_ context.Context, id uint64) (*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	product, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

func (m *mockProductRepository) ListAvailable(_ context.Context, category string) ([]*domain.Product, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []*domain.Product
	for id := uint64(1); id < m.nextID; id++ {
		p := m.products[id]
		if p == nil || !p.Available {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProductRepository) ListAll(_ context.Context, offset, limit int) ([]*domain.Product, int64, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []*domain.Product
	for id := uint64(1); id < m.nextID; id++ {
		if p := m.products[id]; p != nil {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockProductRepository) GetPricedRefs(_ context.Context, ids []uint64) (map[uint64]domain.PricedRef, error) {
	m.m.Lock()
	defer m.m.Unlock()
	refs := make(map[uint64]domain.PricedRef)
	for _, id := range ids {
		if p, ok := m.products[id]; ok && p.Available {
			refs[id] = domain.PricedRef{ProductID: id, Name: p.Name, UnitPrice: p.Price}
		}
	}
	return refs, nil
}

func (m *mockProductRepository) ExistingIDs(_ context.Context, ids []uint64) (map[uint64]bool, error) {
	m.m.Lock()
	defer m.m.Unlock()
	existing := make(map[uint64]bool)
	for _, id := range ids {
		if _, ok := m.products[id]; ok {
			existing[id] = true
		}
	}
	return existing, nil
}

func TestCreateProductRoundsPrice(t *testing.T) {
	svc := NewProductService(newMockProductRepository())

	product, err := svc.CreateProduct(context.Background(), CreateProductCommand{
		Name:  "Yoga Plan",
		Price: decimal.NewFromFloat(12.499),
	})
	require.NoError(t, err)
	assert.True(t, product.Price.Equal(decimal.NewFromFloat(12.50)))
	assert.True(t, product.Available)
}

func TestSoftDeleteHidesFromReadsButKeepsRow(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo)

	product, err := svc.CreateProduct(context.Background(), CreateProductCommand{
		Name:  "HIIT Course",
		Price: decimal.NewFromInt(30),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(context.Background(), product.ID))

	_, err = svc.GetProduct(context.Background(), product.ID)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	refs, err := svc.GetPricedRefs(context.Background(), []uint64{product.ID})
	require.NoError(t, err)
	assert.NotContains(t, refs, product.ID)

	// 行仍在：存在性检查可见，重新上架后恢复
	existing, err := svc.ExistingIDs(context.Background(), []uint64{product.ID})
	require.NoError(t, err)
	assert.True(t, existing[product.ID])
}

func TestListProductsFiltersByCategory(t *testing.T) {
	svc := NewProductService(newMockProductRepository())

	_, err := svc.CreateProduct(context.Background(), CreateProductCommand{Name: "A", Category: "yoga", Price: decimal.NewFromInt(10)})
	require.NoError(t, err)
	_, err = svc.CreateProduct(context.Background(), CreateProductCommand{Name: "B", Category: "hiit", Price: decimal.NewFromInt(20)})
	require.NoError(t, err)

	products, err := svc.ListProducts(context.Background(), "yoga")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "A", products[0].Name)
}

func TestDeleteUnknownProduct(t *testing.T) {
	svc := NewProductService(newMockProductRepository())
	err := svc.DeleteProduct(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
