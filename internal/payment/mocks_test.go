package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/fjod/go-storefront/internal/cart"
	"github.com/fjod/go-storefront/internal/catalog"
	"github.com/fjod/go-storefront/internal/domain"
)

type mockCartStore struct {
	m     sync.Mutex
	carts map[string]*domain.Cart
	err   error
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{carts: make(map[string]*domain.Cart)}
}

func (m *mockCartStore) Get(_ context.Context, id string) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[id]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	// hand out a copy so mutations only land via Set
	cp := *c
	cp.Items = append([]domain.CartItem(nil), c.Items...)
	return &cp, nil
}

func (m *mockCartStore) Set(_ context.Context, c *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.carts[c.ID] = c
	return nil
}

func (m *mockCartStore) Delete(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.carts, id)
	return nil
}

type mockCatalog struct {
	products map[int64]*domain.Product
	methods  map[int64]*domain.DeliveryMethod
	err      error
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		products: make(map[int64]*domain.Product),
		methods:  make(map[int64]*domain.DeliveryMethod),
	}
}

func (m *mockCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func (m *mockCatalog) GetDeliveryMethod(_ context.Context, id int64) (*domain.DeliveryMethod, error) {
	if m.err != nil {
		return nil, m.err
	}
	d, ok := m.methods[id]
	if !ok {
		return nil, catalog.ErrDeliveryMethodNotFound
	}
	return d, nil
}

func (m *mockCatalog) ListDeliveryMethods(_ context.Context) ([]*domain.DeliveryMethod, error) {
	var out []*domain.DeliveryMethod
	for _, d := range m.methods {
		out = append(out, d)
	}
	return out, nil
}

type mockProcessor struct {
	m           sync.Mutex
	coupons     map[string]*domain.Coupon // by coupon id
	promos      map[string]*domain.Coupon // by promotion code
	createCalls int
	updateCalls int
	lastAmount  int64
	nextID      int
	err         error
}

func newMockProcessor() *mockProcessor {
	return &mockProcessor{
		coupons: make(map[string]*domain.Coupon),
		promos:  make(map[string]*domain.Coupon),
	}
}

func (m *mockProcessor) CreateIntent(_ context.Context, amountCents int64) (*Intent, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.createCalls++
	m.lastAmount = amountCents
	m.nextID++
	id := fmt.Sprintf("pi_%d", m.nextID)
	return &Intent{ID: id, ClientSecret: id + "_secret", Amount: amountCents}, nil
}

func (m *mockProcessor) UpdateIntent(_ context.Context, id string, amountCents int64) (*Intent, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.updateCalls++
	m.lastAmount = amountCents
	return &Intent{ID: id, Amount: amountCents}, nil
}

func (m *mockProcessor) CouponByID(_ context.Context, id string) (*domain.Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.coupons[id]
	if !ok {
		return nil, ErrCouponNotFound
	}
	return c, nil
}

func (m *mockProcessor) CouponByPromoCode(_ context.Context, code string) (*domain.Coupon, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.promos[code]
	if !ok {
		return nil, ErrCouponNotFound
	}
	return c, nil
}
