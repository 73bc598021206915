package http

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fjod/go-storefront/internal/cart"
	"github.com/fjod/go-storefront/internal/catalog"
	"github.com/fjod/go-storefront/internal/domain"
	"github.com/fjod/go-storefront/internal/notify"
	"github.com/fjod/go-storefront/internal/order"
	"github.com/fjod/go-storefront/internal/payment"
	"github.com/fjod/go-storefront/internal/webhook"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type memCartStore struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
}

func newMemCartStore() *memCartStore {
	return &memCartStore{carts: make(map[string]domain.Cart)}
}

func (s *memCartStore) Get(ctx context.Context, id string) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[id]
	if !ok {
		return nil, cart.ErrCartNotFound
	}
	cp := c
	cp.Items = append([]domain.CartItem(nil), c.Items...)
	return &cp, nil
}

func (s *memCartStore) Set(ctx context.Context, c *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[c.ID] = *c
	return nil
}

func (s *memCartStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, id)
	return nil
}

type memCatalog struct {
	products map[int64]domain.Product
	methods  map[int64]domain.DeliveryMethod
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		products: map[int64]domain.Product{
			3: {ID: 3, Name: "Blue Code Gloves", Price: 10, PictureURL: "/images/gloves.png", Brand: "React", Type: "Gloves"},
			4: {ID: 4, Name: "Green React Woolen Hat", Price: 8, Brand: "React", Type: "Hats"},
		},
		methods: map[int64]domain.DeliveryMethod{
			1: {ID: 1, ShortName: "UPS1", DeliveryTime: "1-2 Days", Description: "Fastest delivery time", Price: 10},
			4: {ID: 4, ShortName: "FREE", DeliveryTime: "1-2 Weeks", Description: "Free! You get what you pay for", Price: 0},
		},
	}
}

func (c *memCatalog) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, ok := c.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return &p, nil
}

func (c *memCatalog) GetDeliveryMethod(ctx context.Context, id int64) (*domain.DeliveryMethod, error) {
	m, ok := c.methods[id]
	if !ok {
		return nil, catalog.ErrDeliveryMethodNotFound
	}
	return &m, nil
}

func (c *memCatalog) ListDeliveryMethods(ctx context.Context) ([]*domain.DeliveryMethod, error) {
	ids := make([]int64, 0, len(c.methods))
	for id := range c.methods {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	methods := make([]*domain.DeliveryMethod, 0, len(ids))
	for _, id := range ids {
		m := c.methods[id]
		methods = append(methods, &m)
	}
	return methods, nil
}

type fakeProcessor struct {
	nextIntent int
	coupons    map[string]*domain.Coupon
	promoCodes map[string]*domain.Coupon
	fail       bool
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{
		coupons:    make(map[string]*domain.Coupon),
		promoCodes: make(map[string]*domain.Coupon),
	}
}

func (p *fakeProcessor) CreateIntent(ctx context.Context, amountCents int64) (*payment.Intent, error) {
	if p.fail {
		return nil, fmt.Errorf("processor unavailable")
	}
	p.nextIntent++
	id := fmt.Sprintf("pi_%d", p.nextIntent)
	return &payment.Intent{ID: id, ClientSecret: id + "_secret", Amount: amountCents}, nil
}

func (p *fakeProcessor) UpdateIntent(ctx context.Context, id string, amountCents int64) (*payment.Intent, error) {
	if p.fail {
		return nil, fmt.Errorf("processor unavailable")
	}
	return &payment.Intent{ID: id, Amount: amountCents}, nil
}

func (p *fakeProcessor) CouponByID(ctx context.Context, id string) (*domain.Coupon, error) {
	c, ok := p.coupons[id]
	if !ok {
		return nil, payment.ErrCouponNotFound
	}
	return c, nil
}

func (p *fakeProcessor) CouponByPromoCode(ctx context.Context, code string) (*domain.Coupon, error) {
	c, ok := p.promoCodes[code]
	if !ok {
		return nil, payment.ErrCouponNotFound
	}
	return c, nil
}

type memOrderRepo struct {
	mu     sync.Mutex
	orders []*domain.Order
	events []*order.OutboxEvent
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{}
}

func (r *memOrderRepo) Create(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orders {
		if existing.PaymentIntentID == o.PaymentIntentID {
			return order.ErrDuplicateIntent
		}
	}
	cp := *o
	r.orders = append(r.orders, &cp)
	return nil
}

func (r *memOrderRepo) GetByID(ctx context.Context, id uuid.UUID, buyerEmail string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id && o.BuyerEmail == buyerEmail {
			cp := *o
			return &cp, nil
		}
	}
	return nil, order.ErrOrderNotFound
}

func (r *memOrderRepo) ListByBuyer(ctx context.Context, buyerEmail string) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*domain.Order
	for i := len(r.orders) - 1; i >= 0; i-- {
		if r.orders[i].BuyerEmail == buyerEmail {
			cp := *r.orders[i]
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (r *memOrderRepo) GetByPaymentIntentID(ctx context.Context, intentID string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.PaymentIntentID == intentID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, order.ErrOrderNotFound
}

func (r *memOrderRepo) Settle(ctx context.Context, intentID string, status domain.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.PaymentIntentID == intentID && o.Status == domain.OrderStatusPending {
			o.Status = status
			r.events = append(r.events, &order.OutboxEvent{
				ID:          uuid.New(),
				AggregateID: o.ID.String(),
				EventType:   "order.settled",
				CreatedAt:   time.Now(),
			})
			return true, nil
		}
	}
	return false, nil
}

func (r *memOrderRepo) GetUnpublishedEvents(ctx context.Context, limit int) ([]*order.OutboxEvent, error) {
	return nil, nil
}

func (r *memOrderRepo) MarkEventPublished(ctx context.Context, id uuid.UUID) error {
	return nil
}

type fakeVerifier struct {
	event *webhook.Event
}

func (v *fakeVerifier) Verify(payload []byte, signature string) (*webhook.Event, error) {
	if signature != "valid" {
		return nil, webhook.ErrInvalidSignature
	}
	return v.event, nil
}

type fakeWSConn struct {
	mu       sync.Mutex
	messages []interface{}
}

func (c *fakeWSConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, v)
	return nil
}

func (c *fakeWSConn) Close() error { return nil }

type testEnv struct {
	carts     *memCartStore
	catalog   *memCatalog
	processor *fakeProcessor
	orders    *memOrderRepo
	verifier  *fakeVerifier
	registry  *notify.Registry
	router    *chi.Mux
}

func newTestEnv() *testEnv {
	carts := newMemCartStore()
	repo := newMemCatalog()
	processor := newFakeProcessor()
	orders := newMemOrderRepo()
	verifier := &fakeVerifier{}
	registry := notify.NewRegistry()

	cartService := cart.NewService(carts)
	coordinator := payment.NewCoordinator(carts, repo, processor)
	resolver := payment.NewCouponResolver(processor)
	factory := order.NewFactory(carts, repo, orders)
	dispatcher := notify.NewDispatcher(registry)
	webhookProcessor := webhook.NewProcessor(verifier, orders, dispatcher)

	router := NewRouter(RouterConfig{
		CartHandler:    NewCartHandler(cartService),
		PaymentHandler: NewPaymentHandler(coordinator, repo),
		CouponHandler:  NewCouponHandler(resolver),
		OrderHandler:   NewOrderHandler(factory, orders, cartService),
		WebhookHandler: NewWebhookHandler(webhookProcessor),
		WSHandler:      NewWSHandler(registry),
		RequestTimeout: 5 * time.Second,
	})

	return &testEnv{
		carts:     carts,
		catalog:   repo,
		processor: processor,
		orders:    orders,
		verifier:  verifier,
		registry:  registry,
		router:    router,
	}
}
