package payment

import (
	"context"
	"testing"

	"github.com/fjod/go-storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64     { return &v }
func ptrFloat(f float64) *float64 { return &f }

// two items ($10.00 x 2, $5.00 x 1) plus $5.00 shipping
func fixtureCart() (*mockCartStore, *mockCatalog, *mockProcessor) {
	store := newMockCartStore()
	store.carts["cart1"] = &domain.Cart{
		ID: "cart1",
		Items: []domain.CartItem{
			{ProductID: 1, ProductName: "Gloves", Price: 10.00, Quantity: 2},
			{ProductID: 2, ProductName: "Hat", Price: 5.00, Quantity: 1},
		},
		DeliveryMethodID: int64Ptr(1),
	}

	cat := newMockCatalog()
	cat.products[1] = &domain.Product{ID: 1, Name: "Gloves", Price: 10.00}
	cat.products[2] = &domain.Product{ID: 2, Name: "Hat", Price: 5.00}
	cat.methods[1] = &domain.DeliveryMethod{ID: 1, ShortName: "UPS2", Price: 5.00}

	return store, cat, newMockProcessor()
}

func TestCreateOrUpdateIntent_CreatesIntentForTotal(t *testing.T) {
	store, cat, proc := fixtureCart()
	sut := NewCoordinator(store, cat, proc)

	ret, err := sut.CreateOrUpdateIntent(context.Background(), "cart1")
	require.NoError(t, err)

	// subtotal 2500 + shipping 500 = 3000 cents
	assert.Equal(t, int64(3000), proc.lastAmount)
	assert.Equal(t, 1, proc.createCalls)
	assert.Equal(t, "pi_1", ret.PaymentIntentID)
	assert.Equal(t, "pi_1_secret", ret.ClientSecret)

	// intent ids are persisted back into the store
	stored := store.carts["cart1"]
	assert.Equal(t, "pi_1", stored.PaymentIntentID)
	assert.Equal(t, "pi_1_secret", stored.ClientSecret)
}

func TestCreateOrUpdateIntent_SecondCallUpdatesNotCreates(t *testing.T) {
	store, cat, proc := fixtureCart()
	sut := NewCoordinator(store, cat, proc)

	first, err := sut.CreateOrUpdateIntent(context.Background(), "cart1")
	require.NoError(t, err)
	firstAmount := proc.lastAmount

	second, err := sut.CreateOrUpdateIntent(context.Background(), "cart1")
	require.NoError(t, err)

	assert.Equal(t, 1, proc.createCalls)
	assert.Equal(t, 1, proc.updateCalls)
	assert.Equal(t, first.PaymentIntentID, second.PaymentIntentID)
	assert.Equal(t, firstAmount, proc.lastAmount)
}

func TestCreateOrUpdateIntent_CorrectsDriftedPrices(t *testing.T) {
	store, cat, proc := fixtureCart()
	// catalog price rose since the buyer added the item
	cat.products[1].Price = 12.00
	sut := NewCoordinator(store, cat, proc)

	ret, err := sut.CreateOrUpdateIntent(context.Background(), "cart1")
	require.NoError(t, err)

	// 1200*2 + 500 + 500 shipping
	assert.Equal(t, int64(3400), proc.lastAmount)
	assert.Equal(t, 12.00, ret.Items[0].Price)
	// correction is persisted, not just returned
	assert.Equal(t, 12.00, store.carts["cart1"].Items[0].Price)
}

func TestCreateOrUpdateIntent_NoDeliveryMethodMeansNoShipping(t *testing.T) {
	store, cat, proc := fixtureCart()
	store.carts["cart1"].DeliveryMethodID = nil
	sut := NewCoordinator(store, cat, proc)

	_, err := sut.CreateOrUpdateIntent(context.Background(), "cart1")
	require.NoError(t, err)
	assert.Equal(t, int64(2500), proc.lastAmount)
}

func TestCreateOrUpdateIntent_AppliesLiveCouponDiscount(t *testing.T) {
	store, cat, proc := fixtureCart()
	store.carts["cart1"].Coupon = &domain.Coupon{
		Name:     "TEN",
		CouponID: "c_1",
		// stale cached rule, the live record below says 10%
		PercentOff: ptrFloat(50),
	}
	proc.coupons["c_1"] = &domain.Coupon{Name: "TEN", CouponID: "c_1", PercentOff: ptrFloat(10)}
	sut := NewCoordinator(store, cat, proc)

	_, err := sut.CreateOrUpdateIntent(context.Background(), "cart1")
	require.NoError(t, err)

	// 2500 - 10% (250) + 500 shipping
	assert.Equal(t, int64(2750), proc.lastAmount)
}

func TestCreateOrUpdateIntent_DeletedCouponChargesFullPrice(t *testing.T) {
	store, cat, proc := fixtureCart()
	store.carts["cart1"].Coupon = &domain.Coupon{Name: "GONE", CouponID: "c_gone"}
	sut := NewCoordinator(store, cat, proc)

	_, err := sut.CreateOrUpdateIntent(context.Background(), "cart1")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), proc.lastAmount)
}

func TestCreateOrUpdateIntent_CartNotFound(t *testing.T) {
	_, cat, proc := fixtureCart()
	sut := NewCoordinator(newMockCartStore(), cat, proc)

	_, err := sut.CreateOrUpdateIntent(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestCreateOrUpdateIntent_StaleDeliveryMethod(t *testing.T) {
	store, cat, proc := fixtureCart()
	store.carts["cart1"].DeliveryMethodID = int64Ptr(99)
	sut := NewCoordinator(store, cat, proc)

	_, err := sut.CreateOrUpdateIntent(context.Background(), "cart1")
	assert.ErrorIs(t, err, ErrDeliveryMethodInvalid)
	assert.Equal(t, 0, proc.createCalls)
}

func TestCreateOrUpdateIntent_MissingProductIsFatal(t *testing.T) {
	store, cat, proc := fixtureCart()
	delete(cat.products, 2)
	sut := NewCoordinator(store, cat, proc)

	_, err := sut.CreateOrUpdateIntent(context.Background(), "cart1")
	assert.ErrorIs(t, err, ErrProductUnavailable)
	// the item stays in the cart, nothing was dropped silently
	assert.Len(t, store.carts["cart1"].Items, 2)
	assert.Equal(t, 0, proc.createCalls)
}

func TestCreateOrUpdateIntent_ProcessorFailureSurfaces(t *testing.T) {
	store, cat, proc := fixtureCart()
	proc.err = assert.AnError
	sut := NewCoordinator(store, cat, proc)

	_, err := sut.CreateOrUpdateIntent(context.Background(), "cart1")
	require.ErrorContains(t, err, "failed to create payment intent")
	// cart is not persisted with a half-applied intent
	assert.Empty(t, store.carts["cart1"].PaymentIntentID)
}
