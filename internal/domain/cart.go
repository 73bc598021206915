package domain

// Cart is the buyer's working selection. It lives only in the cart store and
// expires with its TTL; absence always means "empty cart", never an error.
type Cart struct {
	ID               string     `json:"id"`
	Items            []CartItem `json:"items"`
	DeliveryMethodID *int64     `json:"deliveryMethodId,omitempty"`
	PaymentIntentID  string     `json:"paymentIntentId,omitempty"`
	ClientSecret     string     `json:"clientSecret,omitempty"`
	Coupon           *Coupon    `json:"coupon,omitempty"`
}

// CartItem carries a price snapshot taken when the item was added. The
// snapshot is only authoritative after pricing validation has overwritten it
// from the catalog; until then it must not be used for charging.
type CartItem struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
	PictureURL  string  `json:"pictureUrl"`
	Brand       string  `json:"brand"`
	Type        string  `json:"type"`
}

// SubtotalCents sums unit price times quantity over all items in minor units.
// Each unit price is converted to cents before multiplying, so the result is
// deterministic regardless of item order.
func (c *Cart) SubtotalCents() int64 {
	var subtotal int64
	for _, item := range c.Items {
		subtotal += Cents(item.Price) * int64(item.Quantity)
	}
	return subtotal
}
