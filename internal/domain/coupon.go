package domain

// Coupon mirrors the processor-side promotion: exactly one of AmountOff or
// PercentOff drives the discount.
type Coupon struct {
	Name          string   `json:"name"`
	AmountOff     *float64 `json:"amountOff,omitempty"`
	PercentOff    *float64 `json:"percentOff,omitempty"`
	PromotionCode string   `json:"promotionCode"`
	CouponID      string   `json:"couponId"`
}

// DiscountCents computes the discount for a subtotal in minor units, clamped
// so the discount never exceeds the subtotal. Percent discounts truncate
// toward zero.
func (c *Coupon) DiscountCents(subtotalCents int64) int64 {
	var discount int64
	switch {
	case c.AmountOff != nil:
		discount = Cents(*c.AmountOff)
	case c.PercentOff != nil:
		discount = int64(float64(subtotalCents) * *c.PercentOff / 100)
	}
	if discount > subtotalCents {
		return subtotalCents
	}
	if discount < 0 {
		return 0
	}
	return discount
}
