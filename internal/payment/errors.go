package payment

import "errors"

var (
	ErrCartNotFound          = errors.New("cart not found")
	ErrProductUnavailable    = errors.New("product in cart is unavailable")
	ErrDeliveryMethodInvalid = errors.New("delivery method is invalid")
	ErrInvalidCoupon         = errors.New("invalid coupon code")
)
