// Package stripe is the REST client for the external payment processor. It
// covers the three surfaces the pipeline needs: payment intents, coupons and
// promotion codes, plus webhook signature verification.
package stripe

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fjod/go-storefront/internal/domain"
	"github.com/fjod/go-storefront/internal/payment"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
)

const defaultBaseURL = "https://api.stripe.com/v1"

type Config struct {
	SecretKey string
	BaseURL   string // defaults to the live API, overridable for tests
	Timeout   time.Duration
}

type Client struct {
	http *resty.Client
	cb   *gobreaker.CircuitBreaker[*resty.Response]
}

func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(cfg.SecretKey, "").
		SetTimeout(timeout)

	cb := gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
		Name: "stripe",
	})

	return &Client{http: httpClient, cb: cb}
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
}

type couponResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	AmountOff  *int64   `json:"amount_off"` // minor units on the wire
	PercentOff *float64 `json:"percent_off"`
}

type promotionCode struct {
	ID     string         `json:"id"`
	Code   string         `json:"code"`
	Coupon couponResponse `json:"coupon"`
}

type promotionCodeList struct {
	Data []promotionCode `json:"data"`
}

func (c *Client) CreateIntent(ctx context.Context, amountCents int64) (*payment.Intent, error) {
	var result intentResponse
	resp, err := c.cb.Execute(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetFormData(map[string]string{
				"amount":                  strconv.FormatInt(amountCents, 10),
				"currency":                "usd",
				"payment_method_types[0]": "card",
			}).
			SetResult(&result).
			Post("/payment_intents")
	})
	if err != nil {
		return nil, fmt.Errorf("stripe create intent failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("stripe create intent rejected: %s", resp.Status())
	}

	return &payment.Intent{ID: result.ID, ClientSecret: result.ClientSecret, Amount: result.Amount}, nil
}

func (c *Client) UpdateIntent(ctx context.Context, id string, amountCents int64) (*payment.Intent, error) {
	var result intentResponse
	resp, err := c.cb.Execute(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetFormData(map[string]string{
				"amount": strconv.FormatInt(amountCents, 10),
			}).
			SetResult(&result).
			Post("/payment_intents/" + id)
	})
	if err != nil {
		return nil, fmt.Errorf("stripe update intent failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("stripe update intent rejected: %s", resp.Status())
	}

	return &payment.Intent{ID: result.ID, ClientSecret: result.ClientSecret, Amount: result.Amount}, nil
}

func (c *Client) CouponByID(ctx context.Context, id string) (*domain.Coupon, error) {
	var result couponResponse
	resp, err := c.cb.Execute(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetResult(&result).
			Get("/coupons/" + id)
	})
	if err != nil {
		return nil, fmt.Errorf("stripe get coupon failed: %w", err)
	}
	if resp.StatusCode() == 404 {
		return nil, payment.ErrCouponNotFound
	}
	if resp.IsError() {
		return nil, fmt.Errorf("stripe get coupon rejected: %s", resp.Status())
	}

	coupon := convertCoupon(result, "")
	return &coupon, nil
}

func (c *Client) CouponByPromoCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var result promotionCodeList
	resp, err := c.cb.Execute(func() (*resty.Response, error) {
		return c.http.R().
			SetContext(ctx).
			SetQueryParam("code", code).
			SetQueryParam("active", "true").
			SetResult(&result).
			Get("/promotion_codes")
	})
	if err != nil {
		return nil, fmt.Errorf("stripe list promotion codes failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("stripe list promotion codes rejected: %s", resp.Status())
	}

	if len(result.Data) == 0 {
		return nil, payment.ErrCouponNotFound
	}

	promo := result.Data[0]
	coupon := convertCoupon(promo.Coupon, promo.Code)
	return &coupon, nil
}

// convertCoupon maps the wire coupon to the domain one. Stripe reports
// amount_off in minor units; the domain keeps major units like every other
// price field that predates cent conversion.
func convertCoupon(c couponResponse, promoCode string) domain.Coupon {
	coupon := domain.Coupon{
		Name:          c.Name,
		CouponID:      c.ID,
		PromotionCode: promoCode,
		PercentOff:    c.PercentOff,
	}
	if c.AmountOff != nil {
		amount := float64(*c.AmountOff) / 100
		coupon.AmountOff = &amount
	}
	return coupon
}
