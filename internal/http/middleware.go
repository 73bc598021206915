package http

import (
	"context"
	"net/http"
)

type contextKey string

const buyerEmailKey contextKey = "buyer_email"

// BuyerAuthMiddleware reads the buyer identity from the X-Buyer-Email header.
// It stands in for session authentication; swapping in real token validation
// only changes this function.
func BuyerAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buyerEmail := r.Header.Get("X-Buyer-Email")
		if buyerEmail == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing buyer identity")
			return
		}

		ctx := context.WithValue(r.Context(), buyerEmailKey, buyerEmail)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getBuyerEmail(ctx context.Context) string {
	if email, ok := ctx.Value(buyerEmailKey).(string); ok {
		return email
	}
	return ""
}
