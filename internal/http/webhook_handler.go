package http

import (
	"io"
	"log"
	"net/http"

	"github.com/fjod/go-storefront/internal/webhook"
)

type WebhookHandler struct {
	processor *webhook.Processor
}

func NewWebhookHandler(processor *webhook.Processor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// HandleWebhook feeds the raw body and signature header to the reconciliation
// processor. Any failure answers 500 so the provider redelivers; only a fully
// absorbed delivery gets a 200.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "read_failed", "failed to read webhook body")
		return
	}

	signature := r.Header.Get("Stripe-Signature")

	if err := h.processor.Process(r.Context(), payload, signature); err != nil {
		log.Printf("webhook processing failed: %v", err)
		respondError(w, http.StatusInternalServerError, "webhook_failed", "webhook could not be processed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
