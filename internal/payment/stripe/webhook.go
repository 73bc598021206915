package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go-storefront/internal/webhook"
)

// defaultTolerance bounds how stale a signed timestamp may be before the
// delivery is treated as a replay.
const defaultTolerance = 5 * time.Minute

// WebhookVerifier checks Stripe-Signature headers. The signed payload is
// "<timestamp>.<body>" and v1 carries its hex HMAC-SHA256 under the endpoint
// secret.
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{
		secret:    []byte(secret),
		tolerance: defaultTolerance,
		now:       time.Now,
	}
}

type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID             string `json:"id"`
			AmountReceived int64  `json:"amount_received"`
			Amount         int64  `json:"amount"`
			Status         string `json:"status"`
		} `json:"object"`
	} `json:"data"`
}

func (v *WebhookVerifier) Verify(payload []byte, signature string) (*webhook.Event, error) {
	timestamp, candidates, err := parseSignatureHeader(signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", webhook.ErrInvalidSignature, err)
	}

	age := v.now().Sub(time.Unix(timestamp, 0))
	if age > v.tolerance || age < -v.tolerance {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", webhook.ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, v.secret)
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	verified := false
	for _, candidate := range candidates {
		sig, err := hex.DecodeString(candidate)
		if err != nil {
			continue
		}
		if hmac.Equal(expected, sig) {
			verified = true
			break
		}
	}
	if !verified {
		return nil, fmt.Errorf("%w: no matching v1 signature", webhook.ErrInvalidSignature)
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	amount := envelope.Data.Object.AmountReceived
	if amount == 0 {
		amount = envelope.Data.Object.Amount
	}

	return &webhook.Event{
		ID:             envelope.ID,
		Type:           envelope.Type,
		IntentID:       envelope.Data.Object.ID,
		AmountReceived: amount,
	}, nil
}

// parseSignatureHeader splits "t=1700000000,v1=abc,v1=def" into the timestamp
// and all v1 candidates. Unknown schemes are skipped so key rotation headers
// still verify.
func parseSignatureHeader(header string) (int64, []string, error) {
	var (
		timestamp  int64
		candidates []string
	)
	seenTimestamp := false

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("bad timestamp %q", value)
			}
			timestamp = ts
			seenTimestamp = true
		case "v1":
			candidates = append(candidates, value)
		}
	}

	if !seenTimestamp {
		return 0, nil, fmt.Errorf("missing timestamp")
	}
	if len(candidates) == 0 {
		return 0, nil, fmt.Errorf("missing v1 signature")
	}
	return timestamp, candidates, nil
}
