// Package webhooks holds the HTTP boundary for acquirer callbacks. The
// acknowledgment bodies are raw (no success envelope) because each provider
// expects an exact shape before it stops retrying a delivery.
package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/dimworks/dimpay-backend/api/responses"
	"github.com/dimworks/dimpay-backend/internal/reconciliation"
	"github.com/dimworks/dimpay-backend/pkg/metrics"
)

const signatureHeader = "X-Signature"

type idempotencyGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// Probe answers the connectivity check acquirers issue against the
// callback URL before activating it.
func Probe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteRaw(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func acknowledge(w http.ResponseWriter) {
	responses.WriteRaw(w, http.StatusOK, map[string]bool{"received": true})
}

// validSignature verifies an HMAC-SHA256 hex signature over the payload.
// An empty secret means the endpoint runs unsigned and every delivery
// passes.
func validSignature(payload []byte, secret, header string) bool {
	if secret == "" {
		return true
	}
	if header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}

// eventDigest derives a dedupe key for callbacks that carry no event id of
// their own.
func eventDigest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func recordOutcome(m *metrics.WebhookMetrics, acquirer string, outcome reconciliation.Outcome, start time.Time) {
	m.ObserveDuration(acquirer, time.Since(start))
	switch outcome {
	case reconciliation.OutcomeIgnored:
		m.IncUnmatched(acquirer)
	case reconciliation.OutcomeSettled, reconciliation.OutcomeInvoicePaid:
		m.IncSettled(acquirer)
	}
}
