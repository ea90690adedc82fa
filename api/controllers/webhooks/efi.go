package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/dimworks/dimpay-backend/api/responses"
	"github.com/dimworks/dimpay-backend/internal/reconciliation"
	efiwebhook "github.com/dimworks/dimpay-backend/internal/webhooks/efi"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
	"github.com/dimworks/dimpay-backend/pkg/logger"
	"github.com/dimworks/dimpay-backend/pkg/metrics"
)

type EFIWebhookService interface {
	HandleNotification(ctx context.Context, notification efiwebhook.Notification, raw json.RawMessage) (reconciliation.Outcome, error)
}

// EFIWebhook receives PIX callbacks. When a signing secret is configured
// the delivery must carry a valid HMAC signature; without one the endpoint
// runs unsigned.
func EFIWebhook(svc EFIWebhookService, guard idempotencyGuard, signingSecret string, webhookMetrics *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()
		webhookMetrics.IncReceived("efi")

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			webhookMetrics.IncFailed("efi")
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if !validSignature(payload, signingSecret, r.Header.Get(signatureHeader)) {
			webhookMetrics.IncFailed("efi")
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid callback signature"))
			return
		}

		var notification efiwebhook.Notification
		if err := json.Unmarshal(payload, &notification); err != nil {
			webhookMetrics.IncFailed("efi")
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode notification"))
			return
		}

		eventID := eventDigest(payload)
		if guard != nil {
			alreadyProcessed, err := guard.CheckAndMark(ctx, eventID)
			if err != nil {
				webhookMetrics.IncFailed("efi")
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			}
			if alreadyProcessed {
				acknowledge(w)
				return
			}
		}

		outcome, err := svc.HandleNotification(ctx, notification, payload)
		if err != nil {
			if guard != nil {
				_ = guard.Delete(ctx, eventID)
			}
			webhookMetrics.IncFailed("efi")
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if outcome == reconciliation.OutcomeIgnored && logg != nil {
			logg.Warn(ctx, "efi callback produced no mutation")
		}
		recordOutcome(webhookMetrics, "efi", outcome, start)
		acknowledge(w)
	}
}
