package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/dimworks/dimpay-backend/api/responses"
	"github.com/dimworks/dimpay-backend/internal/reconciliation"
	mercadopagowebhook "github.com/dimworks/dimpay-backend/internal/webhooks/mercadopago"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
	"github.com/dimworks/dimpay-backend/pkg/logger"
	"github.com/dimworks/dimpay-backend/pkg/metrics"
)

type MercadoPagoWebhookService interface {
	HandleNotification(ctx context.Context, notification mercadopagowebhook.Notification, raw json.RawMessage) (reconciliation.Outcome, error)
}

// MercadoPagoWebhook receives payment notifications. Mercado Pago retries
// aggressively on anything but 200, so every handled-or-ignored case
// acknowledges; only unparseable JSON and downstream faults do not.
func MercadoPagoWebhook(svc MercadoPagoWebhookService, guard idempotencyGuard, webhookMetrics *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()
		webhookMetrics.IncReceived("mercadopago")

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			webhookMetrics.IncFailed("mercadopago")
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		var notification mercadopagowebhook.Notification
		if err := json.Unmarshal(payload, &notification); err != nil {
			webhookMetrics.IncFailed("mercadopago")
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode notification"))
			return
		}

		// Dedupe on the delivery body, never the payment id: Mercado Pago
		// sends several distinct events per payment (created while pending,
		// updated on approval, same data.id), and a payment-keyed mark would
		// swallow the approval that follows a pending notification.
		eventID := eventDigest(payload)
		if guard != nil {
			alreadyProcessed, err := guard.CheckAndMark(ctx, eventID)
			if err != nil {
				webhookMetrics.IncFailed("mercadopago")
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
			webhookMetrics.IncFailed("mercadopago")
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if outcome == reconciliation.OutcomeIgnored && logg != nil {
			logg.Warn(ctx, "mercado pago notification produced no mutation")
		}
		recordOutcome(webhookMetrics, "mercadopago", outcome, start)
		acknowledge(w)
	}
}
