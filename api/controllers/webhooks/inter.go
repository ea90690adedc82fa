package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/dimworks/dimpay-backend/api/responses"
	"github.com/dimworks/dimpay-backend/internal/reconciliation"
	interwebhook "github.com/dimworks/dimpay-backend/internal/webhooks/inter"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
	"github.com/dimworks/dimpay-backend/pkg/logger"
	"github.com/dimworks/dimpay-backend/pkg/metrics"
)

type InterWebhookService interface {
	HandleNotification(ctx context.Context, notification interwebhook.Notification, raw json.RawMessage) (reconciliation.Outcome, error)
}

// InterWebhook receives PIX callbacks from Banco Inter. Same contract as
// the EFI endpoint: optional HMAC signature, batch of pix items per body.
func InterWebhook(svc InterWebhookService, guard idempotencyGuard, signingSecret string, webhookMetrics *metrics.WebhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		start := time.Now()
		webhookMetrics.IncReceived("inter")

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			webhookMetrics.IncFailed("inter")
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if !validSignature(payload, signingSecret, r.Header.Get(signatureHeader)) {
			webhookMetrics.IncFailed("inter")
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid callback signature"))
			return
		}

		var notification interwebhook.Notification
		if err := json.Unmarshal(payload, &notification); err != nil {
			webhookMetrics.IncFailed("inter")
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode notification"))
			return
		}

		eventID := eventDigest(payload)
		if guard != nil {
			alreadyProcessed, err := guard.CheckAndMark(ctx, eventID)
			if err != nil {
				webhookMetrics.IncFailed("inter")
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
			webhookMetrics.IncFailed("inter")
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if outcome == reconciliation.OutcomeIgnored && logg != nil {
			logg.Warn(ctx, "inter callback produced no mutation")
		}
		recordOutcome(webhookMetrics, "inter", outcome, start)
		acknowledge(w)
	}
}
