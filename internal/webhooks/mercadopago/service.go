// Package mercadopagowebhook handles inbound Mercado Pago notifications.
// Notifications are abbreviated: they carry the payment id and an event
// discriminator, never the final status, so the handler always fetches the
// authoritative payment record before reconciling.
package mercadopagowebhook

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/dimworks/dimpay-backend/internal/acquirers"
	"github.com/dimworks/dimpay-backend/internal/reconciliation"
	"github.com/dimworks/dimpay-backend/pkg/enums"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
)

// Notification is the webhook body Mercado Pago delivers. The legacy IPN
// shape uses top-level id/topic; the newer shape nests the id under data.
type Notification struct {
	Action string `json:"action"`
	Type   string `json:"type"`
	Topic  string `json:"topic"`
	ID     any    `json:"id"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// PaymentID extracts the provider payment id, whichever shape delivered it.
func (n Notification) PaymentID() string {
	if n.Data.ID != "" {
		return n.Data.ID
	}
	switch id := n.ID.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}

// IsPayment reports whether the notification refers to a payment event.
func (n Notification) IsPayment() bool {
	return n.Type == "payment" || n.Topic == "payment"
}

type reconciler interface {
	Reconcile(ctx context.Context, notice reconciliation.ProviderNotice) (reconciliation.Outcome, error)
}

type ServiceParams struct {
	Payments   acquirers.PaymentFetcher
	Reconciler reconciler
}

type Service struct {
	payments   acquirers.PaymentFetcher
	reconciler reconciler
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments client required")
	}
	if params.Reconciler == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reconciler required")
	}
	return &Service{
		payments:   params.Payments,
		reconciler: params.Reconciler,
	}, nil
}

// HandleNotification fetches the payment the notification refers to and
// reconciles it. Non-payment events and notifications without a payment id
// are acknowledged without side effects.
func (s *Service) HandleNotification(ctx context.Context, notification Notification, raw json.RawMessage) (reconciliation.Outcome, error) {
	if !notification.IsPayment() {
		return reconciliation.OutcomeIgnored, nil
	}
	paymentID := notification.PaymentID()
	if paymentID == "" {
		return reconciliation.OutcomeIgnored, nil
	}

	payment, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch mercado pago payment")
	}

	return s.reconciler.Reconcile(ctx, reconciliation.ProviderNotice{
		Acquirer:          enums.AcquirerMercadoPago,
		ExternalID:        payment.ID,
		Status:            reconciliation.NormalizeProviderStatus(enums.AcquirerMercadoPago, payment.Status),
		Amount:            payment.Amount,
		EndToEndID:        payment.EndToEndID,
		ExternalReference: payment.ExternalReference,
		Raw:               raw,
	})
}
