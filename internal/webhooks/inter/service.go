// Package interwebhook handles inbound Banco Inter PIX callbacks. Inter
// uses the same Bacen callback shape as EFI: a batch of pix items keyed by
// txid.
package interwebhook

import (
	"context"
	"encoding/json"

	"go.uber.org/multierr"

	"github.com/dimworks/dimpay-backend/internal/acquirers"
	"github.com/dimworks/dimpay-backend/internal/reconciliation"
	"github.com/dimworks/dimpay-backend/pkg/enums"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
)

// Notification is the callback body: a batch of confirmed pix credits.
type Notification struct {
	Pix []PixItem `json:"pix"`
}

// PixItem is one confirmed credit inside the callback batch.
type PixItem struct {
	TxID       string `json:"txid"`
	EndToEndID string `json:"endToEndId"`
	Value      string `json:"valor"`
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

// HandleNotification reconciles every pix item in the batch. Items without
// a txid are skipped; a fault on one item does not stop the others.
func (s *Service) HandleNotification(ctx context.Context, notification Notification, raw json.RawMessage) (reconciliation.Outcome, error) {
	if len(notification.Pix) == 0 {
		return reconciliation.OutcomeIgnored, nil
	}

	outcome := reconciliation.OutcomeIgnored
	var faults error
	for _, item := range notification.Pix {
		if item.TxID == "" {
			continue
		}
		itemOutcome, err := s.handleItem(ctx, item, raw)
		if err != nil {
			faults = multierr.Append(faults, err)
			continue
		}
		if itemOutcome != reconciliation.OutcomeIgnored {
			outcome = itemOutcome
		}
	}
	if faults != nil {
		return "", faults
	}
	return outcome, nil
}

func (s *Service) handleItem(ctx context.Context, item PixItem, raw json.RawMessage) (reconciliation.Outcome, error) {
	charge, err := s.payments.GetPayment(ctx, item.TxID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch inter charge")
	}

	endToEndID := charge.EndToEndID
	if endToEndID == "" {
		endToEndID = item.EndToEndID
	}

	return s.reconciler.Reconcile(ctx, reconciliation.ProviderNotice{
		Acquirer:          enums.AcquirerInter,
		ExternalID:        charge.ID,
		Status:            reconciliation.NormalizeProviderStatus(enums.AcquirerInter, charge.Status),
		Amount:            charge.Amount,
		EndToEndID:        endToEndID,
		ExternalReference: charge.ExternalReference,
		Raw:               raw,
	})
}
