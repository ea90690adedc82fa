package efiwebhook

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dimworks/dimpay-backend/internal/acquirers"
	"github.com/dimworks/dimpay-backend/internal/reconciliation"
	"github.com/dimworks/dimpay-backend/pkg/enums"
)

type stubFetcher struct {
	payments map[string]*acquirers.Payment
	err      error
}

func (s *stubFetcher) GetPayment(ctx context.Context, paymentID string) (*acquirers.Payment, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.payments[paymentID], nil
}

type stubReconciler struct {
	outcome reconciliation.Outcome
	notices []reconciliation.ProviderNotice
}

func (s *stubReconciler) Reconcile(ctx context.Context, notice reconciliation.ProviderNotice) (reconciliation.Outcome, error) {
	s.notices = append(s.notices, notice)
	return s.outcome, nil
}

func TestHandleNotificationReconcilesEachPixItem(t *testing.T) {
	fetcher := &stubFetcher{payments: map[string]*acquirers.Payment{
		"txid-1": {ID: "txid-1", Status: "CONCLUIDA", Amount: decimal.RequireFromString("10.00")},
		"txid-2": {ID: "txid-2", Status: "CONCLUIDA", Amount: decimal.RequireFromString("20.00")},
	}}
	rec := &stubReconciler{outcome: reconciliation.OutcomeSettled}
	svc, err := NewService(ServiceParams{Payments: fetcher, Reconciler: rec})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	outcome, err := svc.HandleNotification(context.Background(), Notification{
		Pix: []PixItem{
			{TxID: "txid-1", EndToEndID: "E1"},
			{TxID: "txid-2", EndToEndID: "E2"},
		},
	}, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != reconciliation.OutcomeSettled {
		t.Fatalf("expected settled, got %s", outcome)
	}
	if len(rec.notices) != 2 {
		t.Fatalf("expected 2 notices, got %d", len(rec.notices))
	}
	for _, notice := range rec.notices {
		if notice.Acquirer != enums.AcquirerEFI {
			t.Fatalf("unexpected acquirer: %s", notice.Acquirer)
		}
		if notice.Status != reconciliation.ProviderStatusApproved {
			t.Fatalf("expected normalized approved, got %s", notice.Status)
		}
	}
}

func TestHandleNotificationUsesCallbackEndToEndIDWhenChargeOmitsIt(t *testing.T) {
	fetcher := &stubFetcher{payments: map[string]*acquirers.Payment{
		"txid-1": {ID: "txid-1", Status: "CONCLUIDA"},
	}}
	rec := &stubReconciler{outcome: reconciliation.OutcomeSettled}
	svc, _ := NewService(ServiceParams{Payments: fetcher, Reconciler: rec})

	_, err := svc.HandleNotification(context.Background(), Notification{
		Pix: []PixItem{{TxID: "txid-1", EndToEndID: "E-from-callback"}},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.notices) != 1 || rec.notices[0].EndToEndID != "E-from-callback" {
		t.Fatalf("callback end to end id not used: %+v", rec.notices)
	}
}

func TestHandleNotificationEmptyBatchIsIgnored(t *testing.T) {
	svc, _ := NewService(ServiceParams{Payments: &stubFetcher{}, Reconciler: &stubReconciler{}})

	outcome, err := svc.HandleNotification(context.Background(), Notification{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != reconciliation.OutcomeIgnored {
		t.Fatalf("expected ignored, got %s", outcome)
	}
}

func TestHandleNotificationAggregatesItemFaults(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("api unavailable")}
	svc, _ := NewService(ServiceParams{Payments: fetcher, Reconciler: &stubReconciler{}})

	_, err := svc.HandleNotification(context.Background(), Notification{
		Pix: []PixItem{{TxID: "txid-1"}, {TxID: "txid-2"}},
	}, nil)
	if err == nil {
		t.Fatal("expected error when every fetch fails")
	}
}
