package mercadopagowebhook

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dimworks/dimpay-backend/internal/acquirers"
	"github.com/dimworks/dimpay-backend/internal/reconciliation"
	"github.com/dimworks/dimpay-backend/pkg/enums"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
)

type stubFetcher struct {
	payment *acquirers.Payment
	err     error
	calls   []string
}

func (s *stubFetcher) GetPayment(ctx context.Context, paymentID string) (*acquirers.Payment, error) {
	s.calls = append(s.calls, paymentID)
	return s.payment, s.err
}

type stubReconciler struct {
	outcome reconciliation.Outcome
	err     error
	notices []reconciliation.ProviderNotice
}

func (s *stubReconciler) Reconcile(ctx context.Context, notice reconciliation.ProviderNotice) (reconciliation.Outcome, error) {
	s.notices = append(s.notices, notice)
	return s.outcome, s.err
}

func TestHandleNotificationFetchesAndReconciles(t *testing.T) {
	fetcher := &stubFetcher{
		payment: &acquirers.Payment{
			ID:                "12345",
			Status:            "approved",
			Amount:            decimal.RequireFromString("100.00"),
			ExternalReference: "order-1",
			EndToEndID:        "E00000000202601010000000000009",
		},
	}
	rec := &stubReconciler{outcome: reconciliation.OutcomeSettled}
	svc, err := NewService(ServiceParams{Payments: fetcher, Reconciler: rec})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	notification := Notification{Type: "payment"}
	notification.Data.ID = "12345"

	outcome, err := svc.HandleNotification(context.Background(), notification, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != reconciliation.OutcomeSettled {
		t.Fatalf("expected settled, got %s", outcome)
	}
	if len(fetcher.calls) != 1 || fetcher.calls[0] != "12345" {
		t.Fatalf("unexpected fetch calls: %v", fetcher.calls)
	}
	if len(rec.notices) != 1 {
		t.Fatalf("expected one notice, got %d", len(rec.notices))
	}
	notice := rec.notices[0]
	if notice.Acquirer != enums.AcquirerMercadoPago || notice.ExternalID != "12345" {
		t.Fatalf("unexpected notice: %+v", notice)
	}
	if notice.Status != reconciliation.ProviderStatusApproved {
		t.Fatalf("expected approved, got %s", notice.Status)
	}
	if notice.ExternalReference != "order-1" {
		t.Fatalf("external reference not forwarded: %+v", notice)
	}
}

func TestHandleNotificationIgnoresNonPaymentEvents(t *testing.T) {
	fetcher := &stubFetcher{}
	rec := &stubReconciler{}
	svc, _ := NewService(ServiceParams{Payments: fetcher, Reconciler: rec})

	outcome, err := svc.HandleNotification(context.Background(), Notification{Type: "plan"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != reconciliation.OutcomeIgnored {
		t.Fatalf("expected ignored, got %s", outcome)
	}
	if len(fetcher.calls) != 0 {
		t.Fatal("no fetch expected for non-payment events")
	}
}

func TestHandleNotificationIgnoresMissingPaymentID(t *testing.T) {
	fetcher := &stubFetcher{}
	svc, _ := NewService(ServiceParams{Payments: fetcher, Reconciler: &stubReconciler{}})

	outcome, err := svc.HandleNotification(context.Background(), Notification{Type: "payment"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != reconciliation.OutcomeIgnored {
		t.Fatalf("expected ignored, got %s", outcome)
	}
}

func TestHandleNotificationSurfacesFetchFailure(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("upstream timeout")}
	svc, _ := NewService(ServiceParams{Payments: fetcher, Reconciler: &stubReconciler{}})

	notification := Notification{Type: "payment"}
	notification.Data.ID = "12345"

	_, err := svc.HandleNotification(context.Background(), notification, nil)
	if err == nil {
		t.Fatal("expected error when fetch fails")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNotificationPaymentIDShapes(t *testing.T) {
	var legacy Notification
	if err := json.Unmarshal([]byte(`{"topic":"payment","id":12345}`), &legacy); err != nil {
		t.Fatalf("decode legacy: %v", err)
	}
	if !legacy.IsPayment() || legacy.PaymentID() != "12345" {
		t.Fatalf("legacy shape not handled: %q", legacy.PaymentID())
	}

	var modern Notification
	if err := json.Unmarshal([]byte(`{"type":"payment","action":"payment.updated","data":{"id":"987"}}`), &modern); err != nil {
		t.Fatalf("decode modern: %v", err)
	}
	if !modern.IsPayment() || modern.PaymentID() != "987" {
		t.Fatalf("modern shape not handled: %q", modern.PaymentID())
	}
}
