package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dimworks/dimpay-backend/internal/reconciliation"
	"github.com/dimworks/dimpay-backend/pkg/enums"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
)

type fakeStatusApplier struct {
	calls   int
	gotID   uuid.UUID
	gotStat enums.TransactionStatus
	outcome reconciliation.Outcome
	err     error
}

func (f *fakeStatusApplier) ApplyManualStatus(ctx context.Context, transactionID uuid.UUID, status enums.TransactionStatus) (reconciliation.Outcome, error) {
	f.calls++
	f.gotID = transactionID
	f.gotStat = status
	return f.outcome, f.err
}

func newStatusRequest(t *testing.T, transactionID uuid.UUID, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+transactionID.String()+"/status", bytes.NewReader([]byte(body)))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("transactionID", transactionID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestTransactionStatusUpdate_Success(t *testing.T) {
	applier := &fakeStatusApplier{outcome: reconciliation.OutcomeSettled}
	handler := TransactionStatusUpdate(applier, nil)
	transactionID := uuid.New()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newStatusRequest(t, transactionID, `{"status":"completed"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if applier.calls != 1 || applier.gotID != transactionID || applier.gotStat != enums.TransactionStatusCompleted {
		t.Fatalf("unexpected applier call: %+v", applier)
	}

	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["outcome"] != "settled" {
		t.Fatalf("unexpected outcome: %+v", envelope.Data)
	}
}

func TestTransactionStatusUpdate_AllowsCancellation(t *testing.T) {
	applier := &fakeStatusApplier{outcome: reconciliation.OutcomeStatusUpdated}
	handler := TransactionStatusUpdate(applier, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newStatusRequest(t, uuid.New(), `{"status":"cancelled"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if applier.gotStat != enums.TransactionStatusCancelled {
		t.Fatalf("expected cancelled target, got %s", applier.gotStat)
	}
}

func TestTransactionStatusUpdate_RejectsUnknownStatus(t *testing.T) {
	applier := &fakeStatusApplier{}
	handler := TransactionStatusUpdate(applier, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newStatusRequest(t, uuid.New(), `{"status":"paid"}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if applier.calls != 0 {
		t.Fatal("applier should not run for invalid status")
	}
}

func TestTransactionStatusUpdate_TerminalConflict(t *testing.T) {
	applier := &fakeStatusApplier{err: pkgerrors.New(pkgerrors.CodeStateConflict, "transaction already finalized")}
	handler := TransactionStatusUpdate(applier, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newStatusRequest(t, uuid.New(), `{"status":"failed"}`))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestTransactionStatusUpdate_InvalidID(t *testing.T) {
	handler := TransactionStatusUpdate(&fakeStatusApplier{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions/not-a-uuid/status", bytes.NewReader([]byte(`{"status":"completed"}`)))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("transactionID", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
