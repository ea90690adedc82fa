package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dimworks/dimpay-backend/api/responses"
	"github.com/dimworks/dimpay-backend/api/validators"
	"github.com/dimworks/dimpay-backend/internal/reconciliation"
	"github.com/dimworks/dimpay-backend/internal/transactions"
	"github.com/dimworks/dimpay-backend/pkg/enums"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
	"github.com/dimworks/dimpay-backend/pkg/logger"
)

type manualStatusApplier interface {
	ApplyManualStatus(ctx context.Context, transactionID uuid.UUID, status enums.TransactionStatus) (reconciliation.Outcome, error)
}

type transactionStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=processing completed failed expired cancelled"`
}

func TransactionDetail(repo transactions.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		transactionID, err := uuid.Parse(chi.URLParam(r, "transactionID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction id"))
			return
		}

		transaction, err := repo.FindByID(ctx, transactionID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction"))
			return
		}
		if transaction == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found"))
			return
		}
		responses.WriteSuccess(w, transaction)
	}
}

// TransactionStatusUpdate is the manual override for operators. A move into
// completed runs the regular settlement path, so it cannot double-credit a
// transaction a webhook already settled.
func TransactionStatusUpdate(applier manualStatusApplier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		transactionID, err := uuid.Parse(chi.URLParam(r, "transactionID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction id"))
			return
		}

		var req transactionStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status, err := enums.ParseTransactionStatus(req.Status)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		outcome, err := applier.ApplyManualStatus(ctx, transactionID, status)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"outcome": string(outcome)})
	}
}
