package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dimworks/dimpay-backend/api/responses"
	"github.com/dimworks/dimpay-backend/api/validators"
	"github.com/dimworks/dimpay-backend/internal/invoices"
	"github.com/dimworks/dimpay-backend/pkg/enums"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
	"github.com/dimworks/dimpay-backend/pkg/logger"
)

type invoiceCreateRequest struct {
	UserID      string `json:"user_id" validate:"required,uuid"`
	Acquirer    string `json:"acquirer" validate:"required,oneof=mercadopago efi inter"`
	ExternalID  string `json:"external_id" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description"`
	DueDate     string `json:"due_date" validate:"required,datetime=2006-01-02"`
}

// InvoiceCreate issues a boleto for an already registered acquirer charge.
// The amount travels as a string to keep cents exact on the wire.
func InvoiceCreate(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req invoiceCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid user id"))
			return
		}
		acquirer, err := enums.ParseAcquirer(req.Acquirer)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid acquirer"))
			return
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid amount"))
			return
		}
		dueDate, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid due date"))
			return
		}

		invoice, err := svc.Issue(ctx, invoices.IssueParams{
			UserID:      userID,
			Acquirer:    acquirer,
			ExternalID:  req.ExternalID,
			Amount:      amount,
			Description: req.Description,
			DueDate:     dueDate,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invoice)
	}
}

func InvoiceDetail(svc invoices.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		invoiceID, err := uuid.Parse(chi.URLParam(r, "invoiceID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid invoice id"))
			return
		}

		invoice, err := svc.Get(ctx, invoiceID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, invoice)
	}
}
