package invoices

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dimworks/dimpay-backend/internal/fees"
	"github.com/dimworks/dimpay-backend/pkg/barcode"
	"github.com/dimworks/dimpay-backend/pkg/db"
	"github.com/dimworks/dimpay-backend/pkg/db/models"
	"github.com/dimworks/dimpay-backend/pkg/enums"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
)

const boletoCurrencyCode = "9"

// IssueParams describes a new boleto charge.
type IssueParams struct {
	UserID      uuid.UUID
	Acquirer    enums.Acquirer
	ExternalID  string
	Amount      decimal.Decimal
	Description string
	DueDate     time.Time
}

// Service issues boleto invoices and resolves them by id. Payment
// confirmation arrives later through the webhook pipeline.
type Service interface {
	Issue(ctx context.Context, params IssueParams) (*models.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error)
}

type ServiceParams struct {
	Repo      Repository
	FeePolicy *fees.Policy

	// BankCode is the three-digit issuing bank compensation code stamped
	// into every barcode.
	BankCode string
}

type service struct {
	repo      Repository
	feePolicy *fees.Policy
	bankCode  string
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "invoice repository required")
	}
	if params.FeePolicy == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fee policy required")
	}
	if len(params.BankCode) != 3 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "bank code must have 3 digits")
	}
	return &service{
		repo:      params.Repo,
		feePolicy: params.FeePolicy,
		bankCode:  params.BankCode,
	}, nil
}

func (s *service) Issue(ctx context.Context, params IssueParams) (*models.Invoice, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !params.Acquirer.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown acquirer")
	}
	if params.ExternalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external id required")
	}
	if params.DueDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "due date required")
	}

	quote, err := s.feePolicy.Quote(params.Amount, enums.TransactionTypeDeposit, params.Acquirer)
	if err != nil {
		return nil, err
	}

	factor, err := barcode.DueFactor(params.DueDate)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid due date")
	}

	invoiceID := uuid.New()
	code, err := barcode.ComputeBarcode(s.bankCode, boletoCurrencyCode, factor, params.Amount, freeField(invoiceID))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute barcode")
	}
	line, err := barcode.ComputeDigitableLine(code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute digitable line")
	}

	dueDate := params.DueDate
	invoice := &models.Invoice{
		ID:            invoiceID,
		UserID:        params.UserID,
		Acquirer:      params.Acquirer,
		ExternalID:    params.ExternalID,
		Status:        enums.InvoiceStatusOpen,
		Amount:        params.Amount,
		FeeAmount:     quote.FeeAmount,
		NetAmount:     quote.NetAmount,
		Barcode:       code,
		DigitableLine: line,
		DueDate:       &dueDate,
	}
	if params.Description != "" {
		invoice.Description = &params.Description
	}

	if err := s.repo.Create(ctx, invoice); err != nil {
		if db.IsUniqueViolation(err, "idx_invoices_acquirer_external_id") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "invoice already exists for this charge")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist invoice")
	}
	return invoice, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice id required")
	}
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invoice not found")
	}
	return invoice, nil
}

// freeField renders the 25 free digits of the barcode from the invoice id,
// so the boleto can be traced back without a separate sequence.
func freeField(id uuid.UUID) string {
	buf := make([]byte, 0, 25)
	for _, b := range id {
		buf = append(buf, '0'+b%10)
	}
	for len(buf) < 25 {
		buf = append(buf, '0')
	}
	return string(buf)
}
