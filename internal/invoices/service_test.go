package invoices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dimworks/dimpay-backend/internal/fees"
	"github.com/dimworks/dimpay-backend/pkg/config"
	"github.com/dimworks/dimpay-backend/pkg/db/models"
	"github.com/dimworks/dimpay-backend/pkg/enums"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
)

type stubRepo struct {
	createFn   func(ctx context.Context, invoice *models.Invoice) error
	findByIDFn func(ctx context.Context, id uuid.UUID) (*models.Invoice, error)

	created []*models.Invoice
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	s.created = append(s.created, invoice)
	if s.createFn != nil {
		return s.createFn(ctx, invoice)
	}
	return nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (s *stubRepo) FindByExternalID(ctx context.Context, acquirer enums.Acquirer, externalID string) (*models.Invoice, error) {
	return nil, nil
}

func (s *stubRepo) MarkPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, nil
}

func testFeePolicy() *fees.Policy {
	return fees.NewPolicy(config.FeeConfig{
		DepositPercent:    decimal.NewFromFloat(1.0),
		TransferPercent:   decimal.NewFromFloat(3.5),
		TransferMinimum:   decimal.NewFromFloat(0.60),
		WithdrawalFlat:    decimal.NewFromFloat(2.00),
		WithdrawalFlatEFI: decimal.NewFromFloat(1.70),
	})
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: repo, FeePolicy: testFeePolicy(), BankCode: "001"})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func issueParams() IssueParams {
	return IssueParams{
		UserID:      uuid.New(),
		Acquirer:    enums.AcquirerEFI,
		ExternalID:  "txid-invoice-1",
		Amount:      decimal.NewFromFloat(250.00),
		Description: "Mensalidade agosto",
		DueDate:     time.Now().AddDate(0, 0, 10),
	}
}

func TestIssueBuildsBarcodeAndFees(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)

	invoice, err := svc.Issue(context.Background(), issueParams())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one persisted invoice, got %d", len(repo.created))
	}
	if invoice.Status != enums.InvoiceStatusOpen {
		t.Fatalf("expected open status, got %s", invoice.Status)
	}
	if len(invoice.Barcode) != 44 {
		t.Fatalf("expected 44-digit barcode, got %d digits", len(invoice.Barcode))
	}
	if len(invoice.DigitableLine) != 47 {
		t.Fatalf("expected 47-digit digitable line, got %d digits", len(invoice.DigitableLine))
	}
	if !invoice.FeeAmount.Equal(decimal.NewFromFloat(2.50)) {
		t.Fatalf("expected fee 2.50, got %s", invoice.FeeAmount)
	}
	if !invoice.NetAmount.Equal(decimal.NewFromFloat(247.50)) {
		t.Fatalf("expected net 247.50, got %s", invoice.NetAmount)
	}
	if invoice.DueDate == nil {
		t.Fatal("expected due date on invoice")
	}
	if invoice.Description == nil || *invoice.Description != "Mensalidade agosto" {
		t.Fatal("expected description on invoice")
	}
}

func TestIssueMapsDuplicateChargeToConflict(t *testing.T) {
	repo := &stubRepo{
		createFn: func(ctx context.Context, invoice *models.Invoice) error {
			return errors.New(`ERROR: duplicate key value violates unique constraint "idx_invoices_acquirer_external_id" (SQLSTATE 23505)`)
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.Issue(context.Background(), issueParams())
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict code, got %v", err)
	}
}

func TestIssueRejectsPastDueWindow(t *testing.T) {
	svc := newTestService(t, &stubRepo{})

	params := issueParams()
	params.DueDate = time.Date(1995, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Issue(context.Background(), params)
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
}

func TestIssueValidatesParams(t *testing.T) {
	svc := newTestService(t, &stubRepo{})

	cases := []struct {
		name   string
		mutate func(*IssueParams)
	}{
		{"missing user", func(p *IssueParams) { p.UserID = uuid.Nil }},
		{"unknown acquirer", func(p *IssueParams) { p.Acquirer = "picpay" }},
		{"missing external id", func(p *IssueParams) { p.ExternalID = "" }},
		{"zero due date", func(p *IssueParams) { p.DueDate = time.Time{} }},
		{"non-positive amount", func(p *IssueParams) { p.Amount = decimal.Zero }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := issueParams()
			tc.mutate(&params)
			_, err := svc.Issue(context.Background(), params)
			if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation code, got %v", err)
			}
		})
	}
}

func TestGetReturnsNotFound(t *testing.T) {
	svc := newTestService(t, &stubRepo{})

	_, err := svc.Get(context.Background(), uuid.New())
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found code, got %v", err)
	}
}

func TestGetReturnsInvoice(t *testing.T) {
	id := uuid.New()
	repo := &stubRepo{
		findByIDFn: func(ctx context.Context, got uuid.UUID) (*models.Invoice, error) {
			if got != id {
				return nil, nil
			}
			return &models.Invoice{ID: id, Status: enums.InvoiceStatusOpen}, nil
		},
	}
	svc := newTestService(t, repo)

	invoice, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if invoice.ID != id {
		t.Fatalf("expected invoice %s, got %s", id, invoice.ID)
	}
}
