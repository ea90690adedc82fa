package reconciliation

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/dimworks/dimpay-backend/pkg/db/models"
	"github.com/dimworks/dimpay-backend/pkg/enums"
)

func TestMatcherPriorityPrefersExternalIDColumn(t *testing.T) {
	column := &models.Transaction{ID: uuid.New()}
	metadata := &models.Transaction{ID: uuid.New()}

	repo := &stubTransactionsRepo{
		findByExternalIDFn: func(ctx context.Context, acquirer enums.Acquirer, externalID string) (*models.Transaction, error) {
			return column, nil
		},
	}
	matchers := DefaultMatchers(repo, &stubInvoicesRepo{})

	match, name, err := resolve(t, matchers, ProviderNotice{
		Acquirer:   enums.AcquirerMercadoPago,
		ExternalID: "mp-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match == nil || match.Transaction != column {
		t.Fatalf("expected column match, got %+v (metadata was %v)", match, metadata.ID)
	}
	if name != "external_id_column" {
		t.Fatalf("expected external_id_column, got %s", name)
	}
}

func TestMatcherFallsThroughToPrimaryKey(t *testing.T) {
	transaction := &models.Transaction{ID: uuid.New()}
	repo := &stubTransactionsRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
			if id == transaction.ID {
				return transaction, nil
			}
			return nil, nil
		},
	}
	matchers := DefaultMatchers(repo, &stubInvoicesRepo{})

	match, name, err := resolve(t, matchers, ProviderNotice{
		Acquirer:          enums.AcquirerMercadoPago,
		ExternalID:        "mp-1",
		ExternalReference: transaction.ID.String(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match == nil || match.Transaction != transaction {
		t.Fatalf("expected primary key match, got %+v", match)
	}
	if name != "primary_key" {
		t.Fatalf("expected primary_key, got %s", name)
	}
}

func TestMatcherPrimaryKeySkipsNonUUIDCandidates(t *testing.T) {
	repo := &stubTransactionsRepo{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
			t.Fatal("no lookup expected for non-uuid candidates")
			return nil, nil
		},
	}
	matcher := byPrimaryKey{repo: repo}

	match, err := matcher.Match(context.Background(), ProviderNotice{
		Acquirer:          enums.AcquirerEFI,
		ExternalID:        "txid-not-a-uuid",
		ExternalReference: "ref-not-a-uuid",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match != nil {
		t.Fatalf("expected no match, got %+v", match)
	}
}

func TestMatcherResolvesInvoiceLast(t *testing.T) {
	invoice := &models.Invoice{ID: uuid.New()}
	matchers := DefaultMatchers(&stubTransactionsRepo{}, &stubInvoicesRepo{
		findByExternalIDFn: func(ctx context.Context, acquirer enums.Acquirer, externalID string) (*models.Invoice, error) {
			return invoice, nil
		},
	})

	match, name, err := resolve(t, matchers, ProviderNotice{
		Acquirer:   enums.AcquirerInter,
		ExternalID: "txid-777",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match == nil || match.Invoice != invoice {
		t.Fatalf("expected invoice match, got %+v", match)
	}
	if name != "invoice_reference" {
		t.Fatalf("expected invoice_reference, got %s", name)
	}
}

func resolve(t *testing.T, matchers []Matcher, notice ProviderNotice) (*Match, string, error) {
	t.Helper()
	for _, matcher := range matchers {
		match, err := matcher.Match(context.Background(), notice)
		if err != nil {
			return nil, "", err
		}
		if match != nil {
			return match, matcher.Name(), nil
		}
	}
	return nil, "", nil
}
