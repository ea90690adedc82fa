package reconciliation

import (
	"context"

	"github.com/google/uuid"

	"github.com/dimworks/dimpay-backend/internal/invoices"
	"github.com/dimworks/dimpay-backend/internal/transactions"
	"github.com/dimworks/dimpay-backend/pkg/db/models"
)

// Match is the payable record a notice resolved to. Exactly one field is
// non-nil.
type Match struct {
	Transaction *models.Transaction
	Invoice     *models.Invoice
}

// Matcher is one lookup strategy. Strategies are tried in a fixed priority
// order; the first non-nil match wins. A nil match with a nil error means
// "not mine, try the next one".
type Matcher interface {
	Name() string
	Match(ctx context.Context, notice ProviderNotice) (*Match, error)
}

// DefaultMatchers returns the strategies in their canonical priority order:
// dedicated external-id column, metadata fallback, provider id as primary
// key, then invoice reference.
func DefaultMatchers(transactionsRepo transactions.Repository, invoicesRepo invoices.Repository) []Matcher {
	return []Matcher{
		byExternalIDColumn{repo: transactionsRepo},
		byMetadataField{repo: transactionsRepo},
		byPrimaryKey{repo: transactionsRepo},
		byInvoiceReference{repo: invoicesRepo},
	}
}

type byExternalIDColumn struct {
	repo transactions.Repository
}

func (m byExternalIDColumn) Name() string { return "external_id_column" }

func (m byExternalIDColumn) Match(ctx context.Context, notice ProviderNotice) (*Match, error) {
	transaction, err := m.repo.FindByExternalID(ctx, notice.Acquirer, notice.ExternalID)
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		return nil, nil
	}
	return &Match{Transaction: transaction}, nil
}

type byMetadataField struct {
	repo transactions.Repository
}

func (m byMetadataField) Name() string { return "metadata_field" }

func (m byMetadataField) Match(ctx context.Context, notice ProviderNotice) (*Match, error) {
	transaction, err := m.repo.FindByMetadataExternalID(ctx, notice.Acquirer, notice.ExternalID)
	if err != nil {
		return nil, err
	}
	if transaction == nil {
		return nil, nil
	}
	return &Match{Transaction: transaction}, nil
}

// byPrimaryKey covers the flows that reuse the provider id (or the external
// reference echoed back by the provider) as the internal transaction key.
type byPrimaryKey struct {
	repo transactions.Repository
}

func (m byPrimaryKey) Name() string { return "primary_key" }

func (m byPrimaryKey) Match(ctx context.Context, notice ProviderNotice) (*Match, error) {
	for _, candidate := range []string{notice.ExternalReference, notice.ExternalID} {
		if candidate == "" {
			continue
		}
		id, err := uuid.Parse(candidate)
		if err != nil {
			continue
		}
		transaction, err := m.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if transaction != nil {
			return &Match{Transaction: transaction}, nil
		}
	}
	return nil, nil
}

type byInvoiceReference struct {
	repo invoices.Repository
}

func (m byInvoiceReference) Name() string { return "invoice_reference" }

func (m byInvoiceReference) Match(ctx context.Context, notice ProviderNotice) (*Match, error) {
	invoice, err := m.repo.FindByExternalID(ctx, notice.Acquirer, notice.ExternalID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, nil
	}
	return &Match{Invoice: invoice}, nil
}
