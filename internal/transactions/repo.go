package transactions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dimworks/dimpay-backend/pkg/db/models"
	"github.com/dimworks/dimpay-backend/pkg/enums"
)

// Repository manages persistence for payment transactions. Lookup helpers
// return (nil, nil) when no row matches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, transaction *models.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindByExternalID(ctx context.Context, acquirer enums.Acquirer, externalID string) (*models.Transaction, error)
	FindByMetadataExternalID(ctx context.Context, acquirer enums.Acquirer, externalID string) (*models.Transaction, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, status enums.TransactionStatus, endToEndID *string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a transaction repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, transaction *models.Transaction) error {
	return r.db.WithContext(ctx).Create(transaction).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).First(&transaction, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *repository) FindByExternalID(ctx context.Context, acquirer enums.Acquirer, externalID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).
		Where("acquirer = ? AND external_id = ?", acquirer, externalID).
		First(&transaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// FindByMetadataExternalID matches legacy rows that stored the provider id
// inside the metadata document instead of the dedicated column.
func (r *repository) FindByMetadataExternalID(ctx context.Context, acquirer enums.Acquirer, externalID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.db.WithContext(ctx).
		Where("acquirer = ? AND metadata->>'external_id' = ?", acquirer, externalID).
		First(&transaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// TransitionStatus drives a transaction into the given status only if it is
// still in a non-terminal state. The row-count check is the idempotency gate
// for concurrent webhook deliveries: exactly one delivery observes true for
// a transition into a terminal status.
func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, status enums.TransactionStatus, endToEndID *string) (bool, error) {
	now := time.Now().UTC()
	updates := map[string]any{
		"status":     status,
		"updated_at": now,
	}
	if status == enums.TransactionStatusCompleted {
		updates["completed_at"] = now
	}
	if endToEndID != nil {
		updates["end_to_end_id"] = *endToEndID
	}

	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status IN ?", id, enums.NonTerminalTransactionStatuses()).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
