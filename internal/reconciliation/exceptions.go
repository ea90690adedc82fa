package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dimworks/dimpay-backend/pkg/db/models"
)

// ExceptionsRepository persists the dead-letter rows for partial settlement
// faults. Operators work the queue by hand; nothing retries automatically.
type ExceptionsRepository interface {
	WithTx(tx *gorm.DB) ExceptionsRepository
	Create(ctx context.Context, exception *models.ReconciliationException) error
	ListUnresolved(ctx context.Context, limit int) ([]models.ReconciliationException, error)
	Resolve(ctx context.Context, id uuid.UUID) (bool, error)
}

type exceptionsRepository struct {
	db *gorm.DB
}

// NewExceptionsRepository returns an exceptions repository bound to the provided database.
func NewExceptionsRepository(db *gorm.DB) ExceptionsRepository {
	return &exceptionsRepository{db: db}
}

func (r *exceptionsRepository) WithTx(tx *gorm.DB) ExceptionsRepository {
	if tx == nil {
		return r
	}
	return &exceptionsRepository{db: tx}
}

func (r *exceptionsRepository) Create(ctx context.Context, exception *models.ReconciliationException) error {
	return r.db.WithContext(ctx).Create(exception).Error
}

func (r *exceptionsRepository) ListUnresolved(ctx context.Context, limit int) ([]models.ReconciliationException, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var exceptions []models.ReconciliationException
	err := r.db.WithContext(ctx).
		Where("resolved_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&exceptions).Error
	if err != nil {
		return nil, err
	}
	return exceptions, nil
}

func (r *exceptionsRepository) Resolve(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ReconciliationException{}).
		Where("id = ? AND resolved_at IS NULL", id).
		Update("resolved_at", time.Now().UTC())
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
