package wallets

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dimworks/dimpay-backend/pkg/db/models"
	"github.com/dimworks/dimpay-backend/pkg/enums"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
)

// Repository manages wallets and their append-only ledger. Lookup helpers
// return (nil, nil) when no row matches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, wallet *models.Wallet) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID, currencyCode string) (*models.Wallet, error)
	FindHouseWallet(ctx context.Context, name string) (*models.Wallet, error)
	Credit(ctx context.Context, params MutationParams) (*models.WalletEntry, error)
	Debit(ctx context.Context, params MutationParams) (*models.WalletEntry, error)
	ListEntries(ctx context.Context, walletID uuid.UUID, limit int) ([]models.WalletEntry, error)
}

// MutationParams describes a single balance mutation plus its ledger row.
type MutationParams struct {
	WalletID      uuid.UUID
	Amount        decimal.Decimal
	Description   string
	ReferenceType string
	ReferenceID   *uuid.UUID
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Create(wallet).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).First(&wallet, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) FindActiveByUser(ctx context.Context, userID uuid.UUID, currencyCode string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND currency_code = ? AND is_active", userID, currencyCode).
		First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) FindHouseWallet(ctx context.Context, name string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id IS NULL AND name = ? AND is_active", name).
		First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Credit atomically increments balance and available_balance in one UPDATE
// and appends the ledger row from the returned balance. Never a read followed
// by an application-computed write; concurrent settlements touching the same
// wallet serialize on the row update.
func (r *repository) Credit(ctx context.Context, params MutationParams) (*models.WalletEntry, error) {
	if !params.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "credit amount must be positive")
	}

	var after struct {
		Balance decimal.Decimal
	}
	result := r.db.WithContext(ctx).Raw(`
		UPDATE wallets
		SET balance = balance + ?,
		    available_balance = available_balance + ?,
		    updated_at = ?
		WHERE id = ? AND is_active
		RETURNING balance`,
		params.Amount, params.Amount, time.Now().UTC(), params.WalletID,
	).Scan(&after)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "active wallet not found")
	}

	entry := &models.WalletEntry{
		WalletID:      params.WalletID,
		EntryType:     enums.EntryTypeCredit,
		Amount:        params.Amount,
		BalanceBefore: after.Balance.Sub(params.Amount),
		BalanceAfter:  after.Balance,
		Description:   params.Description,
		ReferenceType: params.ReferenceType,
		ReferenceID:   params.ReferenceID,
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// Debit mirrors Credit with a sufficient-funds guard in the WHERE clause.
func (r *repository) Debit(ctx context.Context, params MutationParams) (*models.WalletEntry, error) {
	if !params.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "debit amount must be positive")
	}

	var after struct {
		Balance decimal.Decimal
	}
	result := r.db.WithContext(ctx).Raw(`
		UPDATE wallets
		SET balance = balance - ?,
		    available_balance = available_balance - ?,
		    updated_at = ?
		WHERE id = ? AND is_active AND available_balance >= ?
		RETURNING balance`,
		params.Amount, params.Amount, time.Now().UTC(), params.WalletID, params.Amount,
	).Scan(&after)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient available balance")
	}

	entry := &models.WalletEntry{
		WalletID:      params.WalletID,
		EntryType:     enums.EntryTypeDebit,
		Amount:        params.Amount,
		BalanceBefore: after.Balance.Add(params.Amount),
		BalanceAfter:  after.Balance,
		Description:   params.Description,
		ReferenceType: params.ReferenceType,
		ReferenceID:   params.ReferenceID,
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *repository) ListEntries(ctx context.Context, walletID uuid.UUID, limit int) ([]models.WalletEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []models.WalletEntry
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
