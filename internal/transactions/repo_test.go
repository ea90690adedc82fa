package transactions

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dimworks/dimpay-backend/pkg/db/models"
	"github.com/dimworks/dimpay-backend/pkg/enums"
)

func setupTransactionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS pix_transactions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  acquirer TEXT NOT NULL,
  external_id TEXT,
  end_to_end_id TEXT,
  transaction_type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  amount NUMERIC NOT NULL,
  fee_amount NUMERIC NOT NULL DEFAULT 0,
  net_amount NUMERIC NOT NULL,
  currency_code TEXT NOT NULL DEFAULT 'BRL',
  description TEXT,
  metadata TEXT,
  expires_at DATETIME,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func createTransaction(t *testing.T, db *gorm.DB, status enums.TransactionStatus, externalID string) *models.Transaction {
	t.Helper()

	transaction := &models.Transaction{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		Acquirer:        enums.AcquirerMercadoPago,
		ExternalID:      externalID,
		TransactionType: enums.TransactionTypeDeposit,
		Status:          status,
		Amount:          decimal.NewFromFloat(100),
		NetAmount:       decimal.NewFromFloat(99),
	}
	require.NoError(t, db.Create(transaction).Error)
	return transaction
}

func TestTransitionStatusAppliesExactlyOnce(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	transaction := createTransaction(t, db, enums.TransactionStatusProcessing, "mp-1")

	e2e := "E12345"
	applied, err := repo.TransitionStatus(ctx, transaction.ID, enums.TransactionStatusCompleted, &e2e)
	require.NoError(t, err)
	assert.True(t, applied, "first transition into completed must win")

	// The duplicate delivery races on the same row and must lose.
	applied, err = repo.TransitionStatus(ctx, transaction.ID, enums.TransactionStatusCompleted, &e2e)
	require.NoError(t, err)
	assert.False(t, applied, "second transition must not apply")

	reloaded, err := repo.FindByID(ctx, transaction.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, enums.TransactionStatusCompleted, reloaded.Status)
	require.NotNil(t, reloaded.CompletedAt)
	require.NotNil(t, reloaded.EndToEndID)
	assert.Equal(t, e2e, *reloaded.EndToEndID)
}

func TestTransitionStatusLeavesTerminalRowsAlone(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for _, status := range []enums.TransactionStatus{
		enums.TransactionStatusCompleted,
		enums.TransactionStatusFailed,
		enums.TransactionStatusExpired,
		enums.TransactionStatusCancelled,
	} {
		transaction := createTransaction(t, db, status, "mp-"+string(status))

		applied, err := repo.TransitionStatus(ctx, transaction.ID, enums.TransactionStatusProcessing, nil)
		require.NoError(t, err)
		assert.False(t, applied, "terminal status %s must absorb transitions", status)

		reloaded, err := repo.FindByID(ctx, transaction.ID)
		require.NoError(t, err)
		assert.Equal(t, status, reloaded.Status)
	}
}

func TestTransitionStatusAdvancesPending(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	transaction := createTransaction(t, db, enums.TransactionStatusPending, "mp-2")

	applied, err := repo.TransitionStatus(ctx, transaction.ID, enums.TransactionStatusProcessing, nil)
	require.NoError(t, err)
	assert.True(t, applied)

	reloaded, err := repo.FindByID(ctx, transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.TransactionStatusProcessing, reloaded.Status)
	assert.Nil(t, reloaded.CompletedAt, "only completion stamps completed_at")
}

func TestFindByExternalID(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	created := createTransaction(t, db, enums.TransactionStatusPending, "mp-lookup")

	found, err := repo.FindByExternalID(ctx, enums.AcquirerMercadoPago, "mp-lookup")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	missing, err := repo.FindByExternalID(ctx, enums.AcquirerEFI, "mp-lookup")
	require.NoError(t, err)
	assert.Nil(t, missing, "acquirer scopes the external id")
}
