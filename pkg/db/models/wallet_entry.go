package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dimworks/dimpay-backend/pkg/enums"
)

// WalletEntry is one append-only row of a wallet's ledger. BalanceAfter is
// always BalanceBefore plus (credit) or minus (debit) Amount; rows are never
// mutated after creation.
type WalletEntry struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID      uuid.UUID       `gorm:"column:wallet_id;type:uuid;not null;index"`
	EntryType     enums.EntryType `gorm:"column:entry_type;type:entry_type;not null"`
	Amount        decimal.Decimal `gorm:"column:amount;type:numeric(20,2);not null"`
	BalanceBefore decimal.Decimal `gorm:"column:balance_before;type:numeric(20,2);not null"`
	BalanceAfter  decimal.Decimal `gorm:"column:balance_after;type:numeric(20,2);not null"`
	Description   string          `gorm:"column:description"`
	ReferenceType string          `gorm:"column:reference_type"`
	ReferenceID   *uuid.UUID      `gorm:"column:reference_id;type:uuid;index"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the historical table name.
func (WalletEntry) TableName() string {
	return "wallet_transactions"
}
