package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dimworks/dimpay-backend/pkg/enums"
)

// Transaction is a payment transaction awaiting (or past) acquirer
// confirmation. ExternalID is the canonical provider correlation id written
// at creation time; legacy rows may only carry it inside Metadata.
type Transaction struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	Acquirer        enums.Acquirer          `gorm:"column:acquirer;type:acquirer;not null;uniqueIndex:idx_transactions_acquirer_external_id"`
	ExternalID      string                  `gorm:"column:external_id;uniqueIndex:idx_transactions_acquirer_external_id"`
	EndToEndID      *string                 `gorm:"column:end_to_end_id"`
	TransactionType enums.TransactionType   `gorm:"column:transaction_type;type:transaction_type;not null"`
	Status          enums.TransactionStatus `gorm:"column:status;type:transaction_status;not null;default:'pending'"`
	Amount          decimal.Decimal         `gorm:"column:amount;type:numeric(20,2);not null"`
	FeeAmount       decimal.Decimal         `gorm:"column:fee_amount;type:numeric(20,2);not null;default:0"`
	NetAmount       decimal.Decimal         `gorm:"column:net_amount;type:numeric(20,2);not null"`
	CurrencyCode    string                  `gorm:"column:currency_code;not null;default:'BRL'"`
	Description     *string                 `gorm:"column:description"`
	Metadata        json.RawMessage         `gorm:"column:metadata;type:jsonb"`
	ExpiresAt       *time.Time              `gorm:"column:expires_at"`
	CompletedAt     *time.Time              `gorm:"column:completed_at"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the historical table name.
func (Transaction) TableName() string {
	return "pix_transactions"
}
