package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds a user's balance in a single currency. The house wallet has a
// nil UserID and is looked up by Name. Balance always equals
// AvailableBalance + BlockedBalance; every mutation touches both sides in one
// atomic update.
type Wallet struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           *uuid.UUID      `gorm:"column:user_id;type:uuid;index"`
	Name             string          `gorm:"column:name"`
	CurrencyCode     string          `gorm:"column:currency_code;not null;default:'BRL'"`
	Balance          decimal.Decimal `gorm:"column:balance;type:numeric(20,2);not null;default:0"`
	AvailableBalance decimal.Decimal `gorm:"column:available_balance;type:numeric(20,2);not null;default:0"`
	BlockedBalance   decimal.Decimal `gorm:"column:blocked_balance;type:numeric(20,2);not null;default:0"`
	IsActive         bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
