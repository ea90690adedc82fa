package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dimworks/dimpay-backend/pkg/enums"
)

// Invoice is a boleto charge. The acquirer confirms payment asynchronously
// through the same webhook pipeline as PIX transactions.
type Invoice struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Acquirer      enums.Acquirer      `gorm:"column:acquirer;type:acquirer;not null;uniqueIndex:idx_invoices_acquirer_external_id"`
	ExternalID    string              `gorm:"column:external_id;uniqueIndex:idx_invoices_acquirer_external_id"`
	Status        enums.InvoiceStatus `gorm:"column:status;type:invoice_status;not null;default:'open'"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(20,2);not null"`
	FeeAmount     decimal.Decimal     `gorm:"column:fee_amount;type:numeric(20,2);not null;default:0"`
	NetAmount     decimal.Decimal     `gorm:"column:net_amount;type:numeric(20,2);not null"`
	Barcode       string              `gorm:"column:barcode"`
	DigitableLine string              `gorm:"column:digitable_line"`
	Description   *string             `gorm:"column:description"`
	DueDate       *time.Time          `gorm:"column:due_date"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
