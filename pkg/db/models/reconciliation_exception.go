package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReconciliationException is the dead-letter row written when a settlement
// step fails after the transaction itself was already driven to its final
// status. Operators resolve these manually; nothing retries them.
type ReconciliationException struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TransactionID *uuid.UUID      `gorm:"column:transaction_id;type:uuid;index"`
	Step          string          `gorm:"column:step;not null"`
	Detail        string          `gorm:"column:detail;type:text;not null"`
	Payload       json.RawMessage `gorm:"column:payload;type:jsonb"`
	ResolvedAt    *time.Time      `gorm:"column:resolved_at"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
