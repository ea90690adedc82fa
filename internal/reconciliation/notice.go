package reconciliation

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/dimworks/dimpay-backend/pkg/enums"
)

// ProviderNotice is the normalized form of a confirmed acquirer
// notification: identifiers, the normalized provider status and the amount
// fetched from the acquirer, plus the raw payload for the audit trail.
type ProviderNotice struct {
	Acquirer          enums.Acquirer
	ExternalID        string
	Status            string
	Amount            decimal.Decimal
	EndToEndID        string
	ExternalReference string
	Raw               json.RawMessage
}

// Outcome reports what a reconciliation pass did.
type Outcome string

const (
	// OutcomeIgnored means no transaction or invoice matched the notice.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeNoChange means the record was already in a state that absorbs
	// the notice (duplicate delivery, terminal status, stale update).
	OutcomeNoChange Outcome = "no_change"
	// OutcomeStatusUpdated means the status advanced without settlement.
	OutcomeStatusUpdated Outcome = "status_updated"
	// OutcomeSettled means this delivery performed the settlement.
	OutcomeSettled Outcome = "settled"
	// OutcomeInvoicePaid means an invoice was confirmed and settled.
	OutcomeInvoicePaid Outcome = "invoice_paid"
)
