// Package acquirers defines the outbound surface toward external payment
// providers. Each provider client fetches the authoritative state of a
// payment; the raw provider status string is normalized downstream.
package acquirers

import (
	"context"

	"github.com/shopspring/decimal"
)

// Payment is the provider-reported state of a charge.
type Payment struct {
	ID                string
	Status            string
	Amount            decimal.Decimal
	ExternalReference string
	EndToEndID        string
}

// PaymentFetcher retrieves the full payment details for a provider payment
// id. Webhook notifications are often abbreviated; the fetched record is the
// source of truth for status and amount.
type PaymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
}
