package fees

import (
	"github.com/shopspring/decimal"

	"github.com/dimworks/dimpay-backend/pkg/config"
	"github.com/dimworks/dimpay-backend/pkg/enums"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

// Quote is the fee split for a gross amount.
type Quote struct {
	FeeAmount decimal.Decimal
	NetAmount decimal.Decimal
}

// Policy computes fees from configured rates. It holds no mutable state and
// is safe for concurrent use.
type Policy struct {
	cfg config.FeeConfig
}

// NewPolicy wires the fee policy with the provided rates.
func NewPolicy(cfg config.FeeConfig) *Policy {
	return &Policy{cfg: cfg}
}

// Fee rules: deposits pay a flat percentage; withdrawals pay a fixed fee
// (EFI has its own rate); transfers pay a percentage with a minimum floor.
// The net amount is always amount minus fee and must stay positive.
func (p *Policy) Quote(amount decimal.Decimal, txType enums.TransactionType, acquirer enums.Acquirer) (Quote, error) {
	if !amount.IsPositive() {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	var fee decimal.Decimal
	switch txType {
	case enums.TransactionTypeDeposit:
		fee = amount.Mul(p.cfg.DepositPercent).Div(oneHundred).Round(2)
	case enums.TransactionTypeWithdrawal:
		fee = p.cfg.WithdrawalFlat
		if acquirer == enums.AcquirerEFI {
			fee = p.cfg.WithdrawalFlatEFI
		}
	case enums.TransactionTypeTransfer:
		fee = amount.Mul(p.cfg.TransferPercent).Div(oneHundred).Round(2)
		if fee.LessThan(p.cfg.TransferMinimum) {
			fee = p.cfg.TransferMinimum
		}
	default:
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown transaction type")
	}

	net := amount.Sub(fee)
	if !net.IsPositive() {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "amount does not cover the fee")
	}

	return Quote{FeeAmount: fee, NetAmount: net}, nil
}
