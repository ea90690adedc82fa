package reconciliation

import (
	"strings"

	"github.com/dimworks/dimpay-backend/pkg/enums"
)

// Normalized provider statuses. Each acquirer's raw vocabulary collapses
// into this set before it reaches the engine.
const (
	ProviderStatusApproved  = "approved"
	ProviderStatusRejected  = "rejected"
	ProviderStatusCancelled = "cancelled"
	ProviderStatusExpired   = "expired"
	ProviderStatusPending   = "pending"
	ProviderStatusInProcess = "in_process"
)

// NormalizeProviderStatus lowers an acquirer's raw status string into the
// normalized vocabulary. Mercado Pago already uses it; EFI and Inter follow
// the Bacen PIX charge lifecycle (ATIVA, CONCLUIDA, REMOVIDA_*).
func NormalizeProviderStatus(acquirer enums.Acquirer, raw string) string {
	status := strings.ToLower(strings.TrimSpace(raw))

	switch acquirer {
	case enums.AcquirerEFI, enums.AcquirerInter:
		switch status {
		case "concluida":
			return ProviderStatusApproved
		case "ativa":
			return ProviderStatusPending
		case "removida_pelo_usuario_recebedor", "removida_pelo_psp":
			return ProviderStatusCancelled
		case "expirada":
			return ProviderStatusExpired
		default:
			return status
		}
	default:
		return status
	}
}

// MapProviderStatus translates a normalized provider status into the
// internal transaction status. Unrecognized statuses park the transaction
// in processing; they never complete or fail it.
func MapProviderStatus(providerStatus string) enums.TransactionStatus {
	switch providerStatus {
	case ProviderStatusApproved:
		return enums.TransactionStatusCompleted
	case ProviderStatusRejected, ProviderStatusCancelled:
		return enums.TransactionStatusFailed
	case ProviderStatusExpired:
		return enums.TransactionStatusExpired
	default:
		return enums.TransactionStatusProcessing
	}
}
