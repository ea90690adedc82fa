package reconciliation

import (
	"testing"

	"github.com/dimworks/dimpay-backend/pkg/enums"
)

func TestNormalizeProviderStatus(t *testing.T) {
	cases := []struct {
		name     string
		acquirer enums.Acquirer
		raw      string
		want     string
	}{
		{"mercadopago passthrough", enums.AcquirerMercadoPago, "approved", ProviderStatusApproved},
		{"mercadopago case folding", enums.AcquirerMercadoPago, " Approved ", ProviderStatusApproved},
		{"efi concluded", enums.AcquirerEFI, "CONCLUIDA", ProviderStatusApproved},
		{"efi active charge", enums.AcquirerEFI, "ATIVA", ProviderStatusPending},
		{"efi removed by receiver", enums.AcquirerEFI, "REMOVIDA_PELO_USUARIO_RECEBEDOR", ProviderStatusCancelled},
		{"inter removed by psp", enums.AcquirerInter, "REMOVIDA_PELO_PSP", ProviderStatusCancelled},
		{"inter expired", enums.AcquirerInter, "EXPIRADA", ProviderStatusExpired},
		{"unknown vocabulary survives", enums.AcquirerEFI, "DEVOLVIDA", "devolvida"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeProviderStatus(tc.acquirer, tc.raw); got != tc.want {
				t.Fatalf("normalize %q: got %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestMapProviderStatus(t *testing.T) {
	cases := []struct {
		provider string
		want     enums.TransactionStatus
	}{
		{ProviderStatusApproved, enums.TransactionStatusCompleted},
		{ProviderStatusRejected, enums.TransactionStatusFailed},
		{ProviderStatusCancelled, enums.TransactionStatusFailed},
		{ProviderStatusExpired, enums.TransactionStatusExpired},
		{ProviderStatusPending, enums.TransactionStatusProcessing},
		{ProviderStatusInProcess, enums.TransactionStatusProcessing},
		{"something_new", enums.TransactionStatusProcessing},
	}

	for _, tc := range cases {
		if got := MapProviderStatus(tc.provider); got != tc.want {
			t.Fatalf("map %q: got %s, want %s", tc.provider, got, tc.want)
		}
	}
}
