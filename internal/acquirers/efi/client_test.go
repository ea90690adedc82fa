package efi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimworks/dimpay-backend/pkg/config"
)

func TestGetPaymentParsesCharge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client-id" || pass != "client-secret" {
			t.Fatalf("unexpected basic auth: %s %s", user, pass)
		}
		if r.URL.Path != "/v2/cob/txid-abc" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"txid": "txid-abc",
			"status": "CONCLUIDA",
			"valor": {"original": "123.45"},
			"pix": [{"endToEndId": "E987"}]
		}`))
	}))
	defer server.Close()

	client, err := NewClient(config.EFIConfig{
		BaseURL:      server.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Timeout:      2 * time.Second,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	payment, err := client.GetPayment(context.Background(), "txid-abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.ID != "txid-abc" || payment.Status != "CONCLUIDA" {
		t.Fatalf("unexpected payment: %+v", payment)
	}
	if payment.Amount.String() != "123.45" {
		t.Fatalf("unexpected amount: %s", payment.Amount)
	}
	if payment.EndToEndID != "E987" {
		t.Fatalf("end to end id not parsed: %+v", payment)
	}
}

func TestGetPaymentFallsBackToRequestedTxID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "CONCLUIDA", "valor": {"original": "50.00"}}`))
	}))
	defer server.Close()

	client, err := NewClient(config.EFIConfig{
		BaseURL:      server.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Timeout:      2 * time.Second,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	payment, err := client.GetPayment(context.Background(), "txid-abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.ID != "txid-abc" {
		t.Fatalf("expected the requested txid, got %q", payment.ID)
	}
}

func TestNewClientRequiresCredentials(t *testing.T) {
	if _, err := NewClient(config.EFIConfig{ClientID: "only-id"}); err == nil {
		t.Fatal("expected error without client secret")
	}
}
