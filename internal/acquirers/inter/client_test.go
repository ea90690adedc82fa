package inter

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
		if r.URL.Path != "/pix/v2/cob/txid-inter" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"txid": "txid-inter",
			"status": "ATIVA",
			"valor": {"original": "75.00"},
			"pix": []
		}`))
	}))
	defer server.Close()

	client, err := NewClient(config.InterConfig{
		BaseURL:      server.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Timeout:      2 * time.Second,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	payment, err := client.GetPayment(context.Background(), "txid-inter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.ID != "txid-inter" || payment.Status != "ATIVA" {
		t.Fatalf("unexpected payment: %+v", payment)
	}
	if payment.Amount.String() != "75" {
		t.Fatalf("unexpected amount: %s", payment.Amount)
	}
}

func TestGetPaymentFallsBackToRequestedTxID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "CONCLUIDA", "valor": {"original": "50.00"}}`))
	}))
	defer server.Close()

	client, err := NewClient(config.InterConfig{
		BaseURL:      server.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		Timeout:      2 * time.Second,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	payment, err := client.GetPayment(context.Background(), "txid-inter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payment.ID != "txid-inter" {
		t.Fatalf("expected the requested txid, got %q", payment.ID)
	}
}
