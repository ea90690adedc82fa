package mercadopago

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimworks/dimpay-backend/pkg/config"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(config.MercadoPagoConfig{
		BaseURL:     baseURL,
		AccessToken: "test-token",
		Timeout:     2 * time.Second,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestGetPaymentParsesResponse(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/v1/payments/12345" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": 12345,
			"status": "approved",
			"transaction_amount": 150.75,
			"external_reference": "order-9",
			"point_of_interaction": {"transaction_data": {"e2e_id": "E123"}}
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	payment, err := client.GetPayment(context.Background(), "12345")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("unexpected authorization header: %q", gotAuth)
	}
	if payment.ID != "12345" || payment.Status != "approved" {
		t.Fatalf("unexpected payment: %+v", payment)
	}
	if payment.Amount.String() != "150.75" {
		t.Fatalf("unexpected amount: %s", payment.Amount)
	}
	if payment.ExternalReference != "order-9" || payment.EndToEndID != "E123" {
		t.Fatalf("reference fields not parsed: %+v", payment)
	}
}

func TestGetPaymentRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id": 7, "status": "approved", "transaction_amount": 1}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	payment, err := client.GetPayment(context.Background(), "7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
	if payment.ID != "7" {
		t.Fatalf("unexpected payment: %+v", payment)
	}
}

func TestGetPaymentDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.GetPayment(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if attempts != 1 {
		t.Fatalf("expected single attempt, got %d", attempts)
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestGetPaymentRequiresID(t *testing.T) {
	client := newTestClient(t, "http://localhost")
	if _, err := client.GetPayment(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty payment id")
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient(config.MercadoPagoConfig{}); err == nil {
		t.Fatal("expected error without access token")
	}
}
