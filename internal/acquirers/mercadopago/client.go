package mercadopago

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/dimworks/dimpay-backend/internal/acquirers"
	"github.com/dimworks/dimpay-backend/pkg/config"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
)

// Client is a thin wrapper over the Mercado Pago payments API.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient builds a Mercado Pago client from configuration.
func NewClient(cfg config.MercadoPagoConfig) (*Client, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "mercado pago access token is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

type paymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	TransactionAmount float64     `json:"transaction_amount"`
	ExternalReference string      `json:"external_reference"`
	PointOfInteraction struct {
		TransactionData struct {
			EndToEndID string `json:"e2e_id"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

// GetPayment fetches the payment record. Transient upstream faults are
// retried with exponential backoff before surfacing a dependency error.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*acquirers.Payment, error) {
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	var payload paymentResponse
	backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/v1/payments/%s", c.baseURL, paymentID), nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("mercado pago returned %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("mercado pago returned %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&payload)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch mercado pago payment")
	}

	return &acquirers.Payment{
		ID:                payload.ID.String(),
		Status:            payload.Status,
		Amount:            decimal.NewFromFloat(payload.TransactionAmount).Round(2),
		ExternalReference: payload.ExternalReference,
		EndToEndID:        payload.PointOfInteraction.TransactionData.EndToEndID,
	}, nil
}
