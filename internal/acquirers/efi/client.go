package efi

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

// Client is a thin wrapper over the EFI (Gerencianet) PIX API.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewClient builds an EFI client from configuration.
func NewClient(cfg config.EFIConfig) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "efi client credentials are required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   &http.Client{Timeout: timeout},
	}, nil
}

type chargeResponse struct {
	TxID   string `json:"txid"`
	Status string `json:"status"`
	Valor  struct {
		Original string `json:"original"`
	} `json:"valor"`
	Pix []struct {
		EndToEndID string `json:"endToEndId"`
	} `json:"pix"`
}

// GetPayment fetches a PIX charge by txid. EFI reports statuses like ATIVA
// and CONCLUIDA; callers normalize them.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*acquirers.Payment, error) {
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "txid is required")
	}

	var payload chargeResponse
	backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/v2/cob/%s", c.baseURL, paymentID), nil)
		if err != nil {
			return err
		}
		req.SetBasicAuth(c.clientID, c.clientSecret)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("efi returned %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("efi returned %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&payload)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch efi charge")
	}

	amount := decimal.Zero
	if payload.Valor.Original != "" {
		parsed, parseErr := decimal.NewFromString(payload.Valor.Original)
		if parseErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, parseErr, "parse efi charge amount")
		}
		amount = parsed
	}

	// Some responses omit the echoed txid; the requested one is authoritative.
	txid := payload.TxID
	if txid == "" {
		txid = paymentID
	}
	payment := &acquirers.Payment{
		ID:     txid,
		Status: payload.Status,
		Amount: amount,
	}
	if len(payload.Pix) > 0 {
		payment.EndToEndID = payload.Pix[0].EndToEndID
	}
	return payment, nil
}
