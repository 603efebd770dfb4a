// Package facilitatorclient is the HTTP client for the facilitator's
// verify, settle, and supported endpoints.
package facilitatorclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Post402/post402-starter-kit/pkg/types"
)

const (
	headerContentType   = "Content-Type"
	mimeApplicationJSON = "application/json"

	// DefaultTimeout bounds a single facilitator call.
	DefaultTimeout = 15 * time.Second
)

// Config configures a facilitator client.
type Config struct {
	// URL is the facilitator base URL, e.g. "https://host/api/facilitator".
	URL string
	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration
}

// Client talks to a facilitator deployment.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a facilitator client.
func NewClient(config Config) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		url:        config.URL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Verify asks the facilitator to validate a payment claim against the
// requirements. The facilitator re-checks recipient, asset, and amount
// itself before touching the ledger; it does not trust the caller.
func (c *Client) Verify(ctx context.Context, payment *types.PaymentPayload, requirements *types.PaymentRequirements) (*types.VerifyResponse, error) {
	body := &types.VerifyRequest{
		Payment:             payment,
		PaymentRequirements: requirements,
	}

	var verifyResp types.VerifyResponse
	if err := c.post(ctx, "/verify", body, &verifyResp); err != nil {
		return nil, err
	}
	return &verifyResp, nil
}

// Settle notifies the facilitator that a verified payment was consumed.
// Callers treat failures as non-fatal.
func (c *Client) Settle(ctx context.Context, transactionID string, payment *types.PaymentPayload) (*types.SettleResponse, error) {
	body := &types.SettleRequest{
		TransactionID: transactionID,
		Payment:       payment,
	}

	var settleResp types.SettleResponse
	if err := c.post(ctx, "/settle", body, &settleResp); err != nil {
		return nil, err
	}
	return &settleResp, nil
}

// Supported retrieves the scheme/network pairs the facilitator accepts.
func (c *Client) Supported(ctx context.Context) (*types.SupportedResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/supported", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supported request: %w", err)
	}
	req.Header.Set(headerContentType, mimeApplicationJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send supported request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get supported payment kinds: %s", resp.Status)
	}

	var supportedResp types.SupportedResponse
	if err := json.NewDecoder(resp.Body).Decode(&supportedResp); err != nil {
		return nil, fmt.Errorf("failed to decode supported response: %w", err)
	}
	return &supportedResp, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(headerContentType, mimeApplicationJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s request: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("facilitator %s: %s", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
