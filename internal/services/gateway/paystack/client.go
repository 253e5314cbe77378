package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

type ClientConfig struct {
	BaseURL   string `json:"baseUrl" mapstructure:"base_url"`
	SecretKey string `json:"secretKey" mapstructure:"secret_key"`
}

type Client struct {
	// baseURL is the base url of the Paystack API.
	baseURL string

	// secretKey authenticates requests and signs webhook bodies.
	secretKey string

	// hc is the http client.
	hc *http.Client
}

// newClient creates new instance of the Paystack API client.
func newClient(_ context.Context, c *ClientConfig) *Client {
	return &Client{
		baseURL:   c.BaseURL,
		secretKey: c.SecretKey,

		// set http client with timeout.
		hc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type initializeBody struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Reference   string         `json:"reference"`
	Currency    string         `json:"currency,omitempty"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// initializeTransaction creates a charge on the Paystack backend and returns
// the checkout url and access code for the buyer's redirect.
func (c *Client) initializeTransaction(ctx context.Context, b *initializeBody) (checkoutURL, accessCode string, err error) {
	body, err := json.Marshal(b)
	if err != nil {
		return "", "", fmt.Errorf("initializeTransaction: json.Marshal: %w", err)
	}

	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s%s", _baseURL.String(), "/transaction/initialize"), bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("initializeTransaction: http.NewReq: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("initializeTransaction: http.Do: %w", err)
	}
	defer resp.Body.Close()

	var reply struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			AuthorizationURL string `json:"authorization_url"`
			AccessCode       string `json:"access_code"`
			Reference        string `json:"reference"`
		} `json:"data"`
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&reply); err != nil {
		return "", "", fmt.Errorf("initializeTransaction: json.Decode: %w", err)
	}
	if !reply.Status {
		return "", "", fmt.Errorf("initializeTransaction: reply.Status: false, reply.Message: %v", reply.Message)
	}

	return reply.Data.AuthorizationURL, reply.Data.AccessCode, nil
}

type verifyPayload struct {
	Status          string          `json:"status"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	GatewayResponse string          `json:"gateway_response"`
	PaidAt          string          `json:"paid_at"`
}

// verifyTransaction checks the capture status of a reference on the Paystack
// backend. The raw data payload is returned alongside the parsed fields so
// callers can persist the gateway's own record.
func (c *Client) verifyTransaction(ctx context.Context, reference string) (*verifyPayload, json.RawMessage, error) {
	_baseURL, _ := url.Parse(c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/transaction/verify/%s", _baseURL.String(), url.PathEscape(reference)), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("verifyTransaction: http.NewReq: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("verifyTransaction: http.Do: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("verifyTransaction: io.ReadAll: %w", err)
	}

	var reply struct {
		Status  bool            `json:"status"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, nil, fmt.Errorf("verifyTransaction: json.Unmarshal: %w", err)
	}
	if !reply.Status {
		return nil, nil, fmt.Errorf("verifyTransaction: reply.Status: false, reply.Message: %v", reply.Message)
	}

	var p verifyPayload
	if err := json.Unmarshal(reply.Data, &p); err != nil {
		return nil, nil, fmt.Errorf("verifyTransaction: json.Unmarshal data: %w", err)
	}

	return &p, reply.Data, nil
}
