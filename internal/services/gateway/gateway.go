package gateway

import (
	"context"
	"encoding/json"
)

// Provider represents different payment gateway types
type Provider string

const (
	ProviderPaystack Provider = "paystack"
	ProviderMock     Provider = "mock"
)

// InitializeRequest represents a generic charge creation request.
// Amount is in minor currency units.
type InitializeRequest struct {
	Email       string         `json:"email"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency"`
	Reference   string         `json:"reference"`
	CallbackURL string         `json:"callback_url,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// InitializeResult is the checkout hand-off returned by the gateway.
type InitializeResult struct {
	CheckoutURL string `json:"checkout_url"`
	AccessCode  string `json:"access_code"`
	Reference   string `json:"reference"`
}

// VerifyResult reports whether money was actually captured for a reference,
// and for how much. Amount is in minor currency units.
type VerifyResult struct {
	Success       bool            `json:"success"`
	Amount        int64           `json:"amount"`
	Currency      string          `json:"currency"`
	GatewayStatus string          `json:"gateway_status"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}

// WebhookEvent is the parsed body of a gateway callback.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Status    string `json:"status"`
	} `json:"data"`
}

// EventChargeSuccess is the webhook event delivered on a captured charge.
const EventChargeSuccess = "charge.success"

// Client defines the common interface for all payment gateway providers
type Client interface {
	// GetProvider returns the gateway provider type
	GetProvider() Provider

	// Initialize creates a charge and returns the checkout hand-off
	Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResult, error)

	// Verify confirms whether money was captured for a reference
	Verify(ctx context.Context, reference string) (*VerifyResult, error)

	// VerifyWebhookSignature checks a callback signature against the raw body
	VerifyWebhookSignature(body []byte, signature string) bool

	// Close gracefully closes any connections
	Close(ctx context.Context) error
}
