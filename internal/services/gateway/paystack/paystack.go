package paystack

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Config struct {
	BaseURL   string `json:"baseUrl" mapstructure:"base_url"`
	SecretKey string `json:"secretKey" mapstructure:"secret_key"`
}

// ChargeForm is the input for creating a charge.
type ChargeForm struct {
	Email       string
	Amount      int64
	Currency    string
	Reference   string
	CallbackURL string
	Metadata    map[string]any
}

// Checkout is the buyer hand-off returned by charge creation.
type Checkout struct {
	CheckoutURL string
	AccessCode  string
}

// Verification is the parsed capture status of a reference.
type Verification struct {
	Status   string
	Amount   decimal.Decimal
	Currency string
	Raw      json.RawMessage
}

// Paystack wraps the transaction API client.
type Paystack struct {
	client *Client

	secretKey string
}

// New returns a new Paystack instance.
func New(ctx context.Context, cfg *Config) (*Paystack, error) {
	client := newClient(ctx, &ClientConfig{
		BaseURL:   cfg.BaseURL,
		SecretKey: cfg.SecretKey,
	})

	return &Paystack{
		client:    client,
		secretKey: cfg.SecretKey,
	}, nil
}

// InitializeTransaction creates a charge for the form's amount and reference.
func (p *Paystack) InitializeTransaction(ctx context.Context, f *ChargeForm) (*Checkout, error) {
	checkoutURL, accessCode, err := p.client.initializeTransaction(ctx, &initializeBody{
		Email:       f.Email,
		Amount:      f.Amount,
		Reference:   f.Reference,
		Currency:    f.Currency,
		CallbackURL: f.CallbackURL,
		Metadata:    f.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return &Checkout{
		CheckoutURL: checkoutURL,
		AccessCode:  accessCode,
	}, nil
}

// VerifyTransaction checks whether money was captured for a reference.
func (p *Paystack) VerifyTransaction(ctx context.Context, reference string) (*Verification, error) {
	payload, raw, err := p.client.verifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}

	return &Verification{
		Status:   payload.Status,
		Amount:   payload.Amount,
		Currency: payload.Currency,
		Raw:      raw,
	}, nil
}

// VerifyWebhookSignature checks the x-paystack-signature header (HMAC-SHA512
// of the raw body, keyed with the secret key).
func (p *Paystack) VerifyWebhookSignature(body []byte, signature string) bool {
	return VerifySignature(body, []byte(p.secretKey), signature)
}
