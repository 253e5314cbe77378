package gateway

import (
	"context"

	"eventra/internal/services/gateway/paystack"
)

// PaystackAdapter adapts the Paystack API client to the Client interface.
// Wire amounts are decimal on the Paystack side; they are converted to int64
// minor units here, once, at the adapter boundary.
type PaystackAdapter struct {
	ps *paystack.Paystack
}

func NewPaystackAdapter(ctx context.Context, cfg *paystack.Config) (*PaystackAdapter, error) {
	ps, err := paystack.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &PaystackAdapter{ps: ps}, nil
}

func (a *PaystackAdapter) GetProvider() Provider {
	return ProviderPaystack
}

func (a *PaystackAdapter) Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResult, error) {
	checkout, err := a.ps.InitializeTransaction(ctx, &paystack.ChargeForm{
		Email:       req.Email,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, err
	}

	return &InitializeResult{
		CheckoutURL: checkout.CheckoutURL,
		AccessCode:  checkout.AccessCode,
		Reference:   req.Reference,
	}, nil
}

func (a *PaystackAdapter) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	v, err := a.ps.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, err
	}

	return &VerifyResult{
		Success:       v.Status == "success",
		Amount:        v.Amount.IntPart(),
		Currency:      v.Currency,
		GatewayStatus: v.Status,
		Raw:           v.Raw,
	}, nil
}

func (a *PaystackAdapter) VerifyWebhookSignature(body []byte, signature string) bool {
	return a.ps.VerifyWebhookSignature(body, signature)
}

func (a *PaystackAdapter) Close(_ context.Context) error {
	return nil
}
