package gateway

import (
	"context"
	"fmt"

	"eventra/internal/services/gateway/paystack"
)

// Factory creates gateway clients based on provider type
type Factory struct{}

// NewFactory creates a new gateway factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateClient creates a gateway client based on provider type and configuration
func (f *Factory) CreateClient(ctx context.Context, provider Provider, config interface{}) (Client, error) {
	switch provider {
	case ProviderPaystack:
		paystackConfig, ok := config.(*paystack.Config)
		if !ok {
			return nil, fmt.Errorf("invalid Paystack config type, expected *paystack.Config")
		}
		return NewPaystackAdapter(ctx, paystackConfig)

	case ProviderMock:
		secret, _ := config.(string)
		return NewMockClient(secret), nil

	default:
		return nil, fmt.Errorf("unsupported gateway provider: %s", provider)
	}
}

// GetSupportedProviders returns list of supported gateway providers
func (f *Factory) GetSupportedProviders() []Provider {
	return []Provider{
		ProviderPaystack,
		ProviderMock,
	}
}
