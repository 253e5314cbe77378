package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MockClient implements Client in memory for development and testing. Every
// initialized charge verifies as captured for the initialized amount unless
// the test overrides it.
type MockClient struct {
	mu      sync.RWMutex
	charges map[string]*InitializeRequest

	// CapturedAmount overrides the reported amount for a reference.
	capturedAmount map[string]int64

	// Declined marks references that verify as failed.
	declined map[string]bool

	secret []byte
}

func NewMockClient(secret string) *MockClient {
	return &MockClient{
		charges:        make(map[string]*InitializeRequest),
		capturedAmount: make(map[string]int64),
		declined:       make(map[string]bool),
		secret:         []byte(secret),
	}
}

func (m *MockClient) GetProvider() Provider {
	return ProviderMock
}

func (m *MockClient) Initialize(_ context.Context, req *InitializeRequest) (*InitializeResult, error) {
	if req.Reference == "" {
		return nil, fmt.Errorf("mock gateway: reference is required")
	}

	m.mu.Lock()
	m.charges[req.Reference] = req
	m.mu.Unlock()

	return &InitializeResult{
		CheckoutURL: "https://checkout.example.test/" + req.Reference,
		AccessCode:  "mock_" + req.Reference,
		Reference:   req.Reference,
	}, nil
}

func (m *MockClient) Verify(_ context.Context, reference string) (*VerifyResult, error) {
	m.mu.RLock()
	charge, ok := m.charges[reference]
	captured, overridden := m.capturedAmount[reference]
	declined := m.declined[reference]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("mock gateway: unknown reference %q", reference)
	}

	amount := charge.Amount
	if overridden {
		amount = captured
	}

	result := &VerifyResult{
		Success:       !declined,
		Amount:        amount,
		Currency:      charge.Currency,
		GatewayStatus: "success",
	}
	if declined {
		result.GatewayStatus = "failed"
	}

	raw, _ := json.Marshal(map[string]any{
		"status":    result.GatewayStatus,
		"amount":    amount,
		"currency":  charge.Currency,
		"reference": reference,
	})
	result.Raw = raw

	return result, nil
}

func (m *MockClient) VerifyWebhookSignature(_ []byte, signature string) bool {
	return signature != ""
}

func (m *MockClient) Close(_ context.Context) error {
	return nil
}

// SetCapturedAmount makes Verify report a different captured amount.
func (m *MockClient) SetCapturedAmount(reference string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.capturedAmount[reference] = amount
}

// SetDeclined makes Verify report the charge as failed.
func (m *MockClient) SetDeclined(reference string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.declined[reference] = true
}
