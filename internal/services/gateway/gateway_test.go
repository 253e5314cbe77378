package gateway

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryCreatesMockClient(t *testing.T) {
	factory := NewFactory()

	client, err := factory.CreateClient(context.Background(), ProviderMock, "secret")
	require.NoError(t, err)
	assert.Equal(t, ProviderMock, client.GetProvider())
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	factory := NewFactory()

	_, err := factory.CreateClient(context.Background(), Provider("stripe"), nil)
	assert.Error(t, err)
}

func TestFactoryRejectsBadPaystackConfig(t *testing.T) {
	factory := NewFactory()

	_, err := factory.CreateClient(context.Background(), ProviderPaystack, "not-a-config")
	assert.Error(t, err)
}

func TestMockClientVerifyReportsInitializedAmount(t *testing.T) {
	client := NewMockClient("secret")
	ctx := context.Background()

	_, err := client.Initialize(ctx, &InitializeRequest{
		Email:     "buyer1@example.com",
		Amount:    50000,
		Currency:  "NGN",
		Reference: "ref1",
	})
	require.NoError(t, err)

	result, err := client.Verify(ctx, "ref1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int64(50000), result.Amount)
	assert.Equal(t, "NGN", result.Currency)
}

func TestMockClientOverrides(t *testing.T) {
	client := NewMockClient("secret")
	ctx := context.Background()

	_, err := client.Initialize(ctx, &InitializeRequest{
		Email: "b@example.com", Amount: 50000, Currency: "NGN", Reference: "ref1",
	})
	require.NoError(t, err)

	client.SetCapturedAmount("ref1", 49000)
	result, err := client.Verify(ctx, "ref1")
	require.NoError(t, err)
	assert.Equal(t, int64(49000), result.Amount)

	client.SetDeclined("ref1")
	result, err = client.Verify(ctx, "ref1")
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestMockClientUnknownReference(t *testing.T) {
	client := NewMockClient("secret")

	_, err := client.Verify(context.Background(), "missing")
	assert.Error(t, err)
}
