package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerPassesThrough(t *testing.T) {
	cb := NewCircuitBreaker("test", time.Second)

	result, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)

	_, err = cb.Execute(context.Background(), func() (interface{}, error) {
		return nil, errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
}

func TestCircuitBreakerRejectsWhenOpen(t *testing.T) {
	cb := NewCircuitBreaker("test", time.Second)

	cb.mutex.Lock()
	cb.state = StateOpen
	cb.expiry = time.Now().Add(time.Minute)
	cb.mutex.Unlock()

	called := false
	_, err := cb.Execute(context.Background(), func() (interface{}, error) {
		called = true
		return nil, nil
	})
	require.Error(t, err)
	assert.False(t, called)
}

func TestCircuitBreakerRecoversAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker("test", time.Second)

	// Open with an already-expired window: the next call is a half-open probe
	// and a success closes the breaker again.
	cb.mutex.Lock()
	cb.state = StateOpen
	cb.expiry = time.Now().Add(-time.Second)
	cb.mutex.Unlock()

	result, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", result)

	cb.mutex.RLock()
	defer cb.mutex.RUnlock()
	assert.Equal(t, StateClosed, cb.state)
}
