package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(4)
	require.NoError(t, err)

	assert.Len(t, code, 8)
	assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{8}$`), code)

	other, err := GenerateCode(4)
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}

func TestGenerateTicketToken(t *testing.T) {
	token, err := GenerateTicketToken(32)
	require.NoError(t, err)

	assert.Len(t, token, 64)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), token)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok, err := GenerateTicketToken(32)
		require.NoError(t, err)
		require.False(t, seen[tok], "token collision")
		seen[tok] = true
	}
}

func TestGenerateOTP(t *testing.T) {
	otp, err := GenerateOTP(6)
	require.NoError(t, err)

	assert.Len(t, otp, 6)
	assert.Regexp(t, regexp.MustCompile(`^[0-9]{6}$`), otp)
}
