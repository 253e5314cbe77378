package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// Hmac512 is a function to generate HMAC-SHA512 hash.
func Hmac512(body, key []byte) string {
	hash := hmac.New(sha512.New, key)
	hash.Write(body)
	return hex.EncodeToString(hash.Sum(nil))
}

// VerifySignature checks the x-paystack-signature header value against the
// raw webhook body in constant time.
func VerifySignature(body []byte, key []byte, receivedSignature string) bool {
	expected := Hmac512(body, key)
	return hmac.Equal([]byte(receivedSignature), []byte(expected))
}
