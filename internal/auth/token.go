package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
)

// TokenBytes is the entropy of session tokens, OAuth states and exchange codes.
const TokenBytes = 32

// RandomToken returns n random bytes as unpadded URL-safe base64.
func RandomToken(n int) string {
	b := make([]byte, n)
	// crypto/rand.Read never fails on supported platforms (go1.24+)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// RandomHex returns n random bytes hex-encoded.
func RandomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
