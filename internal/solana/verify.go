// Package solana verifies wallet sign-in signatures.
package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

// NoncePrefix is the human-readable part of the message a wallet signs.
const NoncePrefix = "Sign in to Auth Center\nNonce: "

var (
	// ErrMalformed: the key or signature could not be decoded.
	ErrMalformed = errors.New("malformed key or signature")
	// ErrSignatureMismatch: well-formed input that does not verify.
	ErrSignatureMismatch = errors.New("signature verification failed")
)

// DecodePublicKey decodes a base58 wallet address into an Ed25519 key.
func DecodePublicKey(address string) (ed25519.PublicKey, error) {
	// base58.Decode returns an empty slice on invalid characters
	raw := base58.Decode(address)
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: public key must be %d bytes, got %d", ErrMalformed, ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// Verify checks a base64 Ed25519 signature over the UTF-8 bytes of message.
func Verify(address, signature, message string) error {
	pubKey, err := DecodePublicKey(address)
	if err != nil {
		return err
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: invalid signature base64: %v", ErrMalformed, err)
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("%w: signature must be %d bytes, got %d", ErrMalformed, ed25519.SignatureSize, len(sig))
	}

	if !ed25519.Verify(pubKey, []byte(message), sig) {
		return ErrSignatureMismatch
	}
	return nil
}
