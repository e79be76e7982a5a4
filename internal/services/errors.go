package services

import "errors"

var (
	// ErrNotFound covers both unknown and expired tokens; callers never learn which.
	ErrNotFound = errors.New("not found")

	// ErrMalformed: a required field is missing or undecodable.
	ErrMalformed = errors.New("malformed request")

	ErrInvalidNonce     = errors.New("invalid or expired nonce")
	ErrSignature        = errors.New("invalid signature")
	ErrInvalidState     = errors.New("invalid or expired state")
	ErrProviderRejected = errors.New("provider rejected the login")
	ErrUnauthorizedApp  = errors.New("unauthorized")
	ErrInvalidCode      = errors.New("invalid or expired code")
	ErrNotConfigured    = errors.New("login method is not configured")

	// ErrUpstream: a provider could not be reached or answered nonsense.
	ErrUpstream = errors.New("upstream error")
)
