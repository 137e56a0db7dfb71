package domain

import "errors"

// Session verification failures. These are terminal: the request is
// rejected without retry and without exposing cryptographic detail.
var (
	ErrMalformedToken   = errors.New("malformed session token")
	ErrInvalidSignature = errors.New("invalid session token signature")
	ErrExpiredToken     = errors.New("session token expired or not yet valid")
	ErrAudienceMismatch = errors.New("session token audience mismatch")
)

// Webhook verification failure. Callers fail closed.
var ErrInvalidWebhookSignature = errors.New("invalid webhook signature")

// OAuth callback failures.
var (
	// ErrInvalidState covers a missing, expired, replayed or
	// shop-mismatched nonce.
	ErrInvalidState = errors.New("invalid oauth state")
	// ErrTokenExchange wraps a failed code-for-token exchange; the
	// underlying exchange error is logged, never surfaced to the caller.
	ErrTokenExchange = errors.New("token exchange failed")
)

// Store failures.
var (
	// ErrUnknownTenant is returned for operations that require an
	// installation when none exists for the shop.
	ErrUnknownTenant = errors.New("no installation for shop")
	// ErrPersistence indicates the backing store is unavailable or the
	// write failed. Fatal to the current request; not retried here.
	ErrPersistence = errors.New("persistence error")
)

// ErrInvalidConfig rejects widget configurations failing boundary
// validation.
var ErrInvalidConfig = errors.New("invalid widget configuration")

// ErrScriptTagInstall marks the non-fatal script tag registration failure;
// config saves downgrade it to a warning.
var ErrScriptTagInstall = errors.New("script tag installation failed")
