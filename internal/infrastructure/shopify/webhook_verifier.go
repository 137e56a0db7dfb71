package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"

	"whatsapp-launcher-core/internal/domain"
)

// WebhookVerifier validates the X-Shopify-Hmac-SHA256 signature on webhook
// deliveries. The digest is computed over the raw body bytes exactly as
// received; callers must not re-serialize parsed content before verifying.
type WebhookVerifier struct {
	secret []byte
}

// NewWebhookVerifier creates a verifier keyed with the app's shared secret.
func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: []byte(secret)}
}

// Verify returns nil when hmacHeader matches the base64 HMAC-SHA256 of
// body. A missing header, missing body, or any mismatch fails with
// domain.ErrInvalidWebhookSignature. The comparison is constant time.
func (v *WebhookVerifier) Verify(body []byte, hmacHeader string) error {
	if hmacHeader == "" || len(body) == 0 {
		return domain.ErrInvalidWebhookSignature
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(hmacHeader)) {
		return domain.ErrInvalidWebhookSignature
	}
	return nil
}
