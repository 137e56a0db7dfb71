package shopify

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"whatsapp-launcher-core/internal/domain"
)

// SessionVerifier validates App Bridge session tokens presented by the
// embedded frontend. Verification is a pure computation: no I/O, no
// suspension.
type SessionVerifier struct {
	apiKey    string
	apiSecret string
}

// NewSessionVerifier creates a verifier for tokens signed with the app's
// shared secret and addressed to its API key.
func NewSessionVerifier(apiKey, apiSecret string) *SessionVerifier {
	return &SessionVerifier{apiKey: apiKey, apiSecret: apiSecret}
}

// sessionClaims carries the Shopify-specific dest claim alongside the
// registered set. dest has the form "https://{shop}.myshopify.com".
type sessionClaims struct {
	Dest string `json:"dest"`
	jwt.RegisteredClaims
}

// Verify checks the token and returns the normalized shop domain it was
// issued for. Failures map to the domain taxonomy in check order:
// structure, signature, exp/nbf with zero leeway, audience.
func (v *SessionVerifier) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", domain.ErrMalformedToken
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(v.apiSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithAudience(v.apiKey))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", domain.ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", domain.ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
			return "", domain.ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			return "", domain.ErrAudienceMismatch
		default:
			return "", domain.ErrMalformedToken
		}
	}

	dest := claims.Dest
	if dest == "" {
		// Older tokens carry only iss ("https://{shop}/admin").
		dest = claims.Issuer
	}
	shop := domain.NormalizeShopDomain(dest)
	if shop == "" {
		return "", domain.ErrMalformedToken
	}
	return shop, nil
}
