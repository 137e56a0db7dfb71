package domain

import (
	"strings"
	"time"
)

// Installation represents one shop that has installed the app.
// AccessToken is the opaque Shopify Admin API credential obtained during
// OAuth; it is stored for outbound API calls and never serialized into
// API responses.
type Installation struct {
	Shop        string    `json:"shop" bson:"shop"`
	AccessToken string    `json:"-" bson:"access_token"`
	InstalledAt time.Time `json:"installed_at" bson:"installed_at"`
}

// NormalizeShopDomain strips scheme, path and trailing slashes from a shop
// identifier, lowercasing the result. "https://test.myshopify.com/admin"
// and "Test.MyShopify.com" both normalize to "test.myshopify.com".
func NormalizeShopDomain(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(s)
}

// ValidShopDomain reports whether a normalized shop domain looks like a
// hostname we are willing to redirect to. Guards the OAuth redirect against
// open-redirect style input.
func ValidShopDomain(shop string) bool {
	if shop == "" || len(shop) > 255 {
		return false
	}
	if !strings.Contains(shop, ".") {
		return false
	}
	for _, r := range shop {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '.':
		default:
			return false
		}
	}
	return true
}
