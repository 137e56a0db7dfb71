package domain

import "context"

// contextKey is a private type so context values cannot collide with keys
// set by other packages.
type contextKey string

const shopKey contextKey = "shop"

// WithShop returns a context carrying the verified shop domain.
func WithShop(ctx context.Context, shop string) context.Context {
	return context.WithValue(ctx, shopKey, shop)
}

// ShopFromContext returns the verified shop domain, or "" when the request
// was not attributed to a tenant.
func ShopFromContext(ctx context.Context) string {
	if shop, ok := ctx.Value(shopKey).(string); ok {
		return shop
	}
	return ""
}
