package ports

import (
	"context"

	shopify "github.com/bold-commerce/go-shopify/v4"
)

// ShopifyClient defines the outbound Shopify API operations this app
// performs. Implementations bound every call with a timeout; a timeout is
// a recoverable error, not a crash.
type ShopifyClient interface {
	// Authentication
	AuthorizeURL(shop string, state string) string
	ExchangeToken(ctx context.Context, shop string, code string) (string, error)

	// Script tag API
	ListScriptTags(ctx context.Context, shop string, accessToken string) ([]shopify.ScriptTag, error)
	CreateScriptTag(ctx context.Context, shop string, accessToken string, src string) (*shopify.ScriptTag, error)
}
