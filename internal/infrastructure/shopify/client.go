package shopify

import (
	"context"
	"fmt"
	"net/url"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"

	"whatsapp-launcher-core/internal/ports"
)

// scopes the app requests during authorization. The widget loader is
// registered through the script tag API, nothing else is touched.
const scopes = "read_script_tags,write_script_tags"

// outboundTimeout bounds every outbound Shopify API call. A timeout is a
// recoverable failure for the caller.
const outboundTimeout = 10 * time.Second

type client struct {
	apiKey    string
	apiSecret string
	app       goshopify.App
	appURL    string
	logger    zerolog.Logger
}

// NewClient creates a Shopify client adapter for the configured app.
// appURL is the externally reachable base URL used for the OAuth redirect.
func NewClient(apiKey, apiSecret, appURL string, logger zerolog.Logger) ports.ShopifyClient {
	app := goshopify.App{
		ApiKey:      apiKey,
		ApiSecret:   apiSecret,
		RedirectUrl: appURL + "/auth/callback",
		Scope:       scopes,
	}
	return &client{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		app:       app,
		appURL:    appURL,
		logger:    logger,
	}
}

func (c *client) createClient(shopDomain string, accessToken string) (*goshopify.Client, error) {
	cl, err := goshopify.NewClient(c.app, shopDomain, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return cl, nil
}

// AuthorizeURL builds the platform authorization URL carrying the state
// nonce. Shopify expects scopes comma-separated without spaces.
func (c *client) AuthorizeURL(shop string, state string) string {
	redirectURI := c.appURL + "/auth/callback"
	return fmt.Sprintf(
		"https://%s/admin/oauth/authorize?client_id=%s&scope=%s&redirect_uri=%s&state=%s",
		shop,
		c.apiKey,
		url.QueryEscape(scopes),
		url.QueryEscape(redirectURI),
		url.QueryEscape(state),
	)
}

// ExchangeToken exchanges the authorization code for an access token.
func (c *client) ExchangeToken(ctx context.Context, shop string, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, outboundTimeout)
	defer cancel()

	token, err := c.app.GetAccessToken(ctx, shop, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange token: %w", err)
	}
	return token, nil
}

// ListScriptTags returns the script tags registered on the shop.
func (c *client) ListScriptTags(ctx context.Context, shopDomain string, accessToken string) ([]goshopify.ScriptTag, error) {
	cl, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, outboundTimeout)
	defer cancel()

	tags, err := cl.ScriptTag.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list script tags: %w", err)
	}
	return tags, nil
}

// CreateScriptTag registers src as an onload script tag on the shop.
func (c *client) CreateScriptTag(ctx context.Context, shopDomain string, accessToken string, src string) (*goshopify.ScriptTag, error) {
	cl, err := c.createClient(shopDomain, accessToken)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, outboundTimeout)
	defer cancel()

	created, err := cl.ScriptTag.Create(ctx, goshopify.ScriptTag{
		Event: "onload",
		Src:   src,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create script tag: %w", err)
	}

	c.logger.Info().
		Str("shop", shopDomain).
		Str("src", src).
		Msg("Registered widget script tag")

	return created, nil
}
