package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	goshopify "github.com/bold-commerce/go-shopify/v4"
)

// fakeShopifyClient satisfies ports.ShopifyClient for tests. It hands out
// deterministic tokens and records script tags in memory.
type fakeShopifyClient struct {
	mu sync.Mutex

	failExchange  bool
	failScriptAPI bool

	exchangeCalls int
	scriptTags    map[string][]goshopify.ScriptTag
}

func newFakeShopifyClient() *fakeShopifyClient {
	return &fakeShopifyClient{scriptTags: make(map[string][]goshopify.ScriptTag)}
}

func (f *fakeShopifyClient) AuthorizeURL(shop string, state string) string {
	return fmt.Sprintf("https://%s/admin/oauth/authorize?client_id=key&state=%s", shop, url.QueryEscape(state))
}

func (f *fakeShopifyClient) ExchangeToken(_ context.Context, shop string, code string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exchangeCalls++
	if f.failExchange {
		return "", errors.New("upstream said no")
	}
	return "shpat_" + shop + "_" + code, nil
}

func (f *fakeShopifyClient) ListScriptTags(_ context.Context, shop string, _ string) ([]goshopify.ScriptTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failScriptAPI {
		return nil, errors.New("script tag api down")
	}
	return append([]goshopify.ScriptTag(nil), f.scriptTags[shop]...), nil
}

func (f *fakeShopifyClient) CreateScriptTag(_ context.Context, shop string, _ string, src string) (*goshopify.ScriptTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failScriptAPI {
		return nil, errors.New("script tag api down")
	}
	tag := goshopify.ScriptTag{Event: "onload", Src: src}
	f.scriptTags[shop] = append(f.scriptTags[shop], tag)
	return &tag, nil
}

func (f *fakeShopifyClient) tagCount(shop string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.scriptTags[shop])
}
