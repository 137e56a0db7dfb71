package application

import (
	"context"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-launcher-core/internal/domain"
	"whatsapp-launcher-core/internal/infrastructure/repository"
)

func newOAuthFixture(t *testing.T) (*OAuthService, *repository.FileRepository, *fakeShopifyClient) {
	t.Helper()
	repo, err := repository.NewFileRepository(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	client := newFakeShopifyClient()
	return NewOAuthService(repo, repo, client, zerolog.Nop()), repo, client
}

func nonceFromAuthURL(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestOAuthService_BeginInstall_RedirectsWithNonce(t *testing.T) {
	svc, _, _ := newOAuthFixture(t)

	authURL, err := svc.BeginInstall(context.Background(), "Test-Store.MyShopify.com")
	require.NoError(t, err)
	assert.Contains(t, authURL, "https://test-store.myshopify.com/admin/oauth/authorize")
	assert.Len(t, nonceFromAuthURL(t, authURL), 32)
}

func TestOAuthService_BeginInstall_RejectsBadShopDomain(t *testing.T) {
	svc, _, _ := newOAuthFixture(t)

	for _, shop := range []string{"", "no-dot", "evil.example/path?x=1#f", "spaces here.example"} {
		_, err := svc.BeginInstall(context.Background(), shop)
		assert.Error(t, err, "shop %q", shop)
	}
}

func TestOAuthService_CompleteInstall_PersistsInstallation(t *testing.T) {
	svc, repo, _ := newOAuthFixture(t)
	ctx := context.Background()

	authURL, err := svc.BeginInstall(ctx, "test-store.example")
	require.NoError(t, err)
	nonce := nonceFromAuthURL(t, authURL)

	inst, err := svc.CompleteInstall(ctx, "test-store.example", "auth-code", nonce)
	require.NoError(t, err)
	assert.Equal(t, "test-store.example", inst.Shop)
	assert.Equal(t, "shpat_test-store.example_auth-code", inst.AccessToken)

	stored, err := repo.GetInstallation(ctx, "test-store.example")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.False(t, stored.InstalledAt.IsZero())
}

func TestOAuthService_CompleteInstall_NonceReplayFails(t *testing.T) {
	svc, _, _ := newOAuthFixture(t)
	ctx := context.Background()

	authURL, err := svc.BeginInstall(ctx, "test-store.example")
	require.NoError(t, err)
	nonce := nonceFromAuthURL(t, authURL)

	_, err = svc.CompleteInstall(ctx, "test-store.example", "auth-code", nonce)
	require.NoError(t, err)

	_, err = svc.CompleteInstall(ctx, "test-store.example", "auth-code", nonce)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestOAuthService_CompleteInstall_ShopMismatchFails(t *testing.T) {
	svc, _, _ := newOAuthFixture(t)
	ctx := context.Background()

	authURL, err := svc.BeginInstall(ctx, "test-store.example")
	require.NoError(t, err)
	nonce := nonceFromAuthURL(t, authURL)

	_, err = svc.CompleteInstall(ctx, "other-store.example", "auth-code", nonce)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	// The state was consumed by the failed attempt; the right shop cannot
	// use it afterwards either.
	_, err = svc.CompleteInstall(ctx, "test-store.example", "auth-code", nonce)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestOAuthService_CompleteInstall_UnknownNonceFails(t *testing.T) {
	svc, _, _ := newOAuthFixture(t)

	_, err := svc.CompleteInstall(context.Background(), "test-store.example", "auth-code", "never-issued")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestOAuthService_CompleteInstall_ExchangeFailureLeavesNoInstallation(t *testing.T) {
	svc, repo, client := newOAuthFixture(t)
	ctx := context.Background()
	client.failExchange = true

	authURL, err := svc.BeginInstall(ctx, "test-store.example")
	require.NoError(t, err)
	nonce := nonceFromAuthURL(t, authURL)

	_, err = svc.CompleteInstall(ctx, "test-store.example", "auth-code", nonce)
	// The raw exchange error must not leak to callers.
	assert.ErrorIs(t, err, domain.ErrTokenExchange)
	assert.NotContains(t, err.Error(), "upstream said no")

	inst, err := repo.GetInstallation(ctx, "test-store.example")
	require.NoError(t, err)
	assert.Nil(t, inst)
}
