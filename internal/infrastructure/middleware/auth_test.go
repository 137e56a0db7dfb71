package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-launcher-core/internal/domain"
	"whatsapp-launcher-core/internal/infrastructure/repository"
	"whatsapp-launcher-core/internal/infrastructure/shopify"
)

const (
	authTestAPIKey    = "test-api-key"
	authTestAPISecret = "test-api-secret"
)

func authFixture(t *testing.T, devFallback bool) (http.Handler, *repository.FileRepository, *string) {
	t.Helper()
	repo, err := repository.NewFileRepository(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	var seenShop string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenShop = domain.ShopFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	mw := SessionAuth(shopify.NewSessionVerifier(authTestAPIKey, authTestAPISecret), repo, devFallback, zerolog.Nop())
	return mw(next), repo, &seenShop
}

func bearerToken(t *testing.T, shop string) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":  "https://" + shop + "/admin",
		"dest": "https://" + shop,
		"aud":  authTestAPIKey,
		"sub":  "42",
		"exp":  now.Add(time.Minute).Unix(),
		"nbf":  now.Add(-time.Minute).Unix(),
		"iat":  now.Unix(),
		"jti":  "token-id-1",
	})
	signed, err := token.SignedString([]byte(authTestAPISecret))
	require.NoError(t, err)
	return signed
}

func TestSessionAuth_ValidTokenSetsShop(t *testing.T) {
	handler, _, seenShop := authFixture(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	req.Header.Set("Authorization", "Bearer "+bearerToken(t, "test-store.myshopify.com"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test-store.myshopify.com", *seenShop)
}

func TestSessionAuth_MissingOrBadTokenRejected(t *testing.T) {
	handler, _, _ := authFixture(t, false)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionAuth_DevFallbackRequiresInstallation(t *testing.T) {
	handler, repo, seenShop := authFixture(t, true)

	// Fallback refuses shops with no installation.
	req := httptest.NewRequest(http.MethodGet, "/api/config?shop=test-store.example", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.NoError(t, repo.SaveInstallation(context.Background(), &domain.Installation{
		Shop:        "test-store.example",
		AccessToken: "shpat_secret",
		InstalledAt: time.Now().UTC(),
	}))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test-store.example", *seenShop)
}

func TestSessionAuth_FallbackDisabledIgnoresShopParam(t *testing.T) {
	handler, repo, _ := authFixture(t, false)

	require.NoError(t, repo.SaveInstallation(context.Background(), &domain.Installation{
		Shop:        "test-store.example",
		AccessToken: "shpat_secret",
		InstalledAt: time.Now().UTC(),
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/config?shop=test-store.example", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
