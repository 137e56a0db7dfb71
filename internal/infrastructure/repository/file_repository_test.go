package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whatsapp-launcher-core/internal/domain"
)

func newTestRepo(t *testing.T) *FileRepository {
	t.Helper()
	repo, err := NewFileRepository(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return repo
}

func installShop(t *testing.T, repo *FileRepository, shop string) {
	t.Helper()
	err := repo.SaveInstallation(context.Background(), &domain.Installation{
		Shop:        shop,
		AccessToken: "shpat_secret",
		InstalledAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestFileRepository_InstallationRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	inst, err := repo.GetInstallation(ctx, "absent.example")
	require.NoError(t, err)
	assert.Nil(t, inst)

	installShop(t, repo, "test-store.example")

	inst, err = repo.GetInstallation(ctx, "test-store.example")
	require.NoError(t, err)
	require.NotNil(t, inst)
	assert.Equal(t, "shpat_secret", inst.AccessToken)
}

func TestFileRepository_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewFileRepository(dir, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, repo.SaveInstallation(ctx, &domain.Installation{
		Shop:        "test-store.example",
		AccessToken: "shpat_secret",
		InstalledAt: time.Now().UTC(),
	}))
	require.NoError(t, repo.SaveWidgetConfig(ctx, &domain.WidgetConfig{
		Shop:           "test-store.example",
		PhoneNumber:    "+15551234567",
		InitialMessage: "Hi",
		UpdatedAt:      time.Now().UTC(),
	}))
	require.NoError(t, repo.Close(ctx))

	reopened, err := NewFileRepository(dir, zerolog.Nop())
	require.NoError(t, err)

	inst, err := reopened.GetInstallation(ctx, "test-store.example")
	require.NoError(t, err)
	require.NotNil(t, inst)
	assert.Equal(t, "shpat_secret", inst.AccessToken)

	cfg, err := reopened.GetWidgetConfig(ctx, "test-store.example")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "+15551234567", cfg.PhoneNumber)
}

func TestFileRepository_ConfigRequiresInstallation(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.SaveWidgetConfig(context.Background(), &domain.WidgetConfig{
		Shop:           "not-installed.example",
		PhoneNumber:    "+15551234567",
		InitialMessage: "Hi",
	})
	assert.ErrorIs(t, err, domain.ErrUnknownTenant)
}

func TestFileRepository_CascadeDeleteIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	shop := "test-store.example"

	installShop(t, repo, shop)
	require.NoError(t, repo.SaveWidgetConfig(ctx, &domain.WidgetConfig{
		Shop: shop, PhoneNumber: "+15551234567", InitialMessage: "Hi",
	}))
	require.NoError(t, repo.IncrementWidgetClick(ctx, shop))

	require.NoError(t, repo.DeleteInstallation(ctx, shop))

	inst, err := repo.GetInstallation(ctx, shop)
	require.NoError(t, err)
	assert.Nil(t, inst)

	cfg, err := repo.GetWidgetConfig(ctx, shop)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	rec, err := repo.GetAnalytics(ctx, shop)
	require.NoError(t, err)
	assert.Nil(t, rec)

	// Redelivered uninstalls are a no-op success.
	require.NoError(t, repo.DeleteInstallation(ctx, shop))
	require.NoError(t, repo.DeleteInstallation(ctx, "never-installed.example"))
}

func TestFileRepository_ConcurrentIncrements(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	shop := "test-store.example"
	installShop(t, repo, shop)

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.IncrementWidgetClick(ctx, shop))
		}()
	}
	wg.Wait()

	rec, err := repo.GetAnalytics(ctx, shop)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(n), rec.WidgetClicks)
	require.NotNil(t, rec.FirstClick)
	require.NotNil(t, rec.LastClick)
	assert.False(t, rec.LastClick.Before(*rec.FirstClick))
}

func TestFileRepository_IncrementRequiresInstallation(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.IncrementWidgetClick(context.Background(), "not-installed.example")
	assert.ErrorIs(t, err, domain.ErrUnknownTenant)
}

func TestFileRepository_StateConsumeOnce(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now()
	state := &domain.OAuthState{
		Nonce:     "nonce-1",
		Shop:      "test-store.example",
		CreatedAt: now,
		ExpiresAt: now.Add(domain.OAuthStateTTL),
	}
	require.NoError(t, repo.SaveState(ctx, state))

	got, err := repo.ConsumeState(ctx, "nonce-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "test-store.example", got.Shop)

	replayed, err := repo.ConsumeState(ctx, "nonce-1")
	require.NoError(t, err)
	assert.Nil(t, replayed)
}

func TestFileRepository_StateExpiry(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, repo.SaveState(ctx, &domain.OAuthState{
		Nonce:     "stale",
		Shop:      "test-store.example",
		CreatedAt: now.Add(-time.Hour),
		ExpiresAt: now.Add(-50 * time.Minute),
	}))

	got, err := repo.ConsumeState(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, got)
}
