package ports

import (
	"context"

	"whatsapp-launcher-core/internal/domain"
)

// Repository is the per-tenant installation store. All mutations for a
// given shop are serialized by the implementation; mutations for different
// shops may run concurrently. Reads return (nil, nil) when no record
// exists.
type Repository interface {
	// Installation
	SaveInstallation(ctx context.Context, inst *domain.Installation) error
	GetInstallation(ctx context.Context, shop string) (*domain.Installation, error)
	// DeleteInstallation cascade-deletes the shop's widget config and
	// analytics in the same logical operation. Deleting an absent shop is
	// a no-op success.
	DeleteInstallation(ctx context.Context, shop string) error

	// WidgetConfig. Save fails with domain.ErrUnknownTenant unless an
	// installation exists for the shop; the store enforces the invariant,
	// not the caller.
	SaveWidgetConfig(ctx context.Context, cfg *domain.WidgetConfig) error
	GetWidgetConfig(ctx context.Context, shop string) (*domain.WidgetConfig, error)

	// Analytics. IncrementWidgetClick is atomic with respect to concurrent
	// increments for the same shop and fails with domain.ErrUnknownTenant
	// when the shop has no installation.
	IncrementWidgetClick(ctx context.Context, shop string) error
	GetAnalytics(ctx context.Context, shop string) (*domain.Analytics, error)

	// Close flushes and releases the backing medium.
	Close(ctx context.Context) error
}

// StateRepository stores single-use OAuth states. Split from Repository so
// the nonce store can be backed independently (e.g. Redis with native TTL).
type StateRepository interface {
	SaveState(ctx context.Context, state *domain.OAuthState) error
	// ConsumeState atomically fetches and deletes the state for nonce.
	// Returns (nil, nil) when no unexpired state exists; a second consume
	// of the same nonce therefore finds nothing.
	ConsumeState(ctx context.Context, nonce string) (*domain.OAuthState, error)
}
