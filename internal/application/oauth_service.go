package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"whatsapp-launcher-core/internal/domain"
	"whatsapp-launcher-core/internal/ports"
)

// OAuthService drives the installation state machine:
// Unauthenticated -> PendingAuthorization -> Authorized. Failures persist
// nothing, which returns the shop to Unauthenticated implicitly.
type OAuthService struct {
	repository ports.Repository
	stateRepo  ports.StateRepository
	client     ports.ShopifyClient
	logger     zerolog.Logger
}

// NewOAuthService creates a new OAuth service.
func NewOAuthService(
	repository ports.Repository,
	stateRepo ports.StateRepository,
	client ports.ShopifyClient,
	logger zerolog.Logger,
) *OAuthService {
	return &OAuthService{
		repository: repository,
		stateRepo:  stateRepo,
		client:     client,
		logger:     logger,
	}
}

// BeginInstall generates a fresh nonce, persists the pending OAuth state
// and returns the platform authorization URL to redirect to.
func (s *OAuthService) BeginInstall(ctx context.Context, shop string) (string, error) {
	shop = domain.NormalizeShopDomain(shop)
	if !domain.ValidShopDomain(shop) {
		return "", fmt.Errorf("invalid shop domain %q", shop)
	}

	nonceBytes := make([]byte, 16)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", fmt.Errorf("failed to generate state nonce: %w", err)
	}
	nonce := hex.EncodeToString(nonceBytes)

	now := time.Now()
	state := &domain.OAuthState{
		Nonce:     nonce,
		Shop:      shop,
		CreatedAt: now,
		ExpiresAt: now.Add(domain.OAuthStateTTL),
	}
	if err := s.stateRepo.SaveState(ctx, state); err != nil {
		return "", fmt.Errorf("failed to save oauth state: %w", err)
	}

	s.logger.Info().
		Str("shop", shop).
		Msg("Starting app installation")

	return s.client.AuthorizeURL(shop, nonce), nil
}

// CompleteInstall handles the authorization callback: consumes the nonce,
// exchanges the code for an access token and upserts the installation.
// A missing, expired, shop-mismatched or replayed nonce fails with
// domain.ErrInvalidState; an exchange failure with domain.ErrTokenExchange
// (the raw exchange error is logged, never surfaced).
func (s *OAuthService) CompleteInstall(ctx context.Context, shop, code, nonce string) (*domain.Installation, error) {
	shop = domain.NormalizeShopDomain(shop)
	if shop == "" || code == "" || nonce == "" {
		return nil, domain.ErrInvalidState
	}

	state, err := s.stateRepo.ConsumeState(ctx, nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to consume oauth state: %w", err)
	}
	if state == nil || state.Shop != shop {
		s.logger.Warn().
			Str("shop", shop).
			Bool("state_found", state != nil).
			Msg("OAuth callback with invalid state")
		return nil, domain.ErrInvalidState
	}

	accessToken, err := s.client.ExchangeToken(ctx, shop, code)
	if err != nil {
		s.logger.Error().Err(err).Str("shop", shop).Msg("Token exchange failed")
		return nil, domain.ErrTokenExchange
	}

	inst := &domain.Installation{
		Shop:        shop,
		AccessToken: accessToken,
		InstalledAt: time.Now().UTC(),
	}
	if err := s.repository.SaveInstallation(ctx, inst); err != nil {
		return nil, fmt.Errorf("failed to save installation: %w", err)
	}

	s.logger.Info().
		Str("shop", shop).
		Msg("App installed")

	return inst, nil
}
