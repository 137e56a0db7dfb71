package application

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"whatsapp-launcher-core/internal/domain"
	"whatsapp-launcher-core/internal/ports"
)

// WidgetService manages the contact-widget configuration, its analytics
// and the best-effort script tag registration that keeps the widget loader
// on the storefront.
type WidgetService struct {
	repository ports.Repository
	client     ports.ShopifyClient
	logger     zerolog.Logger
	appURL     string
}

// NewWidgetService creates a new widget service.
func NewWidgetService(
	repository ports.Repository,
	client ports.ShopifyClient,
	logger zerolog.Logger,
	appURL string,
) *WidgetService {
	return &WidgetService{
		repository: repository,
		client:     client,
		logger:     logger,
		appURL:     appURL,
	}
}

// SaveResult reports a config save. WidgetPending is true when the save
// succeeded but the script tag registration did not: a degraded success,
// not an error.
type SaveResult struct {
	Config        *domain.WidgetConfig
	WidgetPending bool
}

// SaveConfig validates and stores the widget configuration, then ensures
// the widget loader script tag as a best-effort side effect. Script tag
// failure never fails the save.
func (s *WidgetService) SaveConfig(ctx context.Context, shop, phoneNumber, initialMessage string) (*SaveResult, error) {
	cfg := &domain.WidgetConfig{
		Shop:           shop,
		PhoneNumber:    phoneNumber,
		InitialMessage: initialMessage,
		UpdatedAt:      time.Now().UTC(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := s.repository.SaveWidgetConfig(ctx, cfg); err != nil {
		return nil, err
	}

	result := &SaveResult{Config: cfg}
	if err := s.EnsureScriptTag(ctx, shop); err != nil {
		s.logger.Warn().
			Err(err).
			Str("shop", shop).
			Msg("Widget script tag registration failed; config saved anyway")
		result.WidgetPending = true
	}
	return result, nil
}

// GetConfig returns the widget config, or (nil, nil) when not configured.
func (s *WidgetService) GetConfig(ctx context.Context, shop string) (*domain.WidgetConfig, error) {
	return s.repository.GetWidgetConfig(ctx, shop)
}

// TrackClick records one widget click for the shop.
func (s *WidgetService) TrackClick(ctx context.Context, shop string) error {
	return s.repository.IncrementWidgetClick(ctx, shop)
}

// GetAnalytics returns the click analytics for the shop; shops with no
// recorded clicks get the zero record.
func (s *WidgetService) GetAnalytics(ctx context.Context, shop string) (*domain.Analytics, error) {
	rec, err := s.repository.GetAnalytics(ctx, shop)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return domain.EmptyAnalytics(shop), nil
	}
	return rec, nil
}

// WidgetLoaderURL is the script tag src for a shop.
func (s *WidgetService) WidgetLoaderURL(shop string) string {
	return fmt.Sprintf("%s/whatsapp-widget.js?shop=%s", s.appURL, url.QueryEscape(shop))
}

// EnsureScriptTag registers the widget loader on the shop's storefront
// exactly once: existing registrations are compared by URL and matching
// ones are left alone. One retry on failure; the error is wrapped as
// domain.ErrScriptTagInstall for the caller to downgrade.
func (s *WidgetService) EnsureScriptTag(ctx context.Context, shop string) error {
	inst, err := s.repository.GetInstallation(ctx, shop)
	if err != nil {
		return err
	}
	if inst == nil {
		return domain.ErrUnknownTenant
	}

	src := s.WidgetLoaderURL(shop)
	// Compare ignoring the query string so a shop renamed mid-flight does
	// not accumulate duplicate registrations.
	srcPrefix := s.appURL + "/whatsapp-widget.js"

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		tags, err := s.client.ListScriptTags(ctx, shop, inst.AccessToken)
		if err != nil {
			lastErr = err
			continue
		}

		for _, tag := range tags {
			if strings.HasPrefix(tag.Src, srcPrefix) {
				return nil
			}
		}

		if _, err := s.client.CreateScriptTag(ctx, shop, inst.AccessToken, src); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	return fmt.Errorf("%w: %v", domain.ErrScriptTagInstall, lastErr)
}
