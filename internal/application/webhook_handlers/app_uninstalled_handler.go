package webhook_handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"whatsapp-launcher-core/internal/domain"
	"whatsapp-launcher-core/internal/ports"
)

// AppUninstalledHandler handles app/uninstalled webhook events by
// cascade-deleting the shop's records. The cascade is idempotent, so
// duplicate deliveries are harmless.
type AppUninstalledHandler struct {
	logger     zerolog.Logger
	repository ports.Repository
}

// NewAppUninstalledHandler creates a new app uninstalled webhook handler.
func NewAppUninstalledHandler(logger zerolog.Logger, repository ports.Repository) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		logger:     logger,
		repository: repository,
	}
}

// CanHandle returns true if this handler can process the given topic.
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == "app/uninstalled"
}

// Handle removes the installation, widget config and analytics for the
// uninstalled shop.
func (h *AppUninstalledHandler) Handle(ctx context.Context, event *domain.WebhookEvent) error {
	shop := event.Shop
	if shop == "" {
		var payload map[string]interface{}
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("failed to parse app uninstalled payload: %w", err)
		}
		if d, ok := payload["domain"].(string); ok {
			shop = d
		} else if d, ok := payload["myshopify_domain"].(string); ok {
			shop = d
		}
	}
	shop = domain.NormalizeShopDomain(shop)
	if shop == "" {
		h.logger.Warn().Msg("App uninstalled webhook without a shop domain; nothing to clean up")
		return nil
	}

	if err := h.repository.DeleteInstallation(ctx, shop); err != nil {
		return fmt.Errorf("failed to cascade delete shop %s: %w", shop, err)
	}

	h.logger.Info().
		Str("shop", shop).
		Msg("App uninstalled - tenant records removed")

	return nil
}
