package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"whatsapp-launcher-core/internal/application"
	"whatsapp-launcher-core/internal/domain"
	"whatsapp-launcher-core/internal/infrastructure/shopify"
	"whatsapp-launcher-core/internal/ports"
)

// embeddedCSP permits iframe embedding only from the platform admin, plus
// the cdn directives the embedded frontend needs.
const embeddedCSP = "frame-ancestors https://*.myshopify.com https://admin.shopify.com; " +
	"default-src 'self' https://cdn.shopify.com https://*.myshopify.com; " +
	"script-src 'self' 'unsafe-inline' 'unsafe-eval' https://cdn.shopify.com; " +
	"style-src 'self' 'unsafe-inline' https://cdn.shopify.com; " +
	"img-src 'self' data: https:; " +
	"font-src 'self' https://cdn.shopify.com; " +
	"connect-src 'self' https://*.myshopify.com https://admin.shopify.com"

// Handlers bundles the HTTP endpoints over the application services.
type Handlers struct {
	oauthService    *application.OAuthService
	widgetService   *application.WidgetService
	repository      ports.Repository
	webhookVerifier *shopify.WebhookVerifier
	dispatcher      *application.WebhookDispatcher
	logger          zerolog.Logger
	apiKey          string
	appURL          string
}

// NewHandlers creates the HTTP handler set.
func NewHandlers(
	oauthService *application.OAuthService,
	widgetService *application.WidgetService,
	repository ports.Repository,
	webhookVerifier *shopify.WebhookVerifier,
	dispatcher *application.WebhookDispatcher,
	logger zerolog.Logger,
	apiKey string,
	appURL string,
) *Handlers {
	return &Handlers{
		oauthService:    oauthService,
		widgetService:   widgetService,
		repository:      repository,
		webhookVerifier: webhookVerifier,
		dispatcher:      dispatcher,
		logger:          logger,
		apiKey:          apiKey,
		appURL:          appURL,
	}
}

// Install begins the OAuth flow: GET /install?shop=<domain>
func (h *Handlers) Install(w http.ResponseWriter, r *http.Request) {
	shop := r.URL.Query().Get("shop")
	if shop == "" {
		http.Error(w, "shop parameter is required", http.StatusBadRequest)
		return
	}

	authURL, err := h.oauthService.BeginInstall(r.Context(), shop)
	if err != nil {
		h.logger.Error().Err(err).Str("shop", shop).Msg("Failed to begin installation")
		h.writeStoreError(w, err, "Failed to begin installation")
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// AuthCallback completes the OAuth flow:
// GET /auth/callback?shop=&code=&state=
func (h *Handlers) AuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	shop := q.Get("shop")
	code := q.Get("code")
	state := q.Get("state")

	inst, err := h.oauthService.CompleteInstall(r.Context(), shop, code, state)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidState):
			http.Error(w, "Invalid or expired authorization state", http.StatusUnauthorized)
		case errors.Is(err, domain.ErrTokenExchange):
			http.Error(w, "Failed to complete installation", http.StatusBadGateway)
		default:
			h.writeStoreError(w, err, "Failed to complete installation")
		}
		return
	}

	http.Redirect(w, r, fmt.Sprintf("%s/embedded?shop=%s", h.appURL, url.QueryEscape(inst.Shop)), http.StatusFound)
}

// Embedded serves the dashboard shell descriptor for the embedded app:
// GET /embedded?shop=&host=
func (h *Handlers) Embedded(w http.ResponseWriter, r *http.Request) {
	shop := domain.NormalizeShopDomain(r.URL.Query().Get("shop"))
	host := r.URL.Query().Get("host")
	if shop == "" {
		http.Error(w, "shop parameter is required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Security-Policy", embeddedCSP)

	inst, err := h.repository.GetInstallation(r.Context(), shop)
	if err != nil {
		h.writeStoreError(w, err, "Failed to load installation")
		return
	}
	if inst == nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"installed":   false,
			"install_url": fmt.Sprintf("%s/install?shop=%s", h.appURL, url.QueryEscape(shop)),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"installed": true,
		"shop":      shop,
		"host":      host,
		"api_key":   h.apiKey,
		"app_url":   h.appURL,
	})
}

// GetConfig returns the widget config for the verified tenant:
// GET /api/config
func (h *Handlers) GetConfig(w http.ResponseWriter, r *http.Request) {
	shop := domain.ShopFromContext(r.Context())

	cfg, err := h.widgetService.GetConfig(r.Context(), shop)
	if err != nil {
		h.writeStoreError(w, err, "Failed to load configuration")
		return
	}
	if cfg == nil {
		writeJSON(w, http.StatusOK, map[string]any{"configured": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"configured":      true,
		"phone_number":    cfg.PhoneNumber,
		"initial_message": cfg.InitialMessage,
		"updated_at":      cfg.UpdatedAt,
	})
}

type configureRequest struct {
	PhoneNumber    string `json:"phone_number"`
	InitialMessage string `json:"initial_message"`
}

// ConfigureWhatsApp saves the widget config:
// POST /api/configure-whatsapp
func (h *Handlers) ConfigureWhatsApp(w http.ResponseWriter, r *http.Request) {
	shop := domain.ShopFromContext(r.Context())

	var req configureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.widgetService.SaveConfig(r.Context(), shop, req.PhoneNumber, req.InitialMessage)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidConfig):
			http.Error(w, "Invalid phone number or message", http.StatusBadRequest)
		case errors.Is(err, domain.ErrUnknownTenant):
			http.Error(w, "App not installed", http.StatusUnauthorized)
		default:
			h.writeStoreError(w, err, "Failed to save configuration")
		}
		return
	}

	resp := map[string]any{
		"success": true,
		"message": "Configuration saved successfully",
	}
	if result.WidgetPending {
		resp["message"] = "Configuration saved; widget registration pending"
		resp["widget_pending"] = true
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAnalytics returns the click analytics for the verified tenant:
// GET /api/analytics
func (h *Handlers) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	shop := domain.ShopFromContext(r.Context())

	rec, err := h.widgetService.GetAnalytics(r.Context(), shop)
	if err != nil {
		h.writeStoreError(w, err, "Failed to load analytics")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"widget_clicks": rec.WidgetClicks,
		"first_click":   rec.FirstClick,
		"last_click":    rec.LastClick,
	})
}

type widgetClickRequest struct {
	Shop string `json:"shop"`
}

// WidgetClick records a storefront widget click: POST /api/widget-click
// Fired by the widget itself, so there is no session token; the increment
// is gated on the shop having an installation.
func (h *Handlers) WidgetClick(w http.ResponseWriter, r *http.Request) {
	var req widgetClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}

	shop := domain.NormalizeShopDomain(req.Shop)
	if shop == "" {
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}

	if err := h.widgetService.TrackClick(r.Context(), shop); err != nil {
		if errors.Is(err, domain.ErrUnknownTenant) {
			writeJSON(w, http.StatusOK, map[string]any{"success": false})
			return
		}
		h.writeStoreError(w, err, "Failed to record click")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// WidgetJS serves the widget loader script:
// GET /whatsapp-widget.js?shop=<domain>
func (h *Handlers) WidgetJS(w http.ResponseWriter, r *http.Request) {
	shop := domain.NormalizeShopDomain(r.URL.Query().Get("shop"))

	w.Header().Set("Content-Type", "application/javascript")

	cfg, err := h.widgetService.GetConfig(r.Context(), shop)
	if err != nil || cfg == nil {
		// Unconfigured shops get an empty script rather than an error the
		// storefront would surface to visitors.
		w.WriteHeader(http.StatusOK)
		return
	}

	fmt.Fprintf(w, widgetScript, h.appURL, shop, cfg.DialNumber(), url.QueryEscape(cfg.InitialMessage))
}

// AppUninstalled handles the uninstall webhook:
// POST /webhooks/app/uninstalled
func (h *Handlers) AppUninstalled(w http.ResponseWriter, r *http.Request) {
	// The digest covers the body exactly as received; read it raw before
	// anything parses it.
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	hmacHeader := r.Header.Get("X-Shopify-Hmac-SHA256")
	if err := h.webhookVerifier.Verify(payload, hmacHeader); err != nil {
		h.logger.Warn().Msg("Webhook signature verification failed")
		http.Error(w, "Invalid webhook signature", http.StatusUnauthorized)
		return
	}

	event := &domain.WebhookEvent{
		Topic:   "app/uninstalled",
		Shop:    domain.NormalizeShopDomain(r.Header.Get("X-Shopify-Shop-Domain")),
		Payload: payload,
	}

	if err := h.dispatcher.Dispatch(r.Context(), event); err != nil {
		h.logger.Error().Err(err).Msg("Failed to process uninstall webhook")
		// 500 makes the platform redeliver; the cascade is idempotent.
		http.Error(w, "Failed to process webhook", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Health is the liveness endpoint: GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeStoreError maps persistence failures to a 500 without leaking the
// underlying error.
func (h *Handlers) writeStoreError(w http.ResponseWriter, err error, msg string) {
	h.logger.Error().Err(err).Msg(msg)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
