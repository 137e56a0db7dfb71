package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	securitymiddleware "whatsapp-launcher-core/internal/infrastructure/middleware"
)

// NewRouter assembles the HTTP surface. sessionAuth guards the tenant-
// scoped API routes; everything else is public by design (OAuth endpoints,
// webhook ingress with its own signature check, widget loader, health,
// metrics).
func NewRouter(h *Handlers, sessionAuth func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(securitymiddleware.SecurityHeaders())
	r.Use(securitymiddleware.Metrics())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// OAuth flow
	r.Get("/install", h.Install)
	r.Get("/auth/callback", h.AuthCallback)

	// Embedded app shell
	r.Get("/embedded", h.Embedded)

	// Tenant-scoped API
	r.Group(func(r chi.Router) {
		r.Use(sessionAuth)
		r.Get("/api/config", h.GetConfig)
		r.Post("/api/configure-whatsapp", h.ConfigureWhatsApp)
		r.Get("/api/analytics", h.GetAnalytics)
	})

	// Storefront-facing, no session token
	r.Post("/api/widget-click", h.WidgetClick)
	r.Get("/whatsapp-widget.js", h.WidgetJS)

	// Webhook ingress, signature-verified in the handler
	r.Post("/webhooks/app/uninstalled", h.AppUninstalled)

	// Operational
	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
