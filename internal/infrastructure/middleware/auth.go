package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"whatsapp-launcher-core/internal/domain"
	"whatsapp-launcher-core/internal/infrastructure/shopify"
	"whatsapp-launcher-core/internal/ports"
)

// SessionAuth attributes API requests to a tenant. The bearer session
// token is the only production path; requests failing verification get an
// immediate 401 without internal detail.
//
// When devFallback is enabled the middleware also accepts a plain ?shop=
// query parameter, gated on that shop having an installation. The flag
// defaults to off and must never be set in production.
func SessionAuth(
	verifier *shopify.SessionVerifier,
	repository ports.Repository,
	devFallback bool,
	logger zerolog.Logger,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				token := strings.TrimPrefix(auth, "Bearer ")
				shop, err := verifier.Verify(token)
				if err == nil {
					next.ServeHTTP(w, r.WithContext(domain.WithShop(ctx, shop)))
					return
				}
				logger.Warn().
					Err(err).
					Str("path", r.URL.Path).
					Msg("Session token verification failed")
				if !devFallback {
					http.Error(w, "Missing or invalid session token", http.StatusUnauthorized)
					return
				}
			}

			if devFallback {
				shop := domain.NormalizeShopDomain(r.URL.Query().Get("shop"))
				if shop != "" {
					inst, err := repository.GetInstallation(ctx, shop)
					if err == nil && inst != nil {
						logger.Debug().
							Str("shop", shop).
							Msg("Authenticated via dev fallback shop parameter")
						next.ServeHTTP(w, r.WithContext(domain.WithShop(ctx, shop)))
						return
					}
				}
			}

			http.Error(w, "Missing or invalid session token", http.StatusUnauthorized)
		})
	}
}
