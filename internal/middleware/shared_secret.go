package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// SharedSecretMiddleware gates machine-to-machine endpoints (cron triggers,
// internal metering ingest) behind a shared bearer secret.
func SharedSecretMiddleware(secret string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				logger.Error().Msg("Shared-secret middleware configured without a secret; requests will be denied")
				http.Error(w, "Configuration error: shared secret not set", http.StatusInternalServerError)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn().Str("path", r.URL.Path).Msg("Missing Authorization header on machine endpoint")
				http.Error(w, "Unauthorized: missing authorization header", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				logger.Warn().Str("path", r.URL.Path).Msg("Malformed Authorization header on machine endpoint")
				http.Error(w, "Unauthorized: malformed authorization header", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(secret)) != 1 {
				logger.Warn().Str("path", r.URL.Path).Msg("Shared secret mismatch on machine endpoint")
				http.Error(w, "Unauthorized: invalid secret", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
