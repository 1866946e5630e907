package mw

import (
	"crypto/subtle"
	"net/http"

	"github.com/dlemaire/pulse/internal/logger"
)

// RequireAPIKey rejects requests that do not carry the static shared secret,
// either as an X-API-Key header or a ?key= query parameter. If key is empty,
// the middleware refuses everything - running without a key is a
// misconfiguration, not an open door.
func RequireAPIKey(key string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("X-API-Key")
			if provided == "" {
				provided = r.URL.Query().Get("key")
			}

			if key == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
				log.Debug("RequireAPIKey: rejected request",
					logger.String("path", r.URL.Path),
					logger.String("remote_ip", r.RemoteAddr))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Unauthorized"}` + "\n"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
