package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dlemaire/pulse/internal/httpserver/deps"
	"github.com/dlemaire/pulse/internal/httpserver/handlers"
	"github.com/dlemaire/pulse/internal/httpserver/mw"
)

func init() { Register(registerPing) }

func registerPing(r chi.Router, d deps.Deps) {
	r.With(
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RequireAPIKey(d.APIKey, d.Logger),
		mw.RateLimit(mw.RateLimitConfig{
			Burst:             d.PingBurst,
			RefillPerIPPerMin: d.PingRefillPerMin,
			MaxEntries:        4096,
			SweepInterval:     time.Minute,
			IdleTTL:           15 * time.Minute,
			TrustProxy:        d.TrustProxy,
		}),
	).Get("/ping", handlers.Ping(d))
}
