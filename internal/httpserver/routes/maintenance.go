package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/dlemaire/pulse/internal/httpserver/deps"
	"github.com/dlemaire/pulse/internal/httpserver/handlers"
	"github.com/dlemaire/pulse/internal/httpserver/mw"
)

func init() { Register(registerMaintenance) }

func registerMaintenance(r chi.Router, d deps.Deps) {
	r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RequireAPIKey(d.APIKey, d.Logger),
	).Post("/maintenance", handlers.Maintenance(d))
}
