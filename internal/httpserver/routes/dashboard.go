package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/dlemaire/pulse/internal/httpserver/deps"
	"github.com/dlemaire/pulse/internal/httpserver/handlers"
	"github.com/dlemaire/pulse/internal/httpserver/mw"
)

func init() { Register(registerDashboard) }

func registerDashboard(r chi.Router, d deps.Deps) {
	r.With(
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.RequireAPIKey(d.APIKey, d.Logger),
	).Get("/dashboard", handlers.Dashboard(d))
}
