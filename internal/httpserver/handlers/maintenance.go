package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dlemaire/pulse/internal/httpserver/deps"
	"github.com/dlemaire/pulse/internal/logger"
)

// Maintenance triggers one retention/bookkeeping pass.
func Maintenance(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := d.Maintenance.Run(r.Context(), "http")

		w.Header().Set("Content-Type", "application/json")
		if report.Status == "error" {
			w.WriteHeader(http.StatusInternalServerError)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		if err := json.NewEncoder(w).Encode(report); err != nil {
			d.Logger.Debug("failed to write maintenance response", logger.Error(err))
		}
	}
}
