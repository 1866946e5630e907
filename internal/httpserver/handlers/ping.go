package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dlemaire/pulse/internal/httpserver/deps"
	"github.com/dlemaire/pulse/internal/logger"
)

// Ping runs one keepalive recording pass. The response is always 200: cron
// probes only care that the endpoint answered, the body's status field says
// whether the run actually succeeded.
func Ping(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := d.Recorder.Run(r.Context(), "http")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(report); err != nil {
			d.Logger.Debug("failed to write ping response", logger.Error(err))
		}
	}
}
