package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/dlemaire/pulse/internal/httpserver/deps"
	"github.com/dlemaire/pulse/internal/logger"
)

type dashboardError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Dashboard serves the aggregated report. Individual missing reads degrade
// inside the report; only an unreachable store produces a 500.
func Dashboard(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		report, err := d.Aggregator.Run(r.Context())
		if err != nil {
			d.Logger.Error("dashboard aggregation failed", logger.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(dashboardError{
				Status:  "error",
				Message: "Failed to load dashboard",
				Error:   err.Error(),
			})
			return
		}

		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(report); err != nil {
			d.Logger.Debug("failed to write dashboard response", logger.Error(err))
		}
	}
}
