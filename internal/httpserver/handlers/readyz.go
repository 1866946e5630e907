package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dlemaire/pulse/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Store string `json:"store"`
}

// Readyz reports readiness: the process is up and the store answers a ping.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := readyzResponse{Ready: true, Store: "ok"}
		if d.Store == nil {
			resp = readyzResponse{Ready: false, Store: "not initialized"}
		} else if err := d.Store.Ping(ctx); err != nil {
			resp = readyzResponse{Ready: false, Store: "unreachable"}
		}

		if resp.Ready {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
