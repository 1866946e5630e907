package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dlemaire/pulse/internal/logger"
)

func TestRequireAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		serverKey  string
		header     string
		query      string
		wantStatus int
	}{
		{
			name:       "valid header key",
			serverKey:  "s3cret",
			header:     "s3cret",
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid query key",
			serverKey:  "s3cret",
			query:      "s3cret",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing key",
			serverKey:  "s3cret",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong key",
			serverKey:  "s3cret",
			header:     "nope",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty server key rejects everything",
			serverKey:  "",
			header:     "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "header wins over query",
			serverKey:  "s3cret",
			header:     "s3cret",
			query:      "ignored",
			wantStatus: http.StatusOK,
		},
	}

	log := logger.New("error", false)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireAPIKey(tt.serverKey, log)(next)

			url := "/ping"
			if tt.query != "" {
				url += "?key=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tt.header != "" {
				req.Header.Set("X-API-Key", tt.header)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if got := rr.Body.String(); got != `{"error":"Unauthorized"}`+"\n" {
					t.Errorf("body = %q", got)
				}
			}
		})
	}
}
