package ingest

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIKeyMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		mode   string
		key    string
		sent   string
		status int
	}{
		{"mode none passes without key", "none", "secret", "", http.StatusOK},
		{"empty key passes through", "apikey", "", "", http.StatusOK},
		{"correct key", "apikey", "secret", "secret", http.StatusOK},
		{"missing key", "apikey", "secret", "", http.StatusUnauthorized},
		{"wrong key", "apikey", "secret", "nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := APIKeyMiddleware(tt.mode, "x-api-key", tt.key, next)

			req := httptest.NewRequest(http.MethodPost, "/ingest/v1/live", nil)
			if tt.sent != "" {
				req.Header.Set("x-api-key", tt.sent)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}
