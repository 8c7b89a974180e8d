package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name       string
		apiKey     string
		path       string
		header     map[string]string
		query      string
		wantStatus int
	}{
		{
			name:       "disabled when no key configured",
			apiKey:     "",
			path:       "/api/pairs",
			wantStatus: http.StatusOK,
		},
		{
			name:       "health always open",
			apiKey:     "secret",
			path:       "/api/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing token",
			apiKey:     "secret",
			path:       "/api/pairs",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "bearer token",
			apiKey:     "secret",
			path:       "/api/pairs",
			header:     map[string]string{"Authorization": "Bearer secret"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "x-api-key header",
			apiKey:     "secret",
			path:       "/api/pairs",
			header:     map[string]string{"X-API-Key": "secret"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "query parameter for websocket clients",
			apiKey:     "secret",
			path:       "/ws/liquidity",
			query:      "api_key=secret",
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong token",
			apiKey:     "secret",
			path:       "/api/pairs",
			header:     map[string]string{"X-API-Key": "nope"},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Auth(tt.apiKey)(okHandler())

			url := tt.path
			if tt.query != "" {
				url += "?" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestCORSPreflightAndOrigin(t *testing.T) {
	h := CORS([]string{"https://app.example.com"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/pairs", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("allow-origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/pairs", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("disallowed origin got allow-origin %q", got)
	}
}
