package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsServe(cfg CORSConfig, method, origin string, preflight bool) (*httptest.ResponseRecorder, bool) {
	reached := false
	h := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(method, "/api/v1/state", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, reached
}

func TestCORS_AllowOrigin(t *testing.T) {
	prod := CORSConfig{
		AllowedOrigins: []string{"https://shop.example.com", "https://m.shop.example.com"},
		Environment:    "production",
	}

	tests := []struct {
		name       string
		cfg        CORSConfig
		origin     string
		wantOrigin string
		wantVary   bool
	}{
		{"development allows any", CORSConfig{Environment: "development"}, "http://localhost:3000", "*", false},
		{"development without origin", CORSConfig{Environment: "development"}, "", "*", false},
		{"production listed origin echoed", prod, "https://shop.example.com", "https://shop.example.com", true},
		{"production second listed origin", prod, "https://m.shop.example.com", "https://m.shop.example.com", true},
		{"production unknown origin", prod, "https://evil.example.com", "", false},
		{"production no origin", prod, "", "", false},
		{"wildcard entry allows all", CORSConfig{AllowedOrigins: []string{"*"}, Environment: "production"}, "https://a.example.com", "*", false},
		{
			"credentials echo origin instead of wildcard",
			CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true},
			"https://a.example.com", "https://a.example.com", true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := corsServe(tt.cfg, http.MethodGet, tt.origin, false)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			if tt.wantVary {
				assert.Equal(t, "Origin", rec.Header().Get("Vary"))
			} else {
				assert.Empty(t, rec.Header().Get("Vary"))
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	rec, reached := corsServe(DefaultCORSConfig(), http.MethodOptions, "http://localhost:3000", true)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, reached)
}

func TestCORS_PlainOptionsReachesHandler(t *testing.T) {
	rec, reached := corsServe(DefaultCORSConfig(), http.MethodOptions, "", false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
}

func TestCORS_DefaultsFilled(t *testing.T) {
	rec, _ := corsServe(CORSConfig{Environment: "development"}, http.MethodGet, "", false)
	h := rec.Header()
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", h.Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Accept, Content-Type, X-Correlation-ID", h.Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "3600", h.Get("Access-Control-Max-Age"))
	assert.Empty(t, h.Get("Access-Control-Expose-Headers"))
	assert.Empty(t, h.Get("Access-Control-Allow-Credentials"))
}

func TestCORS_DefaultConfigExposesCorrelationID(t *testing.T) {
	rec, _ := corsServe(DefaultCORSConfig(), http.MethodGet, "", false)
	assert.Equal(t, CorrelationIDHeader, rec.Header().Get("Access-Control-Expose-Headers"))
}

func TestCORS_CustomMaxAgeAndCredentials(t *testing.T) {
	rec, _ := corsServe(CORSConfig{
		AllowedOrigins:   []string{"https://shop.example.com"},
		MaxAge:           600,
		AllowCredentials: true,
	}, http.MethodGet, "https://shop.example.com", false)
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
