package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/storefront/pkg/logger"
)

func newTestLogger(w *bytes.Buffer) *slog.Logger {
	return logger.NewWithWriter("storefront-test", "info", w)
}

// logOneLine runs a request through RequestLogger and returns the single
// JSON line the handler logged.
func logOneLine(t *testing.T, ctx context.Context, resolvers ...UserResolver) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	base := newTestLogger(&buf)

	handler := RequestLogger(base, resolvers...)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("handled")
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/state", nil).WithContext(ctx)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestRequestLogger_UserID(t *testing.T) {
	member := func(*http.Request) string { return "member-42" }
	guest := func(*http.Request) string { return "" }

	tests := []struct {
		name      string
		ctx       context.Context
		resolvers []UserResolver
		want      string
	}{
		{"no resolver", context.Background(), nil, ""},
		{"guest resolver omits field", context.Background(), []UserResolver{guest}, ""},
		{"resolver supplies member", context.Background(), []UserResolver{member}, "member-42"},
		{"first non-empty resolver wins", context.Background(), []UserResolver{guest, member}, "member-42"},
		{"bearer auth beats resolver", WithUserID(context.Background(), "auth-user"), []UserResolver{member}, "auth-user"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := logOneLine(t, tt.ctx, tt.resolvers...)
			if tt.want == "" {
				assert.NotContains(t, out, "user_id")
				return
			}
			assert.Equal(t, tt.want, out["user_id"])
		})
	}
}

func TestRequestLogger_ResolverSkippedWhenAuthenticated(t *testing.T) {
	called := false
	resolver := func(*http.Request) string {
		called = true
		return "resolved"
	}
	logOneLine(t, WithUserID(context.Background(), "auth-user"), resolver)
	assert.False(t, called)
}

func TestRequestLogger_CorrelationID(t *testing.T) {
	out := logOneLine(t, logger.WithCorrelationID(context.Background(), "corr-test-123"))
	assert.Equal(t, "corr-test-123", out["correlation_id"])
}

func TestRequestLogger_TraceFields(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	out := logOneLine(t, ctx)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", out["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", out["span_id"])
}
