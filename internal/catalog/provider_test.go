package catalog

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/httpclient"
	"github.com/utafrali/storefront/pkg/logger"
)

func TestParseCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"12", 1200},
		{"12.5", 1250},
		{"12.34", 1234},
		{"12.345", 1235},
		{"12.344", 1234},
		{"0.005", 1},
		{"0.004", 0},
		{".99", 99},
		{"1e2", 10000},
	}
	for _, tt := range tests {
		got, err := ParseCents(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseCents_Invalid(t *testing.T) {
	for _, in := range []string{"", "-1", "abc", "1.2.3", "99999999999999999999"} {
		_, err := ParseCents(in)
		assert.Error(t, err, in)
	}
}

func TestHTTPProvider_Products(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		_, _ = w.Write([]byte(`[
			{"id": 1, "name": "Rose", "price": 4.5, "image": "/rose.jpg"},
			{"id": "tulip", "name": "Tulip", "price": "3.25"},
			{"id": 3, "name": "Broken", "price": -1},
			{"name": "No id", "price": 1}
		]`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(httpclient.New(httpclient.DefaultConfig()), srv.URL+"/products", logger.Discard())
	products, err := p.Products(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []domain.Product{
		{ID: "1", Name: "Rose", Price: 450, Image: "/rose.jpg"},
		{ID: "tulip", Name: "Tulip", Price: 325},
	}, products)
}

func TestHTTPProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHTTPProvider(httpclient.New(httpclient.DefaultConfig()), srv.URL, logger.Discard())
	_, err := p.Products(t.Context())
	var respErr *httpclient.ResponseError
	require.ErrorAs(t, err, &respErr)
	assert.Equal(t, http.StatusServiceUnavailable, respErr.StatusCode)
}

func TestHTTPProvider_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"id": 7, "name": "Lily", "price": 2}]`))
	}))
	defer srv.Close()

	cfg := httpclient.DefaultConfig()
	cfg.Instrument = false
	cfg.MaxRetries = 2
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond

	p := NewHTTPProvider(httpclient.New(cfg), srv.URL, logger.Discard())
	products, err := p.Products(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []domain.Product{{ID: "7", Name: "Lily", Price: 200}}, products)
	assert.Equal(t, int32(2), calls.Load())
}
