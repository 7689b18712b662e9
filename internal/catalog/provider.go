// Package catalog fetches the product list the shopper picks from.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/pricing"
	"github.com/utafrali/storefront/pkg/httpclient"
)

// Provider returns the current catalog in display order.
type Provider interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

// Getter is satisfied by httpclient.Client and httpclient.CircuitBreakerClient.
// The catalog read is idempotent, so the client may retry it.
type Getter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// HTTPProvider reads the catalog from a JSON endpoint returning
// [{"id", "name", "price", "image"}] with decimal prices.
type HTTPProvider struct {
	http   Getter
	url    string
	logger *slog.Logger
}

// NewHTTPProvider creates a provider reading from url.
func NewHTTPProvider(client Getter, url string, logger *slog.Logger) *HTTPProvider {
	return &HTTPProvider{http: client, url: url, logger: logger}
}

type productDTO struct {
	ID    json.RawMessage `json:"id"`
	Name  string          `json:"name"`
	Price json.Number     `json:"price"`
	Image string          `json:"image"`
}

// Products fetches and converts the catalog. Entries with a missing id or
// an unparseable price are skipped and logged.
func (p *HTTPProvider) Products(ctx context.Context) ([]domain.Product, error) {
	resp, err := p.http.Get(ctx, p.url)
	if err != nil {
		return nil, fmt.Errorf("call catalog: %w", err)
	}
	if err := httpclient.CheckResponse(resp, "catalog"); err != nil {
		return nil, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var dtos []productDTO
	if err := dec.Decode(&dtos); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	products := make([]domain.Product, 0, len(dtos))
	for _, d := range dtos {
		id := rawID(d.ID)
		price, err := ParseCents(d.Price.String())
		if id == "" || err != nil {
			p.logger.WarnContext(ctx, "skipping catalog entry",
				slog.String("id", id),
				slog.String("price", d.Price.String()),
			)
			continue
		}
		products = append(products, domain.Product{ID: id, Name: d.Name, Price: price, Image: d.Image})
	}
	return products, nil
}

func rawID(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

// maxScale bounds the fractional digits honoured when parsing prices.
const maxScale = 6

// ParseCents converts a non-negative decimal amount such as "12.345" into
// cents, rounding half-up.
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 || f > math.MaxInt64/100 {
			return 0, fmt.Errorf("invalid price %q", s)
		}
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}

	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > maxScale {
		frac = frac[:maxScale]
	}
	mantissa, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	scale := int64(math.Pow10(len(frac)))
	if mantissa > math.MaxInt64/100 {
		return 0, fmt.Errorf("price %q out of range", s)
	}
	return pricing.RoundHalfUp(mantissa*100, scale), nil
}
