// Package geocode provides address geocoding through a chain of providers:
// PostGIS TIGER/Line (primary), Google Geocoding API, and OSM Nominatim.
package geocode

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/stefancrain/GeoApi/internal/model"
)

// Provider represents a single geocoding backend.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, addr *model.Address) (*model.Geocode, error)
	Available() bool
}

// ReverseProvider is a Provider that can also resolve a point to an address.
type ReverseProvider interface {
	Provider
	Reverse(ctx context.Context, p model.Point) (*model.Address, error)
}

// Option configures the HTTP-backed providers.
type Option func(*httpConfig)

type httpConfig struct {
	client  *http.Client
	limiter *rate.Limiter
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpConfig) {
		c.client = hc
	}
}

// WithRateLimit sets the requests-per-second limit for outbound API calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpConfig) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func newHTTPConfig(defaultRPS float64, opts ...Option) httpConfig {
	burst := int(defaultRPS)
	if burst < 1 {
		burst = 1
	}
	c := httpConfig{
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(defaultRPS), burst),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// formatOneLine renders an address for one-line geocoder input.
func formatOneLine(addr *model.Address) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
