// Package geocode implements the geocoding service: a cache-fronted
// provider cascade with ordered fallback and bounded batch fan-out.
package geocode

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stefancrain/GeoApi/internal/address"
	"github.com/stefancrain/GeoApi/internal/geocache"
	"github.com/stefancrain/GeoApi/internal/model"
	"github.com/stefancrain/GeoApi/internal/provider"
	"github.com/stefancrain/GeoApi/pkg/geocode"
)

// Service resolves addresses to coordinates through the provider registry.
type Service struct {
	registry     *provider.Registry[geocode.Provider]
	cache        *geocache.Cache
	cacheEnabled bool
	threads      int
}

// Option configures the Service.
type Option func(*Service)

// WithCacheEnabled toggles the geocode cache.
func WithCacheEnabled(enabled bool) Option {
	return func(s *Service) {
		s.cacheEnabled = enabled
	}
}

// WithThreads bounds batch fan-out concurrency.
func WithThreads(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.threads = n
		}
	}
}

// New creates a geocode Service. The cache may be nil when disabled.
func New(registry *provider.Registry[geocode.Provider], cache *geocache.Cache, opts ...Option) *Service {
	s := &Service{
		registry:     registry,
		cache:        cache,
		cacheEnabled: cache != nil,
		threads:      3,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Geocode resolves one address. An empty providerName walks the configured
// fallback chain; a named provider is used alone. The cache is consulted
// first and answers immediately on a house-level hit.
func (s *Service) Geocode(ctx context.Context, addr *model.Address, providerName string) *model.GeocodeResult {
	result := &model.GeocodeResult{Timestamp: time.Now()}
	if addr == nil || !addr.Valid() {
		result.Status = model.StatusMissingAddress
		return result
	}
	if providerName != "" && !s.registry.IsRegistered(providerName) {
		result.Status = model.StatusProviderNotSupported
		return result
	}

	sa := address.Parse(addr)

	if s.cacheEnabled && providerName == "" {
		if hit, err := s.cache.Lookup(ctx, sa); err != nil {
			zap.L().Warn("geocode: cache lookup failed", zap.Error(err))
		} else if hit != nil {
			result.GeocodedAddress = &model.GeocodedAddress{Address: addr, Geocode: hit.Geocode}
			result.Source = hit.Geocode.Method
			result.Status = model.StatusSuccess
			return result
		}
	}

	// A provider answer only ends the walk at house precision; a coarser
	// centroid is held as a fallback while the rest of the chain gets a
	// chance to do better. Only house-level answers are worth caching.
	var (
		fallback       *model.Geocode
		fallbackSource string
	)
	for _, name := range s.chain(providerName) {
		p, ok := s.registry.NewInstance(name)
		if !ok || !p.Available() {
			continue
		}
		geo, err := p.Geocode(ctx, addr)
		if err != nil {
			zap.L().Debug("geocode: provider error, trying next",
				zap.String("provider", p.Name()), zap.Error(err))
			continue
		}
		if !geo.Valid() {
			continue
		}
		if geo.Quality < model.QualityHouse {
			if fallback == nil || geo.Quality > fallback.Quality {
				fallback = geo
				fallbackSource = p.Name()
			}
			continue
		}
		if s.cacheEnabled && s.registry.IsCacheable(p.Name()) {
			s.cache.Put(ctx, &model.GeocodedStreetAddress{StreetAddress: sa, Geocode: geo})
		}
		result.GeocodedAddress = &model.GeocodedAddress{Address: addr, Geocode: geo}
		result.Source = p.Name()
		result.Status = model.StatusSuccess
		return result
	}

	if fallback != nil {
		result.GeocodedAddress = &model.GeocodedAddress{Address: addr, Geocode: fallback}
		result.Source = fallbackSource
		result.Status = model.StatusSuccess
		return result
	}
	result.GeocodedAddress = &model.GeocodedAddress{Address: addr}
	result.Status = model.StatusNoGeocodeResult
	return result
}

// GeocodeBatch resolves a batch of addresses in parallel, preserving input
// order. Individual failures land in their slot; the batch never fails as
// a whole.
func (s *Service) GeocodeBatch(ctx context.Context, addrs []*model.Address, providerName string) []*model.GeocodeResult {
	results := make([]*model.GeocodeResult, len(addrs))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.threads)
	for i, addr := range addrs {
		eg.Go(func() error {
			results[i] = s.Geocode(gCtx, addr, providerName)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// Reverse resolves a point back to an address using the first provider in
// the chain that supports reverse lookups.
func (s *Service) Reverse(ctx context.Context, p model.Point, providerName string) *model.GeocodeResult {
	result := &model.GeocodeResult{Timestamp: time.Now()}
	if p.Lat == 0 && p.Lon == 0 {
		result.Status = model.StatusMissingPoint
		return result
	}
	if providerName != "" && !s.registry.IsRegistered(providerName) {
		result.Status = model.StatusProviderNotSupported
		return result
	}

	for _, name := range s.chain(providerName) {
		prov, ok := s.registry.NewInstance(name)
		if !ok || !prov.Available() {
			continue
		}
		rp, ok := prov.(geocode.ReverseProvider)
		if !ok {
			continue
		}
		addr, err := rp.Reverse(ctx, p)
		if err != nil {
			zap.L().Debug("geocode: reverse provider error, trying next",
				zap.String("provider", prov.Name()), zap.Error(err))
			continue
		}
		if addr == nil || !addr.Valid() {
			continue
		}
		result.GeocodedAddress = &model.GeocodedAddress{
			Address: addr,
			Geocode: &model.Geocode{Lat: p.Lat, Lon: p.Lon, Method: prov.Name(), Quality: model.QualityPoint},
		}
		result.Source = prov.Name()
		result.Status = model.StatusSuccess
		return result
	}

	result.Status = model.StatusNoReverseGeocodeResult
	return result
}

// Flush drains any buffered cache writes.
func (s *Service) Flush(ctx context.Context) {
	if s.cacheEnabled {
		s.cache.Flush(ctx)
	}
}

func (s *Service) chain(providerName string) []string {
	if providerName != "" {
		return []string{providerName}
	}
	chain := s.registry.FallbackChain()
	if len(chain) == 0 {
		if def := s.registry.DefaultName(); def != "" {
			chain = []string{def}
		}
	}
	return chain
}
