// Package server exposes the HTTP API: district assignment, address
// correction, geocoding, and boundary map retrieval.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/stefancrain/GeoApi/internal/model"
	"github.com/stefancrain/GeoApi/internal/pipeline"
	"github.com/stefancrain/GeoApi/internal/service/district"
)

// Resolver is the pipeline surface the server depends on.
type Resolver interface {
	Resolve(ctx context.Context, req pipeline.Request) *model.DistrictResult
	ResolveBatch(ctx context.Context, addrs []*model.Address, req pipeline.Request) []*model.DistrictResult
}

// AddressService corrects and completes addresses.
type AddressService interface {
	Validate(ctx context.Context, addr *model.Address) *model.AddressResult
	ValidateBatch(ctx context.Context, addrs []*model.Address) []*model.AddressResult
	CityState(ctx context.Context, zip5 string) *model.AddressResult
	ZipLookup(ctx context.Context, addr *model.Address) *model.AddressResult
}

// GeocodeService resolves addresses to points and back.
type GeocodeService interface {
	Geocode(ctx context.Context, addr *model.Address, providerName string) *model.GeocodeResult
	GeocodeBatch(ctx context.Context, addrs []*model.Address, providerName string) []*model.GeocodeResult
	Reverse(ctx context.Context, p model.Point, providerName string) *model.GeocodeResult
}

// MapSource serves cached district boundary maps.
type MapSource interface {
	Map(t model.DistrictType, code string) *model.DistrictMap
	MapsOfType(t model.DistrictType) []*model.DistrictMap
}

// Server routes API requests onto the services.
type Server struct {
	resolver  Resolver
	addresses AddressService
	geocoder  GeocodeService
	maps      MapSource

	strategySingle   district.Strategy
	strategyBluebird district.Strategy
	strategySource   func() (single, bluebird district.Strategy)
}

// Option configures the Server.
type Option func(*Server)

// WithStrategies sets the strategies used by the assign and bluebird routes.
func WithStrategies(single, bluebird district.Strategy) Option {
	return func(s *Server) {
		s.strategySingle = single
		s.strategyBluebird = bluebird
	}
}

// WithStrategySource wires a per-request strategy reader, so routes pick up
// configuration reloads without a restart.
func WithStrategySource(f func() (single, bluebird district.Strategy)) Option {
	return func(s *Server) {
		s.strategySource = f
	}
}

// WithMaps wires the boundary map cache behind /api/map.
func WithMaps(m MapSource) Option {
	return func(s *Server) {
		s.maps = m
	}
}

// New creates a Server.
func New(resolver Resolver, addresses AddressService, geocoder GeocodeService, opts ...Option) *Server {
	s := &Server{
		resolver:         resolver,
		addresses:        addresses,
		geocoder:         geocoder,
		strategySingle:   district.StrategyDefault,
		strategyBluebird: district.StrategyStreetFallback,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/district", func(r chi.Router) {
			r.Get("/assign", s.handleAssign(false))
			r.Post("/assign", s.handleAssignBatch(false))
			r.Get("/bluebird", s.handleAssign(true))
			r.Post("/bluebird", s.handleAssignBatch(true))
		})
		r.Route("/address", func(r chi.Router) {
			r.Get("/validate", s.handleValidate)
			r.Post("/validate", s.handleValidateBatch)
			r.Get("/citystate", s.handleCityState)
			r.Get("/zipcode", s.handleZipLookup)
		})
		r.Route("/geo", func(r chi.Router) {
			r.Get("/geocode", s.handleGeocode)
			r.Post("/geocode", s.handleGeocodeBatch)
			r.Get("/revgeocode", s.handleRevGeocode)
		})
		r.Get("/map", s.handleMap)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs completed requests through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		zap.L().Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
