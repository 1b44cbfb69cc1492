package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stefancrain/GeoApi/internal/cityzip"
	"github.com/stefancrain/GeoApi/internal/db"
	"github.com/stefancrain/GeoApi/internal/geocache"
	"github.com/stefancrain/GeoApi/internal/geoserver"
	"github.com/stefancrain/GeoApi/internal/members"
	"github.com/stefancrain/GeoApi/internal/pipeline"
	"github.com/stefancrain/GeoApi/internal/provider"
	addresssvc "github.com/stefancrain/GeoApi/internal/service/address"
	districtsvc "github.com/stefancrain/GeoApi/internal/service/district"
	geocodesvc "github.com/stefancrain/GeoApi/internal/service/geocode"
	"github.com/stefancrain/GeoApi/internal/shapefile"
	"github.com/stefancrain/GeoApi/internal/streetfile"
	"github.com/stefancrain/GeoApi/pkg/geocode"
	"github.com/stefancrain/GeoApi/pkg/usps"
)

// tigerMaxRating is the worst PostGIS geocoder rating accepted as a match.
const tigerMaxRating = 25

// env holds the wired application services shared by the commands.
type env struct {
	pool *pgxpool.Pool

	shapes  *shapefile.DAO
	streets *streetfile.DAO

	addrSvc *addresssvc.Service
	geoSvc  *geocodesvc.Service
	distSvc *districtsvc.Service
	pipe    *pipeline.Service
}

// geoURL returns the geospatial database URL, falling back to the primary.
func geoURL() string {
	if cfg.DB.GeoURL != "" {
		return cfg.DB.GeoURL
	}
	return cfg.DB.DatabaseURL
}

// initEnv connects the database and wires every service per configuration.
func initEnv(ctx context.Context) (*env, error) {
	pool, err := db.Connect(ctx, geoURL())
	if err != nil {
		return nil, err
	}

	e := &env{
		pool:    pool,
		shapes:  shapefile.NewDAO(pool),
		streets: streetfile.NewDAO(pool),
	}

	var cache *geocache.Cache
	if cfg.Geocache.Enabled {
		cache = geocache.New(pool, geocache.WithBufferSize(cfg.Geocache.BufferSize))
	}

	registry := provider.NewRegistry[geocode.Provider]()
	for _, name := range cfg.Geocoder.Active {
		switch name {
		case "tiger":
			registry.Register("tiger", func() geocode.Provider {
				return geocode.NewTigerProvider(pool, tigerMaxRating)
			})
		case "google":
			registry.Register("google", func() geocode.Provider {
				return geocode.NewGoogleProvider(cfg.Google.Key, cfg.Google.BaseURL)
			})
		case "osm":
			registry.Register("osm", func() geocode.Provider {
				return geocode.NewOSMProvider(cfg.OSM.BaseURL)
			})
		}
	}
	registry.SetFallbackChain(cfg.Geocoder.Rank)
	if chain := registry.FallbackChain(); len(chain) > 0 {
		registry.SetDefault(chain[0])
	}
	for _, name := range cfg.Geocoder.Cacheable {
		registry.MarkCacheable(name)
	}

	e.geoSvc = geocodesvc.New(registry, cache,
		geocodesvc.WithCacheEnabled(cfg.Geocache.Enabled && cache != nil),
		geocodesvc.WithThreads(cfg.Geocoder.Threads),
	)

	e.addrSvc = addresssvc.New(usps.NewClient(cfg.USPS.UserID, cfg.USPS.BaseURL))

	distOpts := []districtsvc.Option{
		districtsvc.WithProximityThreshold(cfg.District.ProximityThreshold),
		districtsvc.WithCityZip(cityzip.NewDAO(pool)),
		districtsvc.WithMembers(members.NewDAO(pool)),
	}
	if cfg.WFS.BaseURL != "" {
		distOpts = append(distOpts,
			districtsvc.WithShapeFallback(geoserver.NewClient(cfg.WFS.BaseURL, cfg.WFS.Workspace)))
	}
	e.distSvc = districtsvc.New(e.shapes, e.streets, distOpts...)

	e.pipe = pipeline.New(e.addrSvc, e.geoSvc, e.distSvc,
		pipeline.WithThreads(cfg.Batch.Threads))

	return e, nil
}

// Close flushes buffered work and releases the database pool.
func (e *env) Close(ctx context.Context) {
	e.geoSvc.Flush(ctx)
	e.pool.Close()
}
