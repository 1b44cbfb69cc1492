// Package geocache persists geocode results keyed by parsed street address.
// Writes are buffered in memory and flushed in batches so high-volume batch
// jobs never stall on per-row inserts.
package geocache

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/stefancrain/GeoApi/internal/address"
	"github.com/stefancrain/GeoApi/internal/db"
	"github.com/stefancrain/GeoApi/internal/model"
)

// DefaultBufferSize is the flush threshold when none is configured.
const DefaultBufferSize = 100

// Cache is the write-through geocode cache over cache.geocache.
type Cache struct {
	pool       db.Pool
	bufferSize int

	mu     sync.Mutex
	buffer []*model.GeocodedStreetAddress

	// flushMu serializes flushers: writers keep appending under mu while at
	// most one batch drains to the database at a time.
	flushMu sync.Mutex
}

// Option configures a Cache.
type Option func(*Cache)

// WithBufferSize overrides the flush threshold.
func WithBufferSize(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

// New returns a Cache backed by the given pool.
func New(pool db.Pool, opts ...Option) *Cache {
	c := &Cache{
		pool:       pool,
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const hitColumns = `method, quality, latitude, longitude, bldgnum, predirection, street, postdirection, streettype, location, state, zip5, zip4`

// Lookup returns the cached geocode for a parsed address, or nil on a miss.
// Street-level requests only match rows cached at house precision or better;
// a coarser row for the same street is treated as a miss so the provider
// chain gets a chance to do better.
func (c *Cache) Lookup(ctx context.Context, sa *model.StreetAddress) (*model.GeocodedStreetAddress, error) {
	if !address.Retrievable(sa) {
		return nil, nil
	}

	var (
		sql  string
		args []any
	)
	if !sa.StreetEmpty() {
		sql = `SELECT ` + hitColumns + `
			FROM cache.geocache
			WHERE bldgnum = $1 AND predirection = $2 AND street = $3
			  AND postdirection = $4 AND streettype = $5`
		args = []any{sa.BldgNum, sa.PreDir, sa.StreetName, sa.PostDir, sa.StreetType}
		switch {
		case sa.Zip5 != "":
			sql += ` AND zip5 = $6`
			args = append(args, sa.Zip5)
		default:
			sql += ` AND location = $6 AND state = $7`
			args = append(args, sa.Location, sa.State)
		}
	} else {
		// PO-box and city/zip level entries are cached with an empty street.
		sql = `SELECT ` + hitColumns + `
			FROM cache.geocache
			WHERE street = ''`
		if sa.Zip5 != "" {
			sql += ` AND zip5 = $1`
			args = []any{sa.Zip5}
		} else {
			sql += ` AND location = $1 AND state = $2`
			args = []any{sa.Location, sa.State}
		}
	}
	sql += ` LIMIT 1`

	var (
		method, quality                          string
		lat, lon                                 float64
		bldgNum                                  int
		preDir, street, postDir, streetType      string
		location, state, zip5, zip4              string
	)
	row := c.pool.QueryRow(ctx, sql, args...)
	err := row.Scan(&method, &quality, &lat, &lon, &bldgNum, &preDir, &street,
		&postDir, &streetType, &location, &state, &zip5, &zip4)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "geocache: lookup")
	}

	q := model.ParseQuality(quality)
	if !sa.StreetEmpty() && q < model.QualityHouse {
		return nil, nil
	}

	hit := &model.GeocodedStreetAddress{
		StreetAddress: &model.StreetAddress{
			BldgNum:    bldgNum,
			PreDir:     preDir,
			StreetName: address.TitleCase(street),
			StreetType: address.TitleCase(streetType),
			PostDir:    postDir,
			Location:   address.TitleCase(location),
			State:      state,
			Zip5:       zip5,
			Zip4:       zip4,
		},
		Geocode: &model.Geocode{
			Lat:     lat,
			Lon:     lon,
			Method:  method,
			Quality: q,
			Cached:  true,
		},
	}
	zap.L().Debug("geocache: hit",
		zap.String("street", street), zap.String("zip5", zip5),
		zap.String("quality", quality))
	return hit, nil
}

// Put queues a geocode result for caching. Results that are invalid or came
// from the cache itself are dropped. The buffer flushes once it exceeds the
// configured size; flushes are serialized while others keep appending.
func (c *Cache) Put(ctx context.Context, gsa *model.GeocodedStreetAddress) {
	if gsa == nil || gsa.StreetAddress == nil || !gsa.Geocode.Valid() || gsa.Geocode.Cached {
		return
	}

	c.mu.Lock()
	c.buffer = append(c.buffer, gsa)
	if len(c.buffer) <= c.bufferSize {
		c.mu.Unlock()
		return
	}
	batch := c.buffer
	c.buffer = nil
	c.mu.Unlock()

	c.flush(ctx, batch)
}

// Flush writes any buffered entries immediately.
func (c *Cache) Flush(ctx context.Context) {
	c.mu.Lock()
	batch := c.buffer
	c.buffer = nil
	c.mu.Unlock()

	c.flush(ctx, batch)
}

func (c *Cache) flush(ctx context.Context, batch []*model.GeocodedStreetAddress) {
	if len(batch) == 0 {
		return
	}
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	stored := 0
	for _, gsa := range batch {
		sa := gsa.StreetAddress
		if !address.Cacheable(sa) {
			continue
		}
		if err := c.insert(ctx, sa, gsa.Geocode); err != nil {
			if isDuplicateKey(err) {
				continue
			}
			zap.L().Warn("geocache: insert failed", zap.Error(err),
				zap.String("street", sa.StreetName), zap.String("zip5", sa.Zip5))
			continue
		}
		stored++
	}
	zap.L().Debug("geocache: flushed", zap.Int("queued", len(batch)), zap.Int("stored", stored))
}

func (c *Cache) insert(ctx context.Context, sa *model.StreetAddress, geo *model.Geocode) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO cache.geocache
			(bldgnum, predirection, street, postdirection, streettype,
			 location, state, zip5, zip4,
			 method, quality, latitude, longitude, updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())`,
		sa.BldgNum, sa.PreDir, strings.ToUpper(sa.StreetName), sa.PostDir, strings.ToUpper(sa.StreetType),
		strings.ToUpper(sa.Location), sa.State, sa.Zip5, sa.Zip4,
		geo.Method, geo.Quality.String(), geo.Lat, geo.Lon,
	)
	return err
}

// isDuplicateKey reports whether err is a unique-constraint violation.
// Concurrent flushers racing on the same address are expected.
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
