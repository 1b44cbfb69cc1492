package geocache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefancrain/GeoApi/internal/model"
)

func hitRows(mock pgxmock.PgxPoolIface, quality string) *pgxmock.Rows {
	return mock.NewRows([]string{
		"method", "quality", "latitude", "longitude",
		"bldgnum", "predirection", "street", "postdirection", "streettype",
		"location", "state", "zip5", "zip4",
	}).AddRow("GoogleDao", quality, 42.6526, -73.7562,
		290, "", "WASHINGTON", "", "AVE",
		"ALBANY", "NY", "12203", "")
}

// insertArgs matches any argument list of the insert's arity; pgxmock
// treats an expectation without WithArgs as expecting zero arguments.
func insertArgs() []any {
	args := make([]any, 13)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func parsedCapitol() *model.StreetAddress {
	return &model.StreetAddress{
		BldgNum:    290,
		StreetName: "WASHINGTON",
		StreetType: "AVE",
		Location:   "ALBANY",
		State:      "NY",
		Zip5:       "12203",
	}
}

func TestLookupHit(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM cache.geocache").
		WithArgs(290, "", "WASHINGTON", "", "AVE", "12203").
		WillReturnRows(hitRows(mock, "HOUSE"))

	cache := New(mock)
	hit, err := cache.Lookup(context.Background(), parsedCapitol())
	require.NoError(t, err)
	require.NotNil(t, hit)

	assert.True(t, hit.Geocode.Cached)
	assert.Equal(t, model.QualityHouse, hit.Geocode.Quality)
	assert.Equal(t, "GoogleDao", hit.Geocode.Method)
	assert.InDelta(t, 42.6526, hit.Geocode.Lat, 0.0001)
	assert.Equal(t, "Washington", hit.StreetAddress.StreetName)
	assert.Equal(t, "Albany", hit.StreetAddress.Location)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupMiss(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM cache.geocache").
		WithArgs(290, "", "WASHINGTON", "", "AVE", "12203").
		WillReturnError(pgx.ErrNoRows)

	cache := New(mock)
	hit, err := cache.Lookup(context.Background(), parsedCapitol())
	require.NoError(t, err)
	assert.Nil(t, hit)
}

func TestLookupRejectsCoarseRowForStreetRequest(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM cache.geocache").
		WithArgs(290, "", "WASHINGTON", "", "AVE", "12203").
		WillReturnRows(hitRows(mock, "ZIP"))

	cache := New(mock)
	hit, err := cache.Lookup(context.Background(), parsedCapitol())
	require.NoError(t, err)
	assert.Nil(t, hit)
}

func TestLookupCityZipLevel(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := mock.NewRows([]string{
		"method", "quality", "latitude", "longitude",
		"bldgnum", "predirection", "street", "postdirection", "streettype",
		"location", "state", "zip5", "zip4",
	}).AddRow("TigerDao", "ZIP", 42.65, -73.75,
		0, "", "", "", "",
		"ALBANY", "NY", "12203", "")

	mock.ExpectQuery("SELECT .+ FROM cache.geocache").
		WithArgs("12203").
		WillReturnRows(rows)

	cache := New(mock)
	hit, err := cache.Lookup(context.Background(), &model.StreetAddress{Zip5: "12203"})
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, model.QualityZip, hit.Geocode.Quality)
}

func TestLookupSkipsUnretrievable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cache := New(mock)
	// No building number and no city/zip: nothing to key on, no query issued.
	hit, err := cache.Lookup(context.Background(), &model.StreetAddress{StreetName: "WASHINGTON"})
	require.NoError(t, err)
	assert.Nil(t, hit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPutBuffersUntilThreshold(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cache := New(mock, WithBufferSize(2))

	gsa := func(n int) *model.GeocodedStreetAddress {
		return &model.GeocodedStreetAddress{
			StreetAddress: &model.StreetAddress{
				BldgNum: n, StreetName: "WASHINGTON", StreetType: "AVE",
				Location: "ALBANY", State: "NY", Zip5: "12203",
			},
			Geocode: &model.Geocode{Lat: 42.65, Lon: -73.75, Method: "GoogleDao", Quality: model.QualityHouse},
		}
	}

	// First two stay buffered: no Exec expected yet.
	cache.Put(context.Background(), gsa(1))
	cache.Put(context.Background(), gsa(2))
	assert.NoError(t, mock.ExpectationsWereMet())

	// Third exceeds the threshold and drains all three.
	for i := 0; i < 3; i++ {
		mock.ExpectExec("INSERT INTO cache.geocache").
			WithArgs(insertArgs()...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	cache.Put(context.Background(), gsa(3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPutDropsCachedAndInvalid(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cache := New(mock, WithBufferSize(0))
	cache.Put(context.Background(), &model.GeocodedStreetAddress{
		StreetAddress: parsedCapitol(),
		Geocode:       &model.Geocode{Lat: 42.65, Lon: -73.75, Cached: true},
	})
	cache.Put(context.Background(), &model.GeocodedStreetAddress{
		StreetAddress: parsedCapitol(),
		Geocode:       &model.Geocode{},
	})

	cache.Flush(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// slowPool counts concurrent Exec calls so flush serialization is observable.
type slowPool struct {
	mu      sync.Mutex
	active  int
	maxSeen int
	inserts int
}

func (p *slowPool) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	p.mu.Lock()
	p.active++
	if p.active > p.maxSeen {
		p.maxSeen = p.active
	}
	p.mu.Unlock()

	time.Sleep(2 * time.Millisecond)

	p.mu.Lock()
	p.active--
	p.inserts++
	p.mu.Unlock()
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (p *slowPool) Begin(context.Context) (pgx.Tx, error)            { return nil, nil }
func (p *slowPool) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (p *slowPool) QueryRow(context.Context, string, ...any) pgx.Row { return nil }
func (p *slowPool) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (p *slowPool) Ping(context.Context) error { return nil }
func (p *slowPool) Close()                     {}

func TestConcurrentPutsFlushOneAtATime(t *testing.T) {
	pool := &slowPool{}
	cache := New(pool, WithBufferSize(1))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			cache.Put(context.Background(), &model.GeocodedStreetAddress{
				StreetAddress: &model.StreetAddress{
					BldgNum: n + 1, StreetName: "WASHINGTON", StreetType: "AVE",
					Location: "ALBANY", State: "NY", Zip5: "12203",
				},
				Geocode: &model.Geocode{Lat: 42.65, Lon: -73.75, Method: "GoogleDao", Quality: model.QualityHouse},
			})
		}(i)
	}
	wg.Wait()
	cache.Flush(context.Background())

	pool.mu.Lock()
	defer pool.mu.Unlock()
	assert.Equal(t, 1, pool.maxSeen)
	assert.Equal(t, 8, pool.inserts)
}

func TestFlushSuppressesDuplicateKey(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO cache.geocache").
		WithArgs(insertArgs()...).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	cache := New(mock)
	cache.Put(context.Background(), &model.GeocodedStreetAddress{
		StreetAddress: parsedCapitol(),
		Geocode:       &model.Geocode{Lat: 42.65, Lon: -73.75, Method: "GoogleDao", Quality: model.QualityHouse},
	})
	cache.Flush(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFlushSkipsUncacheable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cache := New(mock)
	// Intersection-style placeholder street names never persist.
	cache.Put(context.Background(), &model.GeocodedStreetAddress{
		StreetAddress: &model.StreetAddress{BldgNum: 1, StreetName: "[WASHINGTON AVE & STATE ST]", Zip5: "12203"},
		Geocode:       &model.Geocode{Lat: 42.65, Lon: -73.75, Quality: model.QualityStreet},
	})
	cache.Flush(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}
