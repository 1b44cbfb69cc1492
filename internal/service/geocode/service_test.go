package geocode

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefancrain/GeoApi/internal/geocache"
	"github.com/stefancrain/GeoApi/internal/model"
	"github.com/stefancrain/GeoApi/internal/provider"
	"github.com/stefancrain/GeoApi/pkg/geocode"
)

// mockProvider implements geocode.Provider for cascade behavior tests.
type mockProvider struct {
	name      string
	available bool
	geo       *model.Geocode
	err       error
	calls     *int
}

func (m *mockProvider) Name() string    { return m.name }
func (m *mockProvider) Available() bool { return m.available }
func (m *mockProvider) Geocode(_ context.Context, _ *model.Address) (*model.Geocode, error) {
	if m.calls != nil {
		*m.calls++
	}
	return m.geo, m.err
}

func registryWith(providers ...*mockProvider) *provider.Registry[geocode.Provider] {
	reg := provider.NewRegistry[geocode.Provider]()
	var names []string
	for _, p := range providers {
		reg.Register(p.name, func() geocode.Provider { return p })
		names = append(names, p.name)
	}
	if len(names) > 0 {
		reg.SetDefault(names[0])
	}
	reg.SetFallbackChain(names)
	return reg
}

var capitol = &model.Address{Addr1: "290 Washington Ave", City: "Albany", State: "NY", Zip5: "12203"}

// anyArgs matches any argument list of the given arity; pgxmock treats
// an expectation without WithArgs as expecting zero arguments.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestGeocodeFirstProviderMatches(t *testing.T) {
	p1 := &mockProvider{name: "tiger", available: true,
		geo: &model.Geocode{Lat: 42.65, Lon: -73.75, Method: "TigerDao", Quality: model.QualityHouse}}
	p2 := &mockProvider{name: "osm", available: true,
		geo: &model.Geocode{Lat: 1, Lon: 1, Method: "OSMDao", Quality: model.QualityHouse}}

	s := New(registryWith(p1, p2), nil)
	r := s.Geocode(context.Background(), capitol, "")

	require.True(t, r.Success())
	assert.Equal(t, "tiger", r.Source)
	assert.InDelta(t, 42.65, r.Geocode().Lat, 0.001)
}

func TestGeocodeFallsThroughOnMissAndError(t *testing.T) {
	p1 := &mockProvider{name: "tiger", available: true, geo: nil}
	p2 := &mockProvider{name: "google", available: true, err: assert.AnError}
	p3 := &mockProvider{name: "osm", available: true,
		geo: &model.Geocode{Lat: 42.65, Lon: -73.75, Method: "OSMDao", Quality: model.QualityStreet}}

	s := New(registryWith(p1, p2, p3), nil)
	r := s.Geocode(context.Background(), capitol, "")

	require.True(t, r.Success())
	assert.Equal(t, "osm", r.Source)
}

func TestGeocodeSkipsUnavailable(t *testing.T) {
	var calls int
	p1 := &mockProvider{name: "google", available: false, calls: &calls,
		geo: &model.Geocode{Lat: 1, Lon: 1, Quality: model.QualityHouse}}
	p2 := &mockProvider{name: "osm", available: true,
		geo: &model.Geocode{Lat: 42.65, Lon: -73.75, Method: "OSMDao", Quality: model.QualityHouse}}

	s := New(registryWith(p1, p2), nil)
	r := s.Geocode(context.Background(), capitol, "")

	require.True(t, r.Success())
	assert.Equal(t, "osm", r.Source)
	assert.Zero(t, calls)
}

func TestGeocodeCoarseResultKeepsWalkingChain(t *testing.T) {
	p1 := &mockProvider{name: "tiger", available: true,
		geo: &model.Geocode{Lat: 42.6, Lon: -73.7, Method: "TigerDao", Quality: model.QualityZip}}
	p2 := &mockProvider{name: "osm", available: true,
		geo: &model.Geocode{Lat: 42.6526, Lon: -73.7562, Method: "OSMDao", Quality: model.QualityHouse}}

	s := New(registryWith(p1, p2), nil)
	r := s.Geocode(context.Background(), capitol, "")

	require.True(t, r.Success())
	// The zip centroid did not end the walk; the house-level answer won.
	assert.Equal(t, "osm", r.Source)
	assert.Equal(t, model.QualityHouse, r.Geocode().Quality)
}

func TestGeocodeBestCoarseIsFallback(t *testing.T) {
	p1 := &mockProvider{name: "tiger", available: true,
		geo: &model.Geocode{Lat: 42.6, Lon: -73.7, Method: "TigerDao", Quality: model.QualityCity}}
	p2 := &mockProvider{name: "osm", available: true,
		geo: &model.Geocode{Lat: 42.65, Lon: -73.75, Method: "OSMDao", Quality: model.QualityZip}}

	s := New(registryWith(p1, p2), nil)
	r := s.Geocode(context.Background(), capitol, "")

	require.True(t, r.Success())
	// Nothing reached house precision, so the finest centroid is returned.
	assert.Equal(t, "osm", r.Source)
	assert.Equal(t, model.QualityZip, r.Geocode().Quality)
}

func TestGeocodeOnlyHouseResultsCached(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// Cache lookup misses, the zip-quality answer is not written, the
	// house-quality answer is.
	mock.ExpectQuery("SELECT .+ FROM cache.geocache").
		WithArgs(anyArgs(6)...).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec("INSERT INTO cache.geocache").
		WithArgs(anyArgs(13)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	p1 := &mockProvider{name: "tiger", available: true,
		geo: &model.Geocode{Lat: 42.6, Lon: -73.7, Method: "TigerDao", Quality: model.QualityZip}}
	p2 := &mockProvider{name: "osm", available: true,
		geo: &model.Geocode{Lat: 42.6526, Lon: -73.7562, Method: "OSMDao", Quality: model.QualityHouse}}

	reg := registryWith(p1, p2)
	reg.MarkCacheable("tiger")
	reg.MarkCacheable("osm")

	cache := geocache.New(mock, geocache.WithBufferSize(1))
	s := New(reg, cache)
	r := s.Geocode(context.Background(), capitol, "")
	require.True(t, r.Success())
	s.Flush(context.Background())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGeocodeAllMiss(t *testing.T) {
	p1 := &mockProvider{name: "tiger", available: true}
	s := New(registryWith(p1), nil)

	r := s.Geocode(context.Background(), capitol, "")
	assert.Equal(t, model.StatusNoGeocodeResult, r.Status)
	assert.NotNil(t, r.GeocodedAddress)
	assert.Nil(t, r.Geocode())
}

func TestGeocodeMissingAddress(t *testing.T) {
	s := New(registryWith(), nil)
	r := s.Geocode(context.Background(), nil, "")
	assert.Equal(t, model.StatusMissingAddress, r.Status)
}

func TestGeocodeUnknownProvider(t *testing.T) {
	p1 := &mockProvider{name: "tiger", available: true}
	s := New(registryWith(p1), nil)

	r := s.Geocode(context.Background(), capitol, "mapquest")
	assert.Equal(t, model.StatusProviderNotSupported, r.Status)
}

func TestGeocodeExplicitProviderOnly(t *testing.T) {
	var tigerCalls int
	p1 := &mockProvider{name: "tiger", available: true, calls: &tigerCalls,
		geo: &model.Geocode{Lat: 1, Lon: 1, Quality: model.QualityHouse}}
	p2 := &mockProvider{name: "osm", available: true,
		geo: &model.Geocode{Lat: 42.65, Lon: -73.75, Method: "OSMDao", Quality: model.QualityHouse}}

	s := New(registryWith(p1, p2), nil)
	r := s.Geocode(context.Background(), capitol, "osm")

	require.True(t, r.Success())
	assert.Equal(t, "osm", r.Source)
	assert.Zero(t, tigerCalls)
}

func TestGeocodeCacheHitShortCircuits(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := mock.NewRows([]string{
		"method", "quality", "latitude", "longitude",
		"bldgnum", "predirection", "street", "postdirection", "streettype",
		"location", "state", "zip5", "zip4",
	}).AddRow("GoogleDao", "HOUSE", 42.6526, -73.7562,
		290, "", "WASHINGTON", "", "AVE", "ALBANY", "NY", "12203", "")
	mock.ExpectQuery("SELECT .+ FROM cache.geocache").
		WithArgs(anyArgs(6)...).
		WillReturnRows(rows)

	var calls int
	p1 := &mockProvider{name: "tiger", available: true, calls: &calls,
		geo: &model.Geocode{Lat: 1, Lon: 1, Quality: model.QualityHouse}}

	s := New(registryWith(p1), geocache.New(mock))
	r := s.Geocode(context.Background(), capitol, "")

	require.True(t, r.Success())
	assert.True(t, r.Geocode().Cached)
	assert.Equal(t, "GoogleDao", r.Source)
	assert.Zero(t, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGeocodeBatchPreservesOrder(t *testing.T) {
	p1 := &mockProvider{name: "tiger", available: true,
		geo: &model.Geocode{Lat: 42.65, Lon: -73.75, Method: "TigerDao", Quality: model.QualityHouse}}

	s := New(registryWith(p1), nil, WithThreads(2))
	addrs := []*model.Address{capitol, nil, {Addr1: "1 Park Pl", City: "Albany", State: "NY"}}
	results := s.GeocodeBatch(context.Background(), addrs, "")

	require.Len(t, results, 3)
	assert.True(t, results[0].Success())
	assert.Equal(t, model.StatusMissingAddress, results[1].Status)
	assert.True(t, results[2].Success())
}

// reverseMock adds Reverse on top of mockProvider.
type reverseMock struct {
	mockProvider
	addr *model.Address
}

func (m *reverseMock) Reverse(_ context.Context, _ model.Point) (*model.Address, error) {
	return m.addr, nil
}

func TestReverse(t *testing.T) {
	rp := &reverseMock{
		mockProvider: mockProvider{name: "tiger", available: true},
		addr:         &model.Address{Addr1: "290 Washington Ave", City: "Albany", State: "NY", Zip5: "12203"},
	}
	reg := provider.NewRegistry[geocode.Provider]()
	reg.RegisterDefault("tiger", func() geocode.Provider { return rp })
	reg.SetFallbackChain([]string{"tiger"})

	s := New(reg, nil)
	r := s.Reverse(context.Background(), model.Point{Lat: 42.6526, Lon: -73.7562}, "")

	require.True(t, r.Success())
	assert.Equal(t, model.QualityPoint, r.Geocode().Quality)
	assert.Equal(t, "12203", r.GeocodedAddress.Address.Zip5)
}

func TestReverseMissingPoint(t *testing.T) {
	s := New(registryWith(), nil)
	r := s.Reverse(context.Background(), model.Point{}, "")
	assert.Equal(t, model.StatusMissingPoint, r.Status)
}

func TestReverseNoCapableProvider(t *testing.T) {
	p1 := &mockProvider{name: "plain", available: true}
	s := New(registryWith(p1), nil)
	r := s.Reverse(context.Background(), model.Point{Lat: 42.0, Lon: -73.0}, "")
	assert.Equal(t, model.StatusNoReverseGeocodeResult, r.Status)
}
