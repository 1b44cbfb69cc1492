package geocode

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefancrain/GeoApi/internal/model"
)

func TestTigerProvider_Match(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT\s+ST_Y`).
		WithArgs("290 Washington Ave, Albany, NY 12203").
		WillReturnRows(
			pgxmock.NewRows([]string{"lat", "lon", "rating", "matched_address"}).
				AddRow(42.6526, -73.7562, 5, "290 Washington Ave, Albany, NY 12203"),
		)

	p := NewTigerProvider(mock, 100)
	geo, err := p.Geocode(context.Background(), &model.Address{
		Addr1: "290 Washington Ave",
		City:  "Albany",
		State: "NY",
		Zip5:  "12203",
	})

	require.NoError(t, err)
	require.NotNil(t, geo)
	assert.Equal(t, "TigerDao", geo.Method)
	assert.Equal(t, model.QualityHouse, geo.Quality)
	assert.InDelta(t, 42.6526, geo.Lat, 0.001)
	assert.InDelta(t, -73.7562, geo.Lon, 0.001)
	assert.False(t, geo.Cached)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTigerProvider_NoMatch(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT\s+ST_Y`).
		WithArgs("999 Fake Ave, Nowhere, XX 00000").
		WillReturnError(assert.AnError)

	p := NewTigerProvider(mock, 100)
	geo, err := p.Geocode(context.Background(), &model.Address{
		Addr1: "999 Fake Ave",
		City:  "Nowhere",
		State: "XX",
		Zip5:  "00000",
	})

	require.NoError(t, err)
	assert.Nil(t, geo)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTigerProvider_ExceedsMaxRating(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT\s+ST_Y`).
		WithArgs("123 Main St, Anytown, NY 12345").
		WillReturnRows(
			pgxmock.NewRows([]string{"lat", "lon", "rating", "matched_address"}).
				AddRow(42.0, -74.0, 60, "123 Main St, Anytown, NY 12345"),
		)

	p := NewTigerProvider(mock, 50)
	geo, err := p.Geocode(context.Background(), &model.Address{
		Addr1: "123 Main St",
		City:  "Anytown",
		State: "NY",
		Zip5:  "12345",
	})

	require.NoError(t, err)
	assert.Nil(t, geo)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTigerProvider_EmptyAddress(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	p := NewTigerProvider(mock, 100)
	geo, err := p.Geocode(context.Background(), &model.Address{})

	require.NoError(t, err)
	assert.Nil(t, geo)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTigerProvider_Reverse(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT\s+pprint_addy`).
		WithArgs(-73.7562, 42.6526).
		WillReturnRows(
			pgxmock.NewRows([]string{"pprint_addy", "stateusps", "zip", "rating"}).
				AddRow("290 Washington Ave, Albany, NY 12203", "NY", "12203", 3),
		)

	p := NewTigerProvider(mock, 100)
	addr, err := p.Reverse(context.Background(), model.Point{Lat: 42.6526, Lon: -73.7562})

	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.Equal(t, "NY", addr.State)
	assert.Equal(t, "12203", addr.Zip5)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTigerProvider_Available(t *testing.T) {
	assert.False(t, NewTigerProvider(nil, 100).Available())

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	assert.True(t, NewTigerProvider(mock, 100).Available())
}

func TestRatingToQuality(t *testing.T) {
	assert.Equal(t, model.QualityHouse, ratingToQuality(0))
	assert.Equal(t, model.QualityHouse, ratingToQuality(9))
	assert.Equal(t, model.QualityStreet, ratingToQuality(15))
	assert.Equal(t, model.QualityZip, ratingToQuality(30))
	assert.Equal(t, model.QualityCity, ratingToQuality(80))
}
