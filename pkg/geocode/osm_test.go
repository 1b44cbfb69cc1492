package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefancrain/GeoApi/internal/model"
)

func TestOSMProvider_Match(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(`[{
			"lat": "42.6526", "lon": "-73.7562",
			"class": "building", "type": "yes",
			"display_name": "290, Washington Avenue, Albany, NY"
		}]`))
	}))
	defer srv.Close()

	p := NewOSMProvider(srv.URL, WithRateLimit(1000))
	geo, err := p.Geocode(context.Background(), &model.Address{
		Addr1: "290 Washington Ave", City: "Albany", State: "NY",
	})

	require.NoError(t, err)
	require.NotNil(t, geo)
	assert.Equal(t, "OSMDao", geo.Method)
	assert.Equal(t, model.QualityHouse, geo.Quality)
	assert.InDelta(t, 42.6526, geo.Lat, 0.001)
	assert.InDelta(t, -73.7562, geo.Lon, 0.001)
}

func TestOSMProvider_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	p := NewOSMProvider(srv.URL, WithRateLimit(1000))
	geo, err := p.Geocode(context.Background(), &model.Address{Addr1: "nowhere"})

	require.NoError(t, err)
	assert.Nil(t, geo)
}

func TestOSMProvider_Reverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		w.Write([]byte(`{
			"lat": "42.6526", "lon": "-73.7562",
			"class": "building", "type": "yes",
			"address": {
				"house_number": "290",
				"road": "Washington Avenue",
				"city": "Albany",
				"state": "New York",
				"postcode": "12203"
			}
		}`))
	}))
	defer srv.Close()

	p := NewOSMProvider(srv.URL, WithRateLimit(1000))
	addr, err := p.Reverse(context.Background(), model.Point{Lat: 42.6526, Lon: -73.7562})

	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.Equal(t, "290 Washington Avenue", addr.Addr1)
	assert.Equal(t, "Albany", addr.City)
	assert.Equal(t, "12203", addr.Zip5)
}

func TestOSMTypeToQuality(t *testing.T) {
	assert.Equal(t, model.QualityHouse, osmTypeToQuality("building", "yes"))
	assert.Equal(t, model.QualityHouse, osmTypeToQuality("place", "house"))
	assert.Equal(t, model.QualityStreet, osmTypeToQuality("highway", "residential"))
	assert.Equal(t, model.QualityZip, osmTypeToQuality("place", "postcode"))
	assert.Equal(t, model.QualityCity, osmTypeToQuality("place", "city"))
	assert.Equal(t, model.QualityCounty, osmTypeToQuality("boundary", "administrative"))
}
