package geoserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefancrain/GeoApi/internal/model"
)

func TestDistrictInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		typename := r.URL.Query().Get("typename")
		require.True(t, strings.HasPrefix(typename, "nysenate:"))
		assert.Contains(t, r.URL.Query().Get("CQL_FILTER"), "INTERSECTS")

		switch strings.TrimPrefix(typename, "nysenate:") {
		case "senate":
			w.Write([]byte(`{"features":[{"properties":{"NAMELSAD":"State Senate District 44","DISTRICT":"044"}}]}`))
		case "assembly":
			w.Write([]byte(`{"features":[{"properties":{"NAME":"Assembly District 109","DISTRICT":"109"}}]}`))
		default:
			w.Write([]byte(`{"features":[]}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "nysenate")
	info, err := c.DistrictInfo(context.Background(), model.Point{Lat: 42.6526, Lon: -73.7562},
		[]model.DistrictType{model.Senate, model.Assembly, model.County})
	require.NoError(t, err)

	assert.Equal(t, "44", info.Code(model.Senate))
	assert.Equal(t, "State Senate District 44", info.Name(model.Senate))
	assert.Equal(t, "109", info.Code(model.Assembly))
	assert.Equal(t, "Assembly District 109", info.Name(model.Assembly))
	assert.Equal(t, "", info.Code(model.County))
}

func TestDistrictInfoServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "nysenate")
	_, err := c.DistrictInfo(context.Background(), model.Point{Lat: 42.6, Lon: -73.7},
		[]model.DistrictType{model.Senate})
	assert.Error(t, err)
}

func TestRateLimitStopsOnCancel(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"features":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "nysenate", WithRateLimit(0.01))
	ctx, cancel := context.WithCancel(context.Background())

	// The first call spends the burst token.
	_, err := c.DistrictInfo(ctx, model.Point{Lat: 42.6, Lon: -73.7},
		[]model.DistrictType{model.Senate})
	require.NoError(t, err)

	cancel()
	_, err = c.DistrictInfo(ctx, model.Point{Lat: 42.6, Lon: -73.7},
		[]model.DistrictType{model.Senate})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestAvailable(t *testing.T) {
	assert.False(t, NewClient("", "nysenate").Available())
	assert.True(t, NewClient("http://geoserver:8080/geoserver", "nysenate").Available())
}
