// Package geoserver resolves district containment through an external
// GeoServer WFS instance. It is the fallback when the local PostGIS boundary
// tables are unavailable, trading latency for the same answers.
package geoserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/stefancrain/GeoApi/internal/model"
	"github.com/stefancrain/GeoApi/internal/shapefile"
)

// layerNames maps district types to their published WFS layer names.
var layerNames = map[model.DistrictType]string{
	model.Senate:        "senate",
	model.Assembly:      "assembly",
	model.Congressional: "congressional",
	model.County:        "county",
	model.School:        "school",
	model.Town:          "town",
}

// Client queries a GeoServer WFS endpoint.
type Client struct {
	baseURL   string
	workspace string
	http      *http.Client
	limiter   *rate.Limiter
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithRateLimit sets the requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a GeoServer WFS client.
func NewClient(baseURL, workspace string, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		workspace: workspace,
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether the client is configured.
func (c *Client) Available() bool { return c.baseURL != "" }

// featureCollection is the WFS GetFeature JSON response.
type featureCollection struct {
	Features []struct {
		Properties struct {
			Name     string `json:"NAME"`
			NameLSAD string `json:"NAMELSAD"`
			District string `json:"DISTRICT"`
		} `json:"properties"`
	} `json:"features"`
}

// DistrictInfo resolves the districts containing a point, one WFS GetFeature
// call per requested type. Types with no published layer are skipped; a
// layer that returns no feature simply leaves the type unassigned.
func (c *Client) DistrictInfo(ctx context.Context, p model.Point, types []model.DistrictType) (*model.DistrictInfo, error) {
	info := model.NewDistrictInfo()
	for _, t := range types {
		layer, ok := layerNames[t]
		if !ok {
			continue
		}
		fc, err := c.getFeature(ctx, layer, p)
		if err != nil {
			return nil, err
		}
		if len(fc.Features) == 0 {
			continue
		}
		props := fc.Features[0].Properties
		name := props.NameLSAD
		if name == "" {
			name = props.Name
		}
		info.SetName(t, name)
		info.SetCode(t, shapefile.TrimCode(props.District))
	}
	return info, nil
}

func (c *Client) getFeature(ctx context.Context, layer string, p model.Point) (*featureCollection, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geoserver: rate limit wait")
	}

	params := url.Values{
		"service":      {"WFS"},
		"version":      {"1.1.0"},
		"request":      {"GetFeature"},
		"typename":     {c.workspace + ":" + layer},
		"outputFormat": {"application/json"},
		// WFS axis order for EPSG:4326 is (lat, lon).
		"CQL_FILTER": {fmt.Sprintf("INTERSECTS(the_geom, POINT (%f %f))", p.Lat, p.Lon)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/wfs?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geoserver: build request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "geoserver: get %s features", layer)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geoserver: layer %s returned status %d", layer, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geoserver: read body")
	}

	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, eris.Wrapf(err, "geoserver: parse %s features", layer)
	}
	zap.L().Debug("geoserver: layer queried",
		zap.String("layer", layer), zap.Int("features", len(fc.Features)))
	return &fc, nil
}
