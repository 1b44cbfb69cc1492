package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/stefancrain/GeoApi/internal/model"
)

const defaultOSMURL = "https://nominatim.openstreetmap.org"

// OSMProvider geocodes via OSM Nominatim. The public instance allows one
// request per second, so the default limiter is conservative.
type OSMProvider struct {
	baseURL string
	http    httpConfig
}

// NewOSMProvider creates an OSMProvider. An empty baseURL uses the public
// Nominatim instance.
func NewOSMProvider(baseURL string, opts ...Option) *OSMProvider {
	if baseURL == "" {
		baseURL = defaultOSMURL
	}
	return &OSMProvider{
		baseURL: baseURL,
		http:    newHTTPConfig(1, opts...),
	}
}

// Name implements Provider.
func (p *OSMProvider) Name() string { return "osm" }

// Available implements Provider.
func (p *OSMProvider) Available() bool { return p.baseURL != "" }

type osmResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Class       string `json:"class"`
	Type        string `json:"type"`
	DisplayName string `json:"display_name"`
	Address     struct {
		HouseNumber string `json:"house_number"`
		Road        string `json:"road"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Postcode    string `json:"postcode"`
	} `json:"address"`
}

// Geocode implements Provider.
func (p *OSMProvider) Geocode(ctx context.Context, addr *model.Address) (*model.Geocode, error) {
	oneLine := formatOneLine(addr)
	if oneLine == "" {
		return nil, nil
	}

	params := url.Values{
		"q":      {oneLine},
		"format": {"json"},
		"limit":  {"1"},
	}
	results, err := p.query(ctx, "/search", params)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	r := results[0]
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: osm parse lat")
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: osm parse lon")
	}

	return &model.Geocode{
		Lat:     lat,
		Lon:     lon,
		Method:  "OSMDao",
		Quality: osmTypeToQuality(r.Class, r.Type),
	}, nil
}

// Reverse implements ReverseProvider via the /reverse endpoint.
func (p *OSMProvider) Reverse(ctx context.Context, pt model.Point) (*model.Address, error) {
	params := url.Values{
		"lat":            {fmt.Sprintf("%f", pt.Lat)},
		"lon":            {fmt.Sprintf("%f", pt.Lon)},
		"format":         {"json"},
		"addressdetails": {"1"},
	}

	if err := p.http.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: osm rate limit")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: osm build request")
	}
	req.Header.Set("User-Agent", osmUserAgent)

	resp, err := p.http.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: osm request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: osm returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: osm read body")
	}

	var r osmResult
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, eris.Wrap(err, "geocode: osm parse response")
	}
	return osmAddress(r), nil
}

const osmUserAgent = "GeoApi/1.0 (district assignment service)"

func (p *OSMProvider) query(ctx context.Context, path string, params url.Values) ([]osmResult, error) {
	if err := p.http.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: osm rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: osm build request")
	}
	req.Header.Set("User-Agent", osmUserAgent)

	resp, err := p.http.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: osm request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: osm returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: osm read body")
	}

	var results []osmResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, eris.Wrap(err, "geocode: osm parse response")
	}
	return results, nil
}

func osmAddress(r osmResult) *model.Address {
	addr := &model.Address{
		State: r.Address.State,
		Zip5:  r.Address.Postcode,
	}
	switch {
	case r.Address.City != "":
		addr.City = r.Address.City
	case r.Address.Town != "":
		addr.City = r.Address.Town
	default:
		addr.City = r.Address.Village
	}
	if r.Address.Road != "" {
		addr.Addr1 = r.Address.Road
		if r.Address.HouseNumber != "" {
			addr.Addr1 = r.Address.HouseNumber + " " + r.Address.Road
		}
	}
	return addr
}

// osmTypeToQuality maps Nominatim result classes onto the quality scale.
func osmTypeToQuality(class, osmType string) model.GeocodeQuality {
	switch {
	case class == "building" || osmType == "house":
		return model.QualityHouse
	case class == "highway":
		return model.QualityStreet
	case osmType == "postcode":
		return model.QualityZip
	case osmType == "city" || osmType == "town" || osmType == "village" || osmType == "hamlet":
		return model.QualityCity
	case osmType == "county" || class == "boundary":
		return model.QualityCounty
	default:
		return model.QualityCity
	}
}
