package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/stefancrain/GeoApi/internal/model"
)

const defaultGoogleURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleProvider geocodes via the Google Geocoding API.
type GoogleProvider struct {
	baseURL string
	key     string
	http    httpConfig
}

// NewGoogleProvider creates a GoogleProvider. An empty baseURL uses the
// production endpoint.
func NewGoogleProvider(key, baseURL string, opts ...Option) *GoogleProvider {
	if baseURL == "" {
		baseURL = defaultGoogleURL
	}
	return &GoogleProvider{
		baseURL: baseURL,
		key:     key,
		http:    newHTTPConfig(50, opts...),
	}
}

// Name implements Provider.
func (p *GoogleProvider) Name() string { return "google" }

// Available implements Provider.
func (p *GoogleProvider) Available() bool { return p.key != "" }

// googleResponse is the JSON response from the Google Geocoding API.
type googleResponse struct {
	Results []googleResult `json:"results"`
	Status  string         `json:"status"`
}

type googleResult struct {
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
		LocationType string `json:"location_type"`
	} `json:"geometry"`
	FormattedAddress  string `json:"formatted_address"`
	AddressComponents []struct {
		LongName  string   `json:"long_name"`
		ShortName string   `json:"short_name"`
		Types     []string `json:"types"`
	} `json:"address_components"`
}

// Geocode implements Provider.
func (p *GoogleProvider) Geocode(ctx context.Context, addr *model.Address) (*model.Geocode, error) {
	oneLine := formatOneLine(addr)
	if oneLine == "" {
		return nil, nil
	}

	params := url.Values{
		"address": {oneLine},
		"key":     {p.key},
	}
	resp, err := p.query(ctx, params)
	if err != nil {
		return nil, err
	}
	if resp.Status != "OK" || len(resp.Results) == 0 {
		return nil, nil
	}

	loc := resp.Results[0].Geometry
	return &model.Geocode{
		Lat:     loc.Location.Lat,
		Lon:     loc.Location.Lng,
		Method:  "GoogleDao",
		Quality: googleLocationTypeToQuality(loc.LocationType),
	}, nil
}

// Reverse implements ReverseProvider via the latlng query form.
func (p *GoogleProvider) Reverse(ctx context.Context, pt model.Point) (*model.Address, error) {
	params := url.Values{
		"latlng": {fmt.Sprintf("%f,%f", pt.Lat, pt.Lon)},
		"key":    {p.key},
	}
	resp, err := p.query(ctx, params)
	if err != nil {
		return nil, err
	}
	if resp.Status != "OK" || len(resp.Results) == 0 {
		return nil, nil
	}

	addr := &model.Address{}
	var streetNum, route string
	for _, comp := range resp.Results[0].AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "street_number":
				streetNum = comp.LongName
			case "route":
				route = comp.LongName
			case "locality":
				addr.City = comp.LongName
			case "administrative_area_level_1":
				addr.State = comp.ShortName
			case "postal_code":
				addr.Zip5 = comp.LongName
			}
		}
	}
	addr.Addr1 = strings.TrimSpace(streetNum + " " + route)
	return addr, nil
}

func (p *GoogleProvider) query(ctx context.Context, params url.Values) (*googleResponse, error) {
	if err := p.http.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: google rate limit")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google build request")
	}
	resp, err := p.http.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: google returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: google read body")
	}

	var out googleResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "geocode: google parse response")
	}
	return &out, nil
}

// googleLocationTypeToQuality maps Google's location_type onto the quality
// scale.
func googleLocationTypeToQuality(locType string) model.GeocodeQuality {
	switch strings.ToUpper(locType) {
	case "ROOFTOP":
		return model.QualityPoint
	case "RANGE_INTERPOLATED":
		return model.QualityHouse
	case "GEOMETRIC_CENTER":
		return model.QualityStreet
	case "APPROXIMATE":
		return model.QualityCity
	default:
		return model.QualityCity
	}
}
