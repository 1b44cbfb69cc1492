// Package model defines the core value types shared across the resolution
// pipeline: addresses, geocodes, districts, and result envelopes.
package model

import "fmt"

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// String renders the point as "lat,lon" for logging.
func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon)
}

// Polygon is a closed ring of points. Coordinates are stored (lat, lon);
// the GeoJSON wire order (lon, lat) is flipped on decode.
type Polygon struct {
	Points []Point `json:"points"`
}

// GeocodeQuality indicates the precision of a geocode. The ordering of the
// constants is meaningful: all comparisons in the pipeline use >=.
type GeocodeQuality int

const (
	QualityUnknown GeocodeQuality = iota
	QualityState
	QualityCounty
	QualityCity
	QualityZip
	QualityStreet
	QualityHouse
	QualityPoint
)

var qualityNames = map[GeocodeQuality]string{
	QualityUnknown: "UNKNOWN",
	QualityState:   "STATE",
	QualityCounty:  "COUNTY",
	QualityCity:    "CITY",
	QualityZip:     "ZIP",
	QualityStreet:  "STREET",
	QualityHouse:   "HOUSE",
	QualityPoint:   "POINT",
}

// String implements fmt.Stringer.
func (q GeocodeQuality) String() string {
	if s, ok := qualityNames[q]; ok {
		return s
	}
	return "UNKNOWN"
}

// MarshalText implements encoding.TextMarshaler for JSON output.
func (q GeocodeQuality) MarshalText() ([]byte, error) {
	return []byte(q.String()), nil
}

// ParseQuality maps a stored quality tag back to its GeocodeQuality.
// Unrecognized tags resolve to QualityUnknown.
func ParseQuality(s string) GeocodeQuality {
	for q, name := range qualityNames {
		if name == s {
			return q
		}
	}
	return QualityUnknown
}

// Geocode is a coordinate pair with provenance and precision.
type Geocode struct {
	Lat     float64        `json:"lat"`
	Lon     float64        `json:"lon"`
	Method  string         `json:"method"`
	Quality GeocodeQuality `json:"quality"`
	Cached  bool           `json:"cached"`
}

// Valid reports whether the geocode carries a usable coordinate.
func (g *Geocode) Valid() bool {
	return g != nil && !(g.Lat == 0 && g.Lon == 0)
}

// Point returns the geocode's coordinate pair.
func (g *Geocode) Point() Point {
	if g == nil {
		return Point{}
	}
	return Point{Lat: g.Lat, Lon: g.Lon}
}
