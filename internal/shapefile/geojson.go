package shapefile

import (
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/stefancrain/GeoApi/internal/model"
)

// decodeDistrictMap converts a PostGIS ST_AsGeoJSON payload into a
// DistrictMap. GeoJSON coordinates are (lon, lat); the map stores (lat, lon).
// Only the exterior ring of each polygon is kept.
func decodeDistrictMap(raw []byte) (*model.DistrictMap, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var g geom.T
	if err := geojson.Unmarshal(raw, &g); err != nil {
		return nil, eris.Wrap(err, "shapefile: decode geojson")
	}

	m := &model.DistrictMap{}
	switch t := g.(type) {
	case *geom.Polygon:
		m.GeometryType = "Polygon"
		m.Polygons = append(m.Polygons, ringToPolygon(t))
	case *geom.MultiPolygon:
		m.GeometryType = "MultiPolygon"
		for i := 0; i < t.NumPolygons(); i++ {
			m.Polygons = append(m.Polygons, ringToPolygon(t.Polygon(i)))
		}
	case *geom.LineString:
		m.GeometryType = "LineString"
		m.Polygons = append(m.Polygons, coordsToPolygon(t.Coords()))
	case *geom.MultiLineString:
		m.GeometryType = "MultiLineString"
		for i := 0; i < t.NumLineStrings(); i++ {
			m.Polygons = append(m.Polygons, coordsToPolygon(t.LineString(i).Coords()))
		}
	default:
		return nil, eris.Errorf("shapefile: unsupported geometry type %T", g)
	}
	return m, nil
}

func coordsToPolygon(coords []geom.Coord) model.Polygon {
	var out model.Polygon
	out.Points = make([]model.Point, 0, len(coords))
	for _, c := range coords {
		out.Points = append(out.Points, model.Point{Lat: c.Y(), Lon: c.X()})
	}
	return out
}

func ringToPolygon(p *geom.Polygon) model.Polygon {
	if p.NumLinearRings() == 0 {
		return model.Polygon{}
	}
	return coordsToPolygon(p.LinearRing(0).Coords())
}
