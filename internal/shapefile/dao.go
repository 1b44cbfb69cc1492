// Package shapefile resolves district assignments from PostGIS district
// boundary tables. One UNION ALL query answers point-in-polygon containment
// for every requested district type at once, with boundary proximity and
// optional GeoJSON geometry riding along.
package shapefile

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/stefancrain/GeoApi/internal/db"
	"github.com/stefancrain/GeoApi/internal/model"
)

// districtTables is an allowlist mapping district types to their boundary
// tables. Types absent here (election, ward, cleg) exist only in street files.
var districtTables = map[model.DistrictType]string{
	model.Senate:        "districts.senate",
	model.Assembly:      "districts.assembly",
	model.Congressional: "districts.congressional",
	model.County:        "districts.county",
	model.School:        "districts.school",
	model.Town:          "districts.town",
	model.Fire:          "districts.fire",
	model.Village:       "districts.village",
	model.ZipDistrict:   "districts.zip",
}

// HasShape reports whether a district type is backed by a boundary table.
func HasShape(t model.DistrictType) bool {
	_, ok := districtTables[t]
	return ok
}

// DAO answers spatial district queries against the boundary tables.
type DAO struct {
	pool db.Pool

	mu       sync.RWMutex
	mapCache map[model.DistrictType]map[string]*model.DistrictMap
	counties map[string]countyRef
}

// countyRef is the internal identity behind a federal county FIPS code.
type countyRef struct {
	Code string
	Name string
}

// NewDAO returns a DAO backed by the given pool.
func NewDAO(pool db.Pool) *DAO {
	return &DAO{
		pool:     pool,
		mapCache: make(map[model.DistrictType]map[string]*model.DistrictMap),
	}
}

// DistrictInfo resolves the districts containing a point. Each requested
// type contributes one branch of a UNION ALL query; types with no containing
// polygon are simply absent from the result. When fetchMaps is set the
// boundary GeoJSON is decoded and attached per type.
func (d *DAO) DistrictInfo(ctx context.Context, p model.Point, types []model.DistrictType, fetchMaps bool) (*model.DistrictInfo, error) {
	var branches []string
	for _, t := range types {
		table, ok := districtTables[t]
		if !ok {
			continue
		}
		mapExpr := "NULL"
		if fetchMaps {
			mapExpr = "ST_AsGeoJSON(geom)"
		}
		// Proximity is planar degrees, matching the configured boundary
		// threshold's units.
		branches = append(branches, fmt.Sprintf(
			`SELECT '%s' AS type, name, code, %s AS map,
				ST_Distance(ST_Boundary(geom), ST_SetSRID(ST_MakePoint($1, $2), 4326)) AS proximity
			FROM %s
			WHERE ST_Contains(geom, ST_SetSRID(ST_MakePoint($1, $2), 4326))`,
			t, mapExpr, table,
		))
	}
	info := model.NewDistrictInfo()
	if len(branches) == 0 {
		return info, nil
	}
	counties := d.countyMap(ctx, types...)

	sql := strings.Join(branches, "\nUNION ALL\n")
	rows, err := d.pool.Query(ctx, sql, p.Lon, p.Lat)
	if err != nil {
		return nil, eris.Wrap(err, "shapefile: district info query")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			typeTag, name, code string
			mapJSON             []byte
			proximity           float64
		)
		if err := rows.Scan(&typeTag, &name, &code, &mapJSON, &proximity); err != nil {
			return nil, eris.Wrap(err, "shapefile: scan district info row")
		}
		t := model.ResolveType(typeTag)
		if t == "" {
			continue
		}
		// County polygons are keyed by federal FIPS code; translate to the
		// internal code before it reaches consumers.
		if t == model.County {
			if ref, ok := counties[strings.TrimSpace(code)]; ok {
				code = ref.Code
				if ref.Name != "" {
					name = ref.Name
				}
			}
		}
		info.SetName(t, name)
		info.SetCode(t, TrimCode(code))
		info.SetProximity(t, proximity)
		if fetchMaps && len(mapJSON) > 0 {
			m, err := decodeDistrictMap(mapJSON)
			if err != nil {
				zap.L().Warn("shapefile: bad boundary geojson", zap.Error(err),
					zap.String("type", typeTag), zap.String("code", code))
				continue
			}
			m.Metadata = &model.DistrictMetadata{Type: t, Name: name, Code: TrimCode(code)}
			info.SetMap(t, m)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "shapefile: iterate district info rows")
	}
	return info, nil
}

// NearbyDistricts returns up to count districts of a type whose boundary is
// closest to the point, excluding the one that contains it.
func (d *DAO) NearbyDistricts(ctx context.Context, t model.DistrictType, p model.Point, count int) ([]model.DistrictMetadata, error) {
	table, ok := districtTables[t]
	if !ok {
		return nil, nil
	}
	sql := fmt.Sprintf(`
		SELECT name, code
		FROM %s
		WHERE NOT ST_Contains(geom, ST_SetSRID(ST_MakePoint($1, $2), 4326))
		ORDER BY geom <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)
		LIMIT $3`, table)
	counties := d.countyMap(ctx, t)
	rows, err := d.pool.Query(ctx, sql, p.Lon, p.Lat, count)
	if err != nil {
		return nil, eris.Wrapf(err, "shapefile: nearby %s districts", t)
	}
	defer rows.Close()

	var out []model.DistrictMetadata
	for rows.Next() {
		var name, code string
		if err := rows.Scan(&name, &code); err != nil {
			return nil, eris.Wrap(err, "shapefile: scan nearby district row")
		}
		if t == model.County {
			if ref, ok := counties[strings.TrimSpace(code)]; ok {
				code = ref.Code
				if ref.Name != "" {
					name = ref.Name
				}
			}
		}
		out = append(out, model.DistrictMetadata{Type: t, Name: name, Code: TrimCode(code)})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "shapefile: iterate nearby district rows")
	}
	return out, nil
}

// DistrictOverlap computes the intersection areas between each target
// district and the unioned reference region. Areas are projected to the UTM
// zone of the reference centroid so square meters are comparable. When
// targetCodes is empty every target district with a positive intersection
// area is included. fetchMaps additionally decodes the intersection geometry
// per target (used for senate overlap rendering).
func (d *DAO) DistrictOverlap(ctx context.Context, refType model.DistrictType, refCodes []string, targetType model.DistrictType, targetCodes []string, fetchMaps bool) (*model.DistrictOverlap, error) {
	refTable, ok := districtTables[refType]
	if !ok {
		return nil, eris.Errorf("shapefile: no boundary table for reference type %s", refType)
	}
	targetTable, ok := districtTables[targetType]
	if !ok {
		return nil, eris.Errorf("shapefile: no boundary table for target type %s", targetType)
	}

	mapExpr := "NULL"
	if fetchMaps {
		mapExpr = "ST_AsGeoJSON(ST_Intersection(t.geom, ref.geom))"
	}
	filter := ""
	args := []any{refCodes}
	if len(targetCodes) > 0 {
		filter = "AND t.code = ANY($2)"
		args = append(args, targetCodes)
	}
	sql := fmt.Sprintf(`
		WITH ref AS (
			SELECT ST_Union(geom) AS geom,
			       utmzone(ST_Centroid(ST_Union(geom))) AS srid
			FROM %s WHERE code = ANY($1)
		)
		SELECT t.code,
		       ST_Area(ST_Transform(ST_Intersection(t.geom, ref.geom), ref.srid)) AS overlap_area,
		       ST_Area(ST_Transform(ref.geom, ref.srid)) AS total_area,
		       %s AS intersect_map
		FROM %s t, ref
		WHERE ST_Intersects(t.geom, ref.geom) %s`,
		refTable, mapExpr, targetTable, filter)

	rows, err := d.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "shapefile: overlap %s onto %s", targetType, refType)
	}
	defer rows.Close()

	overlap := model.NewDistrictOverlap(refType, targetType, refCodes)
	for rows.Next() {
		var (
			code                   string
			overlapArea, totalArea float64
			mapJSON                []byte
		)
		if err := rows.Scan(&code, &overlapArea, &totalArea, &mapJSON); err != nil {
			return nil, eris.Wrap(err, "shapefile: scan overlap row")
		}
		// ST_Intersects matches shared-edge neighbors whose intersection
		// degenerates to a line; those carry no area.
		if len(targetCodes) == 0 && overlapArea <= 0 {
			continue
		}
		code = TrimCode(code)
		overlap.TotalArea = totalArea
		overlap.TargetOverlap[code] = overlapArea
		if fetchMaps && len(mapJSON) > 0 {
			m, err := decodeDistrictMap(mapJSON)
			if err != nil {
				zap.L().Warn("shapefile: bad intersection geojson", zap.Error(err),
					zap.String("type", string(targetType)), zap.String("code", code))
				continue
			}
			m.Metadata = &model.DistrictMetadata{Type: targetType, Code: code}
			overlap.IntersectMaps[code] = m
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "shapefile: iterate overlap rows")
	}
	return overlap, nil
}

// ReferenceBoundary returns the unioned boundary geometry of a set of
// reference districts, for rendering alongside overlap results.
func (d *DAO) ReferenceBoundary(ctx context.Context, refType model.DistrictType, refCodes []string) (*model.DistrictMap, error) {
	table, ok := districtTables[refType]
	if !ok {
		return nil, eris.Errorf("shapefile: no boundary table for reference type %s", refType)
	}
	sql := fmt.Sprintf(`SELECT ST_AsGeoJSON(ST_Union(geom)) FROM %s WHERE code = ANY($1)`, table)

	var mapJSON []byte
	if err := d.pool.QueryRow(ctx, sql, refCodes).Scan(&mapJSON); err != nil {
		return nil, eris.Wrapf(err, "shapefile: reference boundary for %s", refType)
	}
	m, err := decodeDistrictMap(mapJSON)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.Metadata = &model.DistrictMetadata{Type: refType, Code: strings.Join(refCodes, ",")}
	}
	return m, nil
}

// CountyForFIPS maps a federal county FIPS code to the internal county code
// and name used by the rest of the system.
func (d *DAO) CountyForFIPS(ctx context.Context, fips string) (code, name string, err error) {
	counties := d.countyMap(ctx, model.County)
	ref, ok := counties[strings.TrimSpace(fips)]
	if !ok {
		return "", "", eris.Errorf("shapefile: no county for fips %s", fips)
	}
	return ref.Code, ref.Name, nil
}

// countyMap returns the FIPS-to-internal county translation, loading
// public.districts_map once per DAO. Lookups fail soft: a load error leaves
// county codes untranslated rather than failing the containing query.
func (d *DAO) countyMap(ctx context.Context, types ...model.DistrictType) map[string]countyRef {
	needed := false
	for _, t := range types {
		if t == model.County {
			needed = true
			break
		}
	}
	if !needed {
		return nil
	}

	d.mu.RLock()
	cached := d.counties
	d.mu.RUnlock()
	if cached != nil {
		return cached
	}

	rows, err := d.pool.Query(ctx,
		`SELECT fips_code, county_code, county_name FROM public.districts_map`)
	if err != nil {
		zap.L().Warn("shapefile: county translation unavailable", zap.Error(err))
		return nil
	}
	defer rows.Close()

	m := make(map[string]countyRef)
	for rows.Next() {
		var fips, code, name string
		if err := rows.Scan(&fips, &code, &name); err != nil {
			zap.L().Warn("shapefile: bad county translation row", zap.Error(err))
			return nil
		}
		m[strings.TrimSpace(fips)] = countyRef{Code: TrimCode(code), Name: name}
	}
	if err := rows.Err(); err != nil {
		zap.L().Warn("shapefile: county translation scan failed", zap.Error(err))
		return nil
	}

	d.mu.Lock()
	d.counties = m
	d.mu.Unlock()
	return m
}

// StreetLineReference collects the TIGER edge geometry of one street across
// a set of zips, for rendering next to street-level multi-match results.
func (d *DAO) StreetLineReference(ctx context.Context, zip5s []string, street string) (*model.DistrictMap, error) {
	if len(zip5s) == 0 || street == "" {
		return nil, nil
	}

	var mapJSON []byte
	err := d.pool.QueryRow(ctx, `
		SELECT ST_AsGeoJSON(ST_Collect(the_geom))
		FROM tiger_data.ny_edges
		WHERE fullname ILIKE $2 AND (zipl = ANY($1) OR zipr = ANY($1))`,
		zip5s, street,
	).Scan(&mapJSON)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "shapefile: street line for %s", street)
	}
	m, err := decodeDistrictMap(mapJSON)
	if err != nil || m == nil {
		return nil, err
	}
	m.Metadata = &model.DistrictMetadata{Name: street, Code: strings.Join(zip5s, ",")}
	return m, nil
}

// TrimCode strips leading zeros so codes compare consistently across sources
// ("044" and "44" are the same district). A bare "0" survives.
func TrimCode(code string) string {
	trimmed := strings.TrimLeft(strings.TrimSpace(code), "0")
	if trimmed == "" && code != "" {
		return "0"
	}
	return trimmed
}
