package shapefile

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/stefancrain/GeoApi/internal/model"
)

// cachedMapTypes are the district types whose boundary maps are preloaded
// into memory for the map endpoints. School district geometry is too large
// to pin and is fetched on demand instead.
var cachedMapTypes = []model.DistrictType{
	model.Senate, model.Assembly, model.Congressional,
	model.County, model.Town,
}

// LoadMaps preloads boundary maps for the cached district types. Safe to
// call again to refresh after a shapefile reload.
func (d *DAO) LoadMaps(ctx context.Context) error {
	fresh := make(map[model.DistrictType]map[string]*model.DistrictMap)
	total := 0
	for _, t := range cachedMapTypes {
		maps, err := d.loadMapsOfType(ctx, t)
		if err != nil {
			return err
		}
		fresh[t] = maps
		total += len(maps)
	}

	d.mu.Lock()
	d.mapCache = fresh
	d.mu.Unlock()

	zap.L().Info("shapefile: district maps cached", zap.Int("count", total))
	return nil
}

func (d *DAO) loadMapsOfType(ctx context.Context, t model.DistrictType) (map[string]*model.DistrictMap, error) {
	table := districtTables[t]
	rows, err := d.pool.Query(ctx,
		`SELECT name, code, ST_AsGeoJSON(geom) FROM `+table)
	if err != nil {
		return nil, eris.Wrapf(err, "shapefile: load %s maps", t)
	}
	defer rows.Close()

	maps := make(map[string]*model.DistrictMap)
	for rows.Next() {
		var (
			name, code string
			mapJSON    []byte
		)
		if err := rows.Scan(&name, &code, &mapJSON); err != nil {
			return nil, eris.Wrap(err, "shapefile: scan map row")
		}
		m, err := decodeDistrictMap(mapJSON)
		if err != nil {
			zap.L().Warn("shapefile: bad map geojson", zap.Error(err),
				zap.String("type", string(t)), zap.String("code", code))
			continue
		}
		code = TrimCode(code)
		m.Metadata = &model.DistrictMetadata{Type: t, Name: name, Code: code}
		maps[code] = m
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "shapefile: iterate %s map rows", t)
	}
	return maps, nil
}

// Map returns the cached boundary map for a district, or nil when the type
// is uncached or the code unknown.
func (d *DAO) Map(t model.DistrictType, code string) *model.DistrictMap {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.mapCache[t][TrimCode(code)]
}

// MapsOfType returns every cached boundary map of a type, ordered by code.
func (d *DAO) MapsOfType(t model.DistrictType) []*model.DistrictMap {
	d.mu.RLock()
	defer d.mu.RUnlock()

	byCode := d.mapCache[t]
	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	out := make([]*model.DistrictMap, 0, len(codes))
	for _, code := range codes {
		out = append(out, byCode[code])
	}
	return out
}
