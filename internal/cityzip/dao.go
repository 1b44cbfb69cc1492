// Package cityzip maps city names to the set of zip codes they cover,
// backing city-level multi-match district resolution.
package cityzip

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/stefancrain/GeoApi/internal/db"
)

// DAO answers city-to-zip lookups against public.cityzip.
type DAO struct {
	pool db.Pool
}

// NewDAO returns a DAO backed by the given pool.
func NewDAO(pool db.Pool) *DAO {
	return &DAO{pool: pool}
}

// ZipsForCity returns every zip5 associated with a city name. City matching
// is case-insensitive; an unknown city returns an empty slice.
func (d *DAO) ZipsForCity(ctx context.Context, city string) ([]string, error) {
	city = strings.ToUpper(strings.TrimSpace(city))
	if city == "" {
		return nil, nil
	}

	rows, err := d.pool.Query(ctx,
		`SELECT DISTINCT zip5 FROM public.cityzip WHERE city = $1 ORDER BY zip5`, city)
	if err != nil {
		return nil, eris.Wrapf(err, "cityzip: zips for city %s", city)
	}
	defer rows.Close()

	var zips []string
	for rows.Next() {
		var zip string
		if err := rows.Scan(&zip); err != nil {
			return nil, eris.Wrap(err, "cityzip: scan zip row")
		}
		zips = append(zips, zip)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "cityzip: iterate zip rows")
	}
	return zips, nil
}

// CityForZip returns the primary city for a zip5, or "" when unknown.
func (d *DAO) CityForZip(ctx context.Context, zip5 string) (string, error) {
	var city string
	err := d.pool.QueryRow(ctx,
		`SELECT city FROM public.cityzip WHERE zip5 = $1 AND is_primary LIMIT 1`, zip5,
	).Scan(&city)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", eris.Wrapf(err, "cityzip: city for zip %s", zip5)
	}
	return city, nil
}
