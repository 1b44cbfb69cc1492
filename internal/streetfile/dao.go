// Package streetfile resolves district assignments from county Board of
// Elections street files. A street file row maps a building-number range on
// one side of a street (odd, even, or all) to the full set of district codes
// for that range. Matches here are house-level without needing a geocode.
package streetfile

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/stefancrain/GeoApi/internal/db"
	"github.com/stefancrain/GeoApi/internal/model"
)

// DAO answers street-file lookups against public.streetfile.
type DAO struct {
	pool db.Pool
}

// NewDAO returns a DAO backed by the given pool.
func NewDAO(pool db.Pool) *DAO {
	return &DAO{pool: pool}
}

const codeColumns = `senate_code, assembly_code, congressional_code, county_code,
	school_code, town_code, election_code, ward_code, cleg_code, fire_code, vill_code`

// codeTypes pairs the scan order of codeColumns with district types.
var codeTypes = []model.DistrictType{
	model.Senate, model.Assembly, model.Congressional, model.County,
	model.School, model.Town, model.Election, model.Ward,
	model.CityCouncil, model.Fire, model.Village,
}

// AssignDistricts resolves districts for a parsed address with a building
// number. The row must cover the building number with matching parity.
// Returns nil with no error when no range matches.
func (d *DAO) AssignDistricts(ctx context.Context, sa *model.StreetAddress) (*model.DistrictInfo, error) {
	if sa == nil || sa.StreetEmpty() || sa.BldgNum <= 0 || sa.Zip5 == "" {
		return nil, nil
	}

	parity := "EVENS"
	if sa.BldgNum%2 == 1 {
		parity = "ODDS"
	}
	sql := `SELECT ` + codeColumns + `
		FROM public.streetfile
		WHERE zip5 = $1 AND street = $2
		  AND bldg_lo <= $3 AND bldg_hi >= $3
		  AND bldg_parity IN ($4, 'ALL')
		LIMIT 1`

	codes := make([]*string, len(codeTypes))
	dest := make([]any, len(codeTypes))
	for i := range codes {
		dest[i] = &codes[i]
	}
	err := d.pool.QueryRow(ctx, sql, sa.Zip5, streetKey(sa), sa.BldgNum, parity).Scan(dest...)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "streetfile: assign districts")
	}

	info := model.NewDistrictInfo()
	for i, t := range codeTypes {
		if codes[i] != nil && *codes[i] != "" {
			info.SetCode(t, trimCode(*codes[i]))
		}
	}
	return info, nil
}

// DistrictMatches returns the distinct code set per standard district type
// across every street-file row in the given zips (and optionally a street).
// Used for street, zip, and city level multi-match resolution: a type with
// exactly one distinct code is certain even without a building number.
func (d *DAO) DistrictMatches(ctx context.Context, zip5s []string, street string) (map[model.DistrictType][]string, error) {
	if len(zip5s) == 0 {
		return nil, nil
	}

	sql := `SELECT DISTINCT ` + codeColumns + `
		FROM public.streetfile
		WHERE zip5 = ANY($1)`
	args := []any{zip5s}
	if street != "" {
		sql += ` AND street = $2`
		args = append(args, street)
	}

	rows, err := d.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "streetfile: district matches")
	}
	defer rows.Close()

	seen := make(map[model.DistrictType]map[string]bool)
	for rows.Next() {
		codes := make([]*string, len(codeTypes))
		dest := make([]any, len(codeTypes))
		for i := range codes {
			dest[i] = &codes[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, eris.Wrap(err, "streetfile: scan district match row")
		}
		for i, t := range codeTypes {
			if codes[i] == nil || *codes[i] == "" {
				continue
			}
			if seen[t] == nil {
				seen[t] = make(map[string]bool)
			}
			seen[t][trimCode(*codes[i])] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "streetfile: iterate district match rows")
	}

	out := make(map[model.DistrictType][]string, len(seen))
	for t, set := range seen {
		for code := range set {
			out[t] = append(out[t], code)
		}
	}
	return out, nil
}

const rangeColumns = `street, town, zip5, bldg_lo, bldg_hi, bldg_parity, senate_code`

// StreetsInZip lists the distinct street ranges in a zip code, for the
// street lookup endpoint.
func (d *DAO) StreetsInZip(ctx context.Context, zip5 string) ([]model.StreetRange, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+rangeColumns+`
		FROM public.streetfile
		WHERE zip5 = $1
		ORDER BY street, bldg_lo`, zip5)
	if err != nil {
		return nil, eris.Wrapf(err, "streetfile: streets in zip %s", zip5)
	}
	return scanRanges(rows)
}

// StreetRanges lists the rows covering one street across a set of zips.
// Street-level multi-match results carry these so callers can see the
// building ranges behind the assignment.
func (d *DAO) StreetRanges(ctx context.Context, zip5s []string, street string) ([]model.StreetRange, error) {
	if len(zip5s) == 0 || street == "" {
		return nil, nil
	}
	rows, err := d.pool.Query(ctx, `
		SELECT `+rangeColumns+`
		FROM public.streetfile
		WHERE zip5 = ANY($1) AND street = $2
		ORDER BY zip5, bldg_lo`, zip5s, street)
	if err != nil {
		return nil, eris.Wrapf(err, "streetfile: ranges for street %s", street)
	}
	return scanRanges(rows)
}

func scanRanges(rows pgx.Rows) ([]model.StreetRange, error) {
	defer rows.Close()

	var out []model.StreetRange
	for rows.Next() {
		var r model.StreetRange
		if err := rows.Scan(&r.Street, &r.Town, &r.Zip5, &r.BldgLo, &r.BldgHi, &r.Parity, &r.Senate); err != nil {
			return nil, eris.Wrap(err, "streetfile: scan street range row")
		}
		r.Senate = trimCode(r.Senate)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "streetfile: iterate street range rows")
	}
	return out, nil
}

// streetKey renders the parsed street in the canonical form street files are
// loaded with: "PREDIR NAME TYPE POSTDIR", upper-case.
func streetKey(sa *model.StreetAddress) string {
	return strings.ToUpper(sa.Street())
}

func trimCode(code string) string {
	trimmed := strings.TrimLeft(strings.TrimSpace(code), "0")
	if trimmed == "" && code != "" {
		return "0"
	}
	return trimmed
}
