// Package members attaches elected-official metadata to resolved districts.
package members

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/stefancrain/GeoApi/internal/db"
	"github.com/stefancrain/GeoApi/internal/model"
)

// memberTypes are the district types that carry member metadata.
var memberTypes = map[model.DistrictType]bool{
	model.Senate:        true,
	model.Assembly:      true,
	model.Congressional: true,
}

// DAO answers member lookups against public.member.
type DAO struct {
	pool db.Pool
}

// NewDAO returns a DAO backed by the given pool.
func NewDAO(pool db.Pool) *DAO {
	return &DAO{pool: pool}
}

// Member returns the current member for a district, or nil when the type
// carries no members or the seat is vacant.
func (d *DAO) Member(ctx context.Context, t model.DistrictType, code string) (*model.DistrictMember, error) {
	if !memberTypes[t] || code == "" {
		return nil, nil
	}

	m := &model.DistrictMember{Type: t, Code: code}
	err := d.pool.QueryRow(ctx, `
		SELECT name, url, image_url
		FROM public.member
		WHERE district_type = $1 AND district_code = $2`,
		string(t), code,
	).Scan(&m.Name, &m.URL, &m.ImageURL)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "members: lookup %s %s", t, code)
	}
	return m, nil
}

// Attach resolves members for every assigned district type that carries
// them and returns the list. Lookup failures degrade to a partial list.
func (d *DAO) Attach(ctx context.Context, info *model.DistrictInfo) ([]model.DistrictMember, error) {
	if info == nil {
		return nil, nil
	}
	var out []model.DistrictMember
	for _, t := range info.AssignedDistricts() {
		m, err := d.Member(ctx, t, info.Code(t))
		if err != nil {
			return out, err
		}
		if m != nil {
			out = append(out, *m)
		}
	}
	return out, nil
}
