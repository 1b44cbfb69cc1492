package geocode

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/stefancrain/GeoApi/internal/db"
	"github.com/stefancrain/GeoApi/internal/model"
)

// TigerProvider geocodes via the PostGIS TIGER/Line geocoder. It is the
// primary provider: local, free, and house-level for most NYS addresses.
type TigerProvider struct {
	pool      db.Pool
	maxRating int
}

// NewTigerProvider creates a TigerProvider. Matches with a rating above
// maxRating are treated as misses so a later provider can try.
func NewTigerProvider(pool db.Pool, maxRating int) *TigerProvider {
	return &TigerProvider{pool: pool, maxRating: maxRating}
}

// Name implements Provider.
func (p *TigerProvider) Name() string { return "tiger" }

// Available implements Provider.
func (p *TigerProvider) Available() bool { return p.pool != nil }

// Geocode implements Provider.
func (p *TigerProvider) Geocode(ctx context.Context, addr *model.Address) (*model.Geocode, error) {
	oneLine := formatOneLine(addr)
	if oneLine == "" {
		return nil, nil
	}

	var (
		lat, lon    float64
		rating      int
		matchedAddr string
	)
	row := p.pool.QueryRow(ctx, `
		SELECT
			ST_Y(geomout) AS lat,
			ST_X(geomout) AS lon,
			rating,
			pprint_addy(addy) AS matched_address
		FROM geocode($1, 1)`,
		oneLine,
	)
	if err := row.Scan(&lat, &lon, &rating, &matchedAddr); err != nil {
		// No rows = no match (not an error).
		zap.L().Debug("tiger: no match", zap.String("address", oneLine), zap.Error(err))
		return nil, nil
	}

	if rating > p.maxRating {
		zap.L().Debug("tiger: rating exceeds threshold",
			zap.String("address", oneLine),
			zap.Int("rating", rating),
			zap.Int("max_rating", p.maxRating),
		)
		return nil, nil
	}

	return &model.Geocode{
		Lat:     lat,
		Lon:     lon,
		Method:  "TigerDao",
		Quality: ratingToQuality(rating),
	}, nil
}

// Reverse implements ReverseProvider using PostGIS reverse_geocode.
func (p *TigerProvider) Reverse(ctx context.Context, pt model.Point) (*model.Address, error) {
	var (
		street, state, zip sql.NullString
		rating             int
	)
	err := p.pool.QueryRow(ctx, `
		SELECT
			pprint_addy(addy),
			(addy).stateusps,
			(addy).zip,
			rating
		FROM reverse_geocode(ST_SetSRID(ST_MakePoint($1, $2), 4326), 1)`,
		pt.Lon, pt.Lat,
	).Scan(&street, &state, &zip, &rating)
	if err != nil {
		zap.L().Debug("tiger: no reverse match",
			zap.Float64("lat", pt.Lat), zap.Float64("lon", pt.Lon), zap.Error(err))
		return nil, eris.Wrap(err, "geocode: tiger reverse")
	}

	addr := &model.Address{}
	if street.Valid {
		addr.Addr1 = street.String
	}
	if state.Valid {
		addr.State = state.String
	}
	if zip.Valid {
		addr.Zip5 = zip.String
	}
	return addr, nil
}

// ratingToQuality maps PostGIS geocoder ratings onto the quality scale.
// Lower ratings are better: 0 = exact match.
func ratingToQuality(rating int) model.GeocodeQuality {
	switch {
	case rating < 10:
		return model.QualityHouse
	case rating < 20:
		return model.QualityStreet
	case rating < 50:
		return model.QualityZip
	default:
		return model.QualityCity
	}
}
