package shapeload

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/stefancrain/GeoApi/internal/db"
)

// loadBatchSize bounds one COPY call; district layers are small but school
// and zip geometries are heavy.
const loadBatchSize = 500

var loadColumns = []string{"name", "code", "geom"}

// Parse reads a district shapefile and returns COPY-ready rows of
// (name, code, ewkb geometry). Records missing a code or a usable polygon
// are skipped.
func Parse(shpPath string, src Source) ([][]any, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "shapeload: open %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToUpper(name)] = i
	}
	nameIdx, nameOK := fieldIdx[src.NameField]
	codeIdx, codeOK := fieldIdx[src.CodeField]
	if !codeOK {
		return nil, eris.Errorf("shapeload: %s has no %s field", shpPath, src.CodeField)
	}

	var rows [][]any
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		code := strings.TrimSpace(strings.TrimRight(reader.Attribute(codeIdx), "\x00"))
		if code == "" {
			skipped++
			continue
		}
		name := code
		if nameOK {
			if v := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00")); v != "" {
				name = v
			}
		}

		wkb, err := encodeWKB(shape)
		if err != nil || wkb == nil {
			skipped++
			continue
		}
		rows = append(rows, []any{name, code, wkb})
	}

	if skipped > 0 {
		zap.L().Debug("shapeload: skipped records",
			zap.String("type", string(src.Type)), zap.Int("skipped", skipped))
	}
	return rows, nil
}

// Load replaces the contents of a boundary table with the parsed rows.
func Load(ctx context.Context, pool db.Pool, src Source, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	schema, table, found := strings.Cut(src.Table, ".")
	if !found {
		schema, table = "districts", src.Table
	}

	if _, err := pool.Exec(ctx, "TRUNCATE "+pgx.Identifier{schema, table}.Sanitize()); err != nil {
		return 0, eris.Wrapf(err, "shapeload: truncate %s", src.Table)
	}

	var total int64
	for i := 0; i < len(rows); i += loadBatchSize {
		end := min(i+loadBatchSize, len(rows))
		n, err := db.CopyFromSchema(ctx, pool, schema, table, loadColumns, rows[i:end])
		if err != nil {
			return total, eris.Wrapf(err, "shapeload: COPY into %s (rows %d-%d)", src.Table, i, end)
		}
		total += n
	}

	zap.L().Info("district shapes loaded",
		zap.String("type", string(src.Type)), zap.Int64("rows", total))
	return total, nil
}
