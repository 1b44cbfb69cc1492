package streetfile

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/stefancrain/GeoApi/internal/db"
)

// loadColumns is the column order for street-file ingest.
var loadColumns = []string{
	"street", "town", "state", "zip5",
	"bldg_lo", "bldg_hi", "bldg_parity",
	"senate_code", "assembly_code", "congressional_code", "county_code",
	"school_code", "town_code", "election_code", "ward_code",
	"cleg_code", "fire_code", "vill_code",
}

const loadBatchSize = 5000

// Load ingests a tab-separated street file export. The expected column
// order matches loadColumns with no header handling beyond skipping the
// first row. Rows are upserted in batches keyed on the range tuple, so
// re-running a load is idempotent.
func Load(ctx context.Context, pool db.Pool, r io.Reader) (int64, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	cfg := db.UpsertConfig{
		Table:        "public.streetfile",
		Columns:      loadColumns,
		ConflictKeys: []string{"street", "zip5", "bldg_lo", "bldg_hi", "bldg_parity"},
	}

	var (
		total   int64
		skipped int
		batch   [][]any
		first   = true
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := db.BulkUpsert(ctx, pool, cfg, batch)
		if err != nil {
			return err
		}
		total += n
		batch = batch[:0]
		return nil
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return total, eris.Wrap(err, "streetfile: read tsv record")
		}
		if first {
			first = false
			continue
		}
		row, ok := parseRecord(record)
		if !ok {
			skipped++
			continue
		}
		batch = append(batch, row)
		if len(batch) >= loadBatchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}

	zap.L().Info("streetfile: load complete",
		zap.Int64("rows", total), zap.Int("skipped", skipped))
	return total, nil
}

// parseRecord converts one TSV record into an insert row. Records missing
// the street, zip, or a parseable building range are skipped.
func parseRecord(record []string) ([]any, bool) {
	if len(record) < len(loadColumns) {
		return nil, false
	}
	get := func(i int) string { return strings.TrimSpace(record[i]) }

	street, zip5 := strings.ToUpper(get(0)), get(3)
	if street == "" || zip5 == "" {
		return nil, false
	}
	lo, err := strconv.Atoi(get(4))
	if err != nil {
		return nil, false
	}
	hi, err := strconv.Atoi(get(5))
	if err != nil {
		return nil, false
	}
	parity := strings.ToUpper(get(6))
	switch parity {
	case "ODDS", "EVENS", "ALL":
	default:
		parity = "ALL"
	}

	row := []any{
		street, strings.ToUpper(get(1)), strings.ToUpper(get(2)), zip5,
		lo, hi, parity,
	}
	for i := 7; i < len(loadColumns); i++ {
		row = append(row, get(i))
	}
	return row, true
}
