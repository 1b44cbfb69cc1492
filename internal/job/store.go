// Package job tracks bulk address-file processing: a job row per uploaded
// file and a result row per record, keyed by uuid.
package job

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/stefancrain/GeoApi/internal/db"
	"github.com/stefancrain/GeoApi/internal/model"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is one bulk processing request.
type Job struct {
	ID          uuid.UUID  `json:"id"`
	Filename    string     `json:"filename"`
	Status      Status     `json:"status"`
	RecordCount int        `json:"recordCount"`
	Processed   int        `json:"processed"`
	Message     string     `json:"message,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Record is one per-address result row, positionally keyed by Seq.
type Record struct {
	Seq        int              `json:"seq"`
	Status     model.Status     `json:"status"`
	MatchLevel model.MatchLevel `json:"matchLevel"`
	Codes      map[model.DistrictType]string `json:"codes"`
	Lat        float64          `json:"lat"`
	Lon        float64          `json:"lon"`
}

// Store persists jobs and their results.
type Store struct {
	pool db.Pool
}

// NewStore returns a Store backed by the given pool.
func NewStore(pool db.Pool) *Store {
	return &Store{pool: pool}
}

// Create inserts a pending job and returns it.
func (s *Store) Create(ctx context.Context, filename string, recordCount int) (*Job, error) {
	j := &Job{
		ID:          uuid.New(),
		Filename:    filename,
		Status:      StatusPending,
		RecordCount: recordCount,
		CreatedAt:   time.Now(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO job.job (id, filename, status, record_count, processed, created_at)
		 VALUES ($1, $2, $3, $4, 0, $5)`,
		j.ID, j.Filename, string(j.Status), j.RecordCount, j.CreatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "job: create")
	}
	return j, nil
}

// Get returns a job by id, or nil when it does not exist.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	j := &Job{}
	var status string
	err := s.pool.QueryRow(ctx,
		`SELECT id, filename, status, record_count, processed, COALESCE(message, ''), created_at, completed_at
		 FROM job.job WHERE id = $1`, id,
	).Scan(&j.ID, &j.Filename, &status, &j.RecordCount, &j.Processed, &j.Message, &j.CreatedAt, &j.CompletedAt)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "job: get %s", id)
	}
	j.Status = Status(status)
	return j, nil
}

// MarkRunning transitions a job to running.
func (s *Store) MarkRunning(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE job.job SET status = $2 WHERE id = $1`, id, string(StatusRunning))
	return eris.Wrapf(err, "job: mark running %s", id)
}

// Progress records how many records have been processed.
func (s *Store) Progress(ctx context.Context, id uuid.UUID, processed int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE job.job SET processed = $2 WHERE id = $1`, id, processed)
	return eris.Wrapf(err, "job: progress %s", id)
}

// Complete transitions a job to completed.
func (s *Store) Complete(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE job.job SET status = $2, completed_at = now() WHERE id = $1`,
		id, string(StatusCompleted))
	return eris.Wrapf(err, "job: complete %s", id)
}

// Fail transitions a job to failed with a message.
func (s *Store) Fail(ctx context.Context, id uuid.UUID, message string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE job.job SET status = $2, message = $3, completed_at = now() WHERE id = $1`,
		id, string(StatusFailed), message)
	return eris.Wrapf(err, "job: fail %s", id)
}

var resultColumns = []string{
	"job_id", "seq", "status", "match_level",
	"senate_code", "assembly_code", "congressional_code",
	"county_code", "school_code", "town_code",
	"latitude", "longitude",
}

// SaveResults bulk-inserts one result row per district result, numbered from
// startSeq in input order.
func (s *Store) SaveResults(ctx context.Context, id uuid.UUID, startSeq int, results []*model.DistrictResult) error {
	if len(results) == 0 {
		return nil
	}
	rows := make([][]any, len(results))
	for i, r := range results {
		var lat, lon float64
		if g := r.Geocode(); g != nil {
			lat, lon = g.Lat, g.Lon
		}
		rows[i] = []any{
			id, startSeq + i, string(r.Status), string(r.MatchLevel),
			r.Info.Code(model.Senate), r.Info.Code(model.Assembly), r.Info.Code(model.Congressional),
			r.Info.Code(model.County), r.Info.Code(model.School), r.Info.Code(model.Town),
			lat, lon,
		}
	}
	_, err := db.CopyFromSchema(ctx, s.pool, "job", "result", resultColumns, rows)
	return eris.Wrapf(err, "job: save results %s", id)
}

// Results returns a job's result rows ordered by sequence.
func (s *Store) Results(ctx context.Context, id uuid.UUID) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT seq, status, match_level,
		        senate_code, assembly_code, congressional_code,
		        county_code, school_code, town_code,
		        latitude, longitude
		 FROM job.result WHERE job_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, eris.Wrapf(err, "job: results %s", id)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec            Record
			status, level  string
			codes          [6]string
		)
		if err := rows.Scan(&rec.Seq, &status, &level,
			&codes[0], &codes[1], &codes[2], &codes[3], &codes[4], &codes[5],
			&rec.Lat, &rec.Lon); err != nil {
			return nil, eris.Wrap(err, "job: scan result row")
		}
		rec.Status = model.Status(status)
		rec.MatchLevel = model.MatchLevel(level)
		rec.Codes = make(map[model.DistrictType]string)
		for i, t := range model.StandardTypes() {
			if codes[i] != "" {
				rec.Codes[t] = codes[i]
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "job: iterate result rows")
	}
	return out, nil
}
