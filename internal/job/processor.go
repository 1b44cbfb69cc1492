package job

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/stefancrain/GeoApi/internal/model"
	"github.com/stefancrain/GeoApi/internal/pipeline"
)

// Resolver is the pipeline surface the processor depends on.
type Resolver interface {
	ResolveBatch(ctx context.Context, addrs []*model.Address, req pipeline.Request) []*model.DistrictResult
}

// defaultChunkSize bounds how many records are resolved and persisted at once.
const defaultChunkSize = 100

// Processor drives a job file through the resolution pipeline.
type Processor struct {
	store     *Store
	resolver  Resolver
	chunkSize int
}

// Option configures the Processor.
type Option func(*Processor)

// WithChunkSize overrides the per-chunk record count.
func WithChunkSize(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.chunkSize = n
		}
	}
}

// NewProcessor creates a Processor.
func NewProcessor(store *Store, resolver Resolver, opts ...Option) *Processor {
	p := &Processor{store: store, resolver: resolver, chunkSize: defaultChunkSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes the parsed addresses of a job in chunks, persisting results
// and progress as it goes. The first error fails the job.
func (p *Processor) Run(ctx context.Context, id uuid.UUID, addrs []*model.Address, req pipeline.Request) error {
	if err := p.store.MarkRunning(ctx, id); err != nil {
		return err
	}

	processed := 0
	for start := 0; start < len(addrs); start += p.chunkSize {
		end := min(start+p.chunkSize, len(addrs))
		results := p.resolver.ResolveBatch(ctx, addrs[start:end], req)
		if err := p.store.SaveResults(ctx, id, start, results); err != nil {
			if failErr := p.store.Fail(ctx, id, err.Error()); failErr != nil {
				zap.L().Warn("job: fail transition", zap.Error(failErr))
			}
			return err
		}
		processed = end
		if err := p.store.Progress(ctx, id, processed); err != nil {
			zap.L().Warn("job: progress update", zap.Error(err))
		}
	}

	zap.L().Info("job finished", zap.String("id", id.String()), zap.Int("records", processed))
	return p.store.Complete(ctx, id)
}

// fileColumns maps accepted header names to Address fields.
var fileColumns = map[string]func(*model.Address, string){
	"addr1":   func(a *model.Address, v string) { a.Addr1 = v },
	"address": func(a *model.Address, v string) { a.Addr1 = v },
	"addr2":   func(a *model.Address, v string) { a.Addr2 = v },
	"city":    func(a *model.Address, v string) { a.City = v },
	"state":   func(a *model.Address, v string) { a.State = v },
	"zip5":    func(a *model.Address, v string) { a.Zip5 = v },
	"zip":     func(a *model.Address, v string) { a.Zip5 = v },
	"zip4":    func(a *model.Address, v string) { a.Zip4 = v },
}

// ParseAddressFile reads a delimited address file. The delimiter (comma or
// tab) is sniffed from the header row, and columns are matched by name.
func ParseAddressFile(r io.Reader) ([]*model.Address, error) {
	br := bufio.NewReader(r)
	// Sniff only; a short read just means a short file.
	head, _ := br.Peek(4096)
	comma := ','
	if line, _, _ := strings.Cut(string(head), "\n"); strings.ContainsRune(line, '\t') {
		comma = '\t'
	}

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrap(err, "job: read header row")
	}
	setters := make([]func(*model.Address, string), len(header))
	matched := 0
	for i, name := range header {
		if set, ok := fileColumns[strings.ToLower(strings.TrimSpace(name))]; ok {
			setters[i] = set
			matched++
		}
	}
	if matched == 0 {
		return nil, eris.New("job: no recognized address columns in header")
	}

	var addrs []*model.Address
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "job: read record")
		}
		addr := &model.Address{}
		for i, v := range rec {
			if i < len(setters) && setters[i] != nil {
				setters[i](addr, strings.TrimSpace(v))
			}
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}
