// Package pipeline orchestrates end-to-end resolution: address correction,
// geocoding, and district assignment composed into a single request flow.
package pipeline

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/stefancrain/GeoApi/internal/address"
	"github.com/stefancrain/GeoApi/internal/model"
	"github.com/stefancrain/GeoApi/internal/service/district"
)

// AddressCorrector corrects addresses before geocoding.
type AddressCorrector interface {
	Validate(ctx context.Context, addr *model.Address) *model.AddressResult
}

// Geocoder resolves addresses to points and points to addresses.
type Geocoder interface {
	Geocode(ctx context.Context, addr *model.Address, providerName string) *model.GeocodeResult
	Reverse(ctx context.Context, p model.Point, providerName string) *model.GeocodeResult
}

// Assigner resolves districts for a geocoded address.
type Assigner interface {
	Assign(ctx context.Context, ga *model.GeocodedAddress, req district.Request) *model.DistrictResult
}

// Request carries one resolution request: an address or a point, plus the
// per-call flags.
type Request struct {
	Address *model.Address
	Point   *model.Point

	USPSValidate bool
	SkipGeocode  bool
	ShowMaps     bool
	ShowMembers  bool
	Strategy     district.Strategy
	GeoProvider  string
	Types        []model.DistrictType
}

// Service is the top-level resolution orchestrator.
type Service struct {
	addresses AddressCorrector
	geocoder  Geocoder
	districts Assigner
	threads   int
}

// Option configures the Service.
type Option func(*Service)

// WithThreads bounds batch fan-out concurrency.
func WithThreads(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.threads = n
		}
	}
}

// New creates a pipeline Service. The address corrector may be nil when USPS
// is not configured.
func New(addresses AddressCorrector, geocoder Geocoder, districts Assigner, opts ...Option) *Service {
	s := &Service{
		addresses: addresses,
		geocoder:  geocoder,
		districts: districts,
		threads:   3,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve runs one request through the full pipeline.
func (s *Service) Resolve(ctx context.Context, req Request) *model.DistrictResult {
	if req.Point != nil {
		return s.resolvePoint(ctx, req)
	}
	return s.resolveAddress(ctx, req)
}

// ResolveBatch resolves a batch of addresses under the shared flags of req,
// preserving input order. Individual failures land in their slot.
func (s *Service) ResolveBatch(ctx context.Context, addrs []*model.Address, req Request) []*model.DistrictResult {
	results := make([]*model.DistrictResult, len(addrs))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.threads)
	for i, addr := range addrs {
		eg.Go(func() error {
			r := req
			r.Address = addr
			r.Point = nil
			results[i] = s.Resolve(gCtx, r)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (s *Service) resolveAddress(ctx context.Context, req Request) *model.DistrictResult {
	addr := req.Address
	if addr == nil || !addr.Valid() {
		result := model.NewDistrictResult(&model.GeocodedAddress{Address: addr})
		result.Status = model.StatusMissingAddress
		return result
	}
	if !InNewYork(addr) {
		result := model.NewDistrictResult(&model.GeocodedAddress{Address: addr})
		result.Status = model.StatusNonNYState
		return result
	}

	sa := address.Parse(addr)
	working := addr
	validated := false
	if req.USPSValidate && s.addresses != nil {
		if corrected := s.correct(ctx, sa, addr); corrected != nil {
			working = corrected
			validated = true
			sa = address.Parse(working)
		}
	}

	var geo *model.Geocode
	if !req.SkipGeocode && s.geocoder != nil {
		target := working
		if sa.IsPoBox() {
			target = address.BlankPoBox(working)
		}
		if gres := s.geocoder.Geocode(ctx, target, req.GeoProvider); gres.Success() {
			geo = gres.Geocode()
		}
	}
	ga := &model.GeocodedAddress{Address: working, Geocode: geo}

	result := s.districts.Assign(ctx, ga, district.Request{
		Types:     req.Types,
		Strategy:  req.Strategy,
		FetchMaps: req.ShowMaps,
	})

	// The box line was blanked for geocoding; put it back on output unless
	// USPS already returned a canonical form.
	if sa.IsPoBox() && !validated && result.Address() != nil {
		restored := *result.Address()
		restored.Addr1 = "PO Box " + sa.PoBox
		result.GeocodedAddress = &model.GeocodedAddress{Address: &restored, Geocode: geo}
	}

	if !req.ShowMembers {
		result.Members = nil
	}
	return result
}

func (s *Service) resolvePoint(ctx context.Context, req Request) *model.DistrictResult {
	p := *req.Point
	if p.Lat == 0 && p.Lon == 0 {
		result := model.NewDistrictResult(nil)
		result.Status = model.StatusMissingPoint
		return result
	}

	ga := &model.GeocodedAddress{
		Geocode: &model.Geocode{Lat: p.Lat, Lon: p.Lon, Method: "input", Quality: model.QualityPoint},
	}
	if s.geocoder != nil {
		if gres := s.geocoder.Reverse(ctx, p, req.GeoProvider); gres.Success() {
			ga.Address = gres.GeocodedAddress.Address
		}
	}

	result := s.districts.Assign(ctx, ga, district.Request{
		Types:     req.Types,
		Strategy:  req.Strategy,
		FetchMaps: req.ShowMaps,
	})
	if !req.ShowMembers {
		result.Members = nil
	}
	return result
}

// correct runs USPS correction against the parsed canonical form first and
// falls back to the raw address, returning nil when neither validates.
func (s *Service) correct(ctx context.Context, sa *model.StreetAddress, raw *model.Address) *model.Address {
	parsed := sa.ToAddress()
	if v := s.addresses.Validate(ctx, &parsed); v.Success() {
		return v.Address
	}
	if v := s.addresses.Validate(ctx, raw); v.Success() {
		return v.Address
	}
	return nil
}

// InNewYork reports whether the address plausibly lies in New York State.
// A non-NY state rejects outright; with no state, the zip has to fall in a
// New York range. An address carrying neither is left to downstream lookups.
func InNewYork(addr *model.Address) bool {
	state := address.NormalizeState(addr.State)
	if state != "" {
		return state == "NY"
	}
	if addr.Zip5 != "" {
		return isNYZip(addr.Zip5)
	}
	return true
}

func isNYZip(zip5 string) bool {
	n, err := strconv.Atoi(zip5)
	if err != nil {
		return true
	}
	switch {
	case n >= 10000 && n <= 14999:
		return true
	// Holtsville and Fishers Island sit outside the main block.
	case n == 501 || n == 544 || n == 6390:
		return true
	}
	return false
}
