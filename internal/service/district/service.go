// Package district implements district assignment: point-in-polygon lookups
// against the boundary tables reconciled with Board of Elections street
// files, plus range-based multi-match resolution for addresses that never
// got a house-level geocode.
package district

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stefancrain/GeoApi/internal/address"
	"github.com/stefancrain/GeoApi/internal/model"
)

// Strategy selects how shape and street-file results are combined.
type Strategy string

const (
	// StrategyDefault runs both lookups in parallel and reconciles them.
	StrategyDefault Strategy = "default"
	// StrategyStreetFallback consults the street files only when the
	// boundary tables yield nothing.
	StrategyStreetFallback Strategy = "streetFallback"
	// StrategyShapeOnly skips the street files entirely.
	StrategyShapeOnly Strategy = "shapeOnly"
	// StrategyStreetOnly skips the boundary tables entirely.
	StrategyStreetOnly Strategy = "streetOnly"
)

// ParseStrategy maps a config tag to a Strategy, defaulting to StrategyDefault.
func ParseStrategy(s string) Strategy {
	switch Strategy(s) {
	case StrategyStreetFallback, StrategyShapeOnly, StrategyStreetOnly:
		return Strategy(s)
	default:
		return StrategyDefault
	}
}

// ShapeLookup is the boundary-table surface the service depends on.
type ShapeLookup interface {
	DistrictInfo(ctx context.Context, p model.Point, types []model.DistrictType, fetchMaps bool) (*model.DistrictInfo, error)
	NearbyDistricts(ctx context.Context, t model.DistrictType, p model.Point, count int) ([]model.DistrictMetadata, error)
	DistrictOverlap(ctx context.Context, refType model.DistrictType, refCodes []string, targetType model.DistrictType, targetCodes []string, fetchMaps bool) (*model.DistrictOverlap, error)
	ReferenceBoundary(ctx context.Context, refType model.DistrictType, refCodes []string) (*model.DistrictMap, error)
	StreetLineReference(ctx context.Context, zip5s []string, street string) (*model.DistrictMap, error)
}

// StreetLookup is the street-file surface the service depends on.
type StreetLookup interface {
	AssignDistricts(ctx context.Context, sa *model.StreetAddress) (*model.DistrictInfo, error)
	DistrictMatches(ctx context.Context, zip5s []string, street string) (map[model.DistrictType][]string, error)
	StreetRanges(ctx context.Context, zip5s []string, street string) ([]model.StreetRange, error)
}

// CityZipLookup resolves a city to its zip codes for city-level matches.
type CityZipLookup interface {
	ZipsForCity(ctx context.Context, city string) ([]string, error)
}

// MemberLookup attaches elected officials to assigned districts.
type MemberLookup interface {
	Attach(ctx context.Context, info *model.DistrictInfo) ([]model.DistrictMember, error)
}

// ShapeFallback is a secondary containment source (the WFS endpoint),
// consulted when the boundary tables yield nothing for a point.
type ShapeFallback interface {
	DistrictInfo(ctx context.Context, p model.Point, types []model.DistrictType) (*model.DistrictInfo, error)
}

// nearbyCount bounds the neighbor scan used to arbitrate boundary conflicts.
const nearbyCount = 2

// Service assigns districts to geocoded addresses.
type Service struct {
	shapes    ShapeLookup
	streets   StreetLookup
	cityzip   CityZipLookup
	members   MemberLookup
	fallback  ShapeFallback
	threshold float64
}

// Option configures the Service.
type Option func(*Service)

// WithProximityThreshold overrides the boundary-uncertainty threshold,
// in planar degrees.
func WithProximityThreshold(t float64) Option {
	return func(s *Service) {
		if t > 0 {
			s.threshold = t
		}
	}
}

// WithCityZip wires the city-to-zip lookup used by city-level matches.
func WithCityZip(cz CityZipLookup) Option {
	return func(s *Service) {
		s.cityzip = cz
	}
}

// WithMembers wires member metadata onto assignment results.
func WithMembers(m MemberLookup) Option {
	return func(s *Service) {
		s.members = m
	}
}

// WithShapeFallback wires a secondary containment source behind the
// boundary tables.
func WithShapeFallback(f ShapeFallback) Option {
	return func(s *Service) {
		s.fallback = f
	}
}

// New creates a district Service.
func New(shapes ShapeLookup, streets StreetLookup, opts ...Option) *Service {
	s := &Service{
		shapes:    shapes,
		streets:   streets,
		threshold: 0.001,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request carries the per-call assignment options.
type Request struct {
	Types     []model.DistrictType
	Strategy  Strategy
	FetchMaps bool
}

func (r Request) types() []model.DistrictType {
	if len(r.Types) == 0 {
		return model.StandardTypes()
	}
	return r.Types
}

// Assign resolves districts for a geocoded address. House-level geocodes
// take the shape/street reconciliation path; anything coarser falls back to
// range-based multi-match on the street files, with the geocode quality
// capping the match granularity.
func (s *Service) Assign(ctx context.Context, ga *model.GeocodedAddress, req Request) *model.DistrictResult {
	result := model.NewDistrictResult(ga)
	if ga == nil || (!ga.ValidGeocode() && !ga.ValidAddress()) {
		result.Status = model.StatusMissingInputParams
		return result
	}

	var sa *model.StreetAddress
	if ga.ValidAddress() {
		sa = address.Parse(ga.Address)
	}

	// Coarse geocodes (city or zip centroids) never support point
	// containment. PO boxes are the exception: their zip centroid is the
	// best location they will ever have.
	if ga.ValidGeocode() && (ga.Geocode.Quality >= model.QualityHouse || sa == nil || sa.IsPoBox()) {
		s.assignByPoint(ctx, ga, sa, req, result)
	} else {
		var geo *model.Geocode
		if ga.ValidGeocode() {
			geo = ga.Geocode
		}
		s.assignMultiMatch(ctx, sa, geo, req, result)
	}

	if s.members != nil && result.Usable() {
		members, err := s.members.Attach(ctx, result.Info)
		if err != nil {
			zap.L().Warn("district: member lookup failed", zap.Error(err))
		}
		result.Members = members
	}
	return result
}

// assignByPoint is the geocode-backed path: shape containment and street
// file range match reconciled per strategy.
func (s *Service) assignByPoint(ctx context.Context, ga *model.GeocodedAddress, sa *model.StreetAddress, req Request, result *model.DistrictResult) {
	point := ga.Geocode.Point()
	strategy := req.Strategy
	types := req.types()

	var (
		shapeInfo  *model.DistrictInfo
		streetInfo *model.DistrictInfo
	)

	eg, gCtx := errgroup.WithContext(ctx)
	if strategy != StrategyStreetOnly {
		eg.Go(func() error {
			var err error
			shapeInfo, err = s.shapes.DistrictInfo(gCtx, point, types, req.FetchMaps)
			return err
		})
	}
	if strategy == StrategyDefault || strategy == StrategyStreetOnly {
		eg.Go(func() error {
			var err error
			streetInfo, err = s.streets.AssignDistricts(gCtx, sa)
			if err != nil {
				// Street files are an enrichment here; log and proceed
				// with shapes alone.
				zap.L().Warn("district: street file lookup failed", zap.Error(err))
				streetInfo = nil
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		zap.L().Error("district: shape lookup failed", zap.Error(err))
		result.Status = model.StatusDatabaseError
		return
	}

	if emptyInfo(shapeInfo) && strategy != StrategyStreetOnly && s.fallback != nil {
		fb, err := s.fallback.DistrictInfo(ctx, point, types)
		if err != nil {
			zap.L().Warn("district: shape fallback lookup failed", zap.Error(err))
		} else {
			shapeInfo = fb
		}
	}

	if strategy == StrategyStreetFallback && emptyInfo(shapeInfo) {
		var err error
		streetInfo, err = s.streets.AssignDistricts(ctx, sa)
		if err != nil {
			zap.L().Warn("district: street file fallback failed", zap.Error(err))
		}
	}

	switch {
	case emptyInfo(shapeInfo) && emptyInfo(streetInfo):
		// Nothing at all; coarse geocodes may still match by range.
		if ga.Geocode.Quality < model.QualityHouse && sa != nil {
			s.assignMultiMatch(ctx, sa, ga.Geocode, req, result)
			return
		}
		result.Status = model.StatusNoDistrictResult
		return
	case emptyInfo(shapeInfo):
		result.Info = streetInfo
		result.MatchLevel = model.MatchHouse
	default:
		result.Info = s.consolidate(ctx, point, shapeInfo, streetInfo)
		result.MatchLevel = matchLevelFor(ga.Geocode, streetInfo != nil)
	}

	assigned := result.Info.AssignedDistricts()
	switch {
	case len(assigned) == 0:
		result.Status = model.StatusNoDistrictResult
	case containsAll(assigned, types):
		result.Status = model.StatusSuccess
	default:
		result.Status = model.StatusPartialDistrictResult
	}
}

// consolidate reconciles shape containment with the street-file row. Shape
// answers win by default; near a polygon boundary the street file is
// authoritative when its code belongs to an adjacent district.
func (s *Service) consolidate(ctx context.Context, point model.Point, shapeInfo, streetInfo *model.DistrictInfo) *model.DistrictInfo {
	if streetInfo == nil {
		// No street corroboration: flag every boundary-hugging type.
		for _, t := range shapeInfo.AssignedDistricts() {
			if shapeInfo.Proximity(t) < s.threshold {
				shapeInfo.MarkUncertain(t)
			}
		}
		return shapeInfo
	}

	for _, t := range streetInfo.AssignedDistricts() {
		streetCode := streetInfo.Code(t)
		shapeCode := shapeInfo.Code(t)
		switch {
		case shapeCode == "":
			// Street-file-only types (election, ward, cleg) ride along.
			shapeInfo.SetCode(t, streetCode)
		case shapeCode == streetCode:
			// Agreement; nothing to do.
		case shapeInfo.Proximity(t) < s.threshold:
			// Conflict at the boundary: trust the street file when its
			// code names a neighboring district.
			if s.isNearby(ctx, t, point, streetCode) {
				zap.L().Debug("district: swapped to street file code",
					zap.String("type", string(t)),
					zap.String("shape", shapeCode), zap.String("street", streetCode))
				shapeInfo.SetCode(t, streetCode)
				shapeInfo.SetMap(t, nil)
			} else {
				shapeInfo.MarkUncertain(t)
			}
		default:
			zap.L().Warn("district: shape and street file disagree away from boundary",
				zap.String("type", string(t)),
				zap.String("shape", shapeCode), zap.String("street", streetCode))
			shapeInfo.MarkUncertain(t)
		}
	}

	// Shape-only types sitting on a boundary with no street corroboration.
	for _, t := range shapeInfo.AssignedDistricts() {
		if streetInfo.Code(t) == "" && shapeInfo.Proximity(t) < s.threshold {
			shapeInfo.MarkUncertain(t)
		}
	}
	return shapeInfo
}

func (s *Service) isNearby(ctx context.Context, t model.DistrictType, point model.Point, code string) bool {
	nearby, err := s.shapes.NearbyDistricts(ctx, t, point, nearbyCount)
	if err != nil {
		zap.L().Warn("district: nearby lookup failed", zap.Error(err))
		return false
	}
	for _, n := range nearby {
		if n.Code == code {
			return true
		}
	}
	return false
}

func emptyInfo(info *model.DistrictInfo) bool {
	return info == nil || len(info.AssignedDistricts()) == 0
}

func matchLevelFor(geo *model.Geocode, streetMatched bool) model.MatchLevel {
	if streetMatched || geo.Quality >= model.QualityHouse {
		return model.MatchHouse
	}
	switch {
	case geo.Quality >= model.QualityStreet:
		return model.MatchStreet
	case geo.Quality >= model.QualityZip:
		return model.MatchZip5
	default:
		return model.MatchCity
	}
}

func containsAll(assigned []model.DistrictType, wanted []model.DistrictType) bool {
	set := make(map[model.DistrictType]bool, len(assigned))
	for _, t := range assigned {
		set[t] = true
	}
	for _, t := range wanted {
		if !set[t] {
			return false
		}
	}
	return true
}
