package district

import (
	"context"

	"go.uber.org/zap"

	"github.com/stefancrain/GeoApi/internal/model"
)

// assignMultiMatch resolves districts without a house-level geocode by
// scanning street-file ranges at street, zip, or city granularity. When a
// geocode exists its quality caps the granularity: street-level matching
// needs STREET quality, zip needs ZIP, city needs CITY; anything coarser
// yields no match. A type whose ranges all carry one code is assigned
// outright; a type spanning several codes gets an intersection overlap
// attached instead of a code.
func (s *Service) assignMultiMatch(ctx context.Context, sa *model.StreetAddress, geo *model.Geocode, req Request, result *model.DistrictResult) {
	if sa == nil {
		result.Status = model.StatusInsufficientAddress
		return
	}
	gated := geo != nil
	var quality model.GeocodeQuality
	if gated {
		quality = geo.Quality
	}

	var (
		zips  []string
		level model.MatchLevel
	)
	street := ""
	switch {
	case sa.Zip5 != "" && (!gated || quality >= model.QualityZip):
		zips = []string{sa.Zip5}
		level = model.MatchZip5
		if !sa.StreetEmpty() && (!gated || quality >= model.QualityStreet) {
			street = streetKeyOf(sa)
			level = model.MatchStreet
		}
	case sa.Location != "" && (!gated || quality >= model.QualityCity):
		cityZips, err := s.zipsForCity(ctx, sa.Location)
		if err != nil {
			result.Status = model.StatusDatabaseError
			return
		}
		if len(cityZips) == 0 {
			result.Status = model.StatusInsufficientAddress
			return
		}
		zips = cityZips
		level = model.MatchCity
	default:
		// Either the address carries nothing to range-match on, or the
		// geocode is too coarse to trust what it carries.
		if gated {
			result.Status = model.StatusNoDistrictResult
		} else {
			result.Status = model.StatusInsufficientAddress
		}
		return
	}

	matches, err := s.streets.DistrictMatches(ctx, zips, street)
	if err != nil {
		zap.L().Error("district: multi-match scan failed", zap.Error(err))
		result.Status = model.StatusDatabaseError
		return
	}
	if len(matches) == 0 && street != "" {
		// Street not in the files; retry at zip granularity.
		level = model.MatchZip5
		street = ""
		matches, err = s.streets.DistrictMatches(ctx, zips, "")
		if err != nil {
			result.Status = model.StatusDatabaseError
			return
		}
	}
	if len(matches) == 0 {
		result.Status = model.StatusNoDistrictResult
		return
	}

	multi := false
	for _, t := range req.types() {
		codes := matches[t]
		switch len(codes) {
		case 0:
			// Below-threshold granularity for this type.
		case 1:
			result.Info.SetCode(t, codes[0])
		default:
			// Several codes and no house number to pick one. The code stays
			// unset; the overlap shows the split.
			multi = true
			s.attachOverlap(ctx, result.Info, t, zips, codes, req.FetchMaps && t == model.Senate)
		}
	}

	// Senate always carries its overlap so callers can show the split even
	// when the seat resolved to a single code.
	if result.Info.Overlap(model.Senate) == nil {
		if codes := matches[model.Senate]; len(codes) > 0 {
			s.attachOverlap(ctx, result.Info, model.Senate, zips, codes, req.FetchMaps)
		}
	}

	if level == model.MatchStreet {
		s.attachStreetReference(ctx, result.Info, zips, street)
	}
	if level == model.MatchCity || level == model.MatchZip5 {
		if ref, err := s.shapes.ReferenceBoundary(ctx, model.ZipDistrict, zips); err != nil {
			zap.L().Debug("district: reference boundary unavailable", zap.Error(err))
		} else {
			result.Info.RefMap = ref
		}
	}

	result.MatchLevel = level
	switch {
	case len(result.Info.AssignedDistricts()) > 0:
		result.Status = model.StatusSuccess
	case multi:
		result.Status = model.StatusMultipleDistrictResult
	default:
		result.Status = model.StatusNoDistrictResult
	}
}

func (s *Service) attachOverlap(ctx context.Context, info *model.DistrictInfo, t model.DistrictType, zips, codes []string, fetchMaps bool) {
	overlap, err := s.shapes.DistrictOverlap(ctx, model.ZipDistrict, zips, t, codes, fetchMaps)
	if err != nil {
		zap.L().Warn("district: overlap computation failed",
			zap.String("type", string(t)), zap.Error(err))
		return
	}
	info.SetOverlap(t, overlap)
	// The intersection can rule out candidates whose ranges never touch the
	// reference region. Senate alone assigns on that evidence, and only when
	// exactly one district remains.
	if t == model.Senate && info.Code(t) == "" {
		if ranked := overlap.TargetCodes(); len(ranked) == 1 {
			info.SetCode(t, ranked[0])
		}
	}
}

// attachStreetReference decorates street-level results with the matched
// street's range rows and line geometry.
func (s *Service) attachStreetReference(ctx context.Context, info *model.DistrictInfo, zips []string, street string) {
	ranges, err := s.streets.StreetRanges(ctx, zips, street)
	if err != nil {
		zap.L().Debug("district: street ranges unavailable", zap.Error(err))
	} else {
		info.StreetRanges = ranges
	}
	line, err := s.shapes.StreetLineReference(ctx, zips, street)
	if err != nil {
		zap.L().Debug("district: street line unavailable", zap.Error(err))
	} else {
		info.StreetLine = line
	}
}

func (s *Service) zipsForCity(ctx context.Context, city string) ([]string, error) {
	if s.cityzip == nil {
		return nil, nil
	}
	zips, err := s.cityzip.ZipsForCity(ctx, city)
	if err != nil {
		zap.L().Error("district: city zip lookup failed", zap.Error(err))
		return nil, err
	}
	return zips, nil
}

func streetKeyOf(sa *model.StreetAddress) string {
	return sa.Street()
}
