package server

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/stefancrain/GeoApi/internal/model"
)

// districtView is the serialized form of one resolved district.
type districtView struct {
	Type    string             `json:"type"`
	Name    string             `json:"name,omitempty"`
	Code    string             `json:"code,omitempty"`
	Map     *model.DistrictMap `json:"map,omitempty"`
	Overlap *overlapView       `json:"overlap,omitempty"`
}

// overlapView serializes a multi-match intersection breakdown.
type overlapView struct {
	RefType       string             `json:"refType"`
	RefCodes      []string           `json:"refCodes"`
	TotalArea     float64            `json:"totalArea"`
	Intersections []intersectionView `json:"intersections"`
}

type intersectionView struct {
	Code string             `json:"code"`
	Area float64            `json:"area"`
	Map  *model.DistrictMap `json:"map,omitempty"`
}

// districtResponse is the JSON envelope for assignment results.
type districtResponse struct {
	Status      string                 `json:"status"`
	Description string                 `json:"description"`
	Address     *model.Address         `json:"address,omitempty"`
	Geocode     *model.Geocode         `json:"geocode,omitempty"`
	Districts   []districtView         `json:"districts"`
	MatchLevel  string                 `json:"matchLevel"`
	Uncertain   []string               `json:"uncertain,omitempty"`
	Members     []model.DistrictMember `json:"members,omitempty"`
	RefMap      *model.DistrictMap     `json:"referenceMap,omitempty"`
	StreetLine  *model.DistrictMap     `json:"streetLine,omitempty"`
	Ranges      []model.StreetRange    `json:"streetRanges,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// addressResponse is the JSON envelope for address correction results.
type addressResponse struct {
	Status      string         `json:"status"`
	Description string         `json:"description"`
	Address     *model.Address `json:"address,omitempty"`
	Validated   bool           `json:"validated"`
	Messages    []string       `json:"messages,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// geocodeResponse is the JSON envelope for geocode results.
type geocodeResponse struct {
	Status      string         `json:"status"`
	Description string         `json:"description"`
	Address     *model.Address `json:"address,omitempty"`
	Geocode     *model.Geocode `json:"geocode,omitempty"`
	Source      string         `json:"source,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Status      string `json:"status"`
	Description string `json:"description"`
}

func districtResponseOf(r *model.DistrictResult) districtResponse {
	resp := districtResponse{
		Status:      string(r.Status),
		Description: r.Status.Message(),
		Address:     r.Address(),
		Geocode:     r.Geocode(),
		Districts:   []districtView{},
		MatchLevel:  string(r.MatchLevel),
		Members:     r.Members,
		Timestamp:   r.Timestamp,
	}
	if r.Info == nil {
		return resp
	}
	for _, t := range r.Info.AssignedDistricts() {
		resp.Districts = append(resp.Districts, viewOf(r.Info, t))
	}
	// Multi-match types carry an overlap without a definite code.
	for _, t := range r.Info.OverlapTypes() {
		if r.Info.Code(t) == "" {
			resp.Districts = append(resp.Districts, viewOf(r.Info, t))
		}
	}
	for _, t := range r.Info.UncertainDistricts() {
		resp.Uncertain = append(resp.Uncertain, string(t))
	}
	resp.RefMap = r.Info.RefMap
	resp.StreetLine = r.Info.StreetLine
	resp.Ranges = r.Info.StreetRanges
	return resp
}

func viewOf(info *model.DistrictInfo, t model.DistrictType) districtView {
	v := districtView{
		Type: string(t),
		Name: info.Name(t),
		Code: info.Code(t),
		Map:  info.Map(t),
	}
	if o := info.Overlap(t); o != nil {
		ov := &overlapView{
			RefType:   string(o.RefType),
			RefCodes:  o.RefCodes,
			TotalArea: o.TotalArea,
		}
		for _, code := range o.TargetCodes() {
			ov.Intersections = append(ov.Intersections, intersectionView{
				Code: code,
				Area: o.TargetOverlap[code],
				Map:  o.IntersectMaps[code],
			})
		}
		v.Overlap = ov
	}
	return v
}

func addressResponseOf(r *model.AddressResult) addressResponse {
	return addressResponse{
		Status:      string(r.Status),
		Description: r.Status.Message(),
		Address:     r.Address,
		Validated:   r.Validated,
		Messages:    r.Messages,
		Timestamp:   r.Timestamp,
	}
}

func geocodeResponseOf(r *model.GeocodeResult) geocodeResponse {
	resp := geocodeResponse{
		Status:      string(r.Status),
		Description: r.Status.Message(),
		Geocode:     r.Geocode(),
		Source:      r.Source,
		Timestamp:   r.Timestamp,
	}
	if r.GeocodedAddress != nil {
		resp.Address = r.GeocodedAddress.Address
	}
	return resp
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, status model.Status) {
	writeJSON(w, code, errorResponse{Status: string(status), Description: status.Message()})
}
