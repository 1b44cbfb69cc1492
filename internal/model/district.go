package model

import (
	"math"
	"sort"
	"strings"
)

// DistrictType identifies a kind of political or administrative district.
type DistrictType string

const (
	Senate        DistrictType = "senate"
	Assembly      DistrictType = "assembly"
	Congressional DistrictType = "congressional"
	County        DistrictType = "county"
	School        DistrictType = "school"
	Town          DistrictType = "town"
	Election      DistrictType = "election"
	Fire          DistrictType = "fire"
	Village       DistrictType = "village"
	CityCouncil   DistrictType = "cleg"
	Ward          DistrictType = "ward"
	ZipDistrict   DistrictType = "zip"
)

// StandardTypes lists the district types resolved by default on every request.
func StandardTypes() []DistrictType {
	return []DistrictType{Senate, Assembly, Congressional, County, School, Town}
}

// AllTypes lists every district type known to the system, including those
// that only street files carry.
func AllTypes() []DistrictType {
	return []DistrictType{
		Senate, Assembly, Congressional, County, School, Town,
		Election, Fire, Village, CityCouncil, Ward, ZipDistrict,
	}
}

// ResolveType maps a case-insensitive tag to a DistrictType, or "".
func ResolveType(s string) DistrictType {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range AllTypes() {
		if string(t) == s {
			return t
		}
	}
	return ""
}

// DistrictMetadata carries the identifying fields of a district, embedded in
// cached maps so consumers can label geometry without a second lookup. The
// back-reference is a data copy, not ownership.
type DistrictMetadata struct {
	Type DistrictType `json:"type"`
	Name string       `json:"name"`
	Code string       `json:"code"`
}

// DistrictMap is a district boundary geometry: a geometry-type tag and an
// ordered list of closed rings.
type DistrictMap struct {
	GeometryType string            `json:"geometryType"`
	Polygons     []Polygon         `json:"polygons"`
	Metadata     *DistrictMetadata `json:"districtMetadata,omitempty"`
}

// Empty reports whether the map holds no geometry.
func (m *DistrictMap) Empty() bool {
	return m == nil || len(m.Polygons) == 0
}

// DistrictOverlap records the intersection areas between a set of target
// districts and the union of a set of reference districts. Areas are in
// square meters, projected to the UTM zone of the reference centroid.
type DistrictOverlap struct {
	RefType       DistrictType            `json:"refType"`
	TargetType    DistrictType            `json:"targetType"`
	RefCodes      []string                `json:"refCodes"`
	TotalArea     float64                 `json:"totalArea"`
	TargetOverlap map[string]float64      `json:"targetOverlap"`
	IntersectMaps map[string]*DistrictMap `json:"-"`
}

// NewDistrictOverlap constructs an empty overlap record.
func NewDistrictOverlap(refType, targetType DistrictType, refCodes []string) *DistrictOverlap {
	return &DistrictOverlap{
		RefType:       refType,
		TargetType:    targetType,
		RefCodes:      refCodes,
		TargetOverlap: make(map[string]float64),
		IntersectMaps: make(map[string]*DistrictMap),
	}
}

// TargetCodes returns the intersecting target codes, largest area first.
func (o *DistrictOverlap) TargetCodes() []string {
	codes := make([]string, 0, len(o.TargetOverlap))
	for code := range o.TargetOverlap {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		ai, aj := o.TargetOverlap[codes[i]], o.TargetOverlap[codes[j]]
		if ai != aj {
			return ai > aj
		}
		return codes[i] < codes[j]
	})
	return codes
}

// districtEntry is the per-type slot inside DistrictInfo.
type districtEntry struct {
	Name      string
	Code      string
	Map       *DistrictMap
	Proximity float64
	Overlap   *DistrictOverlap
}

// DistrictInfo maps district types to their resolved name, code, optional
// boundary map, boundary proximity, and optional overlap record. It also
// tracks which types are uncertain because the geocode fell within the
// proximity threshold of the polygon boundary.
type DistrictInfo struct {
	entries   map[DistrictType]*districtEntry
	uncertain map[DistrictType]bool
	// RefMap is the unioned reference boundary attached on multi-match
	// city/zip level results.
	RefMap *DistrictMap
	// StreetLine and StreetRanges describe the matched street on
	// street-level multi-match results.
	StreetLine   *DistrictMap
	StreetRanges []StreetRange
}

// NewDistrictInfo returns an empty DistrictInfo.
func NewDistrictInfo() *DistrictInfo {
	return &DistrictInfo{
		entries:   make(map[DistrictType]*districtEntry),
		uncertain: make(map[DistrictType]bool),
	}
}

func (d *DistrictInfo) entry(t DistrictType) *districtEntry {
	e, ok := d.entries[t]
	if !ok {
		e = &districtEntry{Proximity: math.MaxFloat64}
		d.entries[t] = e
	}
	return e
}

// SetCode records a district code for a type.
func (d *DistrictInfo) SetCode(t DistrictType, code string) { d.entry(t).Code = code }

// Code returns the code assigned to a type, or "".
func (d *DistrictInfo) Code(t DistrictType) string {
	if e, ok := d.entries[t]; ok {
		return e.Code
	}
	return ""
}

// SetName records a district name for a type.
func (d *DistrictInfo) SetName(t DistrictType, name string) { d.entry(t).Name = name }

// Name returns the name assigned to a type, or "".
func (d *DistrictInfo) Name(t DistrictType) string {
	if e, ok := d.entries[t]; ok {
		return e.Name
	}
	return ""
}

// SetMap attaches a boundary map to a type.
func (d *DistrictInfo) SetMap(t DistrictType, m *DistrictMap) { d.entry(t).Map = m }

// Map returns the boundary map attached to a type, or nil.
func (d *DistrictInfo) Map(t DistrictType) *DistrictMap {
	if e, ok := d.entries[t]; ok {
		return e.Map
	}
	return nil
}

// SetProximity records the boundary proximity for a type.
func (d *DistrictInfo) SetProximity(t DistrictType, p float64) { d.entry(t).Proximity = p }

// Proximity returns the boundary proximity for a type, or MaxFloat64 when
// the type was never assigned.
func (d *DistrictInfo) Proximity(t DistrictType) float64 {
	if e, ok := d.entries[t]; ok {
		return e.Proximity
	}
	return math.MaxFloat64
}

// SetOverlap attaches an overlap record to a type.
func (d *DistrictInfo) SetOverlap(t DistrictType, o *DistrictOverlap) { d.entry(t).Overlap = o }

// Overlap returns the overlap record attached to a type, or nil.
func (d *DistrictInfo) Overlap(t DistrictType) *DistrictOverlap {
	if e, ok := d.entries[t]; ok {
		return e.Overlap
	}
	return nil
}

// AssignedDistricts returns the types that carry a non-empty code, sorted
// for deterministic iteration.
func (d *DistrictInfo) AssignedDistricts() []DistrictType {
	var types []DistrictType
	for t, e := range d.entries {
		if e.Code != "" {
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// MarkUncertain flags a type as boundary-uncertain.
func (d *DistrictInfo) MarkUncertain(t DistrictType) { d.uncertain[t] = true }

// Uncertain reports whether a type was flagged boundary-uncertain.
func (d *DistrictInfo) Uncertain(t DistrictType) bool { return d.uncertain[t] }

// UncertainDistricts returns the flagged types, sorted.
func (d *DistrictInfo) UncertainDistricts() []DistrictType {
	var types []DistrictType
	for t := range d.uncertain {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// OverlapTypes returns the types that carry an overlap record, sorted.
func (d *DistrictInfo) OverlapTypes() []DistrictType {
	var types []DistrictType
	for t, e := range d.entries {
		if e.Overlap != nil {
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// StreetRange is one street-file row's address range.
type StreetRange struct {
	Street string `json:"street"`
	Town   string `json:"town"`
	Zip5   string `json:"zip5"`
	BldgLo int    `json:"bldgLo"`
	BldgHi int    `json:"bldgHi"`
	Parity string `json:"parity"`
	Senate string `json:"senate"`
}

// DistrictMember is elected-official metadata attached to a resolved district.
type DistrictMember struct {
	Type     DistrictType `json:"type"`
	Code     string       `json:"code"`
	Name     string       `json:"name"`
	URL      string       `json:"url,omitempty"`
	ImageURL string       `json:"imageUrl,omitempty"`
}
