package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveType(t *testing.T) {
	assert.Equal(t, Senate, ResolveType("senate"))
	assert.Equal(t, Senate, ResolveType(" SENATE "))
	assert.Equal(t, CityCouncil, ResolveType("cleg"))
	assert.Equal(t, DistrictType(""), ResolveType("precinct"))
}

func TestDistrictInfoAccessors(t *testing.T) {
	info := NewDistrictInfo()

	assert.Empty(t, info.Code(Senate))
	assert.Empty(t, info.Name(Senate))
	assert.Nil(t, info.Map(Senate))
	assert.Equal(t, math.MaxFloat64, info.Proximity(Senate))

	info.SetCode(Senate, "44")
	info.SetName(Senate, "State Senate District 44")
	info.SetProximity(Senate, 0.0005)

	assert.Equal(t, "44", info.Code(Senate))
	assert.Equal(t, "State Senate District 44", info.Name(Senate))
	assert.InDelta(t, 0.0005, info.Proximity(Senate), 1e-12)
}

func TestAssignedDistrictsSortedAndNonEmpty(t *testing.T) {
	info := NewDistrictInfo()
	info.SetCode(Town, "-ALBAN")
	info.SetCode(Senate, "44")
	// A name without a code does not count as assigned.
	info.SetName(County, "Albany")

	assert.Equal(t, []DistrictType{Senate, Town}, info.AssignedDistricts())
}

func TestUncertainDistricts(t *testing.T) {
	info := NewDistrictInfo()
	info.MarkUncertain(Town)
	info.MarkUncertain(Senate)

	assert.True(t, info.Uncertain(Senate))
	assert.False(t, info.Uncertain(County))
	assert.Equal(t, []DistrictType{Senate, Town}, info.UncertainDistricts())
}

func TestOverlapTypes(t *testing.T) {
	info := NewDistrictInfo()
	info.SetOverlap(Senate, NewDistrictOverlap(ZipDistrict, Senate, []string{"12203"}))
	info.SetCode(County, "01")

	assert.Equal(t, []DistrictType{Senate}, info.OverlapTypes())
	assert.NotNil(t, info.Overlap(Senate))
	assert.Nil(t, info.Overlap(County))
}

func TestTargetCodesOrdering(t *testing.T) {
	o := NewDistrictOverlap(ZipDistrict, Senate, []string{"12203"})
	o.TargetOverlap["46"] = 2.5e8
	o.TargetOverlap["44"] = 7.5e8
	o.TargetOverlap["43"] = 2.5e8

	// Largest area first; ties break on code ascending.
	assert.Equal(t, []string{"44", "43", "46"}, o.TargetCodes())
}

func TestDistrictMapEmpty(t *testing.T) {
	var m *DistrictMap
	assert.True(t, m.Empty())
	assert.True(t, (&DistrictMap{}).Empty())
	assert.False(t, (&DistrictMap{Polygons: []Polygon{{}}}).Empty())
}
