// Package shapeload ingests census district shapefiles into the PostGIS
// boundary tables that back district assignment.
package shapeload

import (
	"strings"

	"github.com/stefancrain/GeoApi/internal/model"
)

// Source describes one district shapefile product: the boundary table it
// loads and the attribute fields carrying the district name and code.
type Source struct {
	Type      model.DistrictType
	Table     string
	NameField string
	CodeField string
}

// sources maps district types to their TIGER/LINE shapefile layout.
var sources = map[model.DistrictType]Source{
	model.Senate:        {model.Senate, "districts.senate", "NAMELSAD", "SLDUST"},
	model.Assembly:      {model.Assembly, "districts.assembly", "NAMELSAD", "SLDLST"},
	model.Congressional: {model.Congressional, "districts.congressional", "NAMELSAD", "CD118FP"},
	model.County:        {model.County, "districts.county", "NAME", "COUNTYFP"},
	model.School:        {model.School, "districts.school", "NAME", "UNSDLEA"},
	model.Town:          {model.Town, "districts.town", "NAME", "COUSUBFP"},
	model.Village:       {model.Village, "districts.village", "NAME", "PLACEFP"},
	model.ZipDistrict:   {model.ZipDistrict, "districts.zip", "ZCTA5CE20", "ZCTA5CE20"},
}

// SourceFor resolves a district type tag to its shapefile source.
func SourceFor(tag string) (Source, bool) {
	t := model.ResolveType(strings.TrimSpace(tag))
	src, ok := sources[t]
	return src, ok
}
