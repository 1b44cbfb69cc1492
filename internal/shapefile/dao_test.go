package shapefile

import (
	"context"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefancrain/GeoApi/internal/model"
)

var albany = model.Point{Lat: 42.6526, Lon: -73.7562}

func countyMapRows(mock pgxmock.PgxPoolIface) *pgxmock.Rows {
	return mock.NewRows([]string{"fips_code", "county_code", "county_name"}).
		AddRow("001", "01", "Albany").
		AddRow("083", "42", "Rensselaer")
}

func TestDistrictInfo(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := mock.NewRows([]string{"type", "name", "code", "map", "proximity"}).
		AddRow("senate", "NY Senate District 44", "044", []byte(nil), 2500.0).
		AddRow("assembly", "NY Assembly District 109", "109", []byte(nil), 1800.0).
		AddRow("county", "Albany County", "001", []byte(nil), 9000.0)

	mock.ExpectQuery(`FROM public.districts_map`).
		WillReturnRows(countyMapRows(mock))
	mock.ExpectQuery(`SELECT 'senate' AS type.+UNION ALL.+SELECT 'assembly' AS type`).
		WithArgs(albany.Lon, albany.Lat).
		WillReturnRows(rows)

	dao := NewDAO(mock)
	info, err := dao.DistrictInfo(context.Background(), albany,
		[]model.DistrictType{model.Senate, model.Assembly, model.County}, false)
	require.NoError(t, err)

	assert.Equal(t, "44", info.Code(model.Senate))
	assert.Equal(t, "109", info.Code(model.Assembly))
	// The county polygon is keyed by FIPS; the result carries the internal code.
	assert.Equal(t, "1", info.Code(model.County))
	assert.Equal(t, "Albany", info.Name(model.County))
	assert.Equal(t, "NY Senate District 44", info.Name(model.Senate))
	assert.InDelta(t, 2500.0, info.Proximity(model.Senate), 0.01)
	assert.Nil(t, info.Map(model.Senate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDistrictInfoCountyTranslationCached(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM public.districts_map`).
		WillReturnRows(countyMapRows(mock))
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`SELECT 'county' AS type`).
			WithArgs(albany.Lon, albany.Lat).
			WillReturnRows(mock.NewRows([]string{"type", "name", "code", "map", "proximity"}).
				AddRow("county", "Rensselaer County", "083", []byte(nil), 5000.0))
	}

	dao := NewDAO(mock)
	for i := 0; i < 2; i++ {
		info, err := dao.DistrictInfo(context.Background(), albany,
			[]model.DistrictType{model.County}, false)
		require.NoError(t, err)
		assert.Equal(t, "42", info.Code(model.County))
		assert.Equal(t, "Rensselaer", info.Name(model.County))
	}
	// The translation table was read once; the second call hit the cache.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountyForFIPS(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM public.districts_map`).
		WillReturnRows(countyMapRows(mock))

	dao := NewDAO(mock)
	code, name, err := dao.CountyForFIPS(context.Background(), "083")
	require.NoError(t, err)
	assert.Equal(t, "42", code)
	assert.Equal(t, "Rensselaer", name)

	_, _, err = dao.CountyForFIPS(context.Background(), "999")
	assert.Error(t, err)
}

func TestDistrictInfoWithMaps(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	geo := []byte(`{"type":"Polygon","coordinates":[[[-74.0,42.0],[-73.0,42.0],[-73.0,43.0],[-74.0,43.0],[-74.0,42.0]]]}`)
	rows := mock.NewRows([]string{"type", "name", "code", "map", "proximity"}).
		AddRow("senate", "NY Senate District 44", "44", geo, 2500.0)

	mock.ExpectQuery(`ST_AsGeoJSON\(geom\)`).
		WithArgs(albany.Lon, albany.Lat).
		WillReturnRows(rows)

	dao := NewDAO(mock)
	info, err := dao.DistrictInfo(context.Background(), albany,
		[]model.DistrictType{model.Senate}, true)
	require.NoError(t, err)

	m := info.Map(model.Senate)
	require.NotNil(t, m)
	assert.Equal(t, "Polygon", m.GeometryType)
	require.Len(t, m.Polygons, 1)
	require.Len(t, m.Polygons[0].Points, 5)
	// GeoJSON is (lon, lat); the map stores (lat, lon).
	assert.InDelta(t, 42.0, m.Polygons[0].Points[0].Lat, 0.0001)
	assert.InDelta(t, -74.0, m.Polygons[0].Points[0].Lon, 0.0001)
	assert.Equal(t, "44", m.Metadata.Code)
}

func TestDistrictInfoNoShapeTypes(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	dao := NewDAO(mock)
	// Election districts have no boundary table, so no query is issued.
	info, err := dao.DistrictInfo(context.Background(), albany,
		[]model.DistrictType{model.Election}, false)
	require.NoError(t, err)
	assert.Empty(t, info.AssignedDistricts())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNearbyDistricts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := mock.NewRows([]string{"name", "code"}).
		AddRow("NY Senate District 46", "046").
		AddRow("NY Senate District 43", "043")

	mock.ExpectQuery(`FROM districts.senate`).
		WithArgs(albany.Lon, albany.Lat, 2).
		WillReturnRows(rows)

	dao := NewDAO(mock)
	nearby, err := dao.NearbyDistricts(context.Background(), model.Senate, albany, 2)
	require.NoError(t, err)
	require.Len(t, nearby, 2)
	assert.Equal(t, "46", nearby[0].Code)
	assert.Equal(t, "43", nearby[1].Code)
}

func TestDistrictOverlap(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := mock.NewRows([]string{"code", "overlap_area", "total_area", "intersect_map"}).
		AddRow("044", 7.5e8, 1.0e9, []byte(nil)).
		AddRow("046", 2.5e8, 1.0e9, []byte(nil)).
		AddRow("043", 0.0, 1.0e9, []byte(nil))

	mock.ExpectQuery(`ST_Area\(ST_Transform\(ST_Intersection`).
		WithArgs([]string{"12203", "12206"}).
		WillReturnRows(rows)

	dao := NewDAO(mock)
	overlap, err := dao.DistrictOverlap(context.Background(),
		model.ZipDistrict, []string{"12203", "12206"}, model.Senate, nil, false)
	require.NoError(t, err)

	// Zero-area edge neighbors are dropped when target codes were not pinned.
	assert.Equal(t, []string{"44", "46"}, overlap.TargetCodes())
	assert.InDelta(t, 1.0e9, overlap.TotalArea, 1)
	assert.InDelta(t, 7.5e8, overlap.TargetOverlap["44"], 1)
}

func TestNearbyDistrictsTranslatesCountyFIPS(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`FROM public.districts_map`).
		WillReturnRows(countyMapRows(mock))
	mock.ExpectQuery(`FROM districts.county`).
		WithArgs(albany.Lon, albany.Lat, 2).
		WillReturnRows(mock.NewRows([]string{"name", "code"}).
			AddRow("Rensselaer County", "083"))

	dao := NewDAO(mock)
	nearby, err := dao.NearbyDistricts(context.Background(), model.County, albany, 2)
	require.NoError(t, err)
	require.Len(t, nearby, 1)
	assert.Equal(t, "42", nearby[0].Code)
	assert.Equal(t, "Rensselaer", nearby[0].Name)
}

func TestStreetLineReference(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	line := []byte(`{"type":"MultiLineString","coordinates":[[[-73.76,42.65],[-73.75,42.66]]]}`)
	mock.ExpectQuery(`FROM tiger_data.ny_edges`).
		WithArgs([]string{"12203"}, "WASHINGTON AVE").
		WillReturnRows(mock.NewRows([]string{"st_asgeojson"}).AddRow(line))

	dao := NewDAO(mock)
	m, err := dao.StreetLineReference(context.Background(), []string{"12203"}, "WASHINGTON AVE")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "MultiLineString", m.GeometryType)
	require.Len(t, m.Polygons, 1)
	assert.InDelta(t, 42.65, m.Polygons[0].Points[0].Lat, 1e-9)
	assert.Equal(t, "WASHINGTON AVE", m.Metadata.Name)
}

func TestStreetLineReferenceEmptyInput(t *testing.T) {
	dao := NewDAO(nil)
	m, err := dao.StreetLineReference(context.Background(), nil, "WASHINGTON AVE")
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestTrimCode(t *testing.T) {
	assert.Equal(t, "44", TrimCode("044"))
	assert.Equal(t, "44", TrimCode("44"))
	assert.Equal(t, "1", TrimCode("01"))
	assert.Equal(t, "0", TrimCode("000"))
	assert.Equal(t, "", TrimCode(""))
	assert.Equal(t, "12", TrimCode(" 012 "))
}

func TestDecodeDistrictMapMultiPolygon(t *testing.T) {
	raw := []byte(`{"type":"MultiPolygon","coordinates":[
		[[[-74.0,42.0],[-73.5,42.0],[-73.5,42.5],[-74.0,42.0]]],
		[[[-73.4,42.6],[-73.2,42.6],[-73.2,42.8],[-73.4,42.6]]]]}`)
	m, err := decodeDistrictMap(raw)
	require.NoError(t, err)
	assert.Equal(t, "MultiPolygon", m.GeometryType)
	assert.Len(t, m.Polygons, 2)
}

func TestDecodeDistrictMapRejectsPoint(t *testing.T) {
	_, err := decodeDistrictMap([]byte(`{"type":"Point","coordinates":[-73.7,42.6]}`))
	assert.Error(t, err)
}
