package cityzip

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZipsForCity(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT DISTINCT zip5 FROM public\.cityzip`).
		WithArgs("BUFFALO").
		WillReturnRows(pgxmock.NewRows([]string{"zip5"}).
			AddRow("14201").AddRow("14202").AddRow("14203"))

	dao := NewDAO(mock)
	zips, err := dao.ZipsForCity(context.Background(), "  buffalo ")
	require.NoError(t, err)
	assert.Equal(t, []string{"14201", "14202", "14203"}, zips)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestZipsForCityEmptyInput(t *testing.T) {
	dao := NewDAO(nil)
	zips, err := dao.ZipsForCity(context.Background(), "   ")
	require.NoError(t, err)
	assert.Empty(t, zips)
}

func TestZipsForCityUnknown(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT DISTINCT zip5 FROM public\.cityzip`).
		WithArgs("NOWHERE").
		WillReturnRows(pgxmock.NewRows([]string{"zip5"}))

	dao := NewDAO(mock)
	zips, err := dao.ZipsForCity(context.Background(), "Nowhere")
	require.NoError(t, err)
	assert.Empty(t, zips)
}

func TestCityForZip(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT city FROM public\.cityzip`).
		WithArgs("12203").
		WillReturnRows(pgxmock.NewRows([]string{"city"}).AddRow("ALBANY"))

	dao := NewDAO(mock)
	city, err := dao.CityForZip(context.Background(), "12203")
	require.NoError(t, err)
	assert.Equal(t, "ALBANY", city)
}

func TestCityForZipUnknown(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT city FROM public\.cityzip`).
		WithArgs("99999").
		WillReturnError(pgx.ErrNoRows)

	dao := NewDAO(mock)
	city, err := dao.CityForZip(context.Background(), "99999")
	require.NoError(t, err)
	assert.Empty(t, city)
}
