package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonsonwune/flights_db/models"
)

func sampleDataset() *models.Dataset {
	return &models.Dataset{
		Airlines: []models.Airline{{ID: 1, Name: "A"}},
		Routes: []models.Route{
			{ID: 1, Source: "X", Destination: "Y"},
			{ID: 2, Source: "X", Destination: "Z"},
		},
		Flights: []models.Flight{
			{
				ID:         1,
				FlightCode: "F1",
				AirlineID:  sql.NullInt64{Int64: 1, Valid: true},
				RouteID:    sql.NullInt64{Int64: 1, Valid: true},
				DepTime:    "10:00",
				ArrTime:    "12:00",
				TotalStops: sql.NullInt64{Int64: 0, Valid: true},
				Price:      sql.NullFloat64{Float64: 5953, Valid: true},
			},
			{
				ID:         2,
				FlightCode: "F2",
				RouteID:    sql.NullInt64{Int64: 2, Valid: true},
				DepTime:    "11:00",
				ArrTime:    "13:00",
			},
		},
	}
}

func readFlights(t *testing.T, db *sql.DB) []models.Flight {
	t.Helper()
	rows, err := db.Query(`SELECT flight_id, flight_code, airline_id, route_id, dep_time, arr_time, total_stops, price
		FROM flights ORDER BY flight_id`)
	require.NoError(t, err)
	defer rows.Close()

	var flights []models.Flight
	for rows.Next() {
		var f models.Flight
		require.NoError(t, rows.Scan(&f.ID, &f.FlightCode, &f.AirlineID, &f.RouteID,
			&f.DepTime, &f.ArrTime, &f.TotalStops, &f.Price))
		flights = append(flights, f)
	}
	require.NoError(t, rows.Err())
	return flights
}

func TestSQLite_WriteAndRead(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flights.db")
	ds := sampleDataset()

	written := 0
	require.NoError(t, NewSQLite(path).Write(ctx, ds, func(n int) { written += n }))
	assert.Equal(t, ds.RowCount(), written)

	db, err := OpenReadOnly(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	counts, err := TableCounts(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"airlines": 1, "routes": 2, "flights": 2}, counts)

	assert.Equal(t, ds.Flights, readFlights(t, db))

	var name string
	require.NoError(t, db.QueryRow(`SELECT airline_name FROM airlines WHERE airline_id = 1`).Scan(&name))
	assert.Equal(t, "A", name)
}

func TestSQLite_RerunIsIdentical(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flights.db")
	s := NewSQLite(path)

	require.NoError(t, s.Write(ctx, sampleDataset(), nil))
	db, err := OpenReadOnly(ctx, path)
	require.NoError(t, err)
	first := readFlights(t, db)
	db.Close()

	require.NoError(t, s.Write(ctx, sampleDataset(), nil))
	db, err = OpenReadOnly(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, first, readFlights(t, db))
}

func TestSQLite_FailedWriteKeepsPreviousStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "flights.db")
	s := NewSQLite(path)
	require.NoError(t, s.Write(ctx, sampleDataset(), nil))

	bad := sampleDataset()
	bad.Airlines = append(bad.Airlines, models.Airline{ID: 1, Name: "duplicate id"})
	err := s.Write(ctx, bad, nil)
	require.Error(t, err)

	db, err := OpenReadOnly(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	counts, err := TableCounts(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["airlines"])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are cleaned up")
	assert.Equal(t, "flights.db", entries[0].Name())
}

func TestSQLite_DanglingForeignKeyRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flights.db")
	ds := sampleDataset()
	ds.Flights[0].AirlineID = sql.NullInt64{Int64: 99, Valid: true}

	err := NewSQLite(path).Write(context.Background(), ds, nil)
	require.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestSQLite_EmptyDataset(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "flights.db")
	require.NoError(t, NewSQLite(path).Write(ctx, &models.Dataset{}, nil))

	db, err := OpenReadOnly(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	counts, err := TableCounts(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), counts["flights"])
}

func TestOpenReadOnly(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		_, err := OpenReadOnly(ctx, filepath.Join(t.TempDir(), "none.db"))
		assert.ErrorIs(t, err, ErrMissingStore)
	})

	t.Run("not a flights database", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "other.db")
		db, err := sql.Open("sqlite", path)
		require.NoError(t, err)
		_, err = db.Exec(`CREATE TABLE things (id INTEGER)`)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		_, err = OpenReadOnly(ctx, path)
		assert.ErrorContains(t, err, "not a flights database")
	})

	t.Run("path with reserved characters", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "fares?v=1#x%20")
		path := filepath.Join(dir, "flights.db")
		require.NoError(t, NewSQLite(path).Write(ctx, sampleDataset(), nil))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "flights.db", entries[0].Name())

		db, err := OpenReadOnly(ctx, path)
		require.NoError(t, err)
		defer db.Close()

		counts, err := TableCounts(ctx, db)
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts["flights"])
	})

	t.Run("rejects writes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flights.db")
		require.NoError(t, NewSQLite(path).Write(ctx, sampleDataset(), nil))

		db, err := OpenReadOnly(ctx, path)
		require.NoError(t, err)
		defer db.Close()

		_, err = db.Exec(`DELETE FROM flights`)
		assert.Error(t, err)
	})
}
