// Package storage persists the normalized flight tables.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/nonsonwune/flights_db/migrations"
	"github.com/nonsonwune/flights_db/models"
)

func placeholders(d migrations.Dialect, n int) string {
	p := make([]string, n)
	for i := range p {
		if d == migrations.Postgres {
			p[i] = fmt.Sprintf("$%d", i+1)
		} else {
			p[i] = "?"
		}
	}
	return strings.Join(p, ", ")
}

func insertQuery(d migrations.Dialect, table string, columns ...string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders(d, len(columns)))
}

// writeDataset inserts every row of ds inside tx. The tables must exist.
func writeDataset(ctx context.Context, tx *sql.Tx, d migrations.Dialect, ds *models.Dataset, progress func(int)) error {
	if progress == nil {
		progress = func(int) {}
	}

	err := insertRows(ctx, tx, insertQuery(d, "airlines", "airline_id", "airline_name"),
		len(ds.Airlines), func(i int) []any {
			a := ds.Airlines[i]
			return []any{a.ID, a.Name}
		}, progress)
	if err != nil {
		return fmt.Errorf("write airlines: %w", err)
	}

	err = insertRows(ctx, tx, insertQuery(d, "routes", "route_id", "source", "destination"),
		len(ds.Routes), func(i int) []any {
			r := ds.Routes[i]
			return []any{r.ID, r.Source, r.Destination}
		}, progress)
	if err != nil {
		return fmt.Errorf("write routes: %w", err)
	}

	err = insertRows(ctx, tx, insertQuery(d, "flights", "flight_id", "flight_code", "airline_id",
		"route_id", "dep_time", "arr_time", "total_stops", "price"),
		len(ds.Flights), func(i int) []any {
			f := ds.Flights[i]
			return []any{f.ID, f.FlightCode, f.AirlineID, f.RouteID, f.DepTime, f.ArrTime, f.TotalStops, f.Price}
		}, progress)
	if err != nil {
		return fmt.Errorf("write flights: %w", err)
	}

	return nil
}

func insertRows(ctx context.Context, tx *sql.Tx, query string, n int, args func(int) []any, progress func(int)) error {
	if n == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		progress(1)
	}

	return nil
}

// TableCounts returns the row count of every store table.
func TableCounts(ctx context.Context, db *sql.DB) (map[string]int64, error) {
	counts := make(map[string]int64, len(migrations.Tables))
	for _, table := range migrations.Tables {
		var n int64
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}
