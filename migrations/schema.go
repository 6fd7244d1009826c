package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// Dialect selects the SQL flavour used for DDL and catalog queries.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// Tables lists the store's tables in dependency order.
var Tables = []string{"airlines", "routes", "flights"}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Queryer is satisfied by *sql.DB and *sql.Tx.
type Queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func ddl(d Dialect) []string {
	price := "REAL"
	if d == Postgres {
		price = "DOUBLE PRECISION"
	}
	return []string{
		`CREATE TABLE airlines (
			airline_id   INTEGER PRIMARY KEY,
			airline_name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE routes (
			route_id    INTEGER PRIMARY KEY,
			source      TEXT NOT NULL,
			destination TEXT NOT NULL,
			UNIQUE (source, destination)
		)`,
		fmt.Sprintf(`CREATE TABLE flights (
			flight_id   INTEGER PRIMARY KEY,
			flight_code TEXT,
			airline_id  INTEGER REFERENCES airlines (airline_id),
			route_id    INTEGER REFERENCES routes (route_id),
			dep_time    TEXT,
			arr_time    TEXT,
			total_stops INTEGER CHECK (total_stops >= 0),
			price       %s CHECK (price >= 0)
		)`, price),
		`CREATE INDEX idx_flights_airline ON flights (airline_id)`,
		`CREATE INDEX idx_flights_route ON flights (route_id)`,
	}
}

// CreateSchema creates the three tables. They must not exist yet.
func CreateSchema(ctx context.Context, db Execer, d Dialect) error {
	for _, stmt := range ddl(d) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// DropSchema removes the three tables if present, facts first.
func DropSchema(ctx context.Context, db Execer) error {
	for i := len(Tables) - 1; i >= 0; i-- {
		if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+Tables[i]); err != nil {
			return fmt.Errorf("drop table %s: %w", Tables[i], err)
		}
	}
	return nil
}

// VerifySchema verifies that all required tables exist
func VerifySchema(ctx context.Context, db Queryer, d Dialect) error {
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	if d == Postgres {
		query = `
			SELECT COUNT(*) FROM information_schema.tables
			WHERE table_schema = current_schema()
			AND table_name = $1`
	}

	for _, table := range Tables {
		var count int
		if err := db.QueryRowContext(ctx, query, table).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("required table %s does not exist", table)
		}
	}

	return nil
}
