package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/nonsonwune/flights_db/migrations"
	"github.com/nonsonwune/flights_db/models"

	_ "github.com/lib/pq"
)

// Postgres writes the dataset to a PostgreSQL database. Tables are dropped
// and recreated in the same transaction as the inserts, so readers see
// either the old tables or the complete new ones.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects to PostgreSQL and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	return &Postgres{db: db}, nil
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// DB exposes the underlying connection pool.
func (p *Postgres) DB() *sql.DB {
	return p.db
}

// Write replaces the three tables with ds.
func (p *Postgres) Write(ctx context.Context, ds *models.Dataset, progress func(int)) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := migrations.DropSchema(ctx, tx); err != nil {
		return err
	}
	if err := migrations.CreateSchema(ctx, tx, migrations.Postgres); err != nil {
		return err
	}
	log.Printf("Writing data to database tables...")
	if err := writeDataset(ctx, tx, migrations.Postgres, ds, progress); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	log.Printf("Data loaded successfully!")
	return nil
}

func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
