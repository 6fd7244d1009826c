package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"

	"github.com/nonsonwune/flights_db/migrations"
	"github.com/nonsonwune/flights_db/models"

	_ "modernc.org/sqlite"
)

// ErrMissingStore is returned when a store file has not been created yet.
var ErrMissingStore = errors.New("database file not found")

// SQLite writes the dataset to a single SQLite file. The new database is
// built next to the target and renamed over it only after a successful
// commit, so a failed run leaves the previous file in place.
type SQLite struct {
	Path string
}

func NewSQLite(path string) *SQLite {
	return &SQLite{Path: path}
}

// Write replaces the store with ds.
func (s *SQLite) Write(ctx context.Context, ds *models.Dataset, progress func(int)) (err error) {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp database: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	if err = os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("create temp database: %w", err)
	}

	defer func() {
		if err != nil {
			os.Remove(tmpPath)
			os.Remove(tmpPath + "-journal")
		}
	}()

	log.Printf("Creating and connecting to the SQLite database at '%s'...", tmpPath)
	if err = s.build(ctx, tmpPath, ds, progress); err != nil {
		return err
	}

	_, statErr := os.Stat(s.Path)
	if err = os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	if statErr == nil {
		log.Printf("Replaced existing database file '%s'.", s.Path)
	}
	log.Printf("Database '%s' has been created successfully!", s.Path)

	return nil
}

func (s *SQLite) build(ctx context.Context, path string, ds *models.Dataset, progress func(int)) error {
	dsn, err := fileDSN(path, "")
	if err != nil {
		return err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	err = fill(ctx, db, ds, progress)
	if closeErr := db.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close database: %w", closeErr)
	}
	return err
}

func fill(ctx context.Context, db *sql.DB, ds *models.Dataset, progress func(int)) error {
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enable foreign keys: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := migrations.CreateSchema(ctx, tx, migrations.SQLite); err != nil {
		return err
	}
	log.Printf("Writing data to database tables...")
	if err := writeDataset(ctx, tx, migrations.SQLite, ds, progress); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

// OpenReadOnly opens an existing SQLite store for queries only and checks
// that the expected tables are present.
func OpenReadOnly(ctx context.Context, path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: '%s'", ErrMissingStore, path)
		}
		return nil, err
	}

	dsn, err := fileDSN(path, "mode=ro&_pragma=query_only(1)")
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := migrations.VerifySchema(ctx, db, migrations.SQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s is not a flights database: %w", path, err)
	}

	return db, nil
}

// fileDSN builds a file: URI for path with its reserved characters escaped.
func fileDSN(path, query string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve database path: %w", err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: query}
	return u.String(), nil
}
