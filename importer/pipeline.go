package importer

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/nonsonwune/flights_db/models"
)

// Persister writes a complete dataset to a store, replacing what was there.
// progress is called with the number of rows written so far in each step.
type Persister interface {
	Write(ctx context.Context, ds *models.Dataset, progress func(n int)) error
}

// ImportConfig holds the configuration for one import run.
type ImportConfig struct {
	Load     LoadConfig
	Progress io.Writer // nil disables the progress bar
}

// Summary describes a finished run.
type Summary struct {
	Airlines int
	Routes   int
	Flights  int
	Stats    *ImportStats
	Elapsed  time.Duration
}

// Transform normalizes a loaded table into the three output tables.
func Transform(t *Table) (*models.Dataset, *ImportStats) {
	stats := NewImportStats()

	log.Printf("Creating 'airlines' table...")
	airlines := ExtractAirlines(t)
	log.Printf("Found %d unique airlines.", len(airlines))

	log.Printf("Creating 'routes' table...")
	routes := ExtractRoutes(t)
	log.Printf("Found %d unique routes.", len(routes))

	log.Printf("Preparing main 'flights' table with foreign keys...")
	flights := BuildFlights(t, airlines, routes, stats)

	return &models.Dataset{Airlines: airlines, Routes: routes, Flights: flights}, stats
}

// Run performs a full rebuild: load, normalize, persist. The store is not
// touched unless the input file exists and parses.
func Run(ctx context.Context, cfg ImportConfig, p Persister) (*Summary, error) {
	start := time.Now()

	if err := CheckInput(cfg.Load.SourceFile); err != nil {
		return nil, err
	}

	log.Printf("Reading the CSV file %s...", cfg.Load.SourceFile)
	table, err := Load(cfg.Load)
	if err != nil {
		return nil, err
	}
	log.Printf("CSV data loaded successfully: %d rows.", len(table.Rows))

	ds, stats := Transform(table)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	tracker := NewTracker(cfg.Progress, int64(ds.RowCount()))
	if err := p.Write(ctx, ds, tracker.Add); err != nil {
		return nil, StoreWriteError(err)
	}
	tracker.Finish()

	stats.PrintSummary()

	return &Summary{
		Airlines: len(ds.Airlines),
		Routes:   len(ds.Routes),
		Flights:  len(ds.Flights),
		Stats:    stats,
		Elapsed:  time.Since(start),
	}, nil
}
