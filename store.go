package main

import (
	"context"
	"fmt"

	"github.com/nonsonwune/flights_db/config"
	"github.com/nonsonwune/flights_db/importer"
	"github.com/nonsonwune/flights_db/storage"
)

// openPersister returns the persister for the configured driver and a
// function releasing its resources.
func openPersister(ctx context.Context, cfg *config.Config) (importer.Persister, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := storage.OpenPostgres(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { pg.Close() }, nil
	case config.DriverSQLite:
		return storage.NewSQLite(cfg.Store.Path), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
