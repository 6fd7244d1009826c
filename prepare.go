package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/nonsonwune/flights_db/config"
	"github.com/nonsonwune/flights_db/importer"
)

func prepareDatabase(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config: %v", err), 1)
	}

	ctx, cancel := signalContext(c.Context)
	defer cancel()

	if err := importer.CheckInput(cfg.Input.Path); err != nil {
		return cli.Exit(describeImportError(err, cfg), 1)
	}

	persister, closeStore, err := openPersister(ctx, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer closeStore()

	var progress io.Writer
	if cfg.Progress {
		progress = os.Stderr
	}

	summary, err := importer.Run(ctx, importer.ImportConfig{
		Load: importer.LoadConfig{
			SourceFile: cfg.Input.Path,
			Delimiter:  cfg.DelimiterRune(),
		},
		Progress: progress,
	}, persister)
	if err != nil {
		return cli.Exit(describeImportError(err, cfg), 1)
	}

	color.Green("\n--- Process Complete ---")
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Table", "Rows"})
	table.Append([]string{"airlines", fmt.Sprintf("%d", summary.Airlines)})
	table.Append([]string{"routes", fmt.Sprintf("%d", summary.Routes)})
	table.Append([]string{"flights", fmt.Sprintf("%d", summary.Flights)})
	table.Render()

	if !summary.Stats.Clean() {
		color.Yellow("Some rows were stored with NULL values; see the import statistics above.")
	}
	fmt.Printf("Finished in %s. You can now ask questions with: flights chat\n", summary.Elapsed.Round(time.Millisecond))
	return nil
}

func describeImportError(err error, cfg *config.Config) string {
	switch importer.ErrorCode(err) {
	case importer.ErrMissingInput:
		return fmt.Sprintf("%v\nPlease make sure the CSV file exists or pass --input.", err)
	case importer.ErrParse:
		return fmt.Sprintf("An error occurred while reading the CSV file: %v", err)
	case importer.ErrStoreWrite:
		return fmt.Sprintf("An error occurred with the %s database: %v", cfg.Store.Driver, err)
	default:
		return err.Error()
	}
}
