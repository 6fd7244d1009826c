package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nonsonwune/flights_db/config"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "flights",
		Usage:   "Load flight fare data into a database and ask questions about it",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "Path to configuration file",
			},
		},
		Action: prepareDatabase,
		Commands: []*cli.Command{
			{
				Name:   "prepare",
				Usage:  "Rebuild the database from the fare CSV",
				Action: prepareDatabase,
				Flags:  prepareFlags(),
			},
			{
				Name:      "ask",
				Usage:     "Answer one question about the flight data",
				ArgsUsage: "\"question\"",
				Action:    askQuestion,
				Flags:     storeFlags(),
			},
			{
				Name:   "chat",
				Usage:  "Ask questions interactively",
				Action: runChat,
				Flags: append(storeFlags(), &cli.StringFlag{
					Name:  "transcript",
					Usage: "Save the chat transcript as JSON to this path on exit",
				}),
			},
			{
				Name:   "schema",
				Usage:  "Show the tables and row counts of the current database",
				Action: showSchema,
				Flags:  storeFlags(),
			},
		},
	}
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "output",
			Usage: "SQLite database path",
		},
	}
}

func prepareFlags() []cli.Flag {
	return append(storeFlags(),
		&cli.StringFlag{
			Name:  "input",
			Usage: "Fare CSV path",
		},
		&cli.StringFlag{
			Name:  "driver",
			Usage: "Store driver: sqlite or postgres",
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "Show a progress bar while writing rows",
		},
	)
}

// loadConfig reads the config file, then applies command flags on top.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"), c.IsSet("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("input") {
		cfg.Input.Path = c.String("input")
	}
	if c.IsSet("output") {
		cfg.Store.Path = c.String("output")
	}
	if c.IsSet("driver") {
		cfg.Store.Driver = c.String("driver")
	}
	if c.IsSet("progress") {
		cfg.Progress = c.Bool("progress")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
