package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/nonsonwune/flights_db/config"
	"github.com/nonsonwune/flights_db/migrations"
	"github.com/nonsonwune/flights_db/nlquery"
	"github.com/nonsonwune/flights_db/storage"
)

// openStore opens the SQLite store read-only.
func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	if cfg.Store.Driver != config.DriverSQLite {
		return nil, fmt.Errorf("questions are answered from the sqlite store; driver %q is not supported here", cfg.Store.Driver)
	}
	db, err := storage.OpenReadOnly(ctx, cfg.Store.Path)
	if errors.Is(err, storage.ErrMissingStore) {
		return nil, fmt.Errorf("%w. Please run 'flights prepare' first", err)
	}
	return db, err
}

// openEngine builds the question engine. The returned function closes the
// store and the Gemini clients.
func openEngine(ctx context.Context, cfg *config.Config) (*nlquery.Engine, func(), error) {
	gen, err := nlquery.NewGeminiGenerator(cfg.Agent.APIKeys, cfg.Agent.Model, cfg.Agent.Temperature)
	if err != nil {
		return nil, nil, err
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		gen.Close()
		return nil, nil, err
	}

	engine := nlquery.NewEngine(db, gen, nlquery.Options{
		Timeout:      cfg.Agent.Timeout,
		QueryTimeout: cfg.Agent.QueryTimeout,
		MaxRows:      cfg.Agent.MaxRows,
	})
	return engine, func() {
		db.Close()
		gen.Close()
	}, nil
}

func askQuestion(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return cli.Exit("usage: flights ask \"What is the average price to Delhi?\"", 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config: %v", err), 1)
	}

	ctx, cancel := signalContext(c.Context)
	defer cancel()

	engine, closeEngine, err := openEngine(ctx, cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to initialize the application: %v", err), 1)
	}
	defer closeEngine()

	answer, err := engine.Ask(ctx, question)
	if err != nil {
		return cli.Exit(engine.Explain(ctx, question, err), 1)
	}

	printAnswer(answer)
	return nil
}

func runChat(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config: %v", err), 1)
	}

	ctx, cancel := signalContext(c.Context)
	defer cancel()

	engine, closeEngine, err := openEngine(ctx, cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to initialize the application: %v", err), 1)
	}
	defer closeEngine()

	session := nlquery.NewSession(engine)
	if path := c.String("transcript"); path != "" {
		defer func() {
			if err := session.Save(path); err != nil {
				color.Red("Error saving transcript: %v", err)
				return
			}
			fmt.Printf("Transcript saved to %s\n", path)
		}()
	}

	color.Cyan("\n=== Talk to Your Flight Data ===")
	fmt.Println("Ask questions in plain English, e.g. 'What is the average price to Delhi?'")
	fmt.Println("Type 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "":
			continue
		case "exit", "quit":
			color.Green("Goodbye!")
			return nil
		}

		answer, err := session.Ask(ctx, question)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			reply, _ := session.LastReply()
			color.Red("%s", reply.Content)
			continue
		}
		printAnswer(answer)
	}

	return scanner.Err()
}

func printAnswer(answer *nlquery.Answer) {
	color.Yellow("\nExecuting SQL Query:")
	fmt.Printf("%s\n\n", answer.SQL)
	nlquery.DisplayResults(os.Stdout, answer)
	color.Cyan("\nAnswer:")
	fmt.Println(answer.Text)
}

func showSchema(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load config: %v", err), 1)
	}

	ctx, cancel := signalContext(c.Context)
	defer cancel()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer db.Close()

	counts, err := storage.TableCounts(ctx, db)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	color.Cyan("\nDatabase: %s", cfg.Store.Path)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Table", "Rows"})
	for _, name := range migrations.Tables {
		table.Append([]string{name, fmt.Sprintf("%d", counts[name])})
	}
	table.Render()
	return nil
}
