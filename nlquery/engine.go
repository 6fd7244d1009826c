package nlquery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/nonsonwune/flights_db/nlquery/prompts"
)

var (
	// ErrUnsafeQuery is returned when generated SQL is not a single read-only query.
	ErrUnsafeQuery = errors.New("generated SQL is not a read-only query")
	// ErrUnanswerable is returned when the model reports the tables cannot answer the question.
	ErrUnanswerable = errors.New("the question cannot be answered from the flight data")
)

var forbiddenKeywords = regexp.MustCompile(
	`(?i)\b(INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|ATTACH|DETACH|PRAGMA|VACUUM|REINDEX|TRUNCATE|GRANT)\b`)

// Options tunes an Engine. Zero values fall back to defaults.
type Options struct {
	Timeout      time.Duration
	QueryTimeout time.Duration
	MaxRows      int
	Backoff      []time.Duration
}

// Answer is the outcome of one question.
type Answer struct {
	Question  string
	SQL       string
	Columns   []string
	Rows      [][]any
	Truncated bool
	Text      string
}

// Engine answers natural-language questions against a read-only flights store.
type Engine struct {
	gen     Generator
	db      *sql.DB
	prompts *prompts.PromptBuilder
	opts    Options
}

// NewEngine wires a generator to an open store. The caller owns db and gen.
func NewEngine(db *sql.DB, gen Generator, opts Options) *Engine {
	if opts.Timeout == 0 {
		opts.Timeout = 45 * time.Second
	}
	if opts.QueryTimeout == 0 {
		opts.QueryTimeout = 30 * time.Second
	}
	if opts.MaxRows == 0 {
		opts.MaxRows = 100
	}
	if opts.Backoff == nil {
		opts.Backoff = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	}
	return &Engine{
		gen:     gen,
		db:      db,
		prompts: prompts.NewPromptBuilder(),
		opts:    opts,
	}
}

// Ask turns question into SQL, runs it and summarises the rows.
func (e *Engine) Ask(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
	defer cancel()

	sqlQuery, err := e.generateSQLQuery(ctx, question)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("the question timed out; try a more specific question (e.g. name the route or airline): %w", err)
		}
		return nil, err
	}

	if err := validateQuery(sqlQuery); err != nil {
		return nil, err
	}

	answer := &Answer{Question: question, SQL: sqlQuery}
	if err := e.executeQuery(ctx, answer); err != nil {
		return answer, fmt.Errorf("error executing query: %w", err)
	}
	if isUnanswerable(answer) {
		return answer, ErrUnanswerable
	}

	answer.Text = e.summarise(ctx, answer)
	return answer, nil
}

// Explain asks the model for a user-facing explanation of a failure. It
// falls back to the raw error text.
func (e *Engine) Explain(ctx context.Context, question string, cause error) string {
	text, err := e.gen.Generate(ctx, e.prompts.BuildErrorPrompt(question, cause))
	if err != nil || strings.TrimSpace(text) == "" {
		return fmt.Sprintf("An error occurred: %v", cause)
	}
	return strings.TrimSpace(text)
}

func (e *Engine) generateSQLQuery(ctx context.Context, question string) (string, error) {
	prompt := e.prompts.BuildQueryPrompt(question)
	var lastErr error

	for i := 0; i <= len(e.opts.Backoff); i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(e.opts.Backoff[i-1]):
			}
		}

		text, err := e.gen.Generate(ctx, prompt)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if !isRateLimitError(err) {
				return "", fmt.Errorf("error generating SQL: %w", err)
			}
			log.Printf("Attempt %d failed: %v", i+1, err)
			continue
		}

		sqlQuery, err := extractSQLFromResponse(text)
		if err != nil {
			lastErr = err
			continue
		}
		return sqlQuery, nil
	}

	return "", fmt.Errorf("all attempts failed, last error: %w", lastErr)
}

var codeFence = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

// extractSQLFromResponse pulls the statement out of a model reply, which may
// be wrapped in a markdown code block.
func extractSQLFromResponse(text string) (string, error) {
	sqlQuery := strings.TrimSpace(text)
	if m := codeFence.FindStringSubmatch(sqlQuery); m != nil {
		sqlQuery = m[1]
	}

	sqlQuery = strings.TrimSpace(sqlQuery)
	sqlQuery = strings.TrimSpace(strings.TrimRight(sqlQuery, ";"))
	if sqlQuery == "" {
		return "", fmt.Errorf("empty SQL query after extraction")
	}
	return sqlQuery, nil
}

var stringLiteral = regexp.MustCompile(`'(?:[^']|'')*'`)

// validateQuery accepts a single SELECT or WITH statement. Quoted string
// literals are ignored when looking for separators and keywords.
func validateQuery(sqlQuery string) error {
	sqlQuery = stringLiteral.ReplaceAllString(sqlQuery, "''")
	if strings.Contains(sqlQuery, ";") {
		return fmt.Errorf("%w: multiple statements", ErrUnsafeQuery)
	}

	fields := strings.Fields(sqlQuery)
	if len(fields) == 0 {
		return fmt.Errorf("%w: empty statement", ErrUnsafeQuery)
	}
	switch strings.ToUpper(fields[0]) {
	case "SELECT", "WITH":
	default:
		return fmt.Errorf("%w: starts with %s", ErrUnsafeQuery, fields[0])
	}

	if m := forbiddenKeywords.FindString(sqlQuery); m != "" {
		return fmt.Errorf("%w: contains %s", ErrUnsafeQuery, strings.ToUpper(m))
	}
	return nil
}

func (e *Engine) executeQuery(ctx context.Context, answer *Answer) error {
	ctx, cancel := context.WithTimeout(ctx, e.opts.QueryTimeout)
	defer cancel()

	rows, err := e.db.QueryContext(ctx, answer.SQL)
	if err != nil {
		return err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	answer.Columns = columns

	for rows.Next() {
		if len(answer.Rows) >= e.opts.MaxRows {
			answer.Truncated = true
			break
		}

		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return err
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		answer.Rows = append(answer.Rows, values)
	}

	return rows.Err()
}

// summarise asks the model for a prose answer, falling back to a plain
// rendering of the rows.
func (e *Engine) summarise(ctx context.Context, answer *Answer) string {
	results := FormatResults(answer)
	text, err := e.gen.Generate(ctx, e.prompts.BuildAnswerPrompt(answer.Question, answer.SQL, results))
	if err != nil || strings.TrimSpace(text) == "" {
		if err != nil {
			log.Printf("Warning: answer summary failed: %v", err)
		}
		return results
	}
	return strings.TrimSpace(text)
}

func isUnanswerable(answer *Answer) bool {
	if len(answer.Rows) != 1 || len(answer.Rows[0]) != 1 {
		return false
	}
	v, ok := answer.Rows[0][0].(string)
	return ok && v == "UNANSWERABLE"
}
