package nlquery

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonsonwune/flights_db/models"
	"github.com/nonsonwune/flights_db/storage"
)

type reply struct {
	text  string
	err   error
	block bool
}

// scriptedGenerator returns its replies in order and records every prompt.
type scriptedGenerator struct {
	mu      sync.Mutex
	replies []reply
	prompts []string
}

func newScripted(replies ...reply) *scriptedGenerator {
	return &scriptedGenerator{replies: replies}
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	if len(g.replies) == 0 {
		g.mu.Unlock()
		return "", errors.New("no scripted reply")
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	g.mu.Unlock()

	if r.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return r.text, r.err
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func testStore(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flights.db")

	ds := &models.Dataset{
		Airlines: []models.Airline{{ID: 1, Name: "IndiGo"}, {ID: 2, Name: "Air India"}},
		Routes:   []models.Route{{ID: 1, Source: "Delhi", Destination: "Mumbai"}},
		Flights: []models.Flight{
			{
				ID: 1, FlightCode: "6E-2046", DepTime: "06:00", ArrTime: "08:10",
				AirlineID:  sql.NullInt64{Int64: 1, Valid: true},
				RouteID:    sql.NullInt64{Int64: 1, Valid: true},
				TotalStops: sql.NullInt64{Int64: 0, Valid: true},
				Price:      sql.NullFloat64{Float64: 5953, Valid: true},
			},
			{
				ID: 2, FlightCode: "AI-803", DepTime: "18:00", ArrTime: "20:15",
				AirlineID:  sql.NullInt64{Int64: 2, Valid: true},
				RouteID:    sql.NullInt64{Int64: 1, Valid: true},
				TotalStops: sql.NullInt64{Int64: 1, Valid: true},
				Price:      sql.NullFloat64{Float64: 7425.5, Valid: true},
			},
		},
	}
	require.NoError(t, storage.NewSQLite(path).Write(ctx, ds, nil))

	db, err := storage.OpenReadOnly(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func fastOptions() Options {
	return Options{Backoff: []time.Duration{0, 0}}
}

func TestEngine_Ask(t *testing.T) {
	gen := newScripted(
		reply{text: "```sql\nSELECT COUNT(*) AS n FROM flights;\n```"},
		reply{text: "There are 2 flights.\n"},
	)
	engine := NewEngine(testStore(t), gen, fastOptions())

	answer, err := engine.Ask(context.Background(), "  How many flights are there? ")
	require.NoError(t, err)
	assert.Equal(t, "How many flights are there?", answer.Question)
	assert.Equal(t, "SELECT COUNT(*) AS n FROM flights", answer.SQL)
	assert.Equal(t, []string{"n"}, answer.Columns)
	assert.Equal(t, [][]any{{int64(2)}}, answer.Rows)
	assert.Equal(t, "There are 2 flights.", answer.Text)

	require.Equal(t, 2, gen.calls())
	assert.Contains(t, gen.prompts[0], "How many flights are there?")
	assert.Contains(t, gen.prompts[1], "n\n2")
}

func TestEngine_AskEmptyQuestion(t *testing.T) {
	gen := newScripted()
	engine := NewEngine(testStore(t), gen, fastOptions())

	_, err := engine.Ask(context.Background(), "   ")
	assert.Error(t, err)
	assert.Zero(t, gen.calls())
}

func TestEngine_RetriesGeneration(t *testing.T) {
	gen := newScripted(
		reply{err: errors.New("429 quota exceeded")},
		reply{text: "   "},
		reply{text: "SELECT airline_name FROM airlines ORDER BY airline_id"},
		reply{text: "IndiGo and Air India."},
	)
	engine := NewEngine(testStore(t), gen, fastOptions())

	answer, err := engine.Ask(context.Background(), "Which airlines fly?")
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"IndiGo"}, {"Air India"}}, answer.Rows)
	assert.Equal(t, 4, gen.calls())
}

func TestEngine_AllAttemptsFail(t *testing.T) {
	cause := errors.New("googleapi: Error 429: Resource has been exhausted")
	gen := newScripted(reply{err: cause}, reply{err: cause}, reply{err: cause})
	engine := NewEngine(testStore(t), gen, fastOptions())

	_, err := engine.Ask(context.Background(), "Cheapest fare?")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "all attempts failed")
	assert.Equal(t, 3, gen.calls())
}

func TestEngine_PermanentErrorNotRetried(t *testing.T) {
	cause := errors.New("models/gemini-unknown is not found")
	gen := newScripted(reply{err: cause}, reply{text: "SELECT 1"})
	engine := NewEngine(testStore(t), gen, fastOptions())

	_, err := engine.Ask(context.Background(), "Cheapest fare?")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Error(), "all attempts failed")
	assert.Equal(t, 1, gen.calls())
}

func TestEngine_Timeout(t *testing.T) {
	gen := newScripted(reply{block: true})
	engine := NewEngine(testStore(t), gen, Options{Timeout: 20 * time.Millisecond, Backoff: []time.Duration{}})

	_, err := engine.Ask(context.Background(), "Cheapest fare?")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "timed out")
}

func TestEngine_RejectsUnsafeSQL(t *testing.T) {
	for _, query := range []string{
		"DELETE FROM flights",
		"SELECT 1; DROP TABLE flights",
		"WITH x AS (SELECT 1) INSERT INTO airlines VALUES (9, 'X')",
	} {
		t.Run(query, func(t *testing.T) {
			db := testStore(t)
			engine := NewEngine(db, newScripted(reply{text: query}), fastOptions())

			_, err := engine.Ask(context.Background(), "Remove everything")
			assert.ErrorIs(t, err, ErrUnsafeQuery)

			counts, err := storage.TableCounts(context.Background(), db)
			require.NoError(t, err)
			assert.Equal(t, int64(2), counts["flights"])
		})
	}
}

func TestEngine_Unanswerable(t *testing.T) {
	gen := newScripted(reply{text: "SELECT 'UNANSWERABLE' AS error;"})
	engine := NewEngine(testStore(t), gen, fastOptions())

	answer, err := engine.Ask(context.Background(), "What is the weather in Delhi?")
	assert.ErrorIs(t, err, ErrUnanswerable)
	require.NotNil(t, answer)
	assert.Equal(t, 1, gen.calls(), "no summary is requested")
}

func TestEngine_ExecutionError(t *testing.T) {
	gen := newScripted(reply{text: "SELECT missing_column FROM flights"})
	engine := NewEngine(testStore(t), gen, fastOptions())

	answer, err := engine.Ask(context.Background(), "Show me something")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error executing query")
	assert.Equal(t, "SELECT missing_column FROM flights", answer.SQL)
}

func TestEngine_TruncatesRows(t *testing.T) {
	gen := newScripted(
		reply{text: "SELECT flight_code, price FROM flights ORDER BY flight_id"},
		reply{text: "6E-2046 costs 5953."},
	)
	engine := NewEngine(testStore(t), gen, Options{MaxRows: 1, Backoff: []time.Duration{}})

	answer, err := engine.Ask(context.Background(), "List fares")
	require.NoError(t, err)
	assert.True(t, answer.Truncated)
	assert.Equal(t, [][]any{{"6E-2046", float64(5953)}}, answer.Rows)
}

func TestEngine_SummaryFallsBackToRows(t *testing.T) {
	gen := newScripted(
		reply{text: "SELECT flight_code, total_stops FROM flights ORDER BY flight_id"},
		reply{err: errors.New("summary failed")},
	)
	engine := NewEngine(testStore(t), gen, fastOptions())

	answer, err := engine.Ask(context.Background(), "Stops per flight")
	require.NoError(t, err)
	assert.Equal(t, "flight_code\ttotal_stops\n6E-2046\t0\nAI-803\t1", answer.Text)
}

func TestEngine_Explain(t *testing.T) {
	cause := errors.New("no such column: fare")

	engine := NewEngine(nil, newScripted(reply{text: " Try asking about price instead. "}), fastOptions())
	assert.Equal(t, "Try asking about price instead.", engine.Explain(context.Background(), "fare?", cause))

	engine = NewEngine(nil, newScripted(reply{err: errors.New("down")}), fastOptions())
	assert.Equal(t, "An error occurred: no such column: fare", engine.Explain(context.Background(), "fare?", cause))
}

func TestExtractSQLFromResponse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain", input: "SELECT 1", want: "SELECT 1"},
		{name: "trailing semicolon", input: "SELECT 1;\n", want: "SELECT 1"},
		{name: "sql fence", input: "```sql\nSELECT price FROM flights;\n```", want: "SELECT price FROM flights"},
		{name: "fence with prose", input: "Here it is:\n```\nSELECT 2\n```\nDone.", want: "SELECT 2"},
		{name: "empty fence", input: "```sql\n```", wantErr: true},
		{name: "blank", input: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractSQLFromResponse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		query string
		ok    bool
	}{
		{"SELECT * FROM flights", true},
		{"select replace(flight_code, '-', '') from flights", true},
		{"WITH cheap AS (SELECT * FROM flights WHERE price < 5000) SELECT COUNT(*) FROM cheap", true},
		{"SELECT created_at_like_name FROM flights", true},
		{"SELECT * FROM routes WHERE destination = 'Port Blair; Andaman'", true},
		{"SELECT * FROM airlines WHERE airline_name LIKE '%create%'", true},
		{"SELECT * FROM airlines WHERE airline_name = 'O''Hare; drop'", true},
		{"SELECT 'a'; DROP TABLE flights", false},
		{"UPDATE flights SET price = 0", false},
		{"SELECT 1; SELECT 2", false},
		{"PRAGMA table_info(flights)", false},
		{"SELECT * FROM flights WHERE 1 = 1 ATTACH DATABASE 'x' AS y", false},
		{"EXPLAIN SELECT 1", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			err := validateQuery(tt.query)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrUnsafeQuery)
			}
		})
	}
}
