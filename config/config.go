// Package config loads settings from an optional YAML file, a .env file and
// the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the full application configuration.
type Config struct {
	Input    InputConfig `yaml:"input"`
	Store    StoreConfig `yaml:"store"`
	Agent    AgentConfig `yaml:"agent"`
	Progress bool        `yaml:"progress"`
}

// InputConfig describes the source fare file.
type InputConfig struct {
	Path      string `yaml:"path"`
	Delimiter string `yaml:"delimiter"`
}

// StoreConfig selects and addresses the output database.
type StoreConfig struct {
	Driver   string         `yaml:"driver"`
	Path     string         `yaml:"path"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// AgentConfig configures the Gemini question engine.
type AgentConfig struct {
	Model        string        `yaml:"model"`
	Temperature  float32       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	MaxRows      int           `yaml:"max_rows"`
	APIKeys      []string      `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Path:      "goibibo_flights_data.csv",
			Delimiter: ",",
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   "flights.db",
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    "5432",
				SSLMode: "disable",
			},
		},
		Agent: AgentConfig{
			Model:        "gemini-1.5-flash",
			Temperature:  0,
			Timeout:      45 * time.Second,
			QueryTimeout: 30 * time.Second,
			MaxRows:      100,
		},
	}
}

// Load builds the configuration. A missing file at path is tolerated unless
// required is set; an empty path skips the file entirely.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !required:
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Input.Path, "FLIGHTS_CSV")
	setString(&c.Store.Path, "FLIGHTS_DB")
	setString(&c.Store.Driver, "FLIGHTS_DRIVER")
	setString(&c.Store.Postgres.Host, "DB_HOST")
	setString(&c.Store.Postgres.Port, "DB_PORT")
	setString(&c.Store.Postgres.User, "DB_USER")
	setString(&c.Store.Postgres.Password, "DB_PASSWORD")
	setString(&c.Store.Postgres.DBName, "DB_NAME")
	setString(&c.Agent.Model, "GEMINI_MODEL")

	if v := os.Getenv("GEMINI_TEMPERATURE"); v != "" {
		if t, err := strconv.ParseFloat(v, 32); err == nil {
			c.Agent.Temperature = float32(t)
		} else {
			log.Printf("Warning: ignoring GEMINI_TEMPERATURE=%q: %v", v, err)
		}
	}

	c.Agent.APIKeys = apiKeysFromEnv()
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// apiKeysFromEnv collects GOOGLE_API_KEY, GEMINI_API_KEY and
// GEMINI_API_KEY_1..4, skipping duplicates.
func apiKeysFromEnv() []string {
	names := []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"}
	for i := 1; i <= 4; i++ {
		names = append(names, fmt.Sprintf("GEMINI_API_KEY_%d", i))
	}

	seen := make(map[string]bool)
	var keys []string
	for _, name := range names {
		key := os.Getenv(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Store.Postgres.DBName == "" {
			return fmt.Errorf("store.postgres.dbname is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q (want %s or %s)", c.Store.Driver, DriverSQLite, DriverPostgres)
	}

	if c.Input.Path == "" {
		return fmt.Errorf("input.path is required")
	}
	if utf8.RuneCountInString(c.Input.Delimiter) > 1 {
		return fmt.Errorf("input.delimiter must be a single character, got %q", c.Input.Delimiter)
	}
	if c.Agent.Timeout < 0 || c.Agent.QueryTimeout < 0 {
		return fmt.Errorf("agent timeouts must not be negative")
	}
	if c.Agent.MaxRows < 0 {
		return fmt.Errorf("agent.max_rows must not be negative")
	}
	return nil
}

// DelimiterRune returns the input delimiter, defaulting to a comma.
func (c *Config) DelimiterRune() rune {
	if c.Input.Delimiter == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(c.Input.Delimiter)
	return r
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	p := c.Store.Postgres
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}
