package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level YAML configuration.
type Config struct {
	Schema     string     `yaml:"schema"`
	Model      Model      `yaml:"model"`
	Cache      Cache      `yaml:"cache"`
	Batch      Batch      `yaml:"batch"`
	Server     Server     `yaml:"server"`
	Connection Connection `yaml:"connection"`
	Schemas    []string   `yaml:"schemas"`
	Output     string     `yaml:"output"`
}

// Model selects the learned strategy tried before the rules.
type Model struct {
	Provider string        `yaml:"provider"`
	Name     string        `yaml:"name"`
	APIKey   string        `yaml:"api_key"`
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Cache sizes the question cache. Zero disables it.
type Cache struct {
	Size int `yaml:"size"`
}

// Batch bounds concurrent conversions.
type Batch struct {
	Concurrency int `yaml:"concurrency"`
}

// Server holds HTTP API settings.
type Server struct {
	Addr string `yaml:"addr"`
}

// Connection holds database connection parameters for introspection.
type Connection struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// Defaults.
const (
	DefaultModelTimeout = 10 * time.Second
	DefaultCacheSize    = 256
	DefaultConcurrency  = 4
	DefaultAddr         = ":8080"
)

// DSN builds a PostgreSQL connection string.
func (c *Connection) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.Database, c.User, c.Password, c.SSLMode,
	)
}

// LoadDotEnv loads .env style files into the environment. Missing files are
// skipped; variables already set are kept.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Load reads and parses a YAML config file. An empty path yields the
// defaults plus environment.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyEnv fills in empty fields from environment variables.
// YAML values take precedence; env vars are used only as fallback.
func (c *Config) applyEnv() {
	if c.Schema == "" {
		c.Schema = envOr("TEXT2SQL_SCHEMA")
	}

	m := &c.Model
	if m.Provider == "" {
		m.Provider = envOr("TEXT2SQL_MODEL_PROVIDER")
	}
	if m.Name == "" {
		m.Name = envOr("TEXT2SQL_MODEL_NAME")
	}
	if m.APIKey == "" {
		switch strings.ToLower(m.Provider) {
		case "gemini", "genai":
			m.APIKey = envOr("GEMINI_API_KEY", "GOOGLE_API_KEY")
		case "huggingface", "hf":
			m.APIKey = envOr("HF_TOKEN", "HUGGINGFACE_API_TOKEN")
		}
	}

	if c.Server.Addr == "" {
		if a := envOr("TEXT2SQL_ADDR"); a != "" {
			c.Server.Addr = a
		} else if p := envOr("PORT"); p != "" {
			c.Server.Addr = ":" + p
		}
	}

	conn := &c.Connection
	if conn.Host == "" {
		conn.Host = envOr("PGHOST", "POSTGRES_HOST")
	}
	if conn.Port == 0 {
		if s := envOr("PGPORT", "POSTGRES_PORT"); s != "" {
			if p, err := strconv.Atoi(s); err == nil {
				conn.Port = p
			}
		}
	}
	if conn.Database == "" {
		conn.Database = envOr("PGDATABASE", "POSTGRES_DB")
	}
	if conn.User == "" {
		conn.User = envOr("PGUSER", "POSTGRES_USER")
	}
	if conn.Password == "" {
		conn.Password = envOr("PGPASSWORD", "POSTGRES_PASSWORD")
	}
	if conn.SSLMode == "" {
		conn.SSLMode = envOr("PGSSLMODE")
	}
}

// envOr returns the first non-empty value from the given env var names.
func envOr(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// validate checks values and fills defaults.
func (c *Config) validate() error {
	switch strings.ToLower(c.Model.Provider) {
	case "", "none", "huggingface", "hf", "gemini", "genai":
	default:
		return fmt.Errorf("model.provider %q is not supported", c.Model.Provider)
	}
	if c.Model.Timeout < 0 {
		return fmt.Errorf("model.timeout must not be negative")
	}
	if c.Model.Timeout == 0 {
		c.Model.Timeout = DefaultModelTimeout
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size must not be negative")
	}
	if c.Batch.Concurrency < 0 {
		return fmt.Errorf("batch.concurrency must not be negative")
	}
	if c.Batch.Concurrency == 0 {
		c.Batch.Concurrency = DefaultConcurrency
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Connection.Port == 0 {
		c.Connection.Port = 5432
	}
	if c.Connection.SSLMode == "" {
		c.Connection.SSLMode = "disable"
	}
	if len(c.Schemas) == 0 {
		c.Schemas = []string{"public"}
	}
	return nil
}

// ValidateForConvert checks the fields conversion needs.
func (c *Config) ValidateForConvert() error {
	if c.Schema == "" {
		return fmt.Errorf("a schema file is required (--schema, schema: or TEXT2SQL_SCHEMA)")
	}
	return nil
}

// ValidateForIntrospect checks the connection fields introspection needs.
func (c *Config) ValidateForIntrospect() error {
	if c.Connection.Host == "" {
		return fmt.Errorf("connection.host is required")
	}
	if c.Connection.Database == "" {
		return fmt.Errorf("connection.database is required")
	}
	if c.Connection.User == "" {
		return fmt.Errorf("connection.user is required")
	}
	return nil
}
