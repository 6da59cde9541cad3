// Package config loads the service configuration from the environment.
//
// A single Config value is built at process start and handed to every
// component that needs it:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	db, err := database.Connect(cfg)
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Log sink transports.
const (
	SinkLogstash = "logstash"
	SinkMongo    = "mongo"
	SinkNone     = "none"
)

// ErrInvalidEnvironment is returned by Load when ENVIRONMENT is not one of
// development, staging or production.
var ErrInvalidEnvironment = errors.New("config: invalid environment")

// ErrInvalidLogSink is returned by Load when LOG_SINK is unknown.
var ErrInvalidLogSink = errors.New("config: invalid log sink")

// Config holds every recognised option.
type Config struct {
	// Application
	AppName     string `env:"APP_NAME"     envDefault:"Items API"`
	AppVersion  string `env:"APP_VERSION"  envDefault:"1.0.0"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"items-api"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"true"`
	SecretKey   string `env:"SECRET_KEY,required"`
	Port        string `env:"APP_PORT"     envDefault:"8000"`

	// Database
	DatabaseURL string `env:"DATABASE_URL,required"`

	// CORS, comma-separated
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"http://localhost:5173,http://localhost:3000"`

	// Logging
	LogLevel           string `env:"LOG_LEVEL"            envDefault:"INFO"`
	LogSink            string `env:"LOG_SINK"             envDefault:"logstash"`
	LogstashHost       string `env:"LOGSTASH_HOST"        envDefault:"localhost"`
	LogstashPort       int    `env:"LOGSTASH_PORT"        envDefault:"5000"`
	LogMongoURI        string `env:"LOG_MONGO_URI"`
	LogMongoDatabase   string `env:"LOG_MONGO_DATABASE"   envDefault:"logs"`
	LogMongoCollection string `env:"LOG_MONGO_COLLECTION" envDefault:"app_logs"`

	// API
	APIPrefix     string `env:"API_V1_PREFIX"   envDefault:"/api/v1"`
	MaxBodyBytes  int64  `env:"MAX_BODY_BYTES"  envDefault:"4194304"`
	ItemsMaxLimit int    `env:"ITEMS_MAX_LIMIT" envDefault:"0"`
}

// Load reads an optional .env file (when present) and parses the process
// environment into a Config. Values already set in the environment win
// over the .env file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: read %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalises and checks enumerated options.
func (c *Config) Validate() error {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	switch c.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return fmt.Errorf("%w: %q (want development, staging or production)", ErrInvalidEnvironment, c.Environment)
	}

	c.LogSink = strings.ToLower(strings.TrimSpace(c.LogSink))
	switch c.LogSink {
	case SinkLogstash, SinkMongo, SinkNone:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogSink, c.LogSink)
	}

	if c.ItemsMaxLimit < 0 {
		c.ItemsMaxLimit = 0
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 4 << 20
	}
	return nil
}

// IsDevelopment reports whether the schema should be created at startup.
func (c *Config) IsDevelopment() bool { return c.Environment == EnvDevelopment }

// CORSOriginsList splits CORSOrigins on commas, trimming blanks.
func (c *Config) CORSOriginsList() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// LogstashAddr returns host:port of the remote log collector.
func (c *Config) LogstashAddr() string {
	return fmt.Sprintf("%s:%d", c.LogstashHost, c.LogstashPort)
}

// MongoLogURI returns LOG_MONGO_URI, or a mongodb:// URI built from the
// log host and port when it is unset.
func (c *Config) MongoLogURI() string {
	if c.LogMongoURI != "" {
		return c.LogMongoURI
	}
	return fmt.Sprintf("mongodb://%s:%d", c.LogstashHost, c.LogstashPort)
}

// SafeDatabaseURL hides credentials: only the part after '@' is returned.
func (c *Config) SafeDatabaseURL() string {
	if i := strings.LastIndex(c.DatabaseURL, "@"); i >= 0 {
		return c.DatabaseURL[i+1:]
	}
	return "configured"
}
