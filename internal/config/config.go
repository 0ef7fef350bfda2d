package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"saldo/internal/log"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	RemoteDrive  = "drive"
	RemoteGCS    = "gcs"
	RemoteMemory = "memory"
	RemoteNone   = "none"
)

// Config is process configuration. User settings such as the currency symbol
// or the sync connection live in the record store, not here.
type Config struct {
	// HTTP Server
	Port string `env:"SALDO_HTTP_PORT" envDefault:"8081"`

	// Local persistence
	DataBackend  string `env:"SALDO_DATA_BACKEND" envDefault:"sqlite"`
	SQLiteDBPath string `env:"SALDO_SQLITE_PATH" envDefault:"./data/saldo.db"`

	// Remote document storage
	RemoteProvider        string        `env:"SALDO_REMOTE_PROVIDER" envDefault:"drive"`
	GoogleOAuthClientFile string        `env:"SALDO_GOOGLE_OAUTH_CLIENT_FILE"`
	GoogleOAuthClientJSON string        `env:"SALDO_GOOGLE_OAUTH_CLIENT_JSON"`
	GCSBucket             string        `env:"SALDO_GCS_BUCKET"`
	ClientCacheTTL        time.Duration `env:"SALDO_CLIENT_CACHE_TTL" envDefault:"30m"`

	// Background push
	PushQueueSize int    `env:"SALDO_PUSH_QUEUE_SIZE" envDefault:"16"`
	PushWorkers   int    `env:"SALDO_PUSH_WORKERS" envDefault:"1"`
	DeviceName    string `env:"SALDO_DEVICE_NAME"`

	// AMQP (optional)
	AMQPURL      string `env:"SALDO_AMQP_URL"`
	AMQPExchange string `env:"SALDO_AMQP_EXCHANGE" envDefault:"saldo"`
	AMQPQueue    string `env:"SALDO_AMQP_QUEUE" envDefault:"saldo_snapshots"`

	// Natural language input
	GeminiModel string `env:"SALDO_GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	// Observability
	LogLevel     string `env:"SALDO_LOG_LEVEL" envDefault:"info"`
	OTelEndpoint string `env:"SALDO_OTEL_ENDPOINT"`
}

// Load parses the environment. DeviceName falls back to the host name.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DeviceName == "" {
		if host, err := os.Hostname(); err == nil {
			cfg.DeviceName = host
		}
	}
	return cfg, nil
}

// Validate validates the configuration and returns an error listing every problem
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendSQLite, BackendMemory}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	validRemotes := []string{RemoteDrive, RemoteGCS, RemoteMemory, RemoteNone}
	if !slices.Contains(validRemotes, c.RemoteProvider) {
		errors = append(errors, fmt.Sprintf("invalid remote provider '%s': must be one of %v", c.RemoteProvider, validRemotes))
	}

	switch c.RemoteProvider {
	case RemoteDrive:
		hasClientFile := c.GoogleOAuthClientFile != ""
		if !hasClientFile && c.GoogleOAuthClientJSON == "" {
			errors = append(errors, "either SALDO_GOOGLE_OAUTH_CLIENT_FILE or SALDO_GOOGLE_OAUTH_CLIENT_JSON must be provided for drive provider")
		}
		if hasClientFile {
			if _, err := os.Stat(c.GoogleOAuthClientFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google OAuth client file does not exist: %s", c.GoogleOAuthClientFile))
			}
		}
	case RemoteGCS:
		if c.GCSBucket == "" {
			errors = append(errors, "SALDO_GCS_BUCKET is required when using gcs provider")
		}
	}

	if c.ClientCacheTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid client cache TTL %v: must be at least 1 minute", c.ClientCacheTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.PushQueueSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid push queue size %d: must be at least 1", c.PushQueueSize))
	} else if c.PushQueueSize > 1024 {
		errors = append(errors, fmt.Sprintf("invalid push queue size %d: must be at most 1024", c.PushQueueSize))
	}
	if c.PushWorkers < 1 {
		errors = append(errors, fmt.Sprintf("invalid push workers %d: must be at least 1", c.PushWorkers))
	} else if c.PushWorkers > 8 {
		errors = append(errors, fmt.Sprintf("invalid push workers %d: must be at most 8", c.PushWorkers))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.OTelEndpoint != "" {
		if _, err := url.Parse(c.OTelEndpoint); err != nil {
			errors = append(errors, fmt.Sprintf("invalid OTel endpoint '%s': %v", c.OTelEndpoint, err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
