// Package backend wires the local record backend, the remote document
// connector and the optional snapshot notifier from configuration.
package backend

import (
	"context"
	"time"

	"saldo/internal/cache"
	"saldo/internal/notify"
	"saldo/internal/remote"
	"saldo/internal/store"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result holds everything the factory built. Notifier is nil when AMQP is
// not configured or unreachable.
type Result struct {
	Local     store.Backend
	Connector remote.Connector
	Notifier  *notify.Client
	Caches    *cache.Manager
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type         BackendType
	SQLiteDBPath string

	Provider              ProviderType
	GoogleOAuthClientFile string
	GoogleOAuthClientJSON string
	GCSBucket             string
	ClientCacheTTL        time.Duration

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType selects where local records are persisted.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// ProviderType selects the remote file storage holding the sync document.
type ProviderType string

const (
	DriveProvider  ProviderType = "drive"
	GCSProvider    ProviderType = "gcs"
	MemoryProvider ProviderType = "memory"
	NoProvider     ProviderType = "none"
)

func (pt ProviderType) String() string {
	return string(pt)
}

func (pt ProviderType) IsValid() bool {
	switch pt {
	case DriveProvider, GCSProvider, MemoryProvider, NoProvider:
		return true
	default:
		return false
	}
}
