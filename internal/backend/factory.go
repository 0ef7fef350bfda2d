package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	gstorage "cloud.google.com/go/storage"

	"saldo/internal/cache"
	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/notify"
	"saldo/internal/remote"
	"saldo/internal/remote/drive"
	"saldo/internal/remote/gcs"
	remotememory "saldo/internal/remote/memory"
	"saldo/internal/storage"
	"saldo/internal/store"
	"saldo/internal/store/memory"
)

const (
	defaultClientCacheTTL = 30 * time.Minute
	clientCacheSize       = 8
)

// ErrSyncDisabled is returned by the connector when no remote provider is
// configured.
var ErrSyncDisabled = fmt.Errorf("%w: remote sync disabled", core.ErrAuth)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentStorage),
	}
}

// Create builds the local backend, the remote connector and, when AMQP is
// configured, the notifier. A notifier that cannot connect is logged and
// left out.
func (f *DefaultFactory) Create(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	local, closeLocal, err := f.createLocal(config)
	if err != nil {
		return nil, err
	}

	caches := cache.NewManager(f.logger)
	connector, err := f.createConnector(config, caches)
	if err != nil {
		_ = closeLocal()
		return nil, err
	}

	var notifier *notify.Client
	if config.AMQPURL != "" {
		notifier, err = notify.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without notifications", log.FieldError, err)
			notifier = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	ttl := config.ClientCacheTTL
	if ttl <= 0 {
		ttl = defaultClientCacheTTL
	}
	caches.StartCleanup(ttl / 2)

	cleanup := func() error {
		caches.Stop()
		var errs []error
		if notifier != nil {
			errs = append(errs, notifier.Close())
		}
		errs = append(errs, closeLocal())
		return errors.Join(errs...)
	}

	return &Result{
		Local:     local,
		Connector: connector,
		Notifier:  notifier,
		Caches:    caches,
		Cleanup:   cleanup,
	}, nil
}

func (f *DefaultFactory) createLocal(config Config) (store.Backend, CleanupFunc, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, repo.Close, nil
	case MemoryBackend:
		b := memory.New()
		f.logger.Info("Initialized memory backend, records will not survive a restart")
		return b, b.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createConnector(config Config, caches *cache.Manager) (remote.Connector, error) {
	ttl := config.ClientCacheTTL
	if ttl <= 0 {
		ttl = defaultClientCacheTTL
	}

	switch config.Provider {
	case DriveProvider:
		oauthCfg, err := drive.LoadOAuthConfig(config.GoogleOAuthClientJSON, config.GoogleOAuthClientFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load Drive OAuth client: %w", err)
		}
		clients := cache.NewLRUCache[*drive.Client](clientCacheSize, ttl)
		caches.Register(clients)
		f.logger.Info("Initialized Drive provider")
		return drive.NewConnector(oauthCfg, clients, f.logger), nil
	case GCSProvider:
		clients := cache.NewLRUCache[*gstorage.Client](clientCacheSize, ttl)
		caches.Register(clients)
		f.logger.Info("Initialized GCS provider", "bucket", config.GCSBucket)
		return gcs.NewConnector(config.GCSBucket, clients, f.logger), nil
	case MemoryProvider:
		f.logger.Info("Initialized in-memory provider, remote documents will not survive a restart")
		return remotememory.New(), nil
	case NoProvider:
		return remote.ConnectorFunc(func(context.Context, core.Credential) (remote.Store, error) {
			return nil, ErrSyncDisabled
		}), nil
	default:
		return nil, fmt.Errorf("unsupported remote provider: %s", config.Provider)
	}
}
