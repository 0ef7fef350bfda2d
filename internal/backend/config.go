package backend

import (
	"fmt"

	"saldo/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	provider := ProviderType(appConfig.RemoteProvider)
	if !provider.IsValid() {
		return Config{}, fmt.Errorf("invalid remote provider in config: %s", appConfig.RemoteProvider)
	}

	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,

		Provider:              provider,
		GoogleOAuthClientFile: appConfig.GoogleOAuthClientFile,
		GoogleOAuthClientJSON: appConfig.GoogleOAuthClientJSON,
		GCSBucket:             appConfig.GCSBucket,
		ClientCacheTTL:        appConfig.ClientCacheTTL,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if !c.Provider.IsValid() {
		return fmt.Errorf("invalid remote provider: %s", c.Provider)
	}

	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}

	switch c.Provider {
	case DriveProvider:
		if c.GoogleOAuthClientFile == "" && c.GoogleOAuthClientJSON == "" {
			return fmt.Errorf("either GoogleOAuthClientFile or GoogleOAuthClientJSON must be provided for drive provider")
		}
	case GCSProvider:
		if c.GCSBucket == "" {
			return fmt.Errorf("GCS bucket is required for gcs provider")
		}
	}

	return nil
}
