package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"saldo/internal/config"
	"saldo/internal/core"
	"saldo/internal/store"
)

func TestFromAppConfig(t *testing.T) {
	cfg, err := FromAppConfig(&config.Config{
		DataBackend:    "sqlite",
		SQLiteDBPath:   "./x.db",
		RemoteProvider: "gcs",
		GCSBucket:      "b",
		ClientCacheTTL: time.Minute,
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.Provider != GCSProvider || cfg.GCSBucket != "b" {
		t.Errorf("unexpected config %+v", cfg)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets", RemoteProvider: "none"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "memory", RemoteProvider: "dropbox"}); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory none", Config{Type: MemoryBackend, Provider: NoProvider}, false},
		{"sqlite without path", Config{Type: SQLiteBackend, Provider: NoProvider}, true},
		{"drive without client", Config{Type: MemoryBackend, Provider: DriveProvider}, true},
		{"drive inline client", Config{Type: MemoryBackend, Provider: DriveProvider, GoogleOAuthClientJSON: "{}"}, false},
		{"gcs without bucket", Config{Type: MemoryBackend, Provider: GCSProvider}, true},
		{"bad type", Config{Type: "x", Provider: NoProvider}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateSQLiteWithoutRemote(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).Create(ctx, Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "saldo.db"),
		Provider:     NoProvider,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			t.Errorf("Cleanup() error = %v", err)
		}
	}()

	if res.Notifier != nil {
		t.Error("notifier should be nil without AMQP")
	}
	if err := res.Local.Save(ctx, store.Entry{Key: store.KeyCurrency, Value: []byte(`"€"`)}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	_, err = res.Connector.Connect(ctx, core.Credential("token"))
	if !errors.Is(err, ErrSyncDisabled) || !errors.Is(err, core.ErrAuth) {
		t.Errorf("Connect() error = %v, want ErrSyncDisabled", err)
	}
}

func TestCreateMemoryRemote(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).Create(ctx, Config{Type: MemoryBackend, Provider: MemoryProvider})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer res.Cleanup()

	s, err := res.Connector.Connect(ctx, core.Credential("anything"))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if _, found, err := s.Find(ctx, core.DefaultFileName); err != nil || found {
		t.Errorf("Find() = %v, %v; want absent", found, err)
	}
}

func TestCreateDriveRejectsBadClient(t *testing.T) {
	_, err := NewFactory(nil).Create(context.Background(), Config{
		Type:                  MemoryBackend,
		Provider:              DriveProvider,
		GoogleOAuthClientJSON: "not json",
	})
	if err == nil {
		t.Fatal("expected error for malformed OAuth client")
	}
}

func TestCreateGCSIsLazy(t *testing.T) {
	res, err := NewFactory(nil).Create(context.Background(), Config{
		Type:      MemoryBackend,
		Provider:  GCSProvider,
		GCSBucket: "saldo-test",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer res.Cleanup()
	if res.Connector == nil {
		t.Fatal("connector should be set")
	}
}
