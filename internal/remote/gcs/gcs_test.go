package gcs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"cloud.google.com/go/storage"

	"saldo/internal/core"
)

func TestClassifyStorageErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"object", storage.ErrObjectNotExist, core.ErrNotFound},
		{"bucket", fmt.Errorf("attrs: %w", storage.ErrBucketNotExist), core.ErrNotFound},
		{"other", errors.New("boom"), core.ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify("op", tt.err); !errors.Is(got, tt.want) {
				t.Errorf("classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCredentialJSON(t *testing.T) {
	raw, err := credentialJSON(` {"type":"service_account"} `)
	if err != nil || string(raw) != `{"type":"service_account"}` {
		t.Fatalf("inline credential = %s, %v", raw, err)
	}
	missing := core.Credential(filepath.Join(t.TempDir(), "key.json"))
	if _, err := credentialJSON(missing); !errors.Is(err, core.ErrAuth) {
		t.Errorf("expected auth error for missing key file, got %v", err)
	}
}

func TestConnectRejectsEmptyCredential(t *testing.T) {
	c := NewConnector("bucket", nil, nil)
	if _, err := c.Connect(context.Background(), ""); !errors.Is(err, core.ErrAuth) {
		t.Errorf("expected auth error, got %v", err)
	}
}
