// Package remote defines the ports to the user's cloud file storage.
//
// A Store is already authorized; Connector turns an opaque credential into
// one. Adapters translate provider failures into core.ErrAuth,
// core.ErrNotFound and core.ErrNetwork so callers can classify them with
// errors.Is.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"saldo/internal/core"
)

// File identifies one remote document.
type File struct {
	ID       string
	Name     string
	Modified time.Time
}

// Store is an authorized view of the remote file space.
type Store interface {
	// Find looks up a non-deleted file by exact name. When several files
	// share the name any one of them may be returned.
	Find(ctx context.Context, name string) (File, bool, error)
	Create(ctx context.Context, name string, content []byte) (File, error)
	Update(ctx context.Context, id string, content []byte) error
	Read(ctx context.Context, id string) ([]byte, error)
}

// Connector authorizes a credential and returns a Store bound to it.
type Connector interface {
	Connect(ctx context.Context, cred core.Credential) (Store, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context, cred core.Credential) (Store, error)

func (f ConnectorFunc) Connect(ctx context.Context, cred core.Credential) (Store, error) {
	return f(ctx, cred)
}

// IsNetwork reports whether err came from the transport rather than the
// provider.
func IsNetwork(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Classify maps Google API and OAuth failures onto the core error classes.
// Anything it does not recognise is treated as a network failure.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrAuth) || errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrNetwork) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%s: %w: %w", op, core.ErrAuth, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w: %w", op, core.ErrAuth, err)
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %w", op, core.ErrNotFound, err)
		}
		return fmt.Errorf("%s: %w: remote returned %d: %w", op, core.ErrNetwork, apiErr.Code, err)
	}
	if IsNetwork(err) {
		return fmt.Errorf("%s: %w: %w", op, core.ErrNetwork, err)
	}
	return fmt.Errorf("%s: %w: unexpected failure: %w", op, core.ErrNetwork, err)
}
