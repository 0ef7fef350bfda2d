package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"saldo/internal/core"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden}, core.ErrAuth},
		{"unauthorized", &googleapi.Error{Code: http.StatusUnauthorized}, core.ErrAuth},
		{"missing", &googleapi.Error{Code: http.StatusNotFound}, core.ErrNotFound},
		{"server", &googleapi.Error{Code: http.StatusInternalServerError}, core.ErrNetwork},
		{"token refresh", &url.Error{Op: "Post", URL: "https://oauth2", Err: &oauth2.RetrieveError{ErrorCode: "invalid_grant", Response: &http.Response{StatusCode: http.StatusBadRequest}}}, core.ErrAuth},
		{"transport", &url.Error{Op: "Get", URL: "https://drive", Err: errors.New("connection refused")}, core.ErrNetwork},
		{"already classified", fmt.Errorf("wrapped: %w", core.ErrNotFound), core.ErrNotFound},
		{"unknown", errors.New("odd"), core.ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify("op", tt.err); !errors.Is(got, tt.want) {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
	if Classify("op", nil) != nil {
		t.Error("nil error must stay nil")
	}
}

func TestIsNetwork(t *testing.T) {
	if !IsNetwork(&url.Error{Op: "Get", URL: "x", Err: errors.New("eof")}) {
		t.Error("url.Error should be a network error")
	}
	if IsNetwork(errors.New("plain")) {
		t.Error("plain error should not be a network error")
	}
}

func TestConnectorFunc(t *testing.T) {
	called := false
	var c Connector = ConnectorFunc(func(ctx context.Context, cred core.Credential) (Store, error) {
		called = true
		return nil, core.ErrAuth
	})
	if _, err := c.Connect(context.Background(), "x"); !errors.Is(err, core.ErrAuth) || !called {
		t.Errorf("ConnectorFunc not invoked, err=%v", err)
	}
}
