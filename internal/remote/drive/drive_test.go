package drive

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"saldo/internal/core"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(context.Background(),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test"}),
		option.WithEndpoint(srv.URL+"/"),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestFindQueriesByNameExcludingTrash(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"files":[{"id":"abc","name":"saldo-data.json","modifiedTime":"2025-03-01T10:00:00Z"}]}`)
	})

	f, ok, err := c.Find(context.Background(), "saldo-data.json")
	if err != nil || !ok {
		t.Fatalf("find: ok=%v err=%v", ok, err)
	}
	if f.ID != "abc" || f.Modified.IsZero() {
		t.Errorf("unexpected file %+v", f)
	}
	if want := "name = 'saldo-data.json' and trashed = false"; gotQuery != want {
		t.Errorf("query = %q, want %q", gotQuery, want)
	}
}

func TestFindNoMatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"files":[]}`)
	})
	if _, ok, err := c.Find(context.Background(), "x.json"); ok || err != nil {
		t.Fatalf("expected no match, ok=%v err=%v", ok, err)
	}
}

func TestFindUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"code":401,"message":"Invalid Credentials"}}`)
	})
	if _, _, err := c.Find(context.Background(), "x.json"); !errors.Is(err, core.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestReadDownloadsContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alt") != "media" {
			t.Errorf("expected media download, got %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"transactions":[],"categories":[]}`)
	})
	b, err := c.Read(context.Background(), "abc")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != `{"transactions":[],"categories":[]}` {
		t.Errorf("content = %s", b)
	}
}

func TestEscapeQuery(t *testing.T) {
	if got := escapeQuery(`it's\data.json`); got != `it\'s\\data.json` {
		t.Errorf("escapeQuery = %q", got)
	}
}

const validToken = `{"access_token":"a","token_type":"Bearer","expiry":"2099-01-01T00:00:00Z"}`

func TestConnectorCachesClients(t *testing.T) {
	conn := NewConnector(&oauth2.Config{}, nil, nil, option.WithEndpoint("http://127.0.0.1:1/"))
	ctx := context.Background()

	a, err := conn.Connect(ctx, validToken)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	b, err := conn.Connect(ctx, validToken)
	if err != nil {
		t.Fatalf("second connect: %v", err)
	}
	if a != b {
		t.Error("expected cached client")
	}

	conn.Forget(validToken)
	c, _ := conn.Connect(ctx, validToken)
	if c == a {
		t.Error("expected fresh client after Forget")
	}
}

func TestConnectorRejectsBadCredentials(t *testing.T) {
	conn := NewConnector(&oauth2.Config{}, nil, nil)
	ctx := context.Background()

	for _, cred := range []core.Credential{"", "{not json", core.Credential(filepath.Join(t.TempDir(), "missing.json"))} {
		if _, err := conn.Connect(ctx, cred); !errors.Is(err, core.ErrAuth) {
			t.Errorf("Connect(%q) = %v, want auth error", cred.Reveal(), err)
		}
	}
}

func TestReadTokenFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(path, []byte(validToken), 0o600); err != nil {
		t.Fatal(err)
	}
	tok, err := readToken(core.Credential(path))
	if err != nil || tok.AccessToken != "a" {
		t.Fatalf("readToken = %+v, %v", tok, err)
	}
}
