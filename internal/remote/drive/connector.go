package drive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"saldo/internal/cache"
	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/remote"
)

// Scope is the only Drive scope requested: files created or opened by this app.
const Scope = drive.DriveFileScope

// Connector turns a credential (the JSON of an oauth2.Token as written by
// saldo-auth) into an authorized Client. Clients are cached per credential
// and concurrent connects for the same credential share one attempt.
type Connector struct {
	config  *oauth2.Config
	clients *cache.LRUCache[*Client]
	group   singleflight.Group
	logger  *log.Logger
	opts    []option.ClientOption
}

var _ remote.Connector = (*Connector)(nil)

// LoadOAuthConfig reads an OAuth client definition from inline JSON or, when
// that is empty, from file.
func LoadOAuthConfig(inline, file string) (*oauth2.Config, error) {
	var raw []byte
	switch {
	case strings.TrimSpace(inline) != "":
		raw = []byte(inline)
	case strings.TrimSpace(file) != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read oauth client file: %w", err)
		}
		raw = b
	default:
		return nil, fmt.Errorf("missing oauth client configuration")
	}
	cfg, err := google.ConfigFromJSON(raw, Scope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}
	return cfg, nil
}

func NewConnector(config *oauth2.Config, clients *cache.LRUCache[*Client], logger *log.Logger, opts ...option.ClientOption) *Connector {
	if clients == nil {
		clients = cache.NewLRUCache[*Client](8, 30*time.Minute)
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Connector{
		config:  config,
		clients: clients,
		logger:  logger.WithComponent(log.ComponentRemote),
		opts:    opts,
	}
}

func (c *Connector) Connect(ctx context.Context, cred core.Credential) (remote.Store, error) {
	if cred == "" {
		return nil, fmt.Errorf("%w: empty credential", core.ErrAuth)
	}
	key := cacheKey(cred)
	if client, ok := c.clients.Get(key); ok {
		return client, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		client, err := c.connect(ctx, cred)
		if err != nil {
			return nil, err
		}
		c.clients.Set(key, client)
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Client), nil
}

func (c *Connector) connect(ctx context.Context, cred core.Credential) (*Client, error) {
	tok, err := readToken(cred)
	if err != nil {
		return nil, err
	}

	// The token source outlives this call, so it must not carry ctx.
	ts := c.config.TokenSource(context.Background(), tok)
	if _, err := ts.Token(); err != nil {
		return nil, remote.Classify("refresh token", err)
	}

	client, err := NewClient(ctx, ts, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrNetwork, err)
	}
	c.logger.InfoContext(ctx, "Drive client authorized", log.FieldOperation, log.OpConnect)
	return client, nil
}

// Forget drops the cached client for cred, e.g. after disconnect.
func (c *Connector) Forget(cred core.Credential) {
	c.clients.Delete(cacheKey(cred))
}

// readToken accepts either an inline token document or the path of a token
// file.
func readToken(cred core.Credential) (*oauth2.Token, error) {
	raw := []byte(strings.TrimSpace(cred.Reveal()))
	if len(raw) > 0 && raw[0] != '{' {
		b, err := os.ReadFile(string(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: read token file: %w", core.ErrAuth, err)
		}
		raw = b
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("%w: credential is not a token: %w", core.ErrAuth, err)
	}
	return &tok, nil
}

// cacheKey hashes the credential so raw tokens are never used as map keys.
func cacheKey(cred core.Credential) string {
	sum := sha256.Sum256([]byte(cred.Reveal()))
	return hex.EncodeToString(sum[:])
}
