// Package gcs stores the sync document as an object in a Cloud Storage
// bucket. The object name is the document file name, so names are unique and
// the object name doubles as the file id.
package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"saldo/internal/cache"
	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/remote"
)

// ADC selects Application Default Credentials instead of a key file.
const ADC core.Credential = "adc"

// Bucket is a remote.Store over one bucket.
type Bucket struct {
	client *storage.Client
	bucket string
}

var _ remote.Store = (*Bucket)(nil)

func NewBucket(client *storage.Client, bucket string) *Bucket {
	return &Bucket{client: client, bucket: bucket}
}

func (b *Bucket) Find(ctx context.Context, name string) (remote.File, bool, error) {
	attrs, err := b.client.Bucket(b.bucket).Object(name).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return remote.File{}, false, nil
	}
	if err != nil {
		return remote.File{}, false, classify("stat object", err)
	}
	return remote.File{ID: attrs.Name, Name: attrs.Name, Modified: attrs.Updated}, true, nil
}

func (b *Bucket) Create(ctx context.Context, name string, content []byte) (remote.File, error) {
	if err := b.write(ctx, name, content); err != nil {
		return remote.File{}, err
	}
	return remote.File{ID: name, Name: name, Modified: time.Now()}, nil
}

func (b *Bucket) Update(ctx context.Context, id string, content []byte) error {
	return b.write(ctx, id, content)
}

func (b *Bucket) write(ctx context.Context, name string, content []byte) error {
	w := b.client.Bucket(b.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := io.Copy(w, bytes.NewReader(content)); err != nil {
		_ = w.Close()
		return classify("write object", err)
	}
	if err := w.Close(); err != nil {
		return classify("finalize object", err)
	}
	return nil
}

func (b *Bucket) Read(ctx context.Context, id string) ([]byte, error) {
	r, err := b.client.Bucket(b.bucket).Object(id).NewReader(ctx)
	if err != nil {
		return nil, classify("open object reader", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, classify("read object", err)
	}
	return data, nil
}

func classify(op string, err error) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("%s: %w: %w", op, core.ErrNotFound, err)
	}
	return remote.Classify(op, err)
}

// Connector opens one storage client per credential. The credential is a
// service account key (inline JSON or a file path) or ADC.
type Connector struct {
	bucket  string
	clients *cache.LRUCache[*storage.Client]
	logger  *log.Logger
	opts    []option.ClientOption
}

var _ remote.Connector = (*Connector)(nil)

func NewConnector(bucket string, clients *cache.LRUCache[*storage.Client], logger *log.Logger, opts ...option.ClientOption) *Connector {
	if clients == nil {
		clients = cache.NewLRUCache[*storage.Client](4, 30*time.Minute)
	}
	if logger == nil {
		logger = log.Discard()
	}
	l := logger.WithComponent(log.ComponentRemote)
	clients.OnEvict(func(_ string, c *storage.Client) {
		if err := c.Close(); err != nil {
			l.Warn("Failed to close storage client", log.FieldError, err)
		}
	})
	return &Connector{bucket: bucket, clients: clients, logger: l, opts: opts}
}

func (c *Connector) Connect(ctx context.Context, cred core.Credential) (remote.Store, error) {
	if cred == "" {
		return nil, fmt.Errorf("%w: empty credential", core.ErrAuth)
	}
	key := cred.Reveal()
	if client, ok := c.clients.Get(key); ok {
		return NewBucket(client, c.bucket), nil
	}

	opts := append([]option.ClientOption(nil), c.opts...)
	if cred != ADC {
		raw, err := credentialJSON(cred)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithCredentialsJSON(raw))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: create storage client: %w", core.ErrAuth, err)
	}
	c.clients.Set(key, client)
	c.logger.InfoContext(ctx, "Storage client created", log.FieldOperation, log.OpConnect, "bucket", c.bucket)
	return NewBucket(client, c.bucket), nil
}

func credentialJSON(cred core.Credential) ([]byte, error) {
	s := strings.TrimSpace(cred.Reveal())
	if strings.HasPrefix(s, "{") {
		return []byte(s), nil
	}
	b, err := os.ReadFile(s)
	if err != nil {
		return nil, fmt.Errorf("%w: read key file: %w", core.ErrAuth, err)
	}
	return b, nil
}
