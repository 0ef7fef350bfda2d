// Package drive stores the sync document in the user's Google Drive.
package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"saldo/internal/core"
	"saldo/internal/remote"
)

const (
	mimeJSON   = "application/json"
	fileFields = "id, name, modifiedTime"
)

// Client is a remote.Store over one authorized Drive service.
type Client struct {
	svc *drive.Service
}

var _ remote.Store = (*Client)(nil)

// NewClient builds a Drive client from a token source. Extra options are
// appended, which lets tests point the service at an httptest server.
func NewClient(ctx context.Context, ts oauth2.TokenSource, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithTokenSource(ts)}, opts...)
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Find runs a name query over non-trashed files. Several matches are not an
// error; the first one listed wins.
func (c *Client) Find(ctx context.Context, name string) (remote.File, bool, error) {
	q := fmt.Sprintf("name = '%s' and trashed = false", escapeQuery(name))
	res, err := c.svc.Files.List().
		Q(q).
		Spaces("drive").
		Fields(googleapi.Field("files(" + fileFields + ")")).
		PageSize(10).
		Context(ctx).
		Do()
	if err != nil {
		return remote.File{}, false, remote.Classify("find file", err)
	}
	if len(res.Files) == 0 {
		return remote.File{}, false, nil
	}
	return toFile(res.Files[0]), true, nil
}

func (c *Client) Create(ctx context.Context, name string, content []byte) (remote.File, error) {
	meta := &drive.File{Name: name, MimeType: mimeJSON}
	f, err := c.svc.Files.Create(meta).
		Media(bytes.NewReader(content), googleapi.ContentType(mimeJSON)).
		Fields(fileFields).
		Context(ctx).
		Do()
	if err != nil {
		return remote.File{}, remote.Classify("create file", err)
	}
	return toFile(f), nil
}

// Update replaces the whole file content. Metadata is left alone.
func (c *Client) Update(ctx context.Context, id string, content []byte) error {
	_, err := c.svc.Files.Update(id, &drive.File{}).
		Media(bytes.NewReader(content), googleapi.ContentType(mimeJSON)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return remote.Classify("update file", err)
	}
	return nil
}

func (c *Client) Read(ctx context.Context, id string) ([]byte, error) {
	resp, err := c.svc.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, remote.Classify("download file", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read file body: %w", core.ErrNetwork, err)
	}
	return b, nil
}

func toFile(f *drive.File) remote.File {
	out := remote.File{ID: f.Id, Name: f.Name}
	if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
		out.Modified = t
	}
	return out
}

// escapeQuery quotes a literal for the Drive query language.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
