// Package syncer implements whole-document sync against a single named
// remote file. There is no merge and no conflict detection: every push
// overwrites the file and the last completed push wins.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/remote"
)

const tracerName = "saldo/internal/syncer"

type Engine struct {
	connector remote.Connector
	tracer    trace.Tracer
	logger    *log.Logger
}

type Option func(*Engine)

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) { e.tracer = tp.Tracer(tracerName) }
}

func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l.WithComponent(log.ComponentSync) }
}

func New(connector remote.Connector, opts ...Option) *Engine {
	e := &Engine{
		connector: connector,
		tracer:    otel.Tracer(tracerName),
		logger:    log.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Locate authorizes cred and looks the file up by name.
func (e *Engine) Locate(ctx context.Context, fileName string, cred core.Credential) (remote.File, bool, error) {
	ctx, span := e.tracer.Start(ctx, "syncer.Locate", trace.WithAttributes(attribute.String("file.name", fileName)))
	defer span.End()

	store, err := e.open(ctx, fileName, cred)
	if err != nil {
		return remote.File{}, false, record(span, err)
	}
	f, ok, err := store.Find(ctx, fileName)
	if err != nil {
		return remote.File{}, false, record(span, fmt.Errorf("locate %s: %w", fileName, err))
	}
	span.SetAttributes(attribute.Bool("file.found", ok))
	return f, ok, nil
}

// Push serializes snap and overwrites the file named fileName, creating it
// when no live file has that name. It returns the remote file id.
func (e *Engine) Push(ctx context.Context, snap core.Snapshot, fileName string, cred core.Credential) (string, error) {
	ctx, span := e.tracer.Start(ctx, "syncer.Push", trace.WithAttributes(
		attribute.String("file.name", fileName),
		attribute.Int("snapshot.transactions", len(snap.Transactions)),
		attribute.Int("snapshot.categories", len(snap.Categories)),
	))
	defer span.End()

	store, err := e.open(ctx, fileName, cred)
	if err != nil {
		return "", record(span, err)
	}
	existing, found, err := store.Find(ctx, fileName)
	if err != nil {
		return "", record(span, fmt.Errorf("push %s: %w", fileName, err))
	}
	doc, err := core.EncodeSnapshot(snap)
	if err != nil {
		return "", record(span, fmt.Errorf("push %s: %w", fileName, err))
	}
	span.SetAttributes(attribute.Int("document.bytes", len(doc)), attribute.Bool("file.found", found))

	if found {
		if err := store.Update(ctx, existing.ID, doc); err != nil {
			return "", record(span, fmt.Errorf("push %s: %w", fileName, err))
		}
		e.logger.DebugContext(ctx, "Remote document overwritten", log.FieldOperation, log.OpPush, log.FieldFileID, existing.ID)
		return existing.ID, nil
	}

	created, err := store.Create(ctx, fileName, doc)
	if err != nil {
		return "", record(span, fmt.Errorf("push %s: %w", fileName, err))
	}
	e.logger.InfoContext(ctx, "Remote document created", log.FieldOperation, log.OpPush, log.FieldFileID, created.ID)
	return created.ID, nil
}

// Pull fetches and decodes the file named fileName. It never touches local
// state. A missing file yields core.ErrNotFound.
func (e *Engine) Pull(ctx context.Context, fileName string, cred core.Credential) (core.Snapshot, string, error) {
	ctx, span := e.tracer.Start(ctx, "syncer.Pull", trace.WithAttributes(attribute.String("file.name", fileName)))
	defer span.End()

	store, err := e.open(ctx, fileName, cred)
	if err != nil {
		return core.Snapshot{}, "", record(span, err)
	}
	f, found, err := store.Find(ctx, fileName)
	if err != nil {
		return core.Snapshot{}, "", record(span, fmt.Errorf("pull %s: %w", fileName, err))
	}
	if !found {
		// Expected before the first push; not recorded as a span error.
		span.SetAttributes(attribute.Bool("file.found", false))
		return core.Snapshot{}, "", fmt.Errorf("pull %s: %w", fileName, core.ErrNotFound)
	}
	raw, err := store.Read(ctx, f.ID)
	if err != nil {
		return core.Snapshot{}, "", record(span, fmt.Errorf("pull %s: %w", fileName, err))
	}
	snap, err := core.DecodeSnapshot(raw)
	if err != nil {
		return core.Snapshot{}, "", record(span, fmt.Errorf("pull %s: %w", fileName, err))
	}
	span.SetAttributes(
		attribute.Int("snapshot.transactions", len(snap.Transactions)),
		attribute.Int("snapshot.categories", len(snap.Categories)),
	)
	return snap, f.ID, nil
}

func (e *Engine) open(ctx context.Context, fileName string, cred core.Credential) (remote.Store, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, core.ErrBlankFileName
	}
	if cred == "" {
		return nil, fmt.Errorf("%w: no credential", core.ErrAuth)
	}
	store, err := e.connector.Connect(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return store, nil
}

func record(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, errorClass(err))
	return err
}

// errorClass names the core error class of err for span status.
func errorClass(err error) string {
	switch {
	case errors.Is(err, core.ErrAuth):
		return "auth"
	case errors.Is(err, core.ErrNotFound):
		return "not_found"
	case errors.Is(err, core.ErrCorruptDocument):
		return "corrupt_document"
	case errors.Is(err, core.ErrNetwork):
		return "network"
	case errors.Is(err, core.ErrValidation):
		return "validation"
	}
	return "unknown"
}
