// Package ledger is the single entry point for changing local records.
//
// Every successful write schedules a background push of the whole record set
// to the remote document. Push failures are logged and never reach the
// caller; the next write's push is the retry. ForcePull is the only path that
// replaces local records with remote ones, and it only runs when asked.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/notify"
	"saldo/internal/remote"
	"saldo/internal/store"
)

// Syncer is the sync engine as seen by the ledger.
type Syncer interface {
	Push(ctx context.Context, snap core.Snapshot, fileName string, cred core.Credential) (string, error)
	Pull(ctx context.Context, fileName string, cred core.Credential) (core.Snapshot, string, error)
	Locate(ctx context.Context, fileName string, cred core.Credential) (remote.File, bool, error)
}

// Notifier is told about every push that was recorded.
type Notifier interface {
	PublishSnapshotPushed(ctx context.Context, msg *notify.SnapshotPushedMessage) error
}

// ErrNotConnected is returned by explicit sync operations while sync is off.
var ErrNotConnected = fmt.Errorf("%w: sync is not connected", core.ErrAuth)

type Config struct {
	QueueSize int
	Workers   int
	// Origin names this device in published events.
	Origin string
}

type Ledger struct {
	store    *store.Store
	syncer   Syncer
	notifier Notifier
	logger   *log.Logger
	now      func() time.Time
	origin   string
	queue    *PushQueue

	// mu serializes mutations and ForcePull.
	mu sync.Mutex

	seq     atomic.Uint64
	recMu   sync.Mutex
	lastSeq uint64
}

type Option func(*Ledger)

func WithNotifier(n Notifier) Option {
	return func(l *Ledger) { l.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithLogger(lg *log.Logger) Option {
	return func(l *Ledger) { l.logger = lg.WithComponent(log.ComponentLedger) }
}

func New(s *store.Store, syncer Syncer, cfg Config, opts ...Option) *Ledger {
	l := &Ledger{
		store:  s,
		syncer: syncer,
		logger: log.Discard(),
		now:    time.Now,
		origin: cfg.Origin,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.queue = NewPushQueue(cfg.QueueSize, cfg.Workers, l.runPush, l.logger)
	return l
}

// Start enables background pushes. Writes made before Start are not pushed.
func (l *Ledger) Start(ctx context.Context) error {
	return l.queue.Start(ctx)
}

// Stop abandons pending background pushes.
func (l *Ledger) Stop(ctx context.Context) error {
	return l.queue.Stop(ctx)
}

// Flush waits for queued pushes to finish, then stops the queue.
func (l *Ledger) Flush(ctx context.Context) error {
	return l.queue.Drain(ctx)
}

func (l *Ledger) ListTransactions() []core.Transaction {
	return l.store.ListTransactions()
}

func (l *Ledger) ListCategories() []core.Category {
	return l.store.ListCategories()
}

func (l *Ledger) Currency() string {
	return l.store.Currency()
}

func (l *Ledger) SyncConfig() core.SyncConfig {
	return l.store.SyncConfig()
}

func (l *Ledger) AddTransaction(ctx context.Context, t core.Transaction) ([]core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	txs, err := l.store.AddTransaction(ctx, t)
	if err != nil {
		return nil, err
	}
	l.logger.InfoContext(ctx, "Transaction added",
		log.NewFields().WithOperation(log.OpAdd).WithTransaction(txs[0].ID, string(txs[0].Kind), txs[0].Category, txs[0].Amount.Cents).ToSlice()...)
	l.schedulePush(ctx)
	return txs, nil
}

func (l *Ledger) RemoveTransaction(ctx context.Context, id string) ([]core.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	txs, err := l.store.RemoveTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	l.logger.InfoContext(ctx, "Transaction removed", log.FieldOperation, log.OpRemove, log.FieldTxID, id)
	l.schedulePush(ctx)
	return txs, nil
}

func (l *Ledger) AddCategory(ctx context.Context, c core.Category) ([]core.Category, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cats, err := l.store.AddCategory(ctx, c)
	if err != nil {
		return nil, err
	}
	l.schedulePush(ctx)
	return cats, nil
}

func (l *Ledger) RemoveCategory(ctx context.Context, id string) ([]core.Category, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cats, err := l.store.RemoveCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	l.schedulePush(ctx)
	return cats, nil
}

// SetCurrency is presentational and is not part of the pushed document.
func (l *Ledger) SetCurrency(ctx context.Context, symbol string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.SetCurrency(ctx, symbol)
}

// SetFileName changes the remote document name. The remembered file id
// belongs to the old name and is cleared.
func (l *Ledger) SetFileName(ctx context.Context, name string) (core.SyncConfig, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.SyncConfig{}, core.ErrBlankFileName
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.UpdateSyncConfig(ctx, func(c *core.SyncConfig) bool {
		if c.FileName == name {
			return false
		}
		c.FileName = name
		c.FileID = ""
		c.LastSync = nil
		return true
	})
}

// Connect authorizes cred and looks up the remote document. The
// configuration only changes when the handshake succeeds.
func (l *Ledger) Connect(ctx context.Context, cred core.Credential, fileName string) (core.SyncConfig, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		fileName = l.store.SyncConfig().FileName
	}
	f, found, err := l.syncer.Locate(ctx, fileName, cred)
	if err != nil {
		l.logger.WarnContext(ctx, "Remote handshake failed", log.FieldOperation, log.OpConnect, log.FieldError, err)
		return l.store.SyncConfig(), err
	}

	cfg, err := l.store.UpdateSyncConfig(ctx, func(c *core.SyncConfig) bool {
		if c.FileName != fileName {
			c.FileID = ""
			c.LastSync = nil
		}
		c.Connected = true
		c.Credential = cred
		c.FileName = fileName
		if found {
			c.FileID = f.ID
		}
		return true
	})
	if err != nil {
		return cfg, err
	}
	l.logger.InfoContext(ctx, "Sync connected",
		append(log.NewFields().WithOperation(log.OpConnect).WithRemoteFile(fileName, cfg.FileID).ToSlice(), "found", found)...)
	return cfg, nil
}

// Disconnect turns sync off and forgets the last sync time. The credential
// and file id are kept so a later Connect resumes the same document.
func (l *Ledger) Disconnect(ctx context.Context) (core.SyncConfig, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.UpdateSyncConfig(ctx, func(c *core.SyncConfig) bool {
		c.Connected = false
		c.LastSync = nil
		return true
	})
}

// SyncNow pushes the current records and waits for the result.
func (l *Ledger) SyncNow(ctx context.Context) (core.SyncConfig, error) {
	cfg := l.store.SyncConfig()
	if !cfg.CanSync() {
		return cfg, ErrNotConnected
	}
	seq := l.seq.Add(1)
	snap := l.store.Snapshot()
	id, err := l.syncer.Push(ctx, snap, cfg.FileName, cfg.Credential)
	if err != nil {
		return cfg, err
	}
	l.record(ctx, seq, cfg, id, &snap)
	return l.store.SyncConfig(), nil
}

// ForcePull replaces local transactions and categories with the remote
// document. It holds the mutation lock for its whole duration. When no remote
// document exists the local records are left untouched and the error wraps
// core.ErrNotFound.
func (l *Ledger) ForcePull(ctx context.Context) (core.Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg := l.store.SyncConfig()
	if !cfg.CanSync() {
		return core.Snapshot{}, ErrNotConnected
	}
	seq := l.seq.Add(1)
	snap, id, err := l.syncer.Pull(ctx, cfg.FileName, cfg.Credential)
	if errors.Is(err, core.ErrNotFound) {
		l.logger.InfoContext(ctx, "Nothing to pull yet", log.FieldOperation, log.OpPull, log.FieldFileName, cfg.FileName)
		return core.Snapshot{}, err
	}
	if err != nil {
		return core.Snapshot{}, err
	}
	if err := l.store.ReplaceSnapshot(ctx, snap); err != nil {
		return core.Snapshot{}, err
	}
	l.record(ctx, seq, cfg, id, nil)
	l.logger.InfoContext(ctx, "Local records replaced from remote",
		log.FieldOperation, log.OpPull,
		"transactions", len(snap.Transactions),
		"categories", len(snap.Categories))
	return snap, nil
}

// schedulePush is called with mu held after a successful write.
func (l *Ledger) schedulePush(ctx context.Context) {
	if !l.store.SyncConfig().CanSync() {
		return
	}
	seq := l.seq.Add(1)
	if !l.queue.Enqueue(seq) {
		l.logger.DebugContext(ctx, "Background push not queued", log.FieldSeq, seq, "running", l.queue.IsRunning())
	}
}

// runPush is the queue worker body. The snapshot is taken when the job runs,
// not when it was queued.
func (l *Ledger) runPush(ctx context.Context, seq uint64) {
	cfg := l.store.SyncConfig()
	if !cfg.CanSync() {
		return
	}
	snap := l.store.Snapshot()
	id, err := l.syncer.Push(ctx, snap, cfg.FileName, cfg.Credential)
	if err != nil {
		l.logger.WarnContext(ctx, "Background push failed",
			log.FieldOperation, log.OpPush,
			log.FieldSeq, seq,
			log.FieldError, err)
		return
	}
	l.record(ctx, seq, cfg, id, &snap)
}

// record stores lastSync and the file id for a completed push or pull.
// Results older than the last recorded one are ignored, as are results for a
// configuration that was disconnected or retargeted meanwhile. pushed is nil
// for pulls, which are not announced.
func (l *Ledger) record(ctx context.Context, seq uint64, used core.SyncConfig, fileID string, pushed *core.Snapshot) {
	l.recMu.Lock()
	defer l.recMu.Unlock()
	if seq <= l.lastSeq {
		l.logger.DebugContext(ctx, "Stale sync result ignored", log.FieldSeq, seq, "last_seq", l.lastSeq)
		return
	}

	applied := false
	now := l.now()
	_, err := l.store.UpdateSyncConfig(ctx, func(c *core.SyncConfig) bool {
		if !c.Connected || c.FileName != used.FileName || c.Credential != used.Credential {
			return false
		}
		c.LastSync = &now
		c.FileID = fileID
		applied = true
		return true
	})
	if err != nil {
		l.logger.WarnContext(ctx, "Failed to record sync result", log.FieldSeq, seq, log.FieldError, err)
		return
	}
	if !applied {
		return
	}
	l.lastSeq = seq

	if l.notifier == nil || pushed == nil {
		return
	}
	msg := notify.NewSnapshotPushedMessage(l.origin, used.FileName, fileID, seq, len(pushed.Transactions), len(pushed.Categories))
	if err := l.notifier.PublishSnapshotPushed(ctx, msg); err != nil {
		l.logger.WarnContext(ctx, "Failed to publish push event", log.FieldOperation, log.OpPublish, log.FieldError, err)
	}
}
