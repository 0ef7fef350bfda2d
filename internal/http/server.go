// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"saldo/internal/aggregate"
	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/middleware/ratelimit"
	"saldo/internal/middleware/security"
	"saldo/internal/middleware/trace"
	"saldo/internal/parser"
)

// Ledger is the mutation façade the API drives.
type Ledger interface {
	ListTransactions() []core.Transaction
	ListCategories() []core.Category
	Currency() string
	SyncConfig() core.SyncConfig

	AddTransaction(ctx context.Context, t core.Transaction) ([]core.Transaction, error)
	RemoveTransaction(ctx context.Context, id string) ([]core.Transaction, error)
	AddCategory(ctx context.Context, c core.Category) ([]core.Category, error)
	RemoveCategory(ctx context.Context, id string) ([]core.Category, error)
	SetCurrency(ctx context.Context, symbol string) error

	Connect(ctx context.Context, cred core.Credential, fileName string) (core.SyncConfig, error)
	Disconnect(ctx context.Context) (core.SyncConfig, error)
	SyncNow(ctx context.Context) (core.SyncConfig, error)
	ForcePull(ctx context.Context) (core.Snapshot, error)
}

type Server struct {
	http.Server
	ledger    Ledger
	reports   *aggregate.Engine
	parser    parser.Parser
	now       func() time.Time
	logger    *log.Logger
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	parseTime time.Duration

	shutdownOnce sync.Once
}

type Option func(*Server)

// WithParser enables free-text input on POST /api/drafts.
func WithParser(p parser.Parser) Option {
	return func(s *Server) { s.parser = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRateLimit sets the per-client budget for mutating requests.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		s.limiter = ratelimit.NewLimiter(cfg)
	}
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, l Ledger, opts ...Option) *Server {
	s := &Server{
		ledger:    l,
		reports:   aggregate.NewEngine(l),
		now:       time.Now,
		logger:    log.Discard(),
		detector:  security.NewDetector(),
		parseTime: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}

	r := mux.NewRouter()
	r.Use(trace.Middleware)
	r.Use(log.Middleware(s.logger, trace.FromRequest))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimit,
		http.MethodPost, http.MethodPut, http.MethodDelete))

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", handleReady).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleAddTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}", s.handleRemoveTransaction).Methods(http.MethodDelete)

	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleAddCategory).Methods(http.MethodPost)
	api.HandleFunc("/categories/{id}", s.handleRemoveCategory).Methods(http.MethodDelete)

	api.HandleFunc("/currency", s.handleGetCurrency).Methods(http.MethodGet)
	api.HandleFunc("/currency", s.handleSetCurrency).Methods(http.MethodPut)

	api.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)
	api.HandleFunc("/daily", s.handleDaily).Methods(http.MethodGet)
	api.HandleFunc("/period", s.handlePeriod).Methods(http.MethodGet)

	api.HandleFunc("/sync", s.handleSyncStatus).Methods(http.MethodGet)
	api.HandleFunc("/sync/connect", s.handleConnect).Methods(http.MethodPost)
	api.HandleFunc("/sync/disconnect", s.handleDisconnect).Methods(http.MethodPost)
	api.HandleFunc("/sync/push", s.handlePush).Methods(http.MethodPost)
	api.HandleFunc("/sync/pull", s.handlePull).Methods(http.MethodPost)

	api.HandleFunc("/drafts", s.handleDraft).Methods(http.MethodPost)
	api.HandleFunc("/export/transactions.csv", s.handleExportTransactions).Methods(http.MethodGet)
	api.HandleFunc("/export/categories.json", s.handleExportCategories).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NewJSONResponse().Status(http.StatusNotFound).Error("not found").Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NewJSONResponse().Status(http.StatusMethodNotAllowed).Error("method not allowed").Write(w)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		"client_ip", s.detector.ExtractClientIP(r), log.FieldMethod, r.Method)
	NewJSONResponse().Status(http.StatusTooManyRequests).Error("rate limit exceeded, try again later").Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
