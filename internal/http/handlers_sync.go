package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"saldo/internal/core"
	"saldo/internal/log"
	"saldo/internal/parser"
)

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(newSyncStatus(s.ledger.SyncConfig())).Write(w)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(err).Write(w)
		return
	}
	cred := core.Credential(strings.TrimSpace(req.Credential))
	if cred == "" {
		BadRequestError("credential is required").Write(w)
		return
	}
	cfg, err := s.ledger.Connect(r.Context(), cred, req.FileName)
	if err != nil {
		s.fail(w, r, "Connect failed", err)
		return
	}
	NewJSONResponse().Data(newSyncStatus(cfg)).Write(w)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.ledger.Disconnect(r.Context())
	if err != nil {
		s.fail(w, r, "Disconnect failed", err)
		return
	}
	NewJSONResponse().Data(newSyncStatus(cfg)).Write(w)
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.ledger.SyncNow(r.Context())
	if err != nil {
		s.fail(w, r, "Push failed", err)
		return
	}
	NewJSONResponse().Data(newSyncStatus(cfg)).Write(w)
}

type pullResponse struct {
	Found        bool       `json:"found"`
	Transactions int        `json:"transactions"`
	Categories   int        `json:"categories"`
	Sync         syncStatus `json:"sync"`
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	snap, err := s.ledger.ForcePull(r.Context())
	if errors.Is(err, core.ErrNotFound) {
		NewJSONResponse().Data(pullResponse{Sync: newSyncStatus(s.ledger.SyncConfig())}).Write(w)
		return
	}
	if err != nil {
		s.fail(w, r, "Pull failed", err)
		return
	}
	NewJSONResponse().Data(pullResponse{
		Found:        true,
		Transactions: len(snap.Transactions),
		Categories:   len(snap.Categories),
		Sync:         newSyncStatus(s.ledger.SyncConfig()),
	}).Write(w)
}

type draftResponse struct {
	Form     parser.Form `json:"form"`
	Complete bool        `json:"complete"`
	Warning  string      `json:"warning,omitempty"`
}

// handleDraft turns an untrusted partial record into a pre-filled form. A
// parser failure still yields a form built from defaults.
func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(err).Write(w)
		return
	}

	now := s.now()
	cats := s.ledger.ListCategories()
	var (
		draft   core.Draft
		warning string
	)
	switch {
	case req.Draft != nil:
		draft = *req.Draft
	case strings.TrimSpace(req.Text) != "":
		if s.parser == nil {
			NewJSONResponse().Status(http.StatusNotImplemented).Error("free text input is not configured").Write(w)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.parseTime)
		defer cancel()
		d, err := s.parser.Parse(ctx, sanitizeInput(req.Text), cats, now)
		if err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Draft parsing failed", log.FieldOperation, log.OpParse, log.FieldError, err)
			warning = "could not understand the text, fill in the form manually"
		}
		draft = d
	default:
		BadRequestError("either text or draft is required").Write(w)
		return
	}

	form := parser.Normalize(draft, now, cats)
	NewJSONResponse().Data(draftResponse{Form: form, Complete: form.Complete(), Warning: warning}).Write(w)
}
