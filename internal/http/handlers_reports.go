package http

import (
	"fmt"
	"net/http"
	"strings"

	"saldo/internal/core"
	"saldo/internal/export"
	"saldo/internal/log"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.reports.Summary()).Write(w)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.reports.Daily(s.now())).Write(w)
}

func (s *Server) handlePeriod(w http.ResponseWriter, r *http.Request) {
	view := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("view")))
	if view == "" {
		view = string(core.PeriodWeek)
	}
	rows, err := s.reports.Period(core.Period(view), s.now())
	if err != nil {
		s.fail(w, r, "Period breakdown failed", err)
		return
	}
	NewJSONResponse().Data(rows).Write(w)
}

func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request) {
	name := export.CSVFileName(r.URL.Query().Get("name"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := export.TransactionsCSV(w, s.ledger.ListTransactions()); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export failed", log.FieldError, err)
	}
}

func (s *Server) handleExportCategories(w http.ResponseWriter, r *http.Request) {
	name := export.JSONFileName(r.URL.Query().Get("name"))
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := export.CategoriesJSON(w, s.ledger.ListCategories()); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Categories export failed", log.FieldError, err)
	}
}
