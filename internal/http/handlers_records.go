package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"saldo/internal/log"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.ledger.ListTransactions()).Write(w)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(err).Write(w)
		return
	}
	txs, err := s.ledger.AddTransaction(r.Context(), req.transaction())
	if err != nil {
		s.fail(w, r, "Add transaction failed", err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(txs).Write(w)
}

func (s *Server) handleRemoveTransaction(w http.ResponseWriter, r *http.Request) {
	txs, err := s.ledger.RemoveTransaction(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, "Remove transaction failed", err)
		return
	}
	NewJSONResponse().Data(txs).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.ledger.ListCategories()).Write(w)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(err).Write(w)
		return
	}
	cats, err := s.ledger.AddCategory(r.Context(), req.category())
	if err != nil {
		s.fail(w, r, "Add category failed", err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(cats).Write(w)
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	cats, err := s.ledger.RemoveCategory(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, "Remove category failed", err)
		return
	}
	NewJSONResponse().Data(cats).Write(w)
}

func (s *Server) handleGetCurrency(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(currencyRequest{Symbol: s.ledger.Currency()}).Write(w)
}

func (s *Server) handleSetCurrency(w http.ResponseWriter, r *http.Request) {
	var req currencyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ErrorResponse(err).Write(w)
		return
	}
	if err := s.ledger.SetCurrency(r.Context(), sanitizeInput(req.Symbol)); err != nil {
		s.fail(w, r, "Set currency failed", err)
		return
	}
	NewJSONResponse().Data(currencyRequest{Symbol: s.ledger.Currency()}).Write(w)
}

// fail logs server-side failures at Error and client mistakes at Debug, then
// writes the mapped error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	resp := ErrorResponse(err)
	lg := log.FromContext(r.Context())
	if StatusFor(err) >= http.StatusInternalServerError {
		lg.ErrorContext(r.Context(), msg, log.FieldError, err)
	} else {
		lg.DebugContext(r.Context(), msg, log.FieldError, err)
	}
	resp.Write(w)
}
