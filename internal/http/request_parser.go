package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"saldo/internal/core"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON object from the body into dst. Unknown
// fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", core.ErrValidation)
		}
		return fmt.Errorf("%w: malformed request body: %v", core.ErrValidation, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: request body must hold a single object", core.ErrValidation)
	}
	return nil
}

type transactionRequest struct {
	Amount      core.Money `json:"amount"`
	Kind        core.Kind  `json:"type"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Date        core.Date  `json:"date"`
}

func (req transactionRequest) transaction() core.Transaction {
	return core.Transaction{
		Amount:      req.Amount,
		Kind:        core.Kind(strings.ToLower(strings.TrimSpace(string(req.Kind)))),
		Category:    sanitizeInput(req.Category),
		Description: sanitizeInput(req.Description),
		Date:        req.Date,
	}
}

type categoryRequest struct {
	Name  string    `json:"name"`
	Kind  core.Kind `json:"type"`
	Color string    `json:"color"`
}

func (req categoryRequest) category() core.Category {
	return core.Category{
		Name:  sanitizeInput(req.Name),
		Kind:  core.Kind(strings.ToLower(strings.TrimSpace(string(req.Kind)))),
		Color: strings.TrimSpace(req.Color),
	}
}

type currencyRequest struct {
	Symbol string `json:"symbol"`
}

type connectRequest struct {
	Credential string `json:"credential"`
	FileName   string `json:"fileName"`
}

// draftRequest carries either a structured draft or free text for the
// configured parser.
type draftRequest struct {
	Text  string      `json:"text"`
	Draft *core.Draft `json:"draft"`
}
