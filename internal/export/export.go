// Package export writes local records in user-facing file formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"saldo/internal/core"
)

const (
	DefaultTransactionsFile = "saldo_backup.csv"
	DefaultCategoriesFile   = "saldo_categories.json"
)

var transactionsHeader = []string{"Date", "Type", "Category", "Description", "Amount"}

// TransactionsCSV writes one row per transaction in list order.
func TransactionsCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(transactionsHeader); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}
	for _, t := range txs {
		row := []string{
			t.Date.String(),
			string(t.Kind),
			t.Category,
			t.Description,
			t.Amount.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write row %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}

// CategoriesJSON writes the categories as an indented JSON array.
func CategoriesJSON(w io.Writer, cats []core.Category) error {
	if cats == nil {
		cats = []core.Category{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cats); err != nil {
		return fmt.Errorf("export: encode categories: %w", err)
	}
	return nil
}

// CSVFileName returns name with a .csv extension, or the default when blank.
func CSVFileName(name string) string {
	return withExt(name, ".csv", DefaultTransactionsFile)
}

// JSONFileName returns name with a .json extension, or the default when blank.
func JSONFileName(name string) string {
	return withExt(name, ".json", DefaultCategoriesFile)
}

func withExt(name, ext, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	if strings.HasSuffix(strings.ToLower(name), ext) {
		return name
	}
	return name + ext
}
