package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"saldo/internal/core"
)

func TestTransactionsCSV(t *testing.T) {
	txs := []core.Transaction{
		{ID: "b", Amount: core.Money{Cents: 1250}, Kind: core.Expense, Category: "Food", Description: "Pizza, large", Date: core.NewDate(2025, 3, 11)},
		{ID: "a", Amount: core.Money{Cents: 300000}, Kind: core.Income, Category: "Salary", Description: "", Date: core.NewDate(2025, 3, 1)},
	}

	var buf bytes.Buffer
	if err := TransactionsCSV(&buf, txs); err != nil {
		t.Fatalf("TransactionsCSV() error = %v", err)
	}

	want := "Date,Type,Category,Description,Amount\n" +
		"2025-03-11,expense,Food,\"Pizza, large\",12.50\n" +
		"2025-03-01,income,Salary,,3000.00\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("csv mismatch (-want +got):\n%s", diff)
	}
}

func TestTransactionsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := TransactionsCSV(&buf, nil); err != nil {
		t.Fatalf("TransactionsCSV() error = %v", err)
	}
	if got := buf.String(); got != "Date,Type,Category,Description,Amount\n" {
		t.Errorf("got %q", got)
	}
}

func TestCategoriesJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := CategoriesJSON(&buf, core.DefaultCategories()); err != nil {
		t.Fatalf("CategoriesJSON() error = %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("\n  {\n    \"id\": \"1\"")) {
		t.Errorf("output is not indented:\n%s", buf.String())
	}

	var got []core.Category
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if diff := cmp.Diff(core.DefaultCategories(), got); diff != "" {
		t.Errorf("categories mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	if err := CategoriesJSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "[]\n" {
		t.Errorf("nil categories = %q, want []", got)
	}
}

func TestFileNames(t *testing.T) {
	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"csv default", CSVFileName, "", DefaultTransactionsFile},
		{"csv append", CSVFileName, "backup", "backup.csv"},
		{"csv keep", CSVFileName, "backup.csv", "backup.csv"},
		{"csv upper", CSVFileName, "BACKUP.CSV", "BACKUP.CSV"},
		{"json default", JSONFileName, "  ", DefaultCategoriesFile},
		{"json append", JSONFileName, "cats", "cats.json"},
		{"json keep", JSONFileName, "cats.json", "cats.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
