package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"pantrypos/internal/inventory"
	"pantrypos/internal/store/memory"
	"pantrypos/internal/store/xlsx"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ingredients.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestHeaderKey(t *testing.T) {
	t.Parallel()

	for _, header := range []string{"Cost Per Unit", "cost_per_unit", "CostPerUnit", " cost-per-unit "} {
		if got := headerKey(header); got != "costperunit" {
			t.Fatalf("headerKey(%q) = %q", header, got)
		}
	}
}

func TestParseNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		want   string
		wantOK bool
		err    bool
	}{
		{in: "12.50", want: "12.5", wantOK: true},
		{in: "₱1,250.75", want: "1250.75", wantOK: true},
		{in: "3 kg", want: "3", wantOK: true},
		{in: "", wantOK: false},
		{in: "N/A", wantOK: false},
		{in: "plenty", err: true},
	}
	for _, tc := range cases {
		got, ok, err := parseNumber(tc.in)
		if tc.err {
			if err == nil {
				t.Fatalf("parseNumber(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseNumber(%q) error = %v", tc.in, err)
		}
		if ok != tc.wantOK {
			t.Fatalf("parseNumber(%q) ok = %v, want %v", tc.in, ok, tc.wantOK)
		}
		if ok && !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("parseNumber(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestImportIngredientsUpsertsByName(t *testing.T) {
	ctx := context.Background()
	service, err := inventory.NewService(memory.New(), inventory.DefaultConfig())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	first, err := readCSV(writeCSV(t, "Name,Category,Unit,Cost Per Unit,Current Stock,Minimum Stock,Notes\nFlour,Dry,kg,45,25,5,bulk sack\nSugar,Dry,kg,60,10,2,\n"))
	if err != nil {
		t.Fatalf("readCSV() error = %v", err)
	}
	created, updated, err := importIngredients(ctx, service, first)
	if err != nil {
		t.Fatalf("importIngredients() error = %v", err)
	}
	if created != 2 || updated != 0 {
		t.Fatalf("expected 2 created, got created=%d updated=%d", created, updated)
	}

	second, err := readCSV(writeCSV(t, "name,unit,cost_per_unit,current_stock\nflour,kg,48,\nButter,g,0.9,500\n"))
	if err != nil {
		t.Fatalf("readCSV() error = %v", err)
	}
	created, updated, err = importIngredients(ctx, service, second)
	if err != nil {
		t.Fatalf("importIngredients() error = %v", err)
	}
	if created != 1 || updated != 1 {
		t.Fatalf("expected 1 created and 1 updated, got created=%d updated=%d", created, updated)
	}

	ingredients, err := service.ListIngredients(ctx)
	if err != nil {
		t.Fatalf("ListIngredients() error = %v", err)
	}
	if len(ingredients) != 3 {
		t.Fatalf("expected 3 ingredients, got %d", len(ingredients))
	}
	flour := ingredients[0]
	if flour.Name != "Flour" || !flour.CostPerUnit.Equal(decimal.NewFromInt(48)) || !flour.CurrentStock.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("expected flour cost updated and stock kept, got %+v", flour)
	}
	if flour.Notes != "bulk sack" || flour.Category != "Dry" {
		t.Fatalf("expected untouched columns to be kept, got %+v", flour)
	}
}

func TestImportIngredientsRejectsBadRows(t *testing.T) {
	ctx := context.Background()
	service, err := inventory.NewService(memory.New(), inventory.DefaultConfig())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	records, err := readCSV(writeCSV(t, "Name,Unit,Cost Per Unit\nSaffron,pinch,900\n"))
	if err != nil {
		t.Fatalf("readCSV() error = %v", err)
	}
	_, _, err = importIngredients(ctx, service, records)
	if err == nil || !strings.Contains(err.Error(), "row 2 (Saffron)") {
		t.Fatalf("expected row-scoped error for unknown unit, got %v", err)
	}
}

func TestRunImportsIntoWorkbook(t *testing.T) {
	workbook := filepath.Join(t.TempDir(), "pantry.xlsx")
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("STORE_BACKEND", "xlsx")
	t.Setenv("STORE_PATH", workbook)

	csvPath := writeCSV(t, "Name,Unit,Cost Per Unit,Current Stock,Minimum Stock\nEggs,pcs,8,120,36\n")
	var out bytes.Buffer
	if err := run(context.Background(), csvPath, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out.String(), "Imported 1 ingredients") {
		t.Fatalf("unexpected output %q", out.String())
	}

	store, err := xlsx.Open(workbook)
	if err != nil {
		t.Fatalf("xlsx.Open() error = %v", err)
	}
	ingredients, err := store.LoadIngredients(context.Background())
	if err != nil {
		t.Fatalf("LoadIngredients() error = %v", err)
	}
	if len(ingredients) != 1 || ingredients[0].Unit != "pcs" {
		t.Fatalf("unexpected workbook contents: %+v", ingredients)
	}
}

func TestRunRequiresExistingFile(t *testing.T) {
	t.Parallel()

	if err := run(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for missing csv")
	}
}
