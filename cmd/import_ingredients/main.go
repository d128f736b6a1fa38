package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"pantrypos/internal/config"
	"pantrypos/internal/db"
	"pantrypos/internal/inventory"
	applog "pantrypos/internal/log"
	"pantrypos/internal/store/snapshot"
	"pantrypos/internal/store/xlsx"
	"pantrypos/models"
)

var (
	numberPattern   = regexp.MustCompile(`[-+]?\d*\.?\d+`)
	cleanWhitespace = regexp.MustCompile(`\s+`)
	headerPattern   = regexp.MustCompile(`[^a-z0-9]+`)
)

func main() {
	csvPath := "ingredients.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	if err := run(context.Background(), csvPath, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, csvPath string, out io.Writer) error {
	if strings.TrimSpace(csvPath) == "" {
		return fmt.Errorf("csv path must not be empty")
	}
	if _, err := os.Stat(csvPath); err != nil {
		return fmt.Errorf("locate csv: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applog.SetLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	service, err := inventory.NewService(store, inventory.Config{
		VATRate:          cfg.Inventory.VATRate,
		CriticalFraction: cfg.Inventory.CriticalFraction,
	})
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}

	records, err := readCSV(csvPath)
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	created, updated, err := importIngredients(ctx, service, records)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Imported %d ingredients from %s (%d new, %d updated)\n", created+updated, filepath.Base(csvPath), created, updated)
	return nil
}

func openStore(cfg config.Config) (inventory.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendXLSX:
		return xlsx.Open(cfg.Store.Path)
	case config.BackendSnapshot:
		return snapshot.Open(cfg.Store.Path)
	case config.BackendSQL:
		if cfg.Database.UseMock {
			return nil, errors.New("importing into the mock database has no lasting effect")
		}
		database, err := db.Configure(cfg.Database)
		if err != nil {
			return nil, err
		}
		return db.NewStore(database)
	default:
		return nil, fmt.Errorf("store backend %q cannot be imported into", cfg.Store.Backend)
	}
}

// importIngredients upserts records by ingredient name. Columns missing from a
// row keep the existing ingredient's value.
func importIngredients(ctx context.Context, service *inventory.Service, records []map[string]string) (created, updated int, err error) {
	existing, err := service.ListIngredients(ctx)
	if err != nil {
		return 0, 0, err
	}
	byName := make(map[string]models.Ingredient, len(existing))
	for _, ingredient := range existing {
		byName[strings.ToLower(ingredient.Name)] = ingredient
	}

	for idx, record := range records {
		name := normalizeText(record["name"])
		if name == "" {
			applog.Warn(ctx, "skipping row without a name", "row", idx+2)
			continue
		}

		current, found := byName[strings.ToLower(name)]
		input, err := buildIngredient(record, current)
		if err != nil {
			return created, updated, fmt.Errorf("row %d (%s): %w", idx+2, name, err)
		}
		if !found {
			input.Name = name
		}

		var saved models.Ingredient
		if found {
			saved, err = service.UpdateIngredient(ctx, input)
		} else {
			saved, err = service.AddIngredient(ctx, input)
		}
		if err != nil {
			return created, updated, fmt.Errorf("row %d (%s): %w", idx+2, name, err)
		}
		if found {
			updated++
		} else {
			created++
		}
		byName[strings.ToLower(saved.Name)] = saved
		applog.Debug(ctx, "ingredient imported", "ingredient", saved.ID, "name", saved.Name, "existing", found)
	}
	return created, updated, nil
}

func buildIngredient(record map[string]string, base models.Ingredient) (models.Ingredient, error) {
	ingredient := base
	if value := normalizeValue(record["category"]); value != "" {
		ingredient.Category = value
	}
	if value := normalizeValue(record["unit"]); value != "" {
		ingredient.Unit = value
	}
	if value := normalizeText(record["notes"]); value != "" {
		ingredient.Notes = value
	}

	for _, field := range []struct {
		column string
		target *decimal.Decimal
	}{
		{"costperunit", &ingredient.CostPerUnit},
		{"currentstock", &ingredient.CurrentStock},
		{"minimumstock", &ingredient.MinimumStock},
	} {
		value, ok, err := parseNumber(record[field.column])
		if err != nil {
			return models.Ingredient{}, fmt.Errorf("%s: %w", field.column, err)
		}
		if ok {
			*field.target = value
		}
	}
	return ingredient, nil
}

func readCSV(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := make([]string, len(rows[0]))
	for i, key := range rows[0] {
		header[i] = headerKey(key)
	}
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[key] = strings.TrimSpace(row[idx])
		}
		records = append(records, record)
	}
	return records, nil
}

// headerKey folds "Cost Per Unit", "cost_per_unit" and "CostPerUnit" onto one key.
func headerKey(value string) string {
	return headerPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), "")
}

func normalizeValue(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "N/A") {
		return ""
	}
	return value
}

func normalizeText(value string) string {
	value = normalizeValue(value)
	if value == "" {
		return value
	}
	return strings.TrimSpace(cleanWhitespace.ReplaceAllString(value, " "))
}

// parseNumber reads the first number in value, so "₱12.50" and "3 kg" both
// parse. An empty cell reports ok=false.
func parseNumber(value string) (decimal.Decimal, bool, error) {
	value = strings.ReplaceAll(normalizeValue(value), ",", "")
	if value == "" {
		return decimal.Zero, false, nil
	}
	match := numberPattern.FindString(value)
	if match == "" {
		return decimal.Zero, false, fmt.Errorf("invalid number %q", value)
	}
	parsed, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("invalid number %q: %w", value, err)
	}
	return parsed, true, nil
}
