// Package xlsx persists the inventory tables as sheets of a single Excel
// workbook so the shop can keep editing them in a spreadsheet.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	applog "pantrypos/internal/log"
	"pantrypos/models"
)

// ErrWorkbookLocked is returned when the workbook cannot be written because
// another program holds it open.
var ErrWorkbookLocked = errors.New("xlsx: workbook is open elsewhere")

// Store reads and writes one workbook. Every operation opens the file, works
// on a single sheet and closes it again, so edits made in a spreadsheet
// between calls are picked up.
type Store struct {
	path string
	mu   sync.Mutex
}

// Open returns a Store for path, creating the workbook with empty sheets when
// it does not exist yet.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("xlsx: workbook path is empty")
	}
	s := &Store{path: path}
	if err := s.ensure(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the workbook location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) LoadIngredients(ctx context.Context) ([]models.Ingredient, error) {
	rows, err := s.readSheet(ctx, models.TableIngredients)
	if err != nil {
		return nil, err
	}
	return decodeRows(rows, decodeIngredient)
}

func (s *Store) SaveIngredients(ctx context.Context, ingredients []models.Ingredient) error {
	return s.writeSheet(ctx, models.TableIngredients, encodeRows(ingredients, encodeIngredient))
}

func (s *Store) LoadProducts(ctx context.Context) ([]models.Product, error) {
	rows, err := s.readSheet(ctx, models.TableProducts)
	if err != nil {
		return nil, err
	}
	return decodeRows(rows, decodeProduct)
}

func (s *Store) SaveProducts(ctx context.Context, products []models.Product) error {
	return s.writeSheet(ctx, models.TableProducts, encodeRows(products, encodeProduct))
}

func (s *Store) LoadRecipeLines(ctx context.Context) ([]models.RecipeLine, error) {
	rows, err := s.readSheet(ctx, models.TableRecipes)
	if err != nil {
		return nil, err
	}
	return decodeRows(rows, decodeRecipeLine)
}

func (s *Store) SaveRecipeLines(ctx context.Context, lines []models.RecipeLine) error {
	return s.writeSheet(ctx, models.TableRecipes, encodeRows(lines, encodeRecipeLine))
}

func (s *Store) LoadSales(ctx context.Context) ([]models.Sale, error) {
	rows, err := s.readSheet(ctx, models.TableSales)
	if err != nil {
		return nil, err
	}
	return decodeRows(rows, decodeSale)
}

// AppendSale writes sale below the last used row of the Sales sheet.
func (s *Store) AppendSale(ctx context.Context, sale models.Sale) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return s.openError(err)
	}
	defer f.Close()

	if err := ensureSheet(f, models.TableSales); err != nil {
		return err
	}
	rows, err := f.GetRows(models.TableSales)
	if err != nil {
		return fmt.Errorf("xlsx: read %s: %w", models.TableSales, err)
	}
	next := len(rows) + 1
	if len(rows) == 0 {
		if err := setRow(f, models.TableSales, 1, headers[models.TableSales]); err != nil {
			return err
		}
		next = 2
	}
	if err := setRow(f, models.TableSales, next, encodeSale(sale)); err != nil {
		return err
	}
	return s.save(ctx, f)
}

func (s *Store) ensure() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := os.Stat(s.path)
	switch {
	case err == nil:
		return s.addMissingSheets()
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("xlsx: stat %s: %w", s.path, err)
	}

	f := excelize.NewFile()
	defer f.Close()
	for _, table := range models.Tables() {
		if err := ensureSheet(f, table); err != nil {
			return err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("xlsx: drop default sheet: %w", err)
	}
	applog.Info(context.Background(), "created workbook", "path", s.path)
	return s.save(context.Background(), f)
}

func (s *Store) addMissingSheets() error {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return s.openError(err)
	}
	defer f.Close()

	changed := false
	for _, table := range models.Tables() {
		if idx, _ := f.GetSheetIndex(table); idx >= 0 {
			continue
		}
		if err := ensureSheet(f, table); err != nil {
			return err
		}
		changed = true
	}
	if !changed {
		return nil
	}
	return s.save(context.Background(), f)
}

func (s *Store) readSheet(ctx context.Context, sheet string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, s.openError(err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, nil
	}
	// Raw values keep formatted numbers ("1,234.50") and dates parseable.
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("xlsx: read %s: %w", sheet, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

// writeSheet replaces the whole sheet with a header row followed by rows.
func (s *Store) writeSheet(ctx context.Context, sheet string, rows [][]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return s.openError(err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(sheet); idx >= 0 {
		if err := f.DeleteSheet(sheet); err != nil {
			return fmt.Errorf("xlsx: clear %s: %w", sheet, err)
		}
	}
	if err := ensureSheet(f, sheet); err != nil {
		return err
	}
	for i, values := range rows {
		if err := setRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	applog.Debug(ctx, "sheet written", "sheet", sheet, "rows", len(rows))
	return s.save(ctx, f)
}

func (s *Store) save(ctx context.Context, f *excelize.File) error {
	if err := f.SaveAs(s.path); err != nil {
		if locked(err) {
			applog.Warn(ctx, "workbook is locked", "path", s.path, "error", err)
			return fmt.Errorf("%w: close %s in any spreadsheet program and retry", ErrWorkbookLocked, s.path)
		}
		return fmt.Errorf("xlsx: save %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) openError(err error) error {
	if locked(err) {
		return fmt.Errorf("%w: close %s in any spreadsheet program and retry", ErrWorkbookLocked, s.path)
	}
	return fmt.Errorf("xlsx: open %s: %w", s.path, err)
}

func locked(err error) bool {
	if errors.Is(err, fs.ErrPermission) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "being used by another process") || strings.Contains(msg, "resource busy")
}

func ensureSheet(f *excelize.File, sheet string) error {
	if idx, _ := f.GetSheetIndex(sheet); idx >= 0 {
		return nil
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("xlsx: create %s: %w", sheet, err)
	}
	return setRow(f, sheet, 1, headers[sheet])
}

func setRow(f *excelize.File, sheet string, line int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx: write %s!%s: %w", sheet, cell, err)
	}
	return nil
}
