package xlsx

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"pantrypos/models"
)

var headers = map[string][]any{
	models.TableIngredients: {"ID", "Name", "Category", "Unit", "CostPerUnit", "CurrentStock", "MinimumStock", "Notes", "CreatedAt", "UpdatedAt"},
	models.TableProducts:    {"ID", "Name", "Category", "SellingPrice", "Active", "CostPrice", "ProfitMargin", "MarginPercentage", "CostIncomplete", "CostComputedAt", "CreatedAt", "UpdatedAt"},
	models.TableRecipes:     {"ProductID", "IngredientID", "Quantity"},
	models.TableSales:       {"ID", "ProductID", "Quantity", "UnitPrice", "SoldAt"},
}

func encodeRows[T any](items []T, encode func(T) []any) [][]any {
	rows := make([][]any, 0, len(items))
	for _, item := range items {
		rows = append(rows, encode(item))
	}
	return rows
}

// decodeRows skips blank rows, which spreadsheet users leave behind when
// deleting entries by hand.
func decodeRows[T any](rows [][]string, decode func(row) (T, error)) ([]T, error) {
	items := make([]T, 0, len(rows))
	for i, cells := range rows {
		r := row{cells: cells, line: i + 2}
		if r.blank() {
			continue
		}
		item, err := decode(r)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func encodeIngredient(i models.Ingredient) []any {
	return []any{i.ID, i.Name, i.Category, i.Unit, i.CostPerUnit.String(), i.CurrentStock.String(), i.MinimumStock.String(), i.Notes, formatTime(i.CreatedAt), formatTime(i.UpdatedAt)}
}

func decodeIngredient(r row) (models.Ingredient, error) {
	var err error
	ingredient := models.Ingredient{
		ID:       r.text(0),
		Name:     r.text(1),
		Category: r.text(2),
		Unit:     r.text(3),
		Notes:    r.raw(7),
	}
	if ingredient.CostPerUnit, err = r.decimalAt(4); err != nil {
		return ingredient, err
	}
	if ingredient.CurrentStock, err = r.decimalAt(5); err != nil {
		return ingredient, err
	}
	if ingredient.MinimumStock, err = r.decimalAt(6); err != nil {
		return ingredient, err
	}
	if ingredient.CreatedAt, err = r.timeAt(8); err != nil {
		return ingredient, err
	}
	if ingredient.UpdatedAt, err = r.timeAt(9); err != nil {
		return ingredient, err
	}
	return ingredient, nil
}

func encodeProduct(p models.Product) []any {
	computed := ""
	if p.CostComputedAt != nil {
		computed = formatTime(*p.CostComputedAt)
	}
	return []any{p.ID, p.Name, p.Category, p.SellingPrice.String(), formatBool(p.Active), p.CostPrice.String(), p.ProfitMargin.String(), p.MarginPercentage.String(), formatBool(p.CostIncomplete), computed, formatTime(p.CreatedAt), formatTime(p.UpdatedAt)}
}

func decodeProduct(r row) (models.Product, error) {
	var err error
	product := models.Product{
		ID:       r.text(0),
		Name:     r.text(1),
		Category: r.text(2),
	}
	if product.SellingPrice, err = r.decimalAt(3); err != nil {
		return product, err
	}
	if product.Active, err = r.boolAt(4, true); err != nil {
		return product, err
	}
	if product.CostPrice, err = r.decimalAt(5); err != nil {
		return product, err
	}
	if product.ProfitMargin, err = r.decimalAt(6); err != nil {
		return product, err
	}
	if product.MarginPercentage, err = r.decimalAt(7); err != nil {
		return product, err
	}
	if product.CostIncomplete, err = r.boolAt(8, false); err != nil {
		return product, err
	}
	computed, err := r.timeAt(9)
	if err != nil {
		return product, err
	}
	if !computed.IsZero() {
		product.CostComputedAt = &computed
	}
	if product.CreatedAt, err = r.timeAt(10); err != nil {
		return product, err
	}
	if product.UpdatedAt, err = r.timeAt(11); err != nil {
		return product, err
	}
	return product, nil
}

func encodeRecipeLine(l models.RecipeLine) []any {
	return []any{l.ProductID, l.IngredientID, l.Quantity.String()}
}

func decodeRecipeLine(r row) (models.RecipeLine, error) {
	quantity, err := r.decimalAt(2)
	if err != nil {
		return models.RecipeLine{}, err
	}
	return models.RecipeLine{ProductID: r.text(0), IngredientID: r.text(1), Quantity: quantity}, nil
}

func encodeSale(s models.Sale) []any {
	return []any{s.ID, s.ProductID, strconv.Itoa(s.Quantity), s.UnitPrice.String(), formatTime(s.SoldAt)}
}

func decodeSale(r row) (models.Sale, error) {
	var err error
	sale := models.Sale{ID: r.text(0), ProductID: r.text(1)}
	if sale.Quantity, err = r.intAt(2); err != nil {
		return sale, err
	}
	if sale.UnitPrice, err = r.decimalAt(3); err != nil {
		return sale, err
	}
	if sale.SoldAt, err = r.timeAt(4); err != nil {
		return sale, err
	}
	return sale, nil
}

// row wraps one sheet row; GetRows trims trailing empty cells, so short rows
// read as empty strings.
type row struct {
	cells []string
	line  int
}

func (r row) raw(i int) string {
	if i >= len(r.cells) {
		return ""
	}
	return r.cells[i]
}

func (r row) text(i int) string {
	return strings.TrimSpace(r.raw(i))
}

func (r row) blank() bool {
	for _, cell := range r.cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func (r row) decimalAt(i int) (decimal.Decimal, error) {
	value := r.text(i)
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(value, ",", ""))
	if err != nil {
		return decimal.Zero, fmt.Errorf("xlsx: row %d column %d: invalid number %q", r.line, i+1, value)
	}
	return d, nil
}

func (r row) intAt(i int) (int, error) {
	value := r.text(i)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("xlsx: row %d column %d: invalid integer %q", r.line, i+1, value)
	}
	return n, nil
}

func (r row) boolAt(i int, fallback bool) (bool, error) {
	switch strings.ToLower(r.text(i)) {
	case "":
		return fallback, nil
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	default:
		return false, fmt.Errorf("xlsx: row %d column %d: invalid boolean %q", r.line, i+1, r.text(i))
	}
}

func (r row) timeAt(i int) (time.Time, error) {
	value := r.text(i)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	// Cells typed as dates in a spreadsheet are stored as serial day numbers.
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 0 {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("xlsx: row %d column %d: invalid timestamp %q", r.line, i+1, value)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func formatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
