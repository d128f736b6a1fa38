package inventory

import (
	"github.com/shopspring/decimal"

	"pantrypos/internal/units"
	"pantrypos/models"
)

// StockStatus is the ordered health classification of an ingredient.
type StockStatus string

const (
	StatusNormal   StockStatus = "Normal"
	StatusLowStock StockStatus = "Low Stock"
	StatusCritical StockStatus = "Critical"
)

// DefaultCriticalFraction places the critical threshold at a quarter of the minimum stock.
var DefaultCriticalFraction = decimal.RequireFromString("0.25")

// Classifier assigns stock statuses. Stock at or below the minimum is Low
// Stock; at or below CriticalFraction of the minimum it is Critical.
type Classifier struct {
	CriticalFraction decimal.Decimal
}

// Thresholds returns the critical and low boundaries for ingredient.
func (c Classifier) Thresholds(ingredient models.Ingredient) (critical, low decimal.Decimal) {
	low = ingredient.MinimumStock
	critical = low.Mul(c.CriticalFraction)
	if critical.GreaterThan(low) {
		critical = low
	}
	return critical, low
}

// StatusOf classifies ingredient. It is recomputed on every read.
func (c Classifier) StatusOf(ingredient models.Ingredient) StockStatus {
	critical, low := c.Thresholds(ingredient)
	switch {
	case ingredient.CurrentStock.LessThanOrEqual(critical):
		return StatusCritical
	case ingredient.CurrentStock.LessThanOrEqual(low):
		return StatusLowStock
	default:
		return StatusNormal
	}
}

// IngredientStatus is one row of the inventory status report.
type IngredientStatus struct {
	IngredientID      string          `json:"ingredient_id"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Unit              string          `json:"unit"`
	CurrentStock      decimal.Decimal `json:"current_stock"`
	MinimumStock      decimal.Decimal `json:"min_stock"`
	CriticalThreshold decimal.Decimal `json:"critical_threshold"`
	Status            StockStatus     `json:"status"`
	Display           string          `json:"display"`
}

// Report builds the status row for ingredient.
func (c Classifier) Report(ingredient models.Ingredient) IngredientStatus {
	critical, _ := c.Thresholds(ingredient)
	row := IngredientStatus{
		IngredientID:      ingredient.ID,
		Name:              ingredient.Name,
		Category:          ingredient.Category,
		Unit:              ingredient.Unit,
		CurrentStock:      ingredient.CurrentStock,
		MinimumStock:      ingredient.MinimumStock,
		CriticalThreshold: critical,
		Status:            c.StatusOf(ingredient),
	}
	if display, err := units.Display(ingredient.CurrentStock, ingredient.Unit); err == nil {
		row.Display = display.String()
	} else {
		row.Display = ingredient.CurrentStock.String() + " " + ingredient.Unit
	}
	return row
}
