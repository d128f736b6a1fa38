package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"pantrypos/models"
)

const (
	costPlaces       = 4
	percentagePlaces = 2
)

var hundred = decimal.NewFromInt(100)

// ProductEconomics is one row of the catalog-wide cost refresh.
type ProductEconomics struct {
	ProductID        string          `json:"product_id"`
	Name             string          `json:"name"`
	SellingPrice     decimal.Decimal `json:"selling_price"`
	CostPrice        decimal.Decimal `json:"cost_price"`
	ProfitMargin     decimal.Decimal `json:"profit_margin"`
	MarginPercentage decimal.Decimal `json:"margin_percentage"`
	HasRecipe        bool            `json:"has_recipe"`
	Incomplete       bool            `json:"incomplete"`
}

// EconomicsReport is the output of a refresh together with its marker.
type EconomicsReport struct {
	Rows       []ProductEconomics `json:"rows"`
	ComputedAt time.Time          `json:"computed_at"`
}

// EconomicsStatus tells callers whether displayed cost figures may be stale.
type EconomicsStatus struct {
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`
	LastChangedAt   *time.Time `json:"last_changed_at,omitempty"`
	Stale           bool       `json:"stale"`
}

// Margins derives profit and margin percentage from a selling price and cost.
// The percentage is zero when the selling price is zero.
func Margins(sellingPrice, cost decimal.Decimal) (profit, percentage decimal.Decimal) {
	profit = sellingPrice.Sub(cost)
	if sellingPrice.Sign() <= 0 {
		return profit, decimal.Zero
	}
	return profit, profit.Mul(hundred).DivRound(sellingPrice, percentagePlaces)
}

// resolveEconomics computes the derived fields of every product, active or not,
// in table order. It is a pure function of its inputs.
func resolveEconomics(products []models.Product, calc *Calculator) []ProductEconomics {
	rows := make([]ProductEconomics, 0, len(products))
	for _, product := range products {
		breakdown := calc.CostOf(product.ID)
		cost := breakdown.Total.Round(costPlaces)
		profit, percentage := Margins(product.SellingPrice, cost)
		rows = append(rows, ProductEconomics{
			ProductID:        product.ID,
			Name:             product.Name,
			SellingPrice:     product.SellingPrice,
			CostPrice:        cost,
			ProfitMargin:     profit,
			MarginPercentage: percentage,
			HasRecipe:        breakdown.HasRecipe,
			Incomplete:       breakdown.Incomplete(),
		})
	}
	return rows
}
