package inventory

import (
	"github.com/shopspring/decimal"

	"pantrypos/models"
)

// LineCost is the cost contribution of a single recipe line.
type LineCost struct {
	IngredientID   string          `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name,omitempty"`
	Unit           string          `json:"unit,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	CostPerUnit    decimal.Decimal `json:"cost_per_unit"`
	Cost           decimal.Decimal `json:"cost"`
	Missing        bool            `json:"missing"`
}

// CostBreakdown is the result of costing one product's recipe.
type CostBreakdown struct {
	ProductID          string          `json:"product_id"`
	Total              decimal.Decimal `json:"total"`
	HasRecipe          bool            `json:"has_recipe"`
	Lines              []LineCost      `json:"lines"`
	MissingIngredients []string        `json:"missing_ingredients,omitempty"`
}

// Incomplete reports whether any recipe line referenced an ingredient that no
// longer exists. The total of an incomplete breakdown understates the cost.
func (b CostBreakdown) Incomplete() bool {
	return len(b.MissingIngredients) > 0
}

// Calculator costs recipes against a snapshot of ingredient costs.
type Calculator struct {
	ingredients map[string]models.Ingredient
	recipes     map[string][]models.RecipeLine
}

// NewCalculator indexes the supplied tables. Recipe line order is preserved.
func NewCalculator(ingredients []models.Ingredient, lines []models.RecipeLine) *Calculator {
	calc := &Calculator{
		ingredients: make(map[string]models.Ingredient, len(ingredients)),
		recipes:     make(map[string][]models.RecipeLine),
	}
	for _, ingredient := range ingredients {
		calc.ingredients[ingredient.ID] = ingredient
	}
	for _, line := range lines {
		calc.recipes[line.ProductID] = append(calc.recipes[line.ProductID], line)
	}
	return calc
}

// CostOf sums quantity × cost-per-unit over the product's recipe lines. Lines
// whose ingredient is missing are skipped and reported instead of failing.
func (c *Calculator) CostOf(productID string) CostBreakdown {
	recipe := c.recipes[productID]
	breakdown := CostBreakdown{
		ProductID: productID,
		Total:     decimal.Zero,
		HasRecipe: len(recipe) > 0,
		Lines:     make([]LineCost, 0, len(recipe)),
	}

	for _, line := range recipe {
		ingredient, ok := c.ingredients[line.IngredientID]
		if !ok {
			breakdown.Lines = append(breakdown.Lines, LineCost{
				IngredientID: line.IngredientID,
				Quantity:     line.Quantity,
				CostPerUnit:  decimal.Zero,
				Cost:         decimal.Zero,
				Missing:      true,
			})
			breakdown.MissingIngredients = append(breakdown.MissingIngredients, line.IngredientID)
			continue
		}

		cost := line.Quantity.Mul(ingredient.CostPerUnit)
		breakdown.Lines = append(breakdown.Lines, LineCost{
			IngredientID:   ingredient.ID,
			IngredientName: ingredient.Name,
			Unit:           ingredient.Unit,
			Quantity:       line.Quantity,
			CostPerUnit:    ingredient.CostPerUnit,
			Cost:           cost,
		})
		breakdown.Total = breakdown.Total.Add(cost)
	}

	return breakdown
}
