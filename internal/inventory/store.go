package inventory

import (
	"context"

	"pantrypos/models"
)

// Store is the tabular persistence collaborator. Every Save call replaces the
// whole table; callers read, mutate in memory and write back. Sales are
// append-only.
type Store interface {
	LoadIngredients(ctx context.Context) ([]models.Ingredient, error)
	SaveIngredients(ctx context.Context, ingredients []models.Ingredient) error
	LoadProducts(ctx context.Context) ([]models.Product, error)
	SaveProducts(ctx context.Context, products []models.Product) error
	LoadRecipeLines(ctx context.Context) ([]models.RecipeLine, error)
	SaveRecipeLines(ctx context.Context, lines []models.RecipeLine) error
	LoadSales(ctx context.Context) ([]models.Sale, error)
	AppendSale(ctx context.Context, sale models.Sale) error
}
