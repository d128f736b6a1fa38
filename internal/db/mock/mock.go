package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pantrypos/internal/db"
	applog "pantrypos/internal/log"
	"pantrypos/models"
)

// Tables is the persistence surface Seed writes through. Every store backend
// satisfies it.
type Tables interface {
	LoadIngredients(ctx context.Context) ([]models.Ingredient, error)
	SaveIngredients(ctx context.Context, ingredients []models.Ingredient) error
	SaveProducts(ctx context.Context, products []models.Product) error
	SaveRecipeLines(ctx context.Context, lines []models.RecipeLine) error
}

// New returns an in-memory sqlite database seeded with a small bakery.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	database, err := db.OpenSQLite("file:pantrypos-mock?mode=memory&cache=shared", logger.Silent)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	store, err := db.NewStore(database)
	if err != nil {
		return nil, err
	}
	if err := Seed(ctx, store); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

// Seed fills empty tables with demo data. A store that already holds
// ingredients is left untouched.
func Seed(ctx context.Context, store Tables) error {
	existing, err := store.LoadIngredients(ctx)
	if err != nil {
		return fmt.Errorf("check existing ingredients: %w", err)
	}
	if len(existing) > 0 {
		applog.Debug(ctx, "store already populated, skipping seed", "ingredients", len(existing))
		return nil
	}

	applog.Debug(ctx, "seeding demo bakery")
	now := time.Now().UTC()

	ingredients := []models.Ingredient{
		ingredient("ING001", "Bread Flour", "Dry Goods", "kg", "52.00", "25", "10", now),
		ingredient("ING002", "White Sugar", "Dry Goods", "kg", "68.50", "12", "5", now),
		ingredient("ING003", "Butter", "Dairy", "kg", "420.00", "4", "3", now),
		ingredient("ING004", "Fresh Milk", "Dairy", "L", "95.00", "6", "4", now),
		ingredient("ING005", "Eggs", "Dairy", "pcs", "8.50", "60", "30", now),
		ingredient("ING006", "Instant Yeast", "Dry Goods", "kg", "380.00", "0.4", "0.5", now),
		ingredient("ING007", "Salt", "Dry Goods", "kg", "25.00", "2", "1", now),
		ingredient("ING008", "Ground Coffee", "Beverages", "kg", "890.00", "1.5", "1", now),
	}
	products := []models.Product{
		product("PRD001", "Pandesal (10 pcs)", "Bread", "45.00", now),
		product("PRD002", "Butter Cake", "Cakes", "380.00", now),
		product("PRD003", "Brewed Coffee", "Beverages", "85.00", now),
		product("PRD004", "Bottled Water", "Beverages", "25.00", now),
	}
	lines := []models.RecipeLine{
		recipe("PRD001", "ING001", "0.25"),
		recipe("PRD001", "ING002", "0.02"),
		recipe("PRD001", "ING006", "0.005"),
		recipe("PRD001", "ING007", "0.004"),
		recipe("PRD002", "ING001", "0.3"),
		recipe("PRD002", "ING002", "0.25"),
		recipe("PRD002", "ING003", "0.2"),
		recipe("PRD002", "ING005", "4"),
		recipe("PRD002", "ING004", "0.12"),
		recipe("PRD003", "ING008", "0.018"),
		recipe("PRD003", "ING004", "0.03"),
	}

	if err := store.SaveIngredients(ctx, ingredients); err != nil {
		return fmt.Errorf("seed ingredients: %w", err)
	}
	if err := store.SaveProducts(ctx, products); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	if err := store.SaveRecipeLines(ctx, lines); err != nil {
		return fmt.Errorf("seed recipes: %w", err)
	}
	return nil
}

func ingredient(id, name, category, unit, cost, stock, minimum string, now time.Time) models.Ingredient {
	return models.Ingredient{
		ID:           id,
		Name:         name,
		Category:     category,
		Unit:         unit,
		CostPerUnit:  decimal.RequireFromString(cost),
		CurrentStock: decimal.RequireFromString(stock),
		MinimumStock: decimal.RequireFromString(minimum),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func product(id, name, category, price string, now time.Time) models.Product {
	return models.Product{
		ID:           id,
		Name:         name,
		Category:     category,
		SellingPrice: decimal.RequireFromString(price),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func recipe(productID, ingredientID, quantity string) models.RecipeLine {
	return models.RecipeLine{ProductID: productID, IngredientID: ingredientID, Quantity: decimal.RequireFromString(quantity)}
}
