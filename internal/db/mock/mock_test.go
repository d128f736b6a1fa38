package mock

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"pantrypos/internal/inventory"
	"pantrypos/internal/store/memory"
	"pantrypos/models"
)

func TestNewSeedsExpectedRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := New(ctx)
	if err != nil {
		t.Fatalf("mock database initialization failed: %v", err)
	}

	var ingredients []models.Ingredient
	if err := db.WithContext(ctx).Find(&ingredients).Error; err != nil {
		t.Fatalf("query ingredients: %v", err)
	}
	if len(ingredients) == 0 {
		t.Fatal("expected seeded ingredients")
	}

	var lines []models.RecipeLine
	if err := db.WithContext(ctx).Find(&lines).Error; err != nil {
		t.Fatalf("query recipe lines: %v", err)
	}
	if len(lines) == 0 {
		t.Fatal("expected seeded recipe lines")
	}
}

func TestSeedIsCostableAndIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.New()
	if err := Seed(ctx, store); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if err := Seed(ctx, store); err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}
	ingredients, _ := store.LoadIngredients(ctx)
	if len(ingredients) != 8 {
		t.Fatalf("expected 8 ingredients after seeding twice, got %d", len(ingredients))
	}

	service, err := inventory.NewService(store, inventory.DefaultConfig())
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	report, err := service.UpdateAllProductCosts(ctx)
	if err != nil {
		t.Fatalf("UpdateAllProductCosts() error = %v", err)
	}
	for _, row := range report.Rows {
		if row.Incomplete {
			t.Fatalf("seeded product %s references a missing ingredient", row.ProductID)
		}
	}
	// 0.25*52 + 0.02*68.5 + 0.005*380 + 0.004*25 = 16.37
	cost, err := service.CalculateProductCost(ctx, "PRD001")
	if err != nil {
		t.Fatalf("CalculateProductCost() error = %v", err)
	}
	if !cost.Equal(decimal.RequireFromString("16.37")) {
		t.Fatalf("unexpected pandesal cost %s", cost)
	}
}
