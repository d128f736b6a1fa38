package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"pantrypos/models"
)

func TestLoadReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()
	if err := store.SaveIngredients(ctx, []models.Ingredient{{ID: "flour", Name: "Flour", Unit: "kg", CurrentStock: decimal.NewFromInt(5)}}); err != nil {
		t.Fatalf("SaveIngredients() error = %v", err)
	}

	loaded, err := store.LoadIngredients(ctx)
	if err != nil {
		t.Fatalf("LoadIngredients() error = %v", err)
	}
	loaded[0].CurrentStock = decimal.Zero

	again, err := store.LoadIngredients(ctx)
	if err != nil {
		t.Fatalf("LoadIngredients() error = %v", err)
	}
	if !again[0].CurrentStock.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected stored stock to be unaffected, got %s", again[0].CurrentStock)
	}
}

func TestAppendSaleKeepsOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := New()
	for _, id := range []string{"s1", "s2", "s3"} {
		if err := store.AppendSale(ctx, models.Sale{ID: id, ProductID: "bread", Quantity: 1}); err != nil {
			t.Fatalf("AppendSale(%s) error = %v", id, err)
		}
	}

	sales, err := store.LoadSales(ctx)
	if err != nil {
		t.Fatalf("LoadSales() error = %v", err)
	}
	if len(sales) != 3 || sales[0].ID != "s1" || sales[2].ID != "s3" {
		t.Fatalf("unexpected sales order: %+v", sales)
	}
}

func TestCancelledContextIsRejected(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().LoadProducts(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
