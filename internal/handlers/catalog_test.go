package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"pantrypos/internal/inventory"
	"pantrypos/models"
)

func TestIngredientResourceLifecycle(t *testing.T) {
	withTestService(t)

	w := serve(nil, IngredientResource, http.MethodPost, "/api/ingredients", `{"name":"Butter","unit":"G","cost_per_unit":"0.02","current_stock":"500","minimum_stock":"200"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created models.Ingredient
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created ingredient: %v", err)
	}
	if created.ID == "" || created.Unit != "g" {
		t.Fatalf("expected generated id and normalised unit, got %+v", created)
	}

	w = serve(nil, IngredientResource, http.MethodGet, "/api/ingredients/"+created.ID, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Butter") {
		t.Fatalf("expected ingredient lookup to succeed, got %d: %s", w.Code, w.Body.String())
	}

	w = serve(nil, IngredientResource, http.MethodPost, "/api/ingredients/"+created.ID+"/stock", `{"quantity":"250","notes":"market run"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected stock receipt to succeed, got %d: %s", w.Code, w.Body.String())
	}
	var restocked models.Ingredient
	if err := json.Unmarshal(w.Body.Bytes(), &restocked); err != nil {
		t.Fatalf("decode restocked ingredient: %v", err)
	}
	if !restocked.CurrentStock.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("expected stock 750, got %s", restocked.CurrentStock)
	}

	w = serve(nil, IngredientResource, http.MethodDelete, "/api/ingredients/"+created.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	w = serve(nil, IngredientResource, http.MethodGet, "/api/ingredients/"+created.ID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func TestIngredientResourceConflicts(t *testing.T) {
	withTestService(t)

	cases := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{name: "delete referenced", method: http.MethodDelete, target: "/api/ingredients/flour", want: http.StatusConflict},
		{name: "unit change while referenced", method: http.MethodPut, target: "/api/ingredients/flour", body: `{"name":"Flour","unit":"l","cost_per_unit":"5","current_stock":"50","minimum_stock":"10"}`, want: http.StatusConflict},
		{name: "unknown unit", method: http.MethodPost, target: "/api/ingredients", body: `{"name":"Saffron","unit":"pinch"}`, want: http.StatusBadRequest},
		{name: "stock for unknown ingredient", method: http.MethodPost, target: "/api/ingredients/ghost/stock", body: `{"quantity":"1"}`, want: http.StatusNotFound},
		{name: "unsupported method", method: http.MethodPatch, target: "/api/ingredients/flour", want: http.StatusMethodNotAllowed},
		{name: "unknown sub-resource", method: http.MethodGet, target: "/api/ingredients/flour/history", want: http.StatusNotFound},
	}
	for _, tc := range cases {
		w := serve(nil, IngredientResource, tc.method, tc.target, tc.body)
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.want, w.Code, w.Body.String())
		}
	}
}

func TestInventoryStatusReportsYeastLow(t *testing.T) {
	withTestService(t)

	w := serve(nil, InventoryStatus, http.MethodGet, "/api/inventory/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var rows []inventory.IngredientStatus
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for _, row := range rows {
		want := inventory.StatusNormal
		if row.IngredientID == "yeast" {
			want = inventory.StatusLowStock
		}
		if row.Status != want {
			t.Fatalf("expected %s to be %s, got %s", row.IngredientID, want, row.Status)
		}
	}
}

func TestProductCostAndRefresh(t *testing.T) {
	svc, _ := withTestService(t)

	w := serve(nil, ProductResource, http.MethodGet, "/api/products/cake/cost", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var breakdown inventory.CostBreakdown
	if err := json.Unmarshal(w.Body.Bytes(), &breakdown); err != nil {
		t.Fatalf("decode breakdown: %v", err)
	}
	if !breakdown.Total.Equal(decimal.NewFromInt(16)) {
		t.Fatalf("expected cake cost 16, got %s", breakdown.Total)
	}

	w = serve(nil, ProductResource, http.MethodPost, "/api/products/costs/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected refresh to succeed, got %d: %s", w.Code, w.Body.String())
	}
	var report inventory.EconomicsReport
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Rows) != 3 || !report.Rows[0].ProfitMargin.Equal(decimal.NewFromInt(34)) {
		t.Fatalf("unexpected refresh report: %+v", report.Rows)
	}

	w = serve(nil, ProductResource, http.MethodGet, "/api/products/costs/status", "")
	var status inventory.EconomicsStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Stale || status.LastRefreshedAt == nil {
		t.Fatalf("expected fresh economics after refresh, got %+v", status)
	}

	product, err := svc.GetProduct(context.Background(), "cake")
	if err != nil {
		t.Fatalf("GetProduct() error = %v", err)
	}
	if !product.CostPrice.Equal(decimal.NewFromInt(16)) {
		t.Fatalf("expected persisted cost 16, got %s", product.CostPrice)
	}

	w = serve(nil, ProductResource, http.MethodGet, "/api/products/costs/refresh", "")
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for GET refresh, got %d", w.Code)
	}
}

func TestProductRecipeConvertsUnits(t *testing.T) {
	withTestService(t)

	w := serve(nil, ProductResource, http.MethodPut, "/api/products/cake/recipe", `{"lines":[{"ingredient_id":"flour","quantity":"500","unit":"g"},{"ingredient_id":"sugar","quantity":"1"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var recipe recipeResponse
	if err := json.Unmarshal(w.Body.Bytes(), &recipe); err != nil {
		t.Fatalf("decode recipe: %v", err)
	}
	if len(recipe.Lines) != 2 {
		t.Fatalf("expected 2 recipe lines, got %+v", recipe.Lines)
	}
	for _, line := range recipe.Lines {
		if line.IngredientID == "flour" && !line.Quantity.Equal(decimal.RequireFromString("0.5")) {
			t.Fatalf("expected 500 g stored as 0.5 kg, got %s", line.Quantity)
		}
	}

	cases := []struct {
		name string
		body string
		want int
	}{
		{name: "incompatible unit", body: `{"lines":[{"ingredient_id":"flour","quantity":"1","unit":"ml"}]}`, want: http.StatusBadRequest},
		{name: "unknown unit", body: `{"lines":[{"ingredient_id":"flour","quantity":"1","unit":"bushel"}]}`, want: http.StatusBadRequest},
		{name: "unknown ingredient", body: `{"lines":[{"ingredient_id":"ghost","quantity":"1"}]}`, want: http.StatusConflict},
		{name: "zero quantity", body: `{"lines":[{"ingredient_id":"flour","quantity":"0"}]}`, want: http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := serve(nil, ProductResource, http.MethodPut, "/api/products/cake/recipe", tc.body)
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.want, w.Code, w.Body.String())
		}
	}
}

func TestProductResourceLifecycle(t *testing.T) {
	withTestService(t)

	w := serve(nil, ProductResource, http.MethodPost, "/api/products", `{"name":"Bun","category":"Bread","selling_price":"3.50"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if !created.Active {
		t.Fatal("expected new product to default to active")
	}

	w = serve(nil, ProductResource, http.MethodPut, "/api/products/"+created.ID, `{"name":"Bun","selling_price":"4","active":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected update to succeed, got %d: %s", w.Code, w.Body.String())
	}
	var updated models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if updated.Active || !updated.SellingPrice.Equal(decimal.NewFromInt(4)) {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	w = serve(nil, ProductResource, http.MethodDelete, "/api/products/cake", "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	w = serve(nil, ProductResource, http.MethodGet, "/api/products/cake/recipe", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for deleted product recipe, got %d", w.Code)
	}

	w = serve(nil, ProductResource, http.MethodGet, "/api/products", "")
	var products []models.Product
	if err := json.Unmarshal(w.Body.Bytes(), &products); err != nil {
		t.Fatalf("decode products: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products after create and delete, got %d", len(products))
	}
}
