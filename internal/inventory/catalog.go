package inventory

import (
	"context"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	applog "pantrypos/internal/log"
	"pantrypos/internal/units"
	"pantrypos/models"
)

// RecipeItem is a recipe line joined with its ingredient for display.
type RecipeItem struct {
	IngredientID   string          `json:"ingredient_id"`
	IngredientName string          `json:"ingredient_name,omitempty"`
	Unit           string          `json:"unit,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
	Missing        bool            `json:"missing"`
}

// ListIngredients returns the Ingredients table in stored order.
func (s *Service) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadIngredients(ctx)
}

// GetIngredient looks up a single ingredient.
func (s *Service) GetIngredient(ctx context.Context, id string) (models.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ingredients, err := s.loadIngredients(ctx)
	if err != nil {
		return models.Ingredient{}, err
	}
	for _, ingredient := range ingredients {
		if ingredient.ID == id {
			return ingredient, nil
		}
	}
	return models.Ingredient{}, notFoundError("ingredient", id)
}

// AddIngredient validates and appends a new ingredient. An empty ID is generated.
func (s *Service) AddIngredient(ctx context.Context, input models.Ingredient) (models.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ingredient, err := normalizeIngredient(input)
	if err != nil {
		return models.Ingredient{}, err
	}

	ingredients, err := s.loadIngredients(ctx)
	if err != nil {
		return models.Ingredient{}, err
	}
	for _, existing := range ingredients {
		if ingredient.ID != "" && existing.ID == ingredient.ID {
			return models.Ingredient{}, validationError("ingredient id %q already exists", ingredient.ID)
		}
		if strings.EqualFold(existing.Name, ingredient.Name) {
			return models.Ingredient{}, validationError("ingredient named %q already exists", ingredient.Name)
		}
	}
	if ingredient.ID == "" {
		ingredient.ID = s.newID()
	}

	now := s.now()
	ingredient.CreatedAt = now
	ingredient.UpdatedAt = now
	ingredients = append(ingredients, ingredient)
	if err := s.store.SaveIngredients(ctx, ingredients); err != nil {
		return models.Ingredient{}, s.persistenceFailure(ctx, "save ingredients", err)
	}

	applog.Debug(ctx, "ingredient added", "ingredient", ingredient.ID, "name", ingredient.Name)
	return ingredient, nil
}

// UpdateIngredient replaces the editable fields of an existing ingredient. The
// unit of an ingredient used by a recipe cannot change, since recipe
// quantities are denominated in it.
func (s *Service) UpdateIngredient(ctx context.Context, input models.Ingredient) (models.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ingredient, err := normalizeIngredient(input)
	if err != nil {
		return models.Ingredient{}, err
	}

	ingredients, err := s.loadIngredients(ctx)
	if err != nil {
		return models.Ingredient{}, err
	}
	idx := -1
	for i, existing := range ingredients {
		if existing.ID == ingredient.ID {
			idx = i
			continue
		}
		if strings.EqualFold(existing.Name, ingredient.Name) {
			return models.Ingredient{}, validationError("ingredient named %q already exists", ingredient.Name)
		}
	}
	if idx < 0 {
		return models.Ingredient{}, notFoundError("ingredient", ingredient.ID)
	}

	current := ingredients[idx]
	if current.Unit != ingredient.Unit {
		lines, err := s.loadRecipeLines(ctx)
		if err != nil {
			return models.Ingredient{}, err
		}
		if users := productsUsing(lines, ingredient.ID); len(users) > 0 {
			return models.Ingredient{}, integrityError("ingredient %q is used by recipes of %s; its unit cannot change", ingredient.ID, strings.Join(users, ", "))
		}
	}

	ingredient.CreatedAt = current.CreatedAt
	ingredient.UpdatedAt = s.now()
	ingredients[idx] = ingredient
	if err := s.store.SaveIngredients(ctx, ingredients); err != nil {
		return models.Ingredient{}, s.persistenceFailure(ctx, "save ingredients", err)
	}

	if !current.CostPerUnit.Equal(ingredient.CostPerUnit) {
		s.markChanged()
	}
	applog.Debug(ctx, "ingredient updated", "ingredient", ingredient.ID)
	return ingredient, nil
}

// DeleteIngredient removes an ingredient that no recipe references.
func (s *Service) DeleteIngredient(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ingredients, err := s.loadIngredients(ctx)
	if err != nil {
		return err
	}
	remaining := make([]models.Ingredient, 0, len(ingredients))
	found := false
	for _, ingredient := range ingredients {
		if ingredient.ID == id {
			found = true
			continue
		}
		remaining = append(remaining, ingredient)
	}
	if !found {
		return notFoundError("ingredient", id)
	}

	lines, err := s.loadRecipeLines(ctx)
	if err != nil {
		return err
	}
	if users := productsUsing(lines, id); len(users) > 0 {
		return integrityError("ingredient %q is used by recipes of %s", id, strings.Join(users, ", "))
	}

	if err := s.store.SaveIngredients(ctx, remaining); err != nil {
		return s.persistenceFailure(ctx, "save ingredients", err)
	}
	applog.Debug(ctx, "ingredient deleted", "ingredient", id)
	return nil
}

// ListProducts returns the Products table in stored order.
func (s *Service) ListProducts(ctx context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadProducts(ctx)
}

// GetProduct looks up a single product.
func (s *Service) GetProduct(ctx context.Context, id string) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.loadProducts(ctx)
	if err != nil {
		return models.Product{}, err
	}
	product, ok := findProduct(products, id)
	if !ok {
		return models.Product{}, notFoundError("product", id)
	}
	return product, nil
}

// AddProduct validates and appends a new product. Derived cost fields start
// empty until the next cost refresh.
func (s *Service) AddProduct(ctx context.Context, input models.Product) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := normalizeProduct(input)
	if err != nil {
		return models.Product{}, err
	}

	products, err := s.loadProducts(ctx)
	if err != nil {
		return models.Product{}, err
	}
	if product.ID == "" {
		product.ID = s.newID()
	}
	if _, exists := findProduct(products, product.ID); exists {
		return models.Product{}, validationError("product id %q already exists", product.ID)
	}

	now := s.now()
	product.CostPrice = decimal.Zero
	product.ProfitMargin = decimal.Zero
	product.MarginPercentage = decimal.Zero
	product.CostIncomplete = false
	product.CostComputedAt = nil
	product.CreatedAt = now
	product.UpdatedAt = now

	products = append(products, product)
	if err := s.store.SaveProducts(ctx, products); err != nil {
		return models.Product{}, s.persistenceFailure(ctx, "save products", err)
	}

	s.markChanged()
	applog.Debug(ctx, "product added", "product", product.ID, "name", product.Name)
	return product, nil
}

// UpdateProduct replaces the editable fields of a product. Derived cost fields
// keep their last refreshed values.
func (s *Service) UpdateProduct(ctx context.Context, input models.Product) (models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := normalizeProduct(input)
	if err != nil {
		return models.Product{}, err
	}

	products, err := s.loadProducts(ctx)
	if err != nil {
		return models.Product{}, err
	}
	idx := -1
	for i := range products {
		if products[i].ID == product.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Product{}, notFoundError("product", product.ID)
	}

	current := products[idx]
	product.CostPrice = current.CostPrice
	product.ProfitMargin = current.ProfitMargin
	product.MarginPercentage = current.MarginPercentage
	product.CostIncomplete = current.CostIncomplete
	product.CostComputedAt = current.CostComputedAt
	product.CreatedAt = current.CreatedAt
	product.UpdatedAt = s.now()
	products[idx] = product

	if err := s.store.SaveProducts(ctx, products); err != nil {
		return models.Product{}, s.persistenceFailure(ctx, "save products", err)
	}

	if !current.SellingPrice.Equal(product.SellingPrice) {
		s.markChanged()
	}
	applog.Debug(ctx, "product updated", "product", product.ID)
	return product, nil
}

// DeleteProduct removes a product and its recipe. Recorded sales are kept.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.loadProducts(ctx)
	if err != nil {
		return err
	}
	remaining := make([]models.Product, 0, len(products))
	for _, product := range products {
		if product.ID != id {
			remaining = append(remaining, product)
		}
	}
	if len(remaining) == len(products) {
		return notFoundError("product", id)
	}

	if err := s.store.SaveProducts(ctx, remaining); err != nil {
		return s.persistenceFailure(ctx, "save products", err)
	}

	lines, err := s.loadRecipeLines(ctx)
	if err != nil {
		return err
	}
	kept := make([]models.RecipeLine, 0, len(lines))
	for _, line := range lines {
		if line.ProductID != id {
			kept = append(kept, line)
		}
	}
	if len(kept) != len(lines) {
		if err := s.store.SaveRecipeLines(ctx, kept); err != nil {
			return s.persistenceFailure(ctx, "save recipes", err)
		}
	}

	s.markChanged()
	applog.Debug(ctx, "product deleted", "product", id, "recipeLines", len(lines)-len(kept))
	return nil
}

// Recipe returns the recipe of productID joined with ingredient details.
// Lines whose ingredient has been deleted are flagged as missing.
func (s *Service) Recipe(ctx context.Context, productID string) ([]RecipeItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.loadProducts(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := findProduct(products, productID); !ok {
		return nil, notFoundError("product", productID)
	}

	calc, err := s.calculator(ctx)
	if err != nil {
		return nil, err
	}
	breakdown := calc.CostOf(productID)
	items := make([]RecipeItem, 0, len(breakdown.Lines))
	for _, line := range breakdown.Lines {
		items = append(items, RecipeItem{
			IngredientID:   line.IngredientID,
			IngredientName: line.IngredientName,
			Unit:           line.Unit,
			Quantity:       line.Quantity,
			Missing:        line.Missing,
		})
	}
	return items, nil
}

// ListSales returns every recorded sale, oldest first.
func (s *Service) ListSales(ctx context.Context) ([]models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sales, err := s.store.LoadSales(ctx)
	if err != nil {
		return nil, s.persistenceFailure(ctx, "load sales", err)
	}
	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].SoldAt.Before(sales[j].SoldAt)
	})
	return sales, nil
}

func normalizeIngredient(input models.Ingredient) (models.Ingredient, error) {
	ingredient := input
	ingredient.ID = strings.TrimSpace(ingredient.ID)
	ingredient.Name = strings.TrimSpace(ingredient.Name)
	ingredient.Category = strings.TrimSpace(ingredient.Category)
	ingredient.Notes = strings.TrimSpace(ingredient.Notes)

	if ingredient.Name == "" {
		return models.Ingredient{}, validationError("ingredient name is required")
	}
	unit, err := units.Normalize(ingredient.Unit)
	if err != nil {
		return models.Ingredient{}, validationError("ingredient %q: %v", ingredient.Name, err)
	}
	ingredient.Unit = unit

	for _, field := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"cost per unit", ingredient.CostPerUnit},
		{"current stock", ingredient.CurrentStock},
		{"minimum stock", ingredient.MinimumStock},
	} {
		if field.value.IsNegative() {
			return models.Ingredient{}, validationError("ingredient %q: %s must not be negative", ingredient.Name, field.name)
		}
	}
	return ingredient, nil
}

func normalizeProduct(input models.Product) (models.Product, error) {
	product := input
	product.ID = strings.TrimSpace(product.ID)
	product.Name = strings.TrimSpace(product.Name)
	product.Category = strings.TrimSpace(product.Category)

	if product.Name == "" {
		return models.Product{}, validationError("product name is required")
	}
	if product.SellingPrice.IsNegative() {
		return models.Product{}, validationError("product %q: selling price must not be negative", product.Name)
	}
	return product, nil
}

func productsUsing(lines []models.RecipeLine, ingredientID string) []string {
	seen := make(map[string]struct{})
	var products []string
	for _, line := range lines {
		if line.IngredientID != ingredientID {
			continue
		}
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		products = append(products, line.ProductID)
	}
	sort.Strings(products)
	return products
}
