// Package inventory implements recipe costing, product economics, stock
// classification and sale settlement over a tabular Store.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	applog "pantrypos/internal/log"
	"pantrypos/models"
)

// Config holds the tunable policy of the engine.
type Config struct {
	VATRate          decimal.Decimal
	CriticalFraction decimal.Decimal
}

// DefaultConfig returns a 12% VAT rate and a critical threshold at a quarter of minimum stock.
func DefaultConfig() Config {
	return Config{
		VATRate:          DefaultVATRate,
		CriticalFraction: DefaultCriticalFraction,
	}
}

// Service is the entry point used by the HTTP handlers and commands. Calls are
// serialised; every operation runs to completion before the next starts.
type Service struct {
	mu         sync.Mutex
	store      Store
	pricing    Pricing
	classifier Classifier

	now   func() time.Time
	newID func() string

	// refresh markers are seeded from persisted cost stamps on first use
	seeded        bool
	unrefreshed   bool
	lastRefreshed time.Time
	lastChanged   time.Time
}

// NewService validates cfg and binds the engine to store.
func NewService(store Store, cfg Config) (*Service, error) {
	if store == nil {
		return nil, errors.New("inventory: store is nil")
	}
	if cfg.VATRate.IsNegative() {
		return nil, fmt.Errorf("inventory: VAT rate must not be negative, got %s", cfg.VATRate)
	}
	if cfg.CriticalFraction.IsNegative() || cfg.CriticalFraction.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("inventory: critical fraction must be between 0 and 1, got %s", cfg.CriticalFraction)
	}

	return &Service{
		store:      store,
		pricing:    Pricing{VATRate: cfg.VATRate},
		classifier: Classifier{CriticalFraction: cfg.CriticalFraction},
		now: func() time.Time {
			return time.Now().UTC()
		},
		newID: uuid.NewString,
	}, nil
}

// Pricing exposes the VAT policy used for settlement.
func (s *Service) Pricing() Pricing {
	return s.pricing
}

// GetInventoryStatus classifies every ingredient against its thresholds.
func (s *Service) GetInventoryStatus(ctx context.Context) ([]IngredientStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ingredients, err := s.loadIngredients(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]IngredientStatus, 0, len(ingredients))
	for _, ingredient := range ingredients {
		rows = append(rows, s.classifier.Report(ingredient))
	}
	return rows, nil
}

// CalculateProductCost returns the current recipe cost of productID. A product
// without a recipe costs zero; use ProductCost to tell the two apart and to see
// whether the figure is incomplete.
func (s *Service) CalculateProductCost(ctx context.Context, productID string) (decimal.Decimal, error) {
	breakdown, err := s.ProductCost(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return breakdown.Total, nil
}

// ProductCost returns the per-line cost breakdown of productID.
func (s *Service) ProductCost(ctx context.Context, productID string) (CostBreakdown, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.loadProducts(ctx)
	if err != nil {
		return CostBreakdown{}, err
	}
	if _, ok := findProduct(products, productID); !ok {
		return CostBreakdown{}, notFoundError("product", productID)
	}

	calc, err := s.calculator(ctx)
	if err != nil {
		return CostBreakdown{}, err
	}

	breakdown := calc.CostOf(productID)
	if breakdown.Incomplete() {
		applog.Warn(ctx, "product cost is incomplete", "product", productID, "missingIngredients", breakdown.MissingIngredients)
	}
	return breakdown, nil
}

// UpdateAllProductCosts recomputes cost, profit and margin for every product
// and persists them. Derived fields are never refreshed implicitly; they stay
// stale after ingredient, recipe or price edits until this is called.
func (s *Service) UpdateAllProductCosts(ctx context.Context) (EconomicsReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.loadProducts(ctx)
	if err != nil {
		return EconomicsReport{}, err
	}
	calc, err := s.calculator(ctx)
	if err != nil {
		return EconomicsReport{}, err
	}

	rows := resolveEconomics(products, calc)
	computedAt := s.now()
	for i := range products {
		row := rows[i]
		products[i].CostPrice = row.CostPrice
		products[i].ProfitMargin = row.ProfitMargin
		products[i].MarginPercentage = row.MarginPercentage
		products[i].CostIncomplete = row.Incomplete
		stamp := computedAt
		products[i].CostComputedAt = &stamp
		if row.Incomplete {
			applog.Warn(ctx, "product cost refreshed with missing ingredients", "product", row.ProductID)
		}
	}

	if err := s.store.SaveProducts(ctx, products); err != nil {
		return EconomicsReport{}, s.persistenceFailure(ctx, "save products", err)
	}

	s.lastRefreshed = computedAt
	s.seeded = true
	s.unrefreshed = false
	applog.Debug(ctx, "product costs refreshed", "products", len(rows))
	return EconomicsReport{Rows: rows, ComputedAt: computedAt}, nil
}

// EconomicsStatus reports when costs were last refreshed and whether a
// cost-affecting change has happened since. After a restart the refresh time
// is the oldest CostComputedAt found in the store, and a product without one
// makes the status stale.
func (s *Service) EconomicsStatus(ctx context.Context) EconomicsStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seedRefreshMarkers(ctx)

	status := EconomicsStatus{Stale: s.unrefreshed}
	if !s.lastRefreshed.IsZero() {
		refreshed := s.lastRefreshed
		status.LastRefreshedAt = &refreshed
	}
	if !s.lastChanged.IsZero() {
		changed := s.lastChanged
		status.LastChangedAt = &changed
		status.Stale = status.Stale || s.lastRefreshed.IsZero() || s.lastChanged.After(s.lastRefreshed)
	}
	return status
}

// seedRefreshMarkers must be called with s.mu held. A failed load is retried
// on the next call.
func (s *Service) seedRefreshMarkers(ctx context.Context) {
	if s.seeded {
		return
	}
	products, err := s.store.LoadProducts(ctx)
	if err != nil {
		applog.Warn(ctx, "could not read persisted cost refresh times", "error", err)
		return
	}
	s.seeded = true

	var oldest time.Time
	missing := false
	for _, product := range products {
		if product.CostComputedAt == nil {
			missing = true
			continue
		}
		if oldest.IsZero() || product.CostComputedAt.Before(oldest) {
			oldest = *product.CostComputedAt
		}
	}
	if oldest.IsZero() {
		return
	}
	s.lastRefreshed = oldest
	s.unrefreshed = missing
}

// RecipeInput is one ingredient line submitted to SaveRecipe. Quantity must
// already be expressed in the ingredient's unit.
type RecipeInput struct {
	IngredientID string          `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// SaveRecipe replaces the recipe of productID. An empty list removes the recipe.
func (s *Service) SaveRecipe(ctx context.Context, productID string, lines []RecipeInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	products, err := s.loadProducts(ctx)
	if err != nil {
		return err
	}
	if _, ok := findProduct(products, productID); !ok {
		return notFoundError("product", productID)
	}

	ingredients, err := s.loadIngredients(ctx)
	if err != nil {
		return err
	}
	index := indexIngredients(ingredients)

	seen := make(map[string]struct{}, len(lines))
	recipe := make([]models.RecipeLine, 0, len(lines))
	for i, line := range lines {
		ingredientID := strings.TrimSpace(line.IngredientID)
		if ingredientID == "" {
			return validationError("line %d: ingredient id is required", i+1)
		}
		if line.Quantity.Sign() <= 0 {
			return validationError("line %d: quantity must be greater than zero", i+1)
		}
		if _, ok := index[ingredientID]; !ok {
			return integrityError("line %d: ingredient %q does not exist", i+1, ingredientID)
		}
		if _, dup := seen[ingredientID]; dup {
			return validationError("line %d: ingredient %q is listed more than once", i+1, ingredientID)
		}
		seen[ingredientID] = struct{}{}
		recipe = append(recipe, models.RecipeLine{
			ProductID:    productID,
			IngredientID: ingredientID,
			Quantity:     line.Quantity,
		})
	}

	existing, err := s.loadRecipeLines(ctx)
	if err != nil {
		return err
	}
	updated := make([]models.RecipeLine, 0, len(existing)+len(recipe))
	for _, line := range existing {
		if line.ProductID != productID {
			updated = append(updated, line)
		}
	}
	updated = append(updated, recipe...)

	if err := s.store.SaveRecipeLines(ctx, updated); err != nil {
		return s.persistenceFailure(ctx, "save recipes", err)
	}

	s.markChanged()
	applog.Debug(ctx, "recipe saved", "product", productID, "lines", len(recipe))
	return nil
}

// AddSale records a sale line without touching stock. unitPrice is VAT-exclusive.
func (s *Service) AddSale(ctx context.Context, productID string, quantity int, unitPrice decimal.Decimal) (models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity < 1 {
		return models.Sale{}, validationError("quantity must be at least 1, got %d", quantity)
	}
	if unitPrice.IsNegative() {
		return models.Sale{}, validationError("unit price must not be negative, got %s", unitPrice)
	}

	products, err := s.loadProducts(ctx)
	if err != nil {
		return models.Sale{}, err
	}
	if _, ok := findProduct(products, productID); !ok {
		return models.Sale{}, notFoundError("product", productID)
	}

	return s.recordSale(ctx, productID, quantity, unitPrice)
}

// UpdateInventoryFromSale deducts recipe quantities × quantitySold from stock.
// Nothing is deducted when any ingredient would go negative.
func (s *Service) UpdateInventoryFromSale(ctx context.Context, productID string, quantitySold int) (StockDeduction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantitySold < 1 {
		return StockDeduction{}, validationError("quantity sold must be at least 1, got %d", quantitySold)
	}

	products, err := s.loadProducts(ctx)
	if err != nil {
		return StockDeduction{}, err
	}
	if _, ok := findProduct(products, productID); !ok {
		return StockDeduction{}, notFoundError("product", productID)
	}

	deduction, updated, err := s.planDeduction(ctx, productID, quantitySold)
	if err != nil {
		return StockDeduction{}, err
	}
	if err := s.applyDeduction(ctx, deduction, updated); err != nil {
		return StockDeduction{}, err
	}
	return deduction, nil
}

// AddInventoryStock receives quantity (in the ingredient's unit) into stock and
// appends notes to the ingredient's history.
func (s *Service) AddInventoryStock(ctx context.Context, ingredientID string, quantity decimal.Decimal, notes string) (models.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quantity.Sign() <= 0 {
		return models.Ingredient{}, validationError("quantity must be greater than zero, got %s", quantity)
	}

	ingredients, err := s.loadIngredients(ctx)
	if err != nil {
		return models.Ingredient{}, err
	}
	idx := -1
	for i := range ingredients {
		if ingredients[i].ID == ingredientID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Ingredient{}, notFoundError("ingredient", ingredientID)
	}

	now := s.now()
	ingredient := &ingredients[idx]
	before := ingredient.CurrentStock
	ingredient.CurrentStock = ingredient.CurrentStock.Add(quantity)
	ingredient.UpdatedAt = now
	if note := strings.TrimSpace(notes); note != "" {
		entry := fmt.Sprintf("[%s] +%s %s: %s", now.Format("2006-01-02"), quantity.String(), ingredient.Unit, note)
		if strings.TrimSpace(ingredient.Notes) == "" {
			ingredient.Notes = entry
		} else {
			ingredient.Notes = ingredient.Notes + "\n" + entry
		}
	}

	if err := s.store.SaveIngredients(ctx, ingredients); err != nil {
		return models.Ingredient{}, s.persistenceFailure(ctx, "save ingredients", err)
	}

	applog.Info(ctx, "stock added", "ingredient", ingredientID, "quantity", quantity.String(), "before", before.String(), "after", ingredient.CurrentStock.String())
	return *ingredient, nil
}

func (s *Service) recordSale(ctx context.Context, productID string, quantity int, unitPrice decimal.Decimal) (models.Sale, error) {
	sale := models.Sale{
		ID:        s.newID(),
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		SoldAt:    s.now(),
	}
	if err := s.store.AppendSale(ctx, sale); err != nil {
		return models.Sale{}, s.persistenceFailure(ctx, "append sale", err)
	}
	applog.Debug(ctx, "sale recorded", "sale", sale.ID, "product", productID, "quantity", quantity)
	return sale, nil
}

func (s *Service) calculator(ctx context.Context) (*Calculator, error) {
	ingredients, err := s.loadIngredients(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := s.loadRecipeLines(ctx)
	if err != nil {
		return nil, err
	}
	return NewCalculator(ingredients, lines), nil
}

func (s *Service) markChanged() {
	s.lastChanged = s.now()
}

func (s *Service) loadIngredients(ctx context.Context) ([]models.Ingredient, error) {
	ingredients, err := s.store.LoadIngredients(ctx)
	if err != nil {
		return nil, s.persistenceFailure(ctx, "load ingredients", err)
	}
	return ingredients, nil
}

func (s *Service) loadProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.LoadProducts(ctx)
	if err != nil {
		return nil, s.persistenceFailure(ctx, "load products", err)
	}
	return products, nil
}

func (s *Service) loadRecipeLines(ctx context.Context) ([]models.RecipeLine, error) {
	lines, err := s.store.LoadRecipeLines(ctx)
	if err != nil {
		return nil, s.persistenceFailure(ctx, "load recipes", err)
	}
	return lines, nil
}

func (s *Service) persistenceFailure(ctx context.Context, op string, err error) error {
	applog.Error(ctx, "store operation failed", "op", op, "error", err)
	return persistenceError(op, err)
}

func findProduct(products []models.Product, productID string) (models.Product, bool) {
	for _, product := range products {
		if product.ID == productID {
			return product, true
		}
	}
	return models.Product{}, false
}

func indexIngredients(ingredients []models.Ingredient) map[string]int {
	index := make(map[string]int, len(ingredients))
	for i, ingredient := range ingredients {
		index[ingredient.ID] = i
	}
	return index
}
