package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	applog "pantrypos/internal/log"
	"pantrypos/models"
)

const pricePlaces = 2

// DefaultVATRate is the value-added tax folded into selling prices.
var DefaultVATRate = decimal.RequireFromString("0.12")

// Pricing splits VAT-inclusive selling prices.
type Pricing struct {
	VATRate decimal.Decimal
}

// Exclusive derives the VAT-exclusive price: inclusive / (1 + rate), rounded
// to cents after the division.
func (p Pricing) Exclusive(inclusive decimal.Decimal) decimal.Decimal {
	return inclusive.DivRound(decimal.NewFromInt(1).Add(p.VATRate), pricePlaces)
}

// DeductedLine is the stock movement of one ingredient caused by a sale.
type DeductedLine struct {
	IngredientID string          `json:"ingredient_id"`
	Name         string          `json:"name"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	StockBefore  decimal.Decimal `json:"stock_before"`
	StockAfter   decimal.Decimal `json:"stock_after"`
	Status       StockStatus     `json:"status"`
}

// StockDeduction describes the stock consumed by selling a product.
type StockDeduction struct {
	ProductID string         `json:"product_id"`
	Quantity  int            `json:"quantity"`
	NoRecipe  bool           `json:"no_recipe"`
	Lines     []DeductedLine `json:"lines"`
}

// Message summarises the deduction for display.
func (d StockDeduction) Message() string {
	if d.NoRecipe {
		return fmt.Sprintf("product %s has no recipe; no stock deducted", d.ProductID)
	}
	parts := make([]string, 0, len(d.Lines))
	for _, line := range d.Lines {
		parts = append(parts, fmt.Sprintf("%s -%s %s", line.Name, line.Quantity.String(), line.Unit))
	}
	return fmt.Sprintf("deducted stock for %d × %s: %s", d.Quantity, d.ProductID, strings.Join(parts, ", "))
}

// planDeduction computes the new stock levels for selling quantity units of
// productID without writing anything. It fails when a recipe ingredient is
// missing or when any ingredient would go below zero.
func (s *Service) planDeduction(ctx context.Context, productID string, quantity int) (StockDeduction, []models.Ingredient, error) {
	lines, err := s.loadRecipeLines(ctx)
	if err != nil {
		return StockDeduction{}, nil, err
	}
	ingredients, err := s.loadIngredients(ctx)
	if err != nil {
		return StockDeduction{}, nil, err
	}

	deduction := StockDeduction{ProductID: productID, Quantity: quantity}
	sold := decimal.NewFromInt(int64(quantity))
	index := indexIngredients(ingredients)

	var shortages []string
	for _, line := range lines {
		if line.ProductID != productID {
			continue
		}
		idx, ok := index[line.IngredientID]
		if !ok {
			return StockDeduction{}, nil, integrityError("recipe of product %q references missing ingredient %q", productID, line.IngredientID)
		}

		ingredient := &ingredients[idx]
		delta := line.Quantity.Mul(sold)
		before := ingredient.CurrentStock
		after := before.Sub(delta)
		if after.IsNegative() {
			shortages = append(shortages, fmt.Sprintf("%s needs %s %s, has %s", ingredient.Name, delta.String(), ingredient.Unit, before.String()))
		}
		ingredient.CurrentStock = after
		deduction.Lines = append(deduction.Lines, DeductedLine{
			IngredientID: ingredient.ID,
			Name:         ingredient.Name,
			Unit:         ingredient.Unit,
			Quantity:     delta,
			StockBefore:  before,
			StockAfter:   after,
			Status:       s.classifier.StatusOf(*ingredient),
		})
	}

	if len(shortages) > 0 {
		return StockDeduction{}, nil, fmt.Errorf("%w: %s", ErrStockViolation, strings.Join(shortages, "; "))
	}
	if len(deduction.Lines) == 0 {
		deduction.NoRecipe = true
		return deduction, nil, nil
	}
	return deduction, ingredients, nil
}

func (s *Service) applyDeduction(ctx context.Context, deduction StockDeduction, updated []models.Ingredient) error {
	if deduction.NoRecipe {
		applog.Debug(ctx, "product has no recipe, nothing to deduct", "product", deduction.ProductID)
		return nil
	}

	now := s.now()
	touched := make(map[string]struct{}, len(deduction.Lines))
	for _, line := range deduction.Lines {
		touched[line.IngredientID] = struct{}{}
	}
	for i := range updated {
		if _, ok := touched[updated[i].ID]; ok {
			updated[i].UpdatedAt = now
		}
	}

	if err := s.store.SaveIngredients(ctx, updated); err != nil {
		return s.persistenceFailure(ctx, "save ingredients", err)
	}
	for _, line := range deduction.Lines {
		if line.Status != StatusNormal {
			applog.Warn(ctx, "ingredient below minimum after sale", "ingredient", line.IngredientID, "stock", line.StockAfter.String(), "status", string(line.Status))
		}
	}
	return nil
}

// LineState tracks a sale line through settlement.
type LineState string

const (
	LinePending  LineState = "pending"
	LinePriced   LineState = "priced"
	LineRecorded LineState = "recorded"
	LineDeducted LineState = "deducted"
	LineFailed   LineState = "failed"
)

// LineResult is the settlement outcome of one cart line.
type LineResult struct {
	Index              int             `json:"index"`
	ProductID          string          `json:"product_id"`
	ProductName        string          `json:"product_name,omitempty"`
	Quantity           int             `json:"quantity"`
	State              LineState       `json:"state"`
	FailedAt           LineState       `json:"failed_at,omitempty"`
	Reason             string          `json:"reason,omitempty"`
	UnitPriceInclusive decimal.Decimal `json:"unit_price_inclusive"`
	UnitPriceExclusive decimal.Decimal `json:"unit_price_exclusive"`
	TotalInclusive     decimal.Decimal `json:"total_inclusive"`
	TotalExclusive     decimal.Decimal `json:"total_exclusive"`
	VAT                decimal.Decimal `json:"vat"`
	Sale               *models.Sale    `json:"sale,omitempty"`
	Deduction          *StockDeduction `json:"deduction,omitempty"`

	err error
}

// Err returns the failure cause, or nil for a settled line.
func (r LineResult) Err() error {
	return r.err
}

// Succeeded reports whether the line was recorded and its stock deducted.
func (r LineResult) Succeeded() bool {
	return r.State == LineDeducted
}

func (r LineResult) fail(err error) LineResult {
	r.FailedAt = r.State
	r.State = LineFailed
	r.Reason = err.Error()
	r.err = err
	return r
}

// LineFailure is a compact view of a failed line.
type LineFailure struct {
	Index     int       `json:"index"`
	ProductID string    `json:"product_id"`
	Stage     LineState `json:"stage"`
	Reason    string    `json:"reason"`
}

// Outcome classifies a whole settlement.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomePartial   Outcome = "partially_succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Settlement is the structured result of settling a cart. Totals only cover
// lines that succeeded.
type Settlement struct {
	Lines          []LineResult    `json:"lines"`
	Succeeded      int             `json:"succeeded"`
	Failures       []LineFailure   `json:"failures"`
	VATRate        decimal.Decimal `json:"vat_rate"`
	TotalInclusive decimal.Decimal `json:"total_inclusive"`
	TotalExclusive decimal.Decimal `json:"total_exclusive"`
	TotalVAT       decimal.Decimal `json:"total_vat"`
	SettledAt      time.Time       `json:"settled_at"`
}

// Outcome reports whether every, some or no lines succeeded.
func (s Settlement) Outcome() Outcome {
	switch {
	case len(s.Lines) > 0 && s.Succeeded == len(s.Lines):
		return OutcomeSucceeded
	case s.Succeeded > 0:
		return OutcomePartial
	default:
		return OutcomeFailed
	}
}

// Settle processes cart line by line. Each line is priced, recorded and
// deducted independently; a failed line never rolls back or blocks the others.
// The only error returned is for an empty cart.
func (s *Service) Settle(ctx context.Context, cart Cart) (Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cart.Empty() {
		return Settlement{}, validationError("cart is empty")
	}

	settlement := Settlement{
		Lines:          make([]LineResult, 0, len(cart.Lines)),
		Failures:       []LineFailure{},
		VATRate:        s.pricing.VATRate,
		TotalInclusive: decimal.Zero,
		TotalExclusive: decimal.Zero,
		TotalVAT:       decimal.Zero,
	}

	for i, line := range cart.Lines {
		result := s.settleLine(ctx, i, line)
		settlement.Lines = append(settlement.Lines, result)
		if result.Succeeded() {
			settlement.Succeeded++
			settlement.TotalInclusive = settlement.TotalInclusive.Add(result.TotalInclusive)
			settlement.TotalExclusive = settlement.TotalExclusive.Add(result.TotalExclusive)
			settlement.TotalVAT = settlement.TotalVAT.Add(result.VAT)
			continue
		}
		settlement.Failures = append(settlement.Failures, LineFailure{
			Index:     result.Index,
			ProductID: result.ProductID,
			Stage:     result.FailedAt,
			Reason:    result.Reason,
		})
		applog.Warn(ctx, "sale line failed", "index", i, "product", line.ProductID, "stage", string(result.FailedAt), "error", result.err)
	}

	settlement.SettledAt = s.now()
	applog.Info(ctx, "cart settled", "lines", len(cart.Lines), "succeeded", settlement.Succeeded, "outcome", string(settlement.Outcome()))
	return settlement, nil
}

func (s *Service) settleLine(ctx context.Context, index int, line CartLine) LineResult {
	result := LineResult{
		Index:     index,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		State:     LinePending,
	}

	if line.Quantity < 1 {
		return result.fail(validationError("quantity must be at least 1, got %d", line.Quantity))
	}

	products, err := s.loadProducts(ctx)
	if err != nil {
		return result.fail(err)
	}
	product, ok := findProduct(products, line.ProductID)
	if !ok {
		return result.fail(notFoundError("product", line.ProductID))
	}
	if !product.Active {
		return result.fail(validationError("product %q is inactive", line.ProductID))
	}
	result.ProductName = product.Name

	// Pending -> Priced
	qty := decimal.NewFromInt(int64(line.Quantity))
	result.UnitPriceInclusive = product.SellingPrice
	result.UnitPriceExclusive = s.pricing.Exclusive(product.SellingPrice)
	result.TotalInclusive = result.UnitPriceInclusive.Mul(qty)
	result.TotalExclusive = result.UnitPriceExclusive.Mul(qty)
	result.VAT = result.TotalInclusive.Sub(result.TotalExclusive)
	result.State = LinePriced

	deduction, updated, err := s.planDeduction(ctx, line.ProductID, line.Quantity)
	if err != nil {
		return result.fail(err)
	}

	// Priced -> Recorded
	sale, err := s.recordSale(ctx, line.ProductID, line.Quantity, result.UnitPriceExclusive)
	if err != nil {
		return result.fail(err)
	}
	result.Sale = &sale
	result.State = LineRecorded

	// Recorded -> Deducted
	if err := s.applyDeduction(ctx, deduction, updated); err != nil {
		return result.fail(fmt.Errorf("sale %s recorded but stock not deducted: %w", sale.ID, err))
	}
	result.Deduction = &deduction
	result.State = LineDeducted
	return result
}
