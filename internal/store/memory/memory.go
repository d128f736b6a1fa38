// Package memory provides a process-local Store used by tests and demos.
package memory

import (
	"context"
	"sync"

	"pantrypos/models"
)

// Store keeps every table in memory. Loads return copies so callers can
// mutate them freely before saving.
type Store struct {
	mu          sync.RWMutex
	ingredients []models.Ingredient
	products    []models.Product
	recipes     []models.RecipeLine
	sales       []models.Sale
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

func (s *Store) LoadIngredients(ctx context.Context) ([]models.Ingredient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.ingredients), nil
}

func (s *Store) SaveIngredients(ctx context.Context, ingredients []models.Ingredient) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingredients = clone(ingredients)
	return nil
}

func (s *Store) LoadProducts(ctx context.Context) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.products), nil
}

func (s *Store) SaveProducts(ctx context.Context, products []models.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = clone(products)
	return nil
}

func (s *Store) LoadRecipeLines(ctx context.Context) ([]models.RecipeLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.recipes), nil
}

func (s *Store) SaveRecipeLines(ctx context.Context, lines []models.RecipeLine) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipes = clone(lines)
	return nil
}

func (s *Store) LoadSales(ctx context.Context) ([]models.Sale, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.sales), nil
}

func (s *Store) AppendSale(ctx context.Context, sale models.Sale) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = append(s.sales, sale)
	return nil
}

func clone[T any](rows []T) []T {
	if rows == nil {
		return nil
	}
	out := make([]T, len(rows))
	copy(out, rows)
	return out
}
