package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	applog "pantrypos/internal/log"
	"pantrypos/models"
)

const batchSize = 200

// Store keeps the inventory tables in SQL. Saves replace a whole table inside
// one transaction so readers never see a half-written table.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an opened and migrated database.
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is nil")
	}
	return &Store{db: db}, nil
}

func (s *Store) LoadIngredients(ctx context.Context) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("load ingredients: %w", err)
	}
	return ingredients, nil
}

func (s *Store) SaveIngredients(ctx context.Context, ingredients []models.Ingredient) error {
	return replaceTable(ctx, s.db, &models.Ingredient{}, ingredients)
}

func (s *Store) LoadProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return products, nil
}

func (s *Store) SaveProducts(ctx context.Context, products []models.Product) error {
	return replaceTable(ctx, s.db, &models.Product{}, products)
}

func (s *Store) LoadRecipeLines(ctx context.Context) ([]models.RecipeLine, error) {
	var lines []models.RecipeLine
	if err := s.db.WithContext(ctx).Order("product_id, ingredient_id").Find(&lines).Error; err != nil {
		return nil, fmt.Errorf("load recipe lines: %w", err)
	}
	return lines, nil
}

func (s *Store) SaveRecipeLines(ctx context.Context, lines []models.RecipeLine) error {
	return replaceTable(ctx, s.db, &models.RecipeLine{}, lines)
}

func (s *Store) LoadSales(ctx context.Context) ([]models.Sale, error) {
	var sales []models.Sale
	if err := s.db.WithContext(ctx).Order("sold_at, id").Find(&sales).Error; err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	return sales, nil
}

func (s *Store) AppendSale(ctx context.Context, sale models.Sale) error {
	if err := s.db.WithContext(ctx).Create(&sale).Error; err != nil {
		return fmt.Errorf("append sale: %w", err)
	}
	return nil
}

func replaceTable[T any](ctx context.Context, db *gorm.DB, model *T, rows []T) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(&rows, batchSize).Error
	})
	if err != nil {
		return fmt.Errorf("replace %T table: %w", model, err)
	}
	applog.Debug(ctx, "table replaced", "model", fmt.Sprintf("%T", model), "rows", len(rows))
	return nil
}
