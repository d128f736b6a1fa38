package models

import "github.com/shopspring/decimal"

// RecipeLine is one ingredient of a product's bill of materials. Quantity is
// the amount consumed per unit sold, in the ingredient's unit.
type RecipeLine struct {
	ProductID    string          `gorm:"primaryKey;size:64" json:"product_id" msgpack:"product_id"`
	IngredientID string          `gorm:"primaryKey;size:64;index" json:"ingredient_id" msgpack:"ingredient_id"`
	Quantity     decimal.Decimal `gorm:"type:numeric(30,16);not null" json:"quantity" msgpack:"quantity"`
}
