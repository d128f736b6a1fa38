package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ingredient is a stocked raw material. CostPerUnit, CurrentStock and
// MinimumStock are all denominated in Unit, which is also the unit recipe
// quantities for this ingredient are expressed in.
type Ingredient struct {
	ID           string          `gorm:"primaryKey;size:64" json:"id" msgpack:"id"`
	Name         string          `gorm:"uniqueIndex;not null" json:"name" msgpack:"name"`
	Category     string          `json:"category" msgpack:"category"`
	Unit         string          `gorm:"size:16;not null" json:"unit" msgpack:"unit"`
	CostPerUnit  decimal.Decimal `gorm:"type:numeric(30,16);not null" json:"cost_per_unit" msgpack:"cost_per_unit"`
	CurrentStock decimal.Decimal `gorm:"type:numeric(30,16);not null" json:"current_stock" msgpack:"current_stock"`
	MinimumStock decimal.Decimal `gorm:"type:numeric(30,16);not null" json:"minimum_stock" msgpack:"minimum_stock"`
	Notes        string          `gorm:"type:text" json:"notes" msgpack:"notes"`
	CreatedAt    time.Time       `json:"created_at" msgpack:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" msgpack:"updated_at"`
}
