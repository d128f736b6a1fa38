package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry. SellingPrice is VAT-inclusive.
//
// CostPrice, ProfitMargin and MarginPercentage are derived from the recipe and
// ingredient costs. They are only rewritten by an explicit cost refresh and are
// stale between refreshes; CostComputedAt records the last refresh.
type Product struct {
	ID               string          `gorm:"primaryKey;size:64" json:"id" msgpack:"id"`
	Name             string          `gorm:"not null" json:"name" msgpack:"name"`
	Category         string          `json:"category" msgpack:"category"`
	SellingPrice     decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"selling_price" msgpack:"selling_price"`
	Active           bool            `gorm:"not null" json:"active" msgpack:"active"`
	CostPrice        decimal.Decimal `gorm:"type:numeric(20,6)" json:"cost_price" msgpack:"cost_price"`
	ProfitMargin     decimal.Decimal `gorm:"type:numeric(20,6)" json:"profit_margin" msgpack:"profit_margin"`
	MarginPercentage decimal.Decimal `gorm:"type:numeric(20,6)" json:"margin_percentage" msgpack:"margin_percentage"`
	CostIncomplete   bool            `gorm:"not null" json:"cost_incomplete" msgpack:"cost_incomplete"`
	CostComputedAt   *time.Time      `json:"cost_computed_at,omitempty" msgpack:"cost_computed_at"`
	CreatedAt        time.Time       `json:"created_at" msgpack:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" msgpack:"updated_at"`
}
