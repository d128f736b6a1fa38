package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is an immutable record of a settled sale line. UnitPrice excludes VAT.
type Sale struct {
	ID        string          `gorm:"primaryKey;size:64" json:"id" msgpack:"id"`
	ProductID string          `gorm:"size:64;index;not null" json:"product_id" msgpack:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity" msgpack:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"unit_price" msgpack:"unit_price"`
	SoldAt    time.Time       `gorm:"index;not null" json:"sold_at" msgpack:"sold_at"`
}

// Total returns the VAT-exclusive line total.
func (s Sale) Total() decimal.Decimal {
	return s.UnitPrice.Mul(decimal.NewFromInt(int64(s.Quantity)))
}
