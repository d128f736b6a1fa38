package units

import (
	"github.com/shopspring/decimal"
)

// Quantity is a value paired with its unit, used for presentation only.
type Quantity struct {
	Value decimal.Decimal
	Unit  string
}

// String renders the quantity with at most two decimal places.
func (q Quantity) String() string {
	return q.Value.Round(2).String() + " " + q.Unit
}

// Display picks the largest unit of the class in which the quantity's
// magnitude is at least one, falling back to the smallest unit. The result is
// cosmetic and must not be written back into stock or recipe quantities.
func Display(quantity decimal.Decimal, unit string) (Quantity, error) {
	canonical, err := Normalize(unit)
	if err != nil {
		return Quantity{}, err
	}
	if quantity.IsZero() {
		return Quantity{Value: quantity, Unit: canonical}, nil
	}
	class, err := ClassOf(canonical)
	if err != nil {
		return Quantity{}, err
	}

	candidates := UnitsOf(class)
	one := decimal.NewFromInt(1)
	for i := len(candidates) - 1; i >= 0; i-- {
		converted, err := Convert(quantity, canonical, candidates[i])
		if err != nil {
			return Quantity{}, err
		}
		if converted.Abs().GreaterThanOrEqual(one) {
			return Quantity{Value: converted, Unit: candidates[i]}, nil
		}
	}

	smallest := candidates[0]
	converted, err := Convert(quantity, canonical, smallest)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Value: converted, Unit: smallest}, nil
}
