// Package units holds the fixed measurement vocabulary used for ingredient
// stock and recipe quantities, and converts quantities between units of the
// same class.
package units

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Class groups units that can be converted into one another.
type Class string

const (
	Mass     Class = "mass"
	Volume   Class = "volume"
	Count    Class = "count"
	Culinary Class = "culinary"
)

// Canonical unit tags.
const (
	Milligram  = "mg"
	Gram       = "g"
	Kilogram   = "kg"
	Milliliter = "ml"
	Liter      = "L"
	Piece      = "pcs"
	Dozen      = "dozen"
	Teaspoon   = "tsp"
	Tablespoon = "tbsp"
	Cup        = "cup"
)

var (
	ErrUnknownUnit       = errors.New("units: unknown unit")
	ErrIncompatibleUnits = errors.New("units: incompatible units")
)

type definition struct {
	class Class
	// size of the unit counted in the smallest unit of its class
	atoms int64
}

var definitions = map[string]definition{
	Milligram:  {Mass, 1},
	Gram:       {Mass, 1_000},
	Kilogram:   {Mass, 1_000_000},
	Milliliter: {Volume, 1},
	Liter:      {Volume, 1_000},
	Piece:      {Count, 1},
	Dozen:      {Count, 12},
	Teaspoon:   {Culinary, 1},
	Tablespoon: {Culinary, 3},
	Cup:        {Culinary, 48},
}

var baseUnits = map[Class]string{
	Mass:     Kilogram,
	Volume:   Liter,
	Count:    Piece,
	Culinary: Cup,
}

var aliases = map[string]string{
	"mg":          Milligram,
	"milligram":   Milligram,
	"milligrams":  Milligram,
	"g":           Gram,
	"gr":          Gram,
	"gram":        Gram,
	"grams":       Gram,
	"kg":          Kilogram,
	"kilo":        Kilogram,
	"kilos":       Kilogram,
	"kilogram":    Kilogram,
	"kilograms":   Kilogram,
	"ml":          Milliliter,
	"milliliter":  Milliliter,
	"milliliters": Milliliter,
	"millilitre":  Milliliter,
	"l":           Liter,
	"liter":       Liter,
	"liters":      Liter,
	"litre":       Liter,
	"litres":      Liter,
	"pc":          Piece,
	"pcs":         Piece,
	"piece":       Piece,
	"pieces":      Piece,
	"dozen":       Dozen,
	"dz":          Dozen,
	"doz":         Dozen,
	"tsp":         Teaspoon,
	"teaspoon":    Teaspoon,
	"teaspoons":   Teaspoon,
	"tbsp":        Tablespoon,
	"tablespoon":  Tablespoon,
	"tablespoons": Tablespoon,
	"cup":         Cup,
	"cups":        Cup,
}

// Normalize maps user input such as "Grams" or " l " onto its canonical tag.
func Normalize(unit string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(unit))
	if canonical, ok := aliases[key]; ok {
		return canonical, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
}

// ClassOf returns the compatibility class of unit.
func ClassOf(unit string) (Class, error) {
	canonical, err := Normalize(unit)
	if err != nil {
		return "", err
	}
	return definitions[canonical].class, nil
}

// BaseUnit returns the canonical base unit of class.
func BaseUnit(class Class) string {
	return baseUnits[class]
}

// Classes lists the compatibility classes in a fixed order.
func Classes() []Class {
	return []Class{Mass, Volume, Count, Culinary}
}

// UnitsOf lists the units of class from smallest to largest.
func UnitsOf(class Class) []string {
	var result []string
	for unit, def := range definitions {
		if def.class == class {
			result = append(result, unit)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return definitions[result[i]].atoms < definitions[result[j]].atoms
	})
	return result
}

func resolvePair(from, to string) (definition, definition, error) {
	fromUnit, err := Normalize(from)
	if err != nil {
		return definition{}, definition{}, err
	}
	toUnit, err := Normalize(to)
	if err != nil {
		return definition{}, definition{}, err
	}
	fromDef, toDef := definitions[fromUnit], definitions[toUnit]
	if fromDef.class != toDef.class {
		return definition{}, definition{}, fmt.Errorf("%w: %s (%s) to %s (%s)", ErrIncompatibleUnits, fromUnit, fromDef.class, toUnit, toDef.class)
	}
	return fromDef, toDef, nil
}

// Convert expresses quantity, given in from, in to. Units of different
// classes yield ErrIncompatibleUnits.
func Convert(quantity decimal.Decimal, from, to string) (decimal.Decimal, error) {
	fromDef, toDef, err := resolvePair(from, to)
	if err != nil {
		return decimal.Zero, err
	}
	if fromDef.atoms == toDef.atoms {
		return quantity, nil
	}
	// Scale up before dividing so whole ratios (3 tsp -> 1 tbsp) stay exact.
	return quantity.Mul(decimal.NewFromInt(fromDef.atoms)).Div(decimal.NewFromInt(toDef.atoms)), nil
}
