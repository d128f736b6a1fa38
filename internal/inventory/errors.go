package inventory

import (
	"errors"
	"fmt"

	"pantrypos/internal/units"
)

var (
	ErrValidation           = errors.New("inventory: validation failed")
	ErrReferentialIntegrity = errors.New("inventory: referential integrity violation")
	ErrStockViolation       = errors.New("inventory: stock would go negative")
	ErrPersistence          = errors.New("inventory: persistence failure")

	// ErrNotFound narrows ErrReferentialIntegrity to a lookup of an unknown id.
	ErrNotFound = fmt.Errorf("%w: not found", ErrReferentialIntegrity)

	// ErrIncompatibleUnits is returned when a quantity is converted across unit classes.
	ErrIncompatibleUnits = units.ErrIncompatibleUnits
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func integrityError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrReferentialIntegrity, fmt.Sprintf(format, args...))
}

func notFoundError(kind, id string) error {
	return fmt.Errorf("%w: %s %q does not exist", ErrNotFound, kind, id)
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
