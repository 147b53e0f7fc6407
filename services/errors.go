package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrDuplicateRule       = errors.New("a rule for this tier and duration already exists")
	ErrOverlappingRange    = errors.New("price range overlaps an existing fee rule")
	ErrInvalidRange        = errors.New("price range end must be greater than start")
	ErrInvalidState        = errors.New("invalid withdrawal request or already processed")
	ErrInsufficientBalance = errors.New("insufficient balance for this withdrawal request")
	ErrNoApplicableRule    = errors.New("no revenue rule applies to this payment")
	ErrAlreadySettled      = errors.New("payment already settled")
	ErrNotFound            = errors.New("record not found")
	ErrForbidden           = errors.New("not allowed to act on this gym")
	ErrPersistence         = errors.New("database error")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// persistence wraps a store failure unless it already carries one of the
// service errors.
func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if isServiceError(err) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrPersistence, err)
}

func isServiceError(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrDuplicateRule, ErrOverlappingRange, ErrInvalidRange,
		ErrInvalidState, ErrInsufficientBalance, ErrNoApplicableRule,
		ErrAlreadySettled, ErrNotFound, ErrForbidden, ErrPersistence,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
