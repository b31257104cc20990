package main

import (
	"errors"
	"fmt"
)

// Error kinds callers can test with errors.Is. Not-found is represented by
// gorm.ErrRecordNotFound so record-store lookups propagate unchanged.
var (
	// ErrValidation marks bad input rejected before any storage write.
	ErrValidation = errors.New("validation failed")
	// ErrPartialTransfer marks a transfer whose legs could not be committed
	// together. With the transactional record store this is only reachable
	// when the commit itself fails, in which case nothing was applied.
	ErrPartialTransfer = errors.New("transfer not fully applied")
)

func validationErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
