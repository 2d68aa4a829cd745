/*
errors.go - Centralized error types for the inventory engine

PURPOSE:
  All domain errors in one place for consistency and discoverability.
  The HTTP layer maps these onto status codes; the stores translate
  database constraint violations into them at the write boundary.

ERROR CATEGORIES:
  1. Validation errors - malformed movement batches (never persisted)
  2. Reference errors  - name uniqueness, missing lookups
  3. Store errors      - missing rows on delete/rename

Aggregation never raises on empty or degenerate input: an empty
snapshot or report is a valid output, not an error. Divide-by-zero
conditions (valuing a pair with a zero-quantity delivery) are guarded
internally and surface as null/zero values.
*/
package inventory

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidNumericInput is returned when a quantity or price string
	// does not parse as a decimal number.
	ErrInvalidNumericInput = errors.New("invalid numeric input")

	// ErrNonPositiveQuantity is returned for quantities <= 0.
	ErrNonPositiveQuantity = errors.New("quantity must be greater than 0")

	// ErrNonPositivePrice is returned when a price is provided but <= 0.
	ErrNonPositivePrice = errors.New("price must be greater than 0")

	// ErrUnknownActionType is returned for actions outside the fixed set
	// delivery/sales/consumption/waste.
	ErrUnknownActionType = errors.New("unknown action type")

	// ErrUnknownReferenceKind is returned for kinds other than
	// item/category/unit.
	ErrUnknownReferenceKind = errors.New("unknown reference kind")

	// ErrInvalidDate is returned when a date string is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")

	// ErrDuplicateName is returned when inserting or renaming a reference
	// entity to a name that already exists for that kind.
	ErrDuplicateName = errors.New("name already exists")

	// ErrNotFound is returned when deleting or renaming a row that does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingReference is returned when a movement points at an item,
	// category or unit that does not exist at insert time.
	ErrMissingReference = errors.New("referenced entity does not exist")

	// ErrEmptyBatch is returned when a batch contains no entries.
	ErrEmptyBatch = errors.New("empty batch")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// BatchError reports which entry of a movement batch failed validation.
// The whole batch is rejected; Index is zero-based.
type BatchError struct {
	Index int
	Field string // "quantity", "price", "date", "action"
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("entry %d: %s: %v", e.Index, e.Field, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller
// input rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidNumericInput) ||
		errors.Is(err, ErrNonPositiveQuantity) ||
		errors.Is(err, ErrNonPositivePrice) ||
		errors.Is(err, ErrUnknownActionType) ||
		errors.Is(err, ErrUnknownReferenceKind) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrDuplicateName) ||
		errors.Is(err, ErrMissingReference) ||
		errors.Is(err, ErrEmptyBatch)
}
