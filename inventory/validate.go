/*
validate.go - The gate every movement batch passes before the store

PURPOSE:
  A batch arrives form-shaped: a shared date and action type plus one
  row per (category, item, unit, quantity, price). Quantities and
  prices are strings at this point. ValidateBatch parses and checks
  every row; any failure rejects the ENTIRE batch so the store never
  sees a partially valid submission.

RULES:
  - quantity must parse as a decimal and be > 0
  - price, when non-empty, must parse and be > 0
  - the action type must be one of the fixed four (case-folded here)
  - the date must be YYYY-MM-DD

Validation is pure: no side effects, no store access. The caller hands
the returned movements to Store.AppendMovements, which is where
referential existence is checked and the batch commits atomically.
*/
package inventory

import "github.com/shopspring/decimal"

// EntryInput is one row of a proposed batch, still in wire form.
type EntryInput struct {
	CategoryID int64
	ItemID     int64
	UnitID     int64
	Quantity   string
	Price      string // empty = no price
}

// ValidateBatch parses and validates a proposed batch. On success it
// returns the movements ready for appending, ids unset. On failure it
// returns a *BatchError wrapping the first violation; no movements are
// returned and nothing may be persisted.
func ValidateBatch(date string, action string, entries []EntryInput) ([]Movement, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyBatch
	}

	day, err := ParseDate(date)
	if err != nil {
		return nil, &BatchError{Index: 0, Field: "date", Err: err}
	}
	act, err := ParseActionType(action)
	if err != nil {
		return nil, &BatchError{Index: 0, Field: "action", Err: err}
	}

	movements := make([]Movement, 0, len(entries))
	for i, e := range entries {
		qty, err := decimal.NewFromString(e.Quantity)
		if err != nil {
			return nil, &BatchError{Index: i, Field: "quantity", Err: ErrInvalidNumericInput}
		}
		if !qty.IsPositive() {
			return nil, &BatchError{Index: i, Field: "quantity", Err: ErrNonPositiveQuantity}
		}

		var price decimal.NullDecimal
		if e.Price != "" {
			p, err := decimal.NewFromString(e.Price)
			if err != nil {
				return nil, &BatchError{Index: i, Field: "price", Err: ErrInvalidNumericInput}
			}
			if !p.IsPositive() {
				return nil, &BatchError{Index: i, Field: "price", Err: ErrNonPositivePrice}
			}
			price = decimal.NullDecimal{Decimal: p, Valid: true}
		}

		movements = append(movements, Movement{
			Date:       day,
			Action:     act,
			CategoryID: e.CategoryID,
			ItemID:     e.ItemID,
			UnitID:     e.UnitID,
			Quantity:   qty,
			Price:      price,
		})
	}
	return movements, nil
}

// AttachPhoto stamps a stored photo path onto every movement of a
// batch. The photo itself is saved once per batch by the caller.
func AttachPhoto(batch []Movement, path string) {
	if path == "" {
		return
	}
	for i := range batch {
		batch[i].PhotoPath = path
	}
}
