/*
Package inventory provides the core stock-tracking engine.

PURPOSE:
  This package contains the domain types and algorithms for turning an
  append-only ledger of stock movements (deliveries, sales, consumption,
  waste) into derived views: a current net-inventory snapshot with
  valuation, and per-item time-series reports.

KEY CONCEPTS IN THIS FILE (types.go):
  - Movement: An immutable ledger entry recording one quantity change
  - ActionType: The fixed set of movement kinds
  - Date: A calendar date (movements within a day are unordered)
  - Reference: Items, categories and units the ledger points at

DESIGN PRINCIPLES:
  1. Immutability: Movements are never modified, only deleted by id
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Derived state: Balances and reports are always recomputed from the
     ledger - there is no cached aggregate that can drift
  4. Canonical case: ActionType is folded to lower case at the
     validation boundary; everywhere else comparisons are exact

SEE ALSO:
  - validate.go: Batch validation before anything reaches the store
  - snapshot.go: Net quantity and valuation per (item, unit) pair
  - report.go: Cumulative time series for a single item
  - store.go: Persistence contract
*/
package inventory

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ACTION TYPE - The fixed vocabulary of stock movements
// =============================================================================

type ActionType string

const (
	ActionDelivery    ActionType = "delivery"    // Stock in, carries a price
	ActionSales       ActionType = "sales"       // Stock out, sold
	ActionConsumption ActionType = "consumption" // Stock out, used internally
	ActionWaste       ActionType = "waste"       // Stock out, discarded
)

// ActionTypes lists every valid action in canonical order.
func ActionTypes() []ActionType {
	return []ActionType{ActionDelivery, ActionSales, ActionConsumption, ActionWaste}
}

// ParseActionType folds the input to lower case and validates it.
// Case is normalized here, once, so the engines can compare exactly.
func ParseActionType(s string) (ActionType, error) {
	switch a := ActionType(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionDelivery, ActionSales, ActionConsumption, ActionWaste:
		return a, nil
	default:
		return "", ErrUnknownActionType
	}
}

// Inbound reports whether the action adds stock. Everything that is not
// a delivery removes stock.
func (a ActionType) Inbound() bool { return a == ActionDelivery }

// =============================================================================
// DATE - Calendar date, day granularity
// =============================================================================

// Date is a calendar date. Movements on the same date are unordered
// relative to each other; the movement id is the tie-break where one is
// needed.
type Date struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

func (d Date) Before(other Date) bool { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool  { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool  { return d.normalize().Equal(other.normalize()) }
func (d Date) IsZero() bool           { return d.Time.IsZero() }
func (d Date) AddDays(n int) Date     { return Date{Time: d.Time.AddDate(0, 0, n)} }

func (d Date) String() string { return d.normalize().Format(dateLayout) }

// =============================================================================
// MOVEMENT - One dated, typed quantity change against an (item, unit) pair
// =============================================================================

// Movement is a single ledger entry. Once appended it is never mutated;
// the only destructive operation is deletion by id.
type Movement struct {
	ID         int64 // Assigned by the store, monotonically increasing
	Date       Date
	Action     ActionType
	CategoryID int64
	ItemID     int64
	UnitID     int64

	// Quantity is always > 0; the sign of its contribution to a balance
	// comes from the action type.
	Quantity decimal.Decimal

	// Price is only meaningful for deliveries (total price of the
	// delivered quantity). Invalid for movements recorded without one.
	Price decimal.NullDecimal

	// PhotoPath is an opaque attachment reference, shared by every
	// movement of the batch it was recorded with.
	PhotoPath string
}

// Signed returns the quantity with the sign implied by the action:
// deliveries positive, everything else negative.
func (m Movement) Signed() decimal.Decimal {
	if m.Action.Inbound() {
		return m.Quantity
	}
	return m.Quantity.Neg()
}

// Pair identifies the (item, unit) combination a balance is tracked for.
type Pair struct {
	ItemID int64
	UnitID int64
}

func (m Movement) Pair() Pair { return Pair{ItemID: m.ItemID, UnitID: m.UnitID} }

// =============================================================================
// REFERENCE ENTITIES - Items, categories, units
// =============================================================================

type ReferenceKind string

const (
	KindItem     ReferenceKind = "item"
	KindCategory ReferenceKind = "category"
	KindUnit     ReferenceKind = "unit"
)

func ParseReferenceKind(s string) (ReferenceKind, error) {
	switch k := ReferenceKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindItem, KindCategory, KindUnit:
		return k, nil
	default:
		return "", ErrUnknownReferenceKind
	}
}

// Reference is a named lookup entity. Names are unique per kind,
// enforced by the store.
type Reference struct {
	ID   int64
	Name string
}

// =============================================================================
// CURRENCY FORMATTING
// =============================================================================

// FormatCurrency renders a decimal as "$1,234.56". Negative values keep
// the sign in front of the dollar: "-$12.00".
func FormatCurrency(d decimal.Decimal) string {
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
