/*
snapshot.go - Net inventory and valuation per (item, unit) pair

PURPOSE:
  Folds the full ledger into the current stock position. For every
  (item, unit) pair that has at least one movement:

    net quantity = sum(delivery qty) - sum(sales+consumption+waste qty)
    unit price   = price / quantity of the LATEST delivery for the pair
    total price  = round(net quantity * unit price, 2)

  Rows are ordered by latest movement date descending, so the most
  recently touched stock comes first.

LATEST-DELIVERY PRICING:
  Valuation uses the most recent delivery's implied unit cost, not an
  average. When several deliveries share the max date the highest id
  wins, which makes the result deterministic regardless of fetch order.

DEGENERATE PAIRS:
  A pair with no delivery (only sales/consumption/waste) still appears
  in the snapshot: its net quantity may be negative and its valuation
  is null. A delivery with zero or missing price, or zero quantity,
  also yields a null unit price rather than an error.

The snapshot is recomputed from scratch on every call. Nothing is
cached; the ledger is the only state.
*/
package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SNAPSHOT TYPES
// =============================================================================

// SnapshotRow is the current position of one (item, unit) pair.
type SnapshotRow struct {
	ItemID   int64
	UnitID   int64
	ItemName string
	UnitName string

	// LatestDate is the date of the most recent movement for the pair,
	// of any action type.
	LatestDate Date

	// NetQuantity is rounded to 1 decimal place. May be negative.
	NetQuantity decimal.Decimal

	// UnitPrice is the latest delivery's price/quantity. Invalid when
	// the pair has never been delivered or the division is undefined.
	UnitPrice decimal.NullDecimal

	// TotalPrice = round(NetQuantity * UnitPrice, 2). Invalid whenever
	// UnitPrice is.
	TotalPrice decimal.NullDecimal
}

// Snapshot is the point-in-time view of every tracked pair.
type Snapshot struct {
	Rows []SnapshotRow

	// Total sums TotalPrice across rows where it is valid.
	Total decimal.Decimal
}

// FormattedTotal renders the grand total as currency.
func (s Snapshot) FormattedTotal() string { return FormatCurrency(s.Total) }

// =============================================================================
// SNAPSHOT COMPUTATION
// =============================================================================

// ComputeSnapshot folds movements into a snapshot. The items and units
// maps resolve ids to display names; an id missing from them (an
// orphaned movement after a reference delete) renders with an empty
// name rather than dropping the row.
func ComputeSnapshot(movements []Movement, items, units map[int64]string) Snapshot {
	type pairState struct {
		net            decimal.Decimal
		latestDate     Date
		latestDelivery *Movement
	}

	states := make(map[Pair]*pairState)
	for i := range movements {
		m := movements[i]
		st, ok := states[m.Pair()]
		if !ok {
			st = &pairState{}
			states[m.Pair()] = st
		}

		st.net = st.net.Add(m.Signed())
		if st.latestDate.IsZero() || m.Date.After(st.latestDate) {
			st.latestDate = m.Date
		}

		if m.Action == ActionDelivery {
			ld := st.latestDelivery
			// Highest id wins on equal dates.
			if ld == nil || m.Date.After(ld.Date) || (m.Date.Equal(ld.Date) && m.ID > ld.ID) {
				st.latestDelivery = &movements[i]
			}
		}
	}

	snapshot := Snapshot{Rows: make([]SnapshotRow, 0, len(states))}
	for pair, st := range states {
		row := SnapshotRow{
			ItemID:      pair.ItemID,
			UnitID:      pair.UnitID,
			ItemName:    items[pair.ItemID],
			UnitName:    units[pair.UnitID],
			LatestDate:  st.latestDate,
			NetQuantity: st.net.Round(1),
		}

		if unitPrice, ok := unitPriceOf(st.latestDelivery); ok {
			row.UnitPrice = decimal.NullDecimal{Decimal: unitPrice, Valid: true}
			total := st.net.Mul(unitPrice).Round(2)
			row.TotalPrice = decimal.NullDecimal{Decimal: total, Valid: true}
			snapshot.Total = snapshot.Total.Add(total)
		}

		snapshot.Rows = append(snapshot.Rows, row)
	}

	sort.Slice(snapshot.Rows, func(i, j int) bool {
		a, b := snapshot.Rows[i], snapshot.Rows[j]
		if !a.LatestDate.Equal(b.LatestDate) {
			return a.LatestDate.After(b.LatestDate)
		}
		if a.ItemName != b.ItemName {
			return a.ItemName < b.ItemName
		}
		return a.UnitName < b.UnitName
	})

	return snapshot
}

// unitPriceOf derives price/quantity from a delivery, guarding the
// undefined cases: no delivery, no price, zero quantity.
func unitPriceOf(delivery *Movement) (decimal.Decimal, bool) {
	if delivery == nil || !delivery.Price.Valid || delivery.Quantity.IsZero() {
		return decimal.Decimal{}, false
	}
	return delivery.Price.Decimal.Div(delivery.Quantity), true
}

// TakeSnapshot loads the full ledger and reference names from the
// store and computes the snapshot.
func TakeSnapshot(ctx context.Context, store Store) (Snapshot, error) {
	movements, err := store.ListMovements(ctx, Filter{})
	if err != nil {
		return Snapshot{}, err
	}

	items, err := referenceNames(ctx, store, KindItem)
	if err != nil {
		return Snapshot{}, err
	}
	units, err := referenceNames(ctx, store, KindUnit)
	if err != nil {
		return Snapshot{}, err
	}

	return ComputeSnapshot(movements, items, units), nil
}

func referenceNames(ctx context.Context, store Store, kind ReferenceKind) (map[int64]string, error) {
	refs, err := store.ListReferences(ctx, kind)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(refs))
	for _, r := range refs {
		names[r.ID] = r.Name
	}
	return names, nil
}
