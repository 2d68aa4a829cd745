/*
report.go - Per-item time series over an optional date window

PURPOSE:
  Turns one item's filtered slice of the ledger into chart-ready
  series. For every distinct date in the range, in ascending order:

  - one cumulative series PER ACTION TYPE: the running sum of that
    type's own daily quantities. Each series is non-decreasing by
    construction - even "waste" only accumulates, because it tracks the
    type's own movements, not a balance.
  - one BALANCE series: running sum of (deliveries - outflows) per day.
    This one can decrease and go negative.

  Alongside the series: total spend (sum of delivery prices in range),
  the latest delivery's implied price per unit, and the total quantity
  sold/consumed/wasted.

An item with no movements in range produces an empty report - empty
date list, no series, zero totals. That is a valid result, not an
error.
*/
package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// REPORT TYPES
// =============================================================================

// Report is the time-series view for a single item.
type Report struct {
	// Dates present in the filtered range, ascending.
	Dates []Date

	// Actions present in the filtered range, in canonical order.
	Actions []ActionType

	// Series maps each present action type to its cumulative step
	// series, one point per entry of Dates.
	Series map[ActionType][]decimal.Decimal

	// Balance is the running net stock level, one point per date.
	Balance []decimal.Decimal

	// TotalSpend sums delivery prices in range.
	TotalSpend decimal.Decimal

	// LatestPricePerUnit is price/quantity of the last delivery in
	// date-ascending order (highest id on ties). Zero without one.
	LatestPricePerUnit decimal.Decimal

	// TotalConsumed sums sales+consumption+waste quantities in range.
	TotalConsumed decimal.Decimal
}

func (r Report) FormattedTotalSpend() string  { return FormatCurrency(r.TotalSpend) }
func (r Report) FormattedLatestPrice() string { return FormatCurrency(r.LatestPricePerUnit) }

// Empty reports whether any movement contributed.
func (r Report) Empty() bool { return len(r.Dates) == 0 }

// =============================================================================
// REPORT COMPUTATION
// =============================================================================

// ComputeReport folds an already-filtered, date-ascending slice of the
// ledger into a report.
func ComputeReport(movements []Movement) Report {
	report := Report{Series: map[ActionType][]decimal.Decimal{}}
	if len(movements) == 0 {
		return report
	}

	// Distinct dates, ascending.
	seenDates := make(map[Date]bool)
	for _, m := range movements {
		if !seenDates[m.Date] {
			seenDates[m.Date] = true
			report.Dates = append(report.Dates, m.Date)
		}
	}
	sort.Slice(report.Dates, func(i, j int) bool { return report.Dates[i].Before(report.Dates[j]) })

	// Action types present, canonical order.
	present := make(map[ActionType]bool)
	for _, m := range movements {
		present[m.Action] = true
	}
	for _, a := range ActionTypes() {
		if present[a] {
			report.Actions = append(report.Actions, a)
			report.Series[a] = make([]decimal.Decimal, 0, len(report.Dates))
		}
	}

	// Daily sums per action type.
	type dayKey struct {
		date   Date
		action ActionType
	}
	daily := make(map[dayKey]decimal.Decimal)
	for _, m := range movements {
		k := dayKey{date: m.Date, action: m.Action}
		daily[k] = daily[k].Add(m.Quantity)
	}

	running := make(map[ActionType]decimal.Decimal)
	var balance decimal.Decimal
	for _, d := range report.Dates {
		for _, a := range report.Actions {
			running[a] = running[a].Add(daily[dayKey{date: d, action: a}])
			report.Series[a] = append(report.Series[a], running[a])
		}

		in := daily[dayKey{date: d, action: ActionDelivery}]
		out := daily[dayKey{date: d, action: ActionSales}].
			Add(daily[dayKey{date: d, action: ActionConsumption}]).
			Add(daily[dayKey{date: d, action: ActionWaste}])
		balance = balance.Add(in).Sub(out)
		report.Balance = append(report.Balance, balance)
	}

	// Spend, consumption and latest delivery price.
	var latestDelivery *Movement
	for i := range movements {
		m := movements[i]
		switch m.Action {
		case ActionDelivery:
			if m.Price.Valid {
				report.TotalSpend = report.TotalSpend.Add(m.Price.Decimal)
			}
			ld := latestDelivery
			if ld == nil || m.Date.After(ld.Date) || (m.Date.Equal(ld.Date) && m.ID > ld.ID) {
				latestDelivery = &movements[i]
			}
		default:
			report.TotalConsumed = report.TotalConsumed.Add(m.Quantity)
		}
	}
	if price, ok := unitPriceOf(latestDelivery); ok {
		report.LatestPricePerUnit = price
	}

	return report
}

// BuildReport filters the ledger by item and optional inclusive date
// window, then computes the report. Either bound may be nil, meaning
// unbounded on that side.
func BuildReport(ctx context.Context, store Store, itemID int64, from, to *Date) (Report, error) {
	movements, err := store.ListMovements(ctx, Filter{ItemID: &itemID, From: from, To: to})
	if err != nil {
		return Report{}, err
	}
	return ComputeReport(movements), nil
}
