package inventory

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

type movementOpt func(*Movement)

func withPrice(t *testing.T, s string) movementOpt {
	return func(m *Movement) {
		m.Price = decimal.NullDecimal{Decimal: dec(t, s), Valid: true}
	}
}

func mov(t *testing.T, id int64, date Date, action ActionType, itemID, unitID int64, qty string, opts ...movementOpt) Movement {
	t.Helper()
	m := Movement{
		ID:         id,
		Date:       date,
		Action:     action,
		CategoryID: 1,
		ItemID:     itemID,
		UnitID:     unitID,
		Quantity:   dec(t, qty),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

var (
	day1 = NewDate(2025, time.March, 1)
	day2 = NewDate(2025, time.March, 2)
	day3 = NewDate(2025, time.March, 3)
)

// =============================================================================
// SNAPSHOT TESTS
// =============================================================================

func TestComputeSnapshotValuesPairFromLatestDelivery(t *testing.T) {
	// GIVEN 100 units of flour delivered for $50, then 20 sold
	movements := []Movement{
		mov(t, 1, day1, ActionDelivery, 10, 20, "100", withPrice(t, "50")),
		mov(t, 2, day3, ActionSales, 10, 20, "20"),
	}
	items := map[int64]string{10: "Flour"}
	units := map[int64]string{20: "kg"}

	// WHEN the snapshot is computed
	s := ComputeSnapshot(movements, items, units)

	// THEN net is 80 at the implied $0.50/unit, worth $40.00
	require.Len(t, s.Rows, 1)
	row := s.Rows[0]
	assert.Equal(t, "Flour", row.ItemName)
	assert.Equal(t, "kg", row.UnitName)
	assert.Equal(t, day3, row.LatestDate)
	assert.True(t, row.NetQuantity.Equal(dec(t, "80")))
	require.True(t, row.UnitPrice.Valid)
	assert.True(t, row.UnitPrice.Decimal.Equal(dec(t, "0.5")))
	require.True(t, row.TotalPrice.Valid)
	assert.True(t, row.TotalPrice.Decimal.Equal(dec(t, "40")))
	assert.True(t, s.Total.Equal(dec(t, "40")))
	assert.Equal(t, "$40.00", s.FormattedTotal())
}

func TestComputeSnapshotPairWithoutDeliveryHasNullValuation(t *testing.T) {
	// GIVEN only outbound movements for a pair
	movements := []Movement{
		mov(t, 1, day1, ActionSales, 10, 20, "5"),
		mov(t, 2, day2, ActionConsumption, 10, 20, "3"),
	}

	// WHEN the snapshot is computed
	s := ComputeSnapshot(movements, nil, nil)

	// THEN the row exists with a negative net and no valuation
	require.Len(t, s.Rows, 1)
	row := s.Rows[0]
	assert.True(t, row.NetQuantity.Equal(dec(t, "-8")))
	assert.False(t, row.UnitPrice.Valid)
	assert.False(t, row.TotalPrice.Valid)
	assert.True(t, s.Total.IsZero())
}

func TestComputeSnapshotLatestDeliveryWinsOverEarlierPrice(t *testing.T) {
	// GIVEN two deliveries at different implied unit costs
	movements := []Movement{
		mov(t, 1, day1, ActionDelivery, 10, 20, "10", withPrice(t, "10")), // $1.00/unit
		mov(t, 2, day2, ActionDelivery, 10, 20, "10", withPrice(t, "30")), // $3.00/unit
	}

	// WHEN the snapshot is computed
	s := ComputeSnapshot(movements, nil, nil)

	// THEN valuation uses the later delivery's $3.00, not an average
	require.Len(t, s.Rows, 1)
	require.True(t, s.Rows[0].UnitPrice.Valid)
	assert.True(t, s.Rows[0].UnitPrice.Decimal.Equal(dec(t, "3")))
	assert.True(t, s.Rows[0].TotalPrice.Decimal.Equal(dec(t, "60")))
}

func TestComputeSnapshotSameDayDeliveriesHighestIDWins(t *testing.T) {
	// GIVEN two deliveries on the same date, fed in either order
	a := mov(t, 1, day1, ActionDelivery, 10, 20, "10", withPrice(t, "10"))
	b := mov(t, 2, day1, ActionDelivery, 10, 20, "10", withPrice(t, "40"))

	for name, order := range map[string][]Movement{
		"ascending":  {a, b},
		"descending": {b, a},
	} {
		t.Run(name, func(t *testing.T) {
			// WHEN the snapshot is computed
			s := ComputeSnapshot(order, nil, nil)

			// THEN the higher id's $4.00/unit prices the pair either way
			require.Len(t, s.Rows, 1)
			require.True(t, s.Rows[0].UnitPrice.Valid)
			assert.True(t, s.Rows[0].UnitPrice.Decimal.Equal(dec(t, "4")))
		})
	}
}

func TestComputeSnapshotUnpricedDeliveryYieldsNullValuation(t *testing.T) {
	// GIVEN the only delivery for the pair carries no price
	movements := []Movement{
		mov(t, 1, day1, ActionDelivery, 10, 20, "10"),
	}

	// WHEN the snapshot is computed
	s := ComputeSnapshot(movements, nil, nil)

	// THEN net quantity is reported but valuation stays null
	require.Len(t, s.Rows, 1)
	assert.True(t, s.Rows[0].NetQuantity.Equal(dec(t, "10")))
	assert.False(t, s.Rows[0].UnitPrice.Valid)
	assert.False(t, s.Rows[0].TotalPrice.Valid)
}

func TestComputeSnapshotTracksPairsIndependently(t *testing.T) {
	// GIVEN the same item measured in two different units
	movements := []Movement{
		mov(t, 1, day1, ActionDelivery, 10, 20, "100", withPrice(t, "100")),
		mov(t, 2, day1, ActionDelivery, 10, 21, "5", withPrice(t, "25")),
		mov(t, 3, day2, ActionSales, 10, 20, "40"),
	}

	// WHEN the snapshot is computed
	s := ComputeSnapshot(movements, map[int64]string{10: "Rice"}, map[int64]string{20: "kg", 21: "bag"})

	// THEN each (item, unit) pair gets its own row and balance
	require.Len(t, s.Rows, 2)
	byUnit := map[string]SnapshotRow{}
	for _, row := range s.Rows {
		byUnit[row.UnitName] = row
	}
	assert.True(t, byUnit["kg"].NetQuantity.Equal(dec(t, "60")))
	assert.True(t, byUnit["bag"].NetQuantity.Equal(dec(t, "5")))
}

func TestComputeSnapshotOrdersRowsByLatestDateDescending(t *testing.T) {
	// GIVEN three pairs last touched on different days
	movements := []Movement{
		mov(t, 1, day1, ActionDelivery, 1, 9, "1", withPrice(t, "1")),
		mov(t, 2, day3, ActionDelivery, 2, 9, "1", withPrice(t, "1")),
		mov(t, 3, day2, ActionDelivery, 3, 9, "1", withPrice(t, "1")),
	}

	// WHEN the snapshot is computed
	s := ComputeSnapshot(movements, map[int64]string{1: "a", 2: "b", 3: "c"}, nil)

	// THEN the most recently touched pair comes first
	require.Len(t, s.Rows, 3)
	assert.Equal(t, "b", s.Rows[0].ItemName)
	assert.Equal(t, "c", s.Rows[1].ItemName)
	assert.Equal(t, "a", s.Rows[2].ItemName)
}

func TestComputeSnapshotRoundsNetQuantityToOneDecimal(t *testing.T) {
	// GIVEN movements leaving a long fractional balance
	movements := []Movement{
		mov(t, 1, day1, ActionDelivery, 10, 20, "10.55", withPrice(t, "10")),
		mov(t, 2, day2, ActionSales, 10, 20, "0.333"),
	}

	// WHEN the snapshot is computed
	s := ComputeSnapshot(movements, nil, nil)

	// THEN the displayed net is rounded to one decimal place
	require.Len(t, s.Rows, 1)
	assert.Equal(t, "10.2", s.Rows[0].NetQuantity.String())
}

func TestComputeSnapshotEmptyLedger(t *testing.T) {
	s := ComputeSnapshot(nil, nil, nil)
	assert.Empty(t, s.Rows)
	assert.True(t, s.Total.IsZero())
}

func TestComputeSnapshotNetEqualsSignedSumOverRandomLedgers(t *testing.T) {
	// GIVEN random ledgers over a handful of pairs
	rng := rand.New(rand.NewSource(7))
	actions := ActionTypes()

	for trial := 0; trial < 50; trial++ {
		var movements []Movement
		expected := map[Pair]decimal.Decimal{}

		n := 1 + rng.Intn(40)
		for i := 0; i < n; i++ {
			m := Movement{
				ID:       int64(i + 1),
				Date:     day1.AddDays(rng.Intn(30)),
				Action:   actions[rng.Intn(len(actions))],
				ItemID:   int64(1 + rng.Intn(3)),
				UnitID:   int64(1 + rng.Intn(2)),
				Quantity: decimal.NewFromInt(int64(1 + rng.Intn(100))),
			}
			if m.Action == ActionDelivery {
				m.Price = decimal.NullDecimal{Decimal: decimal.NewFromInt(int64(1 + rng.Intn(500))), Valid: true}
			}
			movements = append(movements, m)
			expected[m.Pair()] = expected[m.Pair()].Add(m.Signed())
		}

		// WHEN the snapshot is computed
		s := ComputeSnapshot(movements, nil, nil)

		// THEN every pair's net is exactly deliveries minus outflows
		require.Len(t, s.Rows, len(expected))
		for _, row := range s.Rows {
			want := expected[Pair{ItemID: row.ItemID, UnitID: row.UnitID}]
			assert.True(t, row.NetQuantity.Equal(want.Round(1)),
				"pair (%d,%d): got %s want %s", row.ItemID, row.UnitID, row.NetQuantity, want)
		}
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"40", "$40.00"},
		{"1234.5", "$1,234.50"},
		{"1234567.891", "$1,234,567.89"},
		{"-12", "-$12.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(dec(t, tt.in)), tt.in)
	}
}
