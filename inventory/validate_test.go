package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBatchAcceptsWellFormedBatch(t *testing.T) {
	// GIVEN a two-row delivery batch with string quantities and prices
	entries := []EntryInput{
		{CategoryID: 1, ItemID: 2, UnitID: 3, Quantity: "100", Price: "50"},
		{CategoryID: 1, ItemID: 4, UnitID: 3, Quantity: "2.5", Price: "12.75"},
	}

	// WHEN the batch is validated
	batch, err := ValidateBatch("2025-03-01", "Delivery", entries)

	// THEN every row is parsed, the action is case-folded, ids are unset
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, ActionDelivery, batch[0].Action)
	assert.Equal(t, "2025-03-01", batch[0].Date.String())
	assert.True(t, batch[0].Quantity.Equal(dec(t, "100")))
	assert.True(t, batch[0].Price.Valid)
	assert.True(t, batch[0].Price.Decimal.Equal(dec(t, "50")))
	assert.True(t, batch[1].Quantity.Equal(dec(t, "2.5")))
	assert.Zero(t, batch[0].ID)
}

func TestValidateBatchAllowsMissingPrice(t *testing.T) {
	// GIVEN a sales row with no price
	entries := []EntryInput{{CategoryID: 1, ItemID: 2, UnitID: 3, Quantity: "7"}}

	// WHEN validated
	batch, err := ValidateBatch("2025-03-01", "sales", entries)

	// THEN the price stays null rather than failing
	require.NoError(t, err)
	assert.False(t, batch[0].Price.Valid)
}

func TestValidateBatchRejectsBadInput(t *testing.T) {
	good := EntryInput{CategoryID: 1, ItemID: 2, UnitID: 3, Quantity: "5", Price: "10"}

	tests := []struct {
		name    string
		date    string
		action  string
		entries []EntryInput
		wantErr error
	}{
		{
			name: "unparseable quantity", date: "2025-03-01", action: "delivery",
			entries: []EntryInput{{CategoryID: 1, ItemID: 2, UnitID: 3, Quantity: "abc"}},
			wantErr: ErrInvalidNumericInput,
		},
		{
			name: "zero quantity", date: "2025-03-01", action: "delivery",
			entries: []EntryInput{{CategoryID: 1, ItemID: 2, UnitID: 3, Quantity: "0"}},
			wantErr: ErrNonPositiveQuantity,
		},
		{
			name: "negative quantity", date: "2025-03-01", action: "waste",
			entries: []EntryInput{{CategoryID: 1, ItemID: 2, UnitID: 3, Quantity: "-3"}},
			wantErr: ErrNonPositiveQuantity,
		},
		{
			name: "unparseable price", date: "2025-03-01", action: "delivery",
			entries: []EntryInput{{CategoryID: 1, ItemID: 2, UnitID: 3, Quantity: "5", Price: "ten"}},
			wantErr: ErrInvalidNumericInput,
		},
		{
			name: "zero price", date: "2025-03-01", action: "delivery",
			entries: []EntryInput{{CategoryID: 1, ItemID: 2, UnitID: 3, Quantity: "5", Price: "0"}},
			wantErr: ErrNonPositivePrice,
		},
		{
			name: "unknown action", date: "2025-03-01", action: "transfer",
			entries: []EntryInput{good},
			wantErr: ErrUnknownActionType,
		},
		{
			name: "bad date", date: "03/01/2025", action: "delivery",
			entries: []EntryInput{good},
			wantErr: ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, err := ValidateBatch(tt.date, tt.action, tt.entries)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, batch)
			assert.True(t, IsClientError(err))
		})
	}
}

func TestValidateBatchOneBadRowRejectsEverything(t *testing.T) {
	// GIVEN a batch where only the third row is invalid
	entries := []EntryInput{
		{CategoryID: 1, ItemID: 2, UnitID: 3, Quantity: "5", Price: "10"},
		{CategoryID: 1, ItemID: 4, UnitID: 3, Quantity: "8", Price: "20"},
		{CategoryID: 1, ItemID: 5, UnitID: 3, Quantity: "-1", Price: "30"},
	}

	// WHEN validated
	batch, err := ValidateBatch("2025-03-01", "delivery", entries)

	// THEN no movements come back at all, and the error names the row
	assert.Nil(t, batch)
	var batchErr *BatchError
	require.ErrorAs(t, err, &batchErr)
	assert.Equal(t, 2, batchErr.Index)
	assert.Equal(t, "quantity", batchErr.Field)
	assert.ErrorIs(t, err, ErrNonPositiveQuantity)
}

func TestValidateBatchEmptyBatch(t *testing.T) {
	batch, err := ValidateBatch("2025-03-01", "delivery", nil)
	assert.Nil(t, batch)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestAttachPhoto(t *testing.T) {
	// GIVEN a validated batch
	batch, err := ValidateBatch("2025-03-01", "delivery", []EntryInput{
		{CategoryID: 1, ItemID: 2, UnitID: 3, Quantity: "5", Price: "10"},
		{CategoryID: 1, ItemID: 4, UnitID: 3, Quantity: "6", Price: "12"},
	})
	require.NoError(t, err)

	// WHEN a photo path is attached
	AttachPhoto(batch, "abc123_receipt.jpg")

	// THEN every movement of the batch carries it
	for _, m := range batch {
		assert.Equal(t, "abc123_receipt.jpg", m.PhotoPath)
	}

	// AND an empty path is a no-op
	AttachPhoto(batch, "")
	assert.Equal(t, "abc123_receipt.jpg", batch[0].PhotoPath)
}

func TestParseActionTypeFoldsCase(t *testing.T) {
	for _, raw := range []string{"delivery", "Delivery", "DELIVERY", "  delivery "} {
		a, err := ParseActionType(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, ActionDelivery, a)
	}

	_, err := ParseActionType("restock")
	assert.ErrorIs(t, err, ErrUnknownActionType)
}
