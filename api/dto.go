/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types
  decouple the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Request DTOs carry go-playground/validator tags for structural
  checks (required fields, non-empty batches). Semantic validation -
  decimal parsing, positivity, action vocabulary - happens in
  inventory.ValidateBatch, not here.
*/
package api

import (
	"github.com/stockbook/inventory-engine/inventory"
)

// =============================================================================
// MOVEMENT TYPES
// =============================================================================

// MovementDTO represents one ledger entry in API responses.
type MovementDTO struct {
	ID           int64  `json:"id"`
	Date         string `json:"date"`
	ActionType   string `json:"action_type"`
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name,omitempty"`
	ItemID       int64  `json:"item_id"`
	ItemName     string `json:"item_name,omitempty"`
	UnitID       int64  `json:"unit_id"`
	UnitName     string `json:"unit_name,omitempty"`
	Quantity     string `json:"quantity"`
	Price        string `json:"price,omitempty"`
	PhotoPath    string `json:"photo_path,omitempty"`
}

// RecordMovementsRequest is a batch of proposed movements sharing one
// date and action type.
type RecordMovementsRequest struct {
	Date       string            `json:"date" validate:"required"`
	ActionType string            `json:"action_type" validate:"required"`
	Entries    []MovementEntryIn `json:"entries" validate:"required,min=1,dive"`
}

// MovementEntryIn is one row of the batch. Quantity and price stay
// strings until the validation gate parses them.
type MovementEntryIn struct {
	CategoryID int64  `json:"category_id" validate:"required"`
	ItemID     int64  `json:"item_id" validate:"required"`
	UnitID     int64  `json:"unit_id" validate:"required"`
	Quantity   string `json:"quantity" validate:"required"`
	Price      string `json:"price,omitempty"`
}

// RecordMovementsResponse returns the ids assigned to the batch.
type RecordMovementsResponse struct {
	IDs       []int64 `json:"ids"`
	PhotoPath string  `json:"photo_path,omitempty"`
}

// =============================================================================
// SNAPSHOT TYPES
// =============================================================================

// SnapshotRowDTO is the current position of one (item, unit) pair.
type SnapshotRowDTO struct {
	ItemName    string  `json:"item_name"`
	UnitName    string  `json:"unit_name"`
	LatestDate  string  `json:"latest_date"`
	NetQuantity string  `json:"net_quantity"`
	UnitPrice   *string `json:"unit_price,omitempty"`
	TotalPrice  *string `json:"total_price,omitempty"`
}

// SnapshotResponse wraps the rows with the grand total.
type SnapshotResponse struct {
	Rows           []SnapshotRowDTO `json:"rows"`
	Total          string           `json:"total"`
	FormattedTotal string           `json:"formatted_total"`
}

// =============================================================================
// REPORT TYPES
// =============================================================================

// ReportResponse is the chart-ready time series for one item. Series
// points are float64 for the charting frontend; monetary totals are
// also carried as formatted currency strings.
type ReportResponse struct {
	ItemID             int64                `json:"item_id"`
	StartDate          string               `json:"start_date,omitempty"`
	EndDate            string               `json:"end_date,omitempty"`
	Dates              []string             `json:"dates"`
	ActionTypes        []string             `json:"action_types"`
	Series             map[string][]float64 `json:"series"`
	Balance            []float64            `json:"balance"`
	TotalSpend         float64              `json:"total_spend"`
	FormattedSpend     string               `json:"formatted_total_spend"`
	LatestPricePerUnit float64              `json:"latest_price_per_unit"`
	FormattedLatest    string               `json:"formatted_latest_price"`
	TotalConsumed      float64              `json:"total_consumed"`
}

// =============================================================================
// REFERENCE TYPES
// =============================================================================

// ReferenceDTO is an item, category or unit.
type ReferenceDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ReferenceRequest names a reference entity (create and rename).
type ReferenceRequest struct {
	Name string `json:"name" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toMovementDTO(m inventory.Movement, categories, items, units map[int64]string) MovementDTO {
	dto := MovementDTO{
		ID:           m.ID,
		Date:         m.Date.String(),
		ActionType:   string(m.Action),
		CategoryID:   m.CategoryID,
		CategoryName: categories[m.CategoryID],
		ItemID:       m.ItemID,
		ItemName:     items[m.ItemID],
		UnitID:       m.UnitID,
		UnitName:     units[m.UnitID],
		Quantity:     m.Quantity.String(),
		PhotoPath:    m.PhotoPath,
	}
	if m.Price.Valid {
		dto.Price = m.Price.Decimal.String()
	}
	return dto
}

func toSnapshotResponse(s inventory.Snapshot) SnapshotResponse {
	rows := make([]SnapshotRowDTO, 0, len(s.Rows))
	for _, row := range s.Rows {
		dto := SnapshotRowDTO{
			ItemName:    row.ItemName,
			UnitName:    row.UnitName,
			LatestDate:  row.LatestDate.String(),
			NetQuantity: row.NetQuantity.String(),
		}
		if row.UnitPrice.Valid {
			up := row.UnitPrice.Decimal.String()
			dto.UnitPrice = &up
		}
		if row.TotalPrice.Valid {
			tp := row.TotalPrice.Decimal.StringFixed(2)
			dto.TotalPrice = &tp
		}
		rows = append(rows, dto)
	}
	return SnapshotResponse{
		Rows:           rows,
		Total:          s.Total.StringFixed(2),
		FormattedTotal: s.FormattedTotal(),
	}
}

func toReportResponse(itemID int64, from, to *inventory.Date, r inventory.Report) ReportResponse {
	resp := ReportResponse{
		ItemID:      itemID,
		Dates:       make([]string, 0, len(r.Dates)),
		ActionTypes: make([]string, 0, len(r.Actions)),
		Series:      make(map[string][]float64, len(r.Actions)),
		Balance:     make([]float64, 0, len(r.Balance)),
	}
	if from != nil {
		resp.StartDate = from.String()
	}
	if to != nil {
		resp.EndDate = to.String()
	}
	for _, d := range r.Dates {
		resp.Dates = append(resp.Dates, d.String())
	}
	for _, a := range r.Actions {
		resp.ActionTypes = append(resp.ActionTypes, string(a))
		points := make([]float64, 0, len(r.Series[a]))
		for _, p := range r.Series[a] {
			f, _ := p.Float64()
			points = append(points, f)
		}
		resp.Series[string(a)] = points
	}
	for _, b := range r.Balance {
		f, _ := b.Float64()
		resp.Balance = append(resp.Balance, f)
	}
	resp.TotalSpend, _ = r.TotalSpend.Float64()
	resp.FormattedSpend = r.FormattedTotalSpend()
	resp.LatestPricePerUnit, _ = r.LatestPricePerUnit.Float64()
	resp.FormattedLatest = r.FormattedLatestPrice()
	resp.TotalConsumed, _ = r.TotalConsumed.Float64()
	return resp
}

func toReferenceDTOs(refs []inventory.Reference) []ReferenceDTO {
	dtos := make([]ReferenceDTO, len(refs))
	for i, r := range refs {
		dtos[i] = ReferenceDTO{ID: r.ID, Name: r.Name}
	}
	return dtos
}
