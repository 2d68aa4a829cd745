/*
handlers.go - HTTP API handlers for the inventory engine

PURPOSE:
  Exposes the ledger and its derived views via REST. Handles HTTP
  request/response, JSON serialization, and delegates to the domain
  logic in the inventory package.

ENDPOINTS:
  Ledger:
    GET    /api/movements          List movements (item/date filters)
    POST   /api/movements          Record a validated batch
    DELETE /api/movements/{id}     Delete one movement

  Derived views:
    GET    /api/inventory          Current snapshot with valuation
    GET    /api/reports            Per-item time series

  Reference entities (same shape for items/categories/units):
    GET    /api/items              List
    POST   /api/items              Create
    PUT    /api/items/{id}         Rename
    DELETE /api/items/{id}         Delete (unguarded, may orphan)

REQUEST FLOW:
  1. Decode (JSON, or multipart when a photo rides along)
  2. Structural validation (go-playground/validator tags)
  3. Semantic validation + aggregation (inventory package)
  4. Serialize response / map domain errors to status codes

ERROR HANDLING:
  - 400: validation failures, malformed input, missing references
  - 404: unknown movement/reference id
  - 409: duplicate reference name
  - 500: store failures

SECURITY NOTE:
  No authentication; the API is meant to sit behind a fronting proxy
  that handles identity.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stockbook/inventory-engine/inventory"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  inventory.Store
	Photos *PhotoStore
	Log    zerolog.Logger

	validate *validator.Validate
}

// NewHandler creates a new handler over the given store. Photos may be
// nil when attachment uploads are disabled.
func NewHandler(store inventory.Store, photos *PhotoStore, log zerolog.Logger) *Handler {
	return &Handler{
		Store:    store,
		Photos:   photos,
		Log:      log,
		validate: validator.New(),
	}
}

// =============================================================================
// MOVEMENT HANDLERS
// =============================================================================

// RecordMovements records a validated batch of movements.
// POST /api/movements
//
// Accepts JSON, or multipart/form-data when a photo attachment is
// included. The photo is saved once per batch and its path attached to
// every entry.
func (h *Handler) RecordMovements(w http.ResponseWriter, r *http.Request) {
	var (
		req       RecordMovementsRequest
		photoPath string
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		parsed, path, err := h.parseMultipartBatch(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid form submission", err)
			return
		}
		req, photoPath = parsed, path
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing required fields", err)
		return
	}

	entries := make([]inventory.EntryInput, len(req.Entries))
	for i, e := range req.Entries {
		entries[i] = inventory.EntryInput{
			CategoryID: e.CategoryID,
			ItemID:     e.ItemID,
			UnitID:     e.UnitID,
			Quantity:   e.Quantity,
			Price:      e.Price,
		}
	}

	batch, err := inventory.ValidateBatch(req.Date, req.ActionType, entries)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Batch rejected", err)
		return
	}
	inventory.AttachPhoto(batch, photoPath)

	ids, err := h.Store.AppendMovements(r.Context(), batch)
	if err != nil {
		h.writeDomainError(w, err, "Failed to record movements")
		return
	}

	writeJSON(w, http.StatusCreated, RecordMovementsResponse{IDs: ids, PhotoPath: photoPath})
}

// parseMultipartBatch reads the form-shaped batch: shared date and
// action_type, parallel arrays per entry, and an optional photo file.
func (h *Handler) parseMultipartBatch(r *http.Request) (RecordMovementsRequest, string, error) {
	const maxMemory = 10 << 20
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return RecordMovementsRequest{}, "", err
	}

	req := RecordMovementsRequest{
		Date:       r.FormValue("date"),
		ActionType: r.FormValue("action_type"),
	}

	categoryIDs := r.Form["category_id[]"]
	itemIDs := r.Form["item_id[]"]
	unitIDs := r.Form["unit_id[]"]
	quantities := r.Form["quantity[]"]
	prices := r.Form["price[]"]

	for i := range itemIDs {
		entry := MovementEntryIn{Quantity: at(quantities, i), Price: at(prices, i)}
		var err error
		if entry.CategoryID, err = parseID(at(categoryIDs, i)); err != nil {
			return req, "", err
		}
		if entry.ItemID, err = parseID(itemIDs[i]); err != nil {
			return req, "", err
		}
		if entry.UnitID, err = parseID(at(unitIDs, i)); err != nil {
			return req, "", err
		}
		req.Entries = append(req.Entries, entry)
	}

	var photoPath string
	if file, header, err := r.FormFile("photo"); err == nil {
		defer file.Close()
		if h.Photos == nil {
			return req, "", errors.New("photo uploads are disabled")
		}
		photoPath, err = h.Photos.Save(header.Filename, file)
		if err != nil {
			return req, "", err
		}
	}

	return req, photoPath, nil
}

// ListMovements returns the ledger, optionally filtered.
// GET /api/movements?item_id=&start_date=&end_date=
func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}

	movements, err := h.Store.ListMovements(r.Context(), filter)
	if err != nil {
		h.writeDomainError(w, err, "Failed to list movements")
		return
	}

	categories, items, units, err := h.referenceNames(r)
	if err != nil {
		h.writeDomainError(w, err, "Failed to resolve names")
		return
	}

	dtos := make([]MovementDTO, len(movements))
	for i, m := range movements {
		dtos[i] = toMovementDTO(m, categories, items, units)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// DeleteMovement removes exactly one ledger entry. Aggregates are
// recomputed on the next read; nothing else changes.
// DELETE /api/movements/{id}
func (h *Handler) DeleteMovement(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid movement id", err)
		return
	}

	if err := h.Store.DeleteMovement(r.Context(), id); err != nil {
		h.writeDomainError(w, err, "Failed to delete movement")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// =============================================================================
// SNAPSHOT & REPORT HANDLERS
// =============================================================================

// GetInventory returns the current snapshot with valuation.
// GET /api/inventory
func (h *Handler) GetInventory(w http.ResponseWriter, r *http.Request) {
	snapshot, err := inventory.TakeSnapshot(r.Context(), h.Store)
	if err != nil {
		h.writeDomainError(w, err, "Failed to compute snapshot")
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(snapshot))
}

// GetReport returns the time series for one item.
// GET /api/reports?item_id=&start_date=&end_date=
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(r.URL.Query().Get("item_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "item_id is required", err)
		return
	}

	from, err := dateParam(r, "start_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date (use YYYY-MM-DD)", err)
		return
	}
	to, err := dateParam(r, "end_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date (use YYYY-MM-DD)", err)
		return
	}

	report, err := inventory.BuildReport(r.Context(), h.Store, itemID, from, to)
	if err != nil {
		h.writeDomainError(w, err, "Failed to compute report")
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(itemID, from, to, report))
}

// =============================================================================
// REFERENCE HANDLERS - shared across items/categories/units
// =============================================================================

// ListReferences returns all entities of a kind, ordered by name.
func (h *Handler) ListReferences(kind inventory.ReferenceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refs, err := h.Store.ListReferences(r.Context(), kind)
		if err != nil {
			h.writeDomainError(w, err, "Failed to list "+string(kind)+"s")
			return
		}
		writeJSON(w, http.StatusOK, toReferenceDTOs(refs))
	}
}

// CreateReference adds a named entity of a kind.
func (h *Handler) CreateReference(kind inventory.ReferenceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := h.decodeReference(w, r)
		if !ok {
			return
		}

		id, err := h.Store.InsertReference(r.Context(), kind, req.Name)
		if err != nil {
			h.writeDomainError(w, err, "Failed to create "+string(kind))
			return
		}
		writeJSON(w, http.StatusCreated, ReferenceDTO{ID: id, Name: req.Name})
	}
}

// RenameReference changes an entity's name.
func (h *Handler) RenameReference(kind inventory.ReferenceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid id", err)
			return
		}
		req, ok := h.decodeReference(w, r)
		if !ok {
			return
		}

		if err := h.Store.RenameReference(r.Context(), kind, id, req.Name); err != nil {
			h.writeDomainError(w, err, "Failed to rename "+string(kind))
			return
		}
		writeJSON(w, http.StatusOK, ReferenceDTO{ID: id, Name: req.Name})
	}
}

// DeleteReference removes an entity. Movements that reference it stay
// in the ledger and render with an unknown name afterwards.
func (h *Handler) DeleteReference(kind inventory.ReferenceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid id", err)
			return
		}

		if err := h.Store.DeleteReference(r.Context(), kind, id); err != nil {
			h.writeDomainError(w, err, "Failed to delete "+string(kind))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
	}
}

func (h *Handler) decodeReference(w http.ResponseWriter, r *http.Request) (ReferenceRequest, bool) {
	var req ReferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Name is required", err)
		return req, false
	}
	return req, true
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) referenceNames(r *http.Request) (categories, items, units map[int64]string, err error) {
	ctx := r.Context()
	for _, load := range []struct {
		kind inventory.ReferenceKind
		dst  *map[int64]string
	}{
		{inventory.KindCategory, &categories},
		{inventory.KindItem, &items},
		{inventory.KindUnit, &units},
	} {
		refs, lerr := h.Store.ListReferences(ctx, load.kind)
		if lerr != nil {
			return nil, nil, nil, lerr
		}
		names := make(map[int64]string, len(refs))
		for _, ref := range refs {
			names[ref.ID] = ref.Name
		}
		*load.dst = names
	}
	return categories, items, units, nil
}

func filterFromQuery(r *http.Request) (inventory.Filter, error) {
	var filter inventory.Filter

	if raw := r.URL.Query().Get("item_id"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return filter, err
		}
		filter.ItemID = &id
	}

	var err error
	if filter.From, err = dateParam(r, "start_date"); err != nil {
		return filter, err
	}
	if filter.To, err = dateParam(r, "end_date"); err != nil {
		return filter, err
	}
	return filter, nil
}

func dateParam(r *http.Request, name string) (*inventory.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := inventory.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, inventory.ErrInvalidNumericInput
	}
	return id, nil
}

// at indexes a parallel form array that may be shorter than the others.
func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

// writeDomainError maps domain errors onto HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, inventory.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, inventory.ErrDuplicateName):
		writeError(w, http.StatusConflict, message, err)
	case inventory.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Log.Error().Err(err).Msg(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
