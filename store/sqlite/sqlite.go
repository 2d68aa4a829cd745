/*
Package sqlite provides the SQLite-backed implementation of the
inventory.Store interface.

PURPOSE:
  Durable persistence for the movement ledger and the reference tables
  (items, categories, units). The same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

ATOMIC BATCHES:
  AppendMovements wraps the whole batch in one database transaction.
  Either every entry of a submission is persisted or none are, so a
  concurrent snapshot read never observes a partial batch.

KEY TABLES:
  movements:    The ledger (delete-by-id is the only destructive
                operation; there is no UPDATE)
  items/categories/units: Reference entities, names UNIQUE per table

REFERENTIAL INTEGRITY:
  Movement inserts verify that referenced rows exist and fail with
  ErrMissingReference otherwise. Reference deletion deliberately does
  NOT cascade - the schema keeps no FK from movements back to the
  reference tables, so deleting an item orphans its movements. That
  matches the documented Store contract.

WAL MODE:
  SQLite is opened with WAL so snapshot/report reads do not block the
  single writer.

USAGE:
  store, err := sqlite.New("./data/stockbook.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - inventory/store.go: Interface definition and semantics
  - inventory/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stockbook/inventory-engine/inventory"
)

// Store implements inventory.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS units (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	-- The ledger. Rows are never updated; delete-by-id is the only
	-- destructive operation. Quantity and price are stored as text to
	-- preserve decimal precision.
	CREATE TABLE IF NOT EXISTS movements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		action_type TEXT NOT NULL,
		category_id INTEGER NOT NULL,
		item_id INTEGER NOT NULL,
		unit_id INTEGER NOT NULL,
		quantity TEXT NOT NULL,
		price TEXT,
		photo_path TEXT,
		created_at TEXT NOT NULL
	);

	-- Snapshot groups by (item, unit); reports filter by item and date.
	CREATE INDEX IF NOT EXISTS idx_movements_item_unit
		ON movements(item_id, unit_id);
	CREATE INDEX IF NOT EXISTS idx_movements_item_date
		ON movements(item_id, date);
	CREATE INDEX IF NOT EXISTS idx_movements_action
		ON movements(action_type);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// MOVEMENT LEDGER (inventory.Store interface)
// =============================================================================

// AppendMovements persists a batch in a single transaction.
func (s *Store) AppendMovements(ctx context.Context, batch []inventory.Movement) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(batch) == 0 {
		return nil, inventory.ErrEmptyBatch
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Reference existence is verified inside the same transaction as the
	// inserts, so the all-or-nothing contract holds.
	for _, m := range batch {
		if err := refMustExist(ctx, tx, "items", m.ItemID); err != nil {
			return nil, err
		}
		if err := refMustExist(ctx, tx, "units", m.UnitID); err != nil {
			return nil, err
		}
		if err := refMustExist(ctx, tx, "categories", m.CategoryID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	ids := make([]int64, 0, len(batch))
	for _, m := range batch {
		var price any
		if m.Price.Valid {
			price = m.Price.Decimal.String()
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO movements (date, action_type, category_id, item_id, unit_id, quantity, price, photo_path, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.Date.String(), string(m.Action), m.CategoryID, m.ItemID, m.UnitID,
			m.Quantity.String(), price, nullString(m.PhotoPath), now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to append movement: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read movement id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch: %w", err)
	}
	return ids, nil
}

func refMustExist(ctx context.Context, tx *sql.Tx, table string, id int64) error {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if err == sql.ErrNoRows {
		return inventory.ErrMissingReference
	}
	return err
}

// DeleteMovement removes exactly one row by id.
func (s *Store) DeleteMovement(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM movements WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete movement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return inventory.ErrNotFound
	}
	return nil
}

// ListMovements returns movements matching the filter, ordered by date
// then id.
func (s *Store) ListMovements(ctx context.Context, filter inventory.Filter) ([]inventory.Movement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, date, action_type, category_id, item_id, unit_id, quantity, price, photo_path
		FROM movements`

	var clauses []string
	var args []any
	if filter.ItemID != nil {
		clauses = append(clauses, "item_id = ?")
		args = append(args, *filter.ItemID)
	}
	if filter.From != nil {
		clauses = append(clauses, "date >= ?")
		args = append(args, filter.From.String())
	}
	if filter.To != nil {
		clauses = append(clauses, "date <= ?")
		args = append(args, filter.To.String())
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY date ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movements: %w", err)
	}
	defer rows.Close()

	var movements []inventory.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func scanMovement(rows *sql.Rows) (inventory.Movement, error) {
	var (
		m         inventory.Movement
		date      string
		action    string
		quantity  string
		price     sql.NullString
		photoPath sql.NullString
	)

	err := rows.Scan(&m.ID, &date, &action, &m.CategoryID, &m.ItemID, &m.UnitID,
		&quantity, &price, &photoPath)
	if err != nil {
		return m, fmt.Errorf("failed to scan movement: %w", err)
	}

	m.Date, err = inventory.ParseDate(date)
	if err != nil {
		return m, fmt.Errorf("corrupt date %q: %w", date, err)
	}
	m.Action = inventory.ActionType(action)
	m.Quantity, err = decimal.NewFromString(quantity)
	if err != nil {
		return m, fmt.Errorf("corrupt quantity %q: %w", quantity, err)
	}
	if price.Valid {
		p, err := decimal.NewFromString(price.String)
		if err != nil {
			return m, fmt.Errorf("corrupt price %q: %w", price.String, err)
		}
		m.Price = decimal.NullDecimal{Decimal: p, Valid: true}
	}
	m.PhotoPath = photoPath.String

	return m, nil
}

// =============================================================================
// REFERENCE ENTITIES
// =============================================================================

func tableFor(kind inventory.ReferenceKind) (string, error) {
	switch kind {
	case inventory.KindItem:
		return "items", nil
	case inventory.KindCategory:
		return "categories", nil
	case inventory.KindUnit:
		return "units", nil
	default:
		return "", inventory.ErrUnknownReferenceKind
	}
}

// ListReferences returns all entities of a kind, ordered by name.
func (s *Store) ListReferences(ctx context.Context, kind inventory.ReferenceKind) ([]inventory.Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM "+table+" ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []inventory.Reference
	for rows.Next() {
		var r inventory.Reference
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// GetReference returns the entity or nil when absent.
func (s *Store) GetReference(ctx context.Context, kind inventory.ReferenceKind, id int64) (*inventory.Reference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	var r inventory.Reference
	err = s.db.QueryRowContext(ctx, "SELECT id, name FROM "+table+" WHERE id = ?", id).
		Scan(&r.ID, &r.Name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// InsertReference creates a named entity; UNIQUE violations become
// ErrDuplicateName.
func (s *Store) InsertReference(ctx context.Context, kind inventory.ReferenceKind, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, "INSERT INTO "+table+" (name) VALUES (?)", name)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, inventory.ErrDuplicateName
		}
		return 0, fmt.Errorf("failed to insert %s: %w", kind, err)
	}
	return res.LastInsertId()
}

// RenameReference changes an entity's name.
func (s *Store) RenameReference(ctx context.Context, kind inventory.ReferenceKind, id int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, "UPDATE "+table+" SET name = ? WHERE id = ?", name, id)
	if err != nil {
		if isUniqueConstraintError(err) {
			return inventory.ErrDuplicateName
		}
		return fmt.Errorf("failed to rename %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return inventory.ErrNotFound
	}
	return nil
}

// DeleteReference removes an entity. Movements referencing it are left
// in place (see the Store contract).
func (s *Store) DeleteReference(ctx context.Context, kind inventory.ReferenceKind, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return inventory.ErrNotFound
	}
	return nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"movements", "items", "categories", "units"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
