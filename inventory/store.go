/*
store.go - Persistence contract for the movement ledger

PURPOSE:
  Defines the interface between the engines and the database. The
  movement side is effectively append-only: there is no update path for
  a movement, only atomic batch insertion and deletion by id.

ATOMIC BATCHES:
  AppendMovements ensures all-or-nothing semantics. A batch recorded
  from one form submission either lands completely or not at all, so a
  concurrent snapshot never observes a partial batch. Implementations
  must wrap the batch in a single database transaction.

REFERENTIAL INTEGRITY:
  Movements must reference existing items/units/categories at insert
  time. Deleting a reference entity afterwards is deliberately
  unguarded: existing movements keep their ids and become orphaned.
  See DeleteReference.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - inventory/store: in-memory store for tests and dev
*/
package inventory

import "context"

// Filter narrows ListMovements. Nil fields mean unbounded.
type Filter struct {
	ItemID *int64
	From   *Date // inclusive
	To     *Date // inclusive
}

// Matches reports whether a movement passes the filter.
func (f Filter) Matches(m Movement) bool {
	if f.ItemID != nil && m.ItemID != *f.ItemID {
		return false
	}
	if f.From != nil && m.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && m.Date.After(*f.To) {
		return false
	}
	return true
}

// Store handles persistence of movements and reference entities.
type Store interface {
	// AppendMovements persists a batch atomically and returns the
	// assigned ids in batch order. Ids are monotonically increasing.
	// Fails with ErrMissingReference if any entry points at an item,
	// unit or category that does not exist; nothing is persisted then.
	AppendMovements(ctx context.Context, batch []Movement) ([]int64, error)

	// DeleteMovement removes exactly one movement by id.
	// Returns ErrNotFound if no such movement exists.
	DeleteMovement(ctx context.Context, id int64) error

	// ListMovements returns movements matching the filter, ordered by
	// date ascending then id ascending.
	ListMovements(ctx context.Context, filter Filter) ([]Movement, error)

	// ListReferences returns all entities of a kind, ordered by name.
	ListReferences(ctx context.Context, kind ReferenceKind) ([]Reference, error)

	// GetReference returns the entity or nil when absent.
	GetReference(ctx context.Context, kind ReferenceKind, id int64) (*Reference, error)

	// InsertReference creates a named entity. Names are unique per kind;
	// a clash fails with ErrDuplicateName.
	InsertReference(ctx context.Context, kind ReferenceKind, name string) (int64, error)

	// RenameReference changes an entity's name. ErrNotFound if the id is
	// absent, ErrDuplicateName if the new name is taken.
	RenameReference(ctx context.Context, kind ReferenceKind, id int64, name string) error

	// DeleteReference removes an entity. UNGUARDED: movements that
	// reference the deleted entity remain in the ledger and will render
	// with an unknown name in snapshots. Callers that want protection
	// must check ListMovements first.
	DeleteReference(ctx context.Context, kind ReferenceKind, id int64) error
}
