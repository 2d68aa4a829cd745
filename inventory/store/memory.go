// Package store provides an in-memory Store implementation.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/stockbook/inventory-engine/inventory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	movements []inventory.Movement // kept sorted by (date, id)
	nextID    int64

	references map[inventory.ReferenceKind][]inventory.Reference
	nextRefID  int64
}

func NewMemory() *Memory {
	return &Memory{
		nextID:     1,
		nextRefID:  1,
		references: make(map[inventory.ReferenceKind][]inventory.Reference),
	}
}

// AppendMovements persists a batch atomically. Reference existence is
// checked for every entry before anything is written, so a bad entry
// leaves the ledger untouched.
func (m *Memory) AppendMovements(_ context.Context, batch []inventory.Movement) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(batch) == 0 {
		return nil, inventory.ErrEmptyBatch
	}

	for _, mov := range batch {
		if !m.refExistsLocked(inventory.KindItem, mov.ItemID) ||
			!m.refExistsLocked(inventory.KindUnit, mov.UnitID) ||
			!m.refExistsLocked(inventory.KindCategory, mov.CategoryID) {
			return nil, inventory.ErrMissingReference
		}
	}

	ids := make([]int64, 0, len(batch))
	for _, mov := range batch {
		mov.ID = m.nextID
		m.nextID++
		m.insertSortedLocked(mov)
		ids = append(ids, mov.ID)
	}
	return ids, nil
}

func (m *Memory) insertSortedLocked(mov inventory.Movement) {
	// Binary search for the insertion point keeps List ordered without
	// sorting on every read.
	i := sort.Search(len(m.movements), func(i int) bool {
		other := m.movements[i]
		if !other.Date.Equal(mov.Date) {
			return other.Date.After(mov.Date)
		}
		return other.ID > mov.ID
	})

	m.movements = append(m.movements, inventory.Movement{})
	copy(m.movements[i+1:], m.movements[i:])
	m.movements[i] = mov
}

func (m *Memory) DeleteMovement(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, mov := range m.movements {
		if mov.ID == id {
			m.movements = append(m.movements[:i], m.movements[i+1:]...)
			return nil
		}
	}
	return inventory.ErrNotFound
}

func (m *Memory) ListMovements(_ context.Context, filter inventory.Filter) ([]inventory.Movement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []inventory.Movement
	for _, mov := range m.movements {
		if filter.Matches(mov) {
			result = append(result, mov)
		}
	}
	return result, nil
}

// =============================================================================
// REFERENCE ENTITIES
// =============================================================================

func (m *Memory) ListReferences(_ context.Context, kind inventory.ReferenceKind) ([]inventory.Reference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	refs := append([]inventory.Reference(nil), m.references[kind]...)
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

func (m *Memory) GetReference(_ context.Context, kind inventory.ReferenceKind, id int64) (*inventory.Reference, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.references[kind] {
		if r.ID == id {
			ref := r
			return &ref, nil
		}
	}
	return nil, nil
}

func (m *Memory) InsertReference(_ context.Context, kind inventory.ReferenceKind, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.references[kind] {
		if r.Name == name {
			return 0, inventory.ErrDuplicateName
		}
	}

	id := m.nextRefID
	m.nextRefID++
	m.references[kind] = append(m.references[kind], inventory.Reference{ID: id, Name: name})
	return id, nil
}

func (m *Memory) RenameReference(_ context.Context, kind inventory.ReferenceKind, id int64, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	refs := m.references[kind]
	for _, r := range refs {
		if r.Name == name && r.ID != id {
			return inventory.ErrDuplicateName
		}
	}
	for i, r := range refs {
		if r.ID == id {
			refs[i].Name = name
			return nil
		}
	}
	return inventory.ErrNotFound
}

// DeleteReference removes the entity without touching movements that
// reference it.
func (m *Memory) DeleteReference(_ context.Context, kind inventory.ReferenceKind, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	refs := m.references[kind]
	for i, r := range refs {
		if r.ID == id {
			m.references[kind] = append(refs[:i], refs[i+1:]...)
			return nil
		}
	}
	return inventory.ErrNotFound
}

func (m *Memory) refExistsLocked(kind inventory.ReferenceKind, id int64) bool {
	for _, r := range m.references[kind] {
		if r.ID == id {
			return true
		}
	}
	return false
}
