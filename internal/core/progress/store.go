package progress

import (
	"fmt"
	"slices"
	"sync"
)

// Store is the in-memory item collection for one session plus the set of
// tombstoned ids. An id is never both present and tombstoned; every method
// that changes one side changes the other under the same lock.
type Store struct {
	mu      sync.RWMutex
	items   map[string]Item
	deleted map[string]struct{}
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		items:   make(map[string]Item),
		deleted: make(map[string]struct{}),
	}
}

// NewStoreFrom returns a store populated from data.
func NewStoreFrom(data Data) *Store {
	s := NewStore()
	s.Replace(data)
	return s
}

func (s *Store) Get(id string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return Item{}, false
	}
	return it.Clone(), true
}

func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[id]
	return ok
}

// Set inserts or replaces an item. Tombstoned ids are rejected with ErrDeleted.
func (s *Store) Set(it Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(it)
}

// Delete drops an item without tombstoning it.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
}

// All returns a copy of every item ordered by id.
func (s *Store) All() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) IsDeleted(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.deleted[id]
	return ok
}

// DeletedIDs returns the tombstoned ids in sorted order.
func (s *Store) DeletedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deletedIDs()
}

// Remove deletes the item and tombstones its id in one step. It returns the
// removed item so a caller can hand it back to Restore.
func (s *Store) Remove(id string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(id)
}

// Restore reverses Remove: the id leaves the tombstone set and the item is
// put back, both under one lock.
func (s *Store) Restore(it Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deleted, it.ID)
	s.items[it.ID] = it.Clone()
}

// Export returns a deep copy of the store contents in durable form.
func (s *Store) Export() Data {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := Data{
		Problems:   make(map[string]Item, len(s.items)),
		DeletedIDs: s.deletedIDs(),
	}
	for id, it := range s.items {
		data.Problems[id] = it.Clone()
	}
	return data
}

// Replace swaps the whole store contents for data. Tombstoned ids in data win
// over items with the same id.
func (s *Store) Replace(data Data) {
	items := make(map[string]Item, len(data.Problems))
	deleted := make(map[string]struct{}, len(data.DeletedIDs))
	for _, id := range data.DeletedIDs {
		deleted[id] = struct{}{}
	}
	for id, it := range data.Problems {
		if _, gone := deleted[id]; gone {
			continue
		}
		it = it.Clone()
		it.ID = id
		items[id] = it
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.deleted = deleted
}

// Apply runs fn with exclusive access to the store. Every id fn touches is
// journaled with its prior state on first touch. When fn returns an error
// the journal is reverted before Apply returns, so a failed fn leaves no trace.
//
// fn must not call methods on s; use the Tx instead.
func (s *Store) Apply(fn func(tx *Tx) error) (*Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{s: s, j: newJournal()}
	if err := fn(tx); err != nil {
		s.revert(tx.j)
		return nil, err
	}
	return tx.j, nil
}

// Revert restores every id recorded in j to its state before the Apply that
// produced it. All ids are restored under a single lock so readers never see
// a partially reverted region.
func (s *Store) Revert(j *Journal) {
	if j == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revert(j)
}

func (s *Store) revert(j *Journal) {
	for _, id := range j.order {
		prior := j.entries[id]
		if prior.item != nil {
			s.items[id] = prior.item.Clone()
		} else {
			delete(s.items, id)
		}
		if prior.tombstoned {
			s.deleted[id] = struct{}{}
		} else {
			delete(s.deleted, id)
		}
	}
}

func (s *Store) put(it Item) error {
	if it.ID == "" {
		return fmt.Errorf("put item: empty id")
	}
	if _, gone := s.deleted[it.ID]; gone {
		return fmt.Errorf("put item %s: %w", it.ID, ErrDeleted)
	}
	s.items[it.ID] = it.Clone()
	return nil
}

func (s *Store) remove(id string) (Item, error) {
	it, ok := s.items[id]
	if !ok {
		return Item{}, fmt.Errorf("remove item %s: %w", id, ErrNotFound)
	}
	delete(s.items, id)
	s.deleted[id] = struct{}{}
	return it, nil
}

func (s *Store) sorted() []Item {
	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it.Clone())
	}
	slices.SortFunc(out, func(a, b Item) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

func (s *Store) deletedIDs() []string {
	ids := make([]string, 0, len(s.deleted))
	for id := range s.deleted {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
