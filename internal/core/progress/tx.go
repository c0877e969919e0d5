package progress

// Journal records the state of each id before a Store.Apply touched it.
type Journal struct {
	order   []string
	entries map[string]priorState
}

type priorState struct {
	item       *Item
	tombstoned bool
}

func newJournal() *Journal {
	return &Journal{entries: make(map[string]priorState)}
}

// IDs returns the touched ids in first-touch order.
func (j *Journal) IDs() []string {
	if j == nil {
		return nil
	}
	out := make([]string, len(j.order))
	copy(out, j.order)
	return out
}

// Len is the number of touched ids.
func (j *Journal) Len() int {
	if j == nil {
		return 0
	}
	return len(j.order)
}

// Before returns the item as it was before the Apply, if it existed.
func (j *Journal) Before(id string) (Item, bool) {
	if j == nil {
		return Item{}, false
	}
	prior, ok := j.entries[id]
	if !ok || prior.item == nil {
		return Item{}, false
	}
	return prior.item.Clone(), true
}

// Tx is the view of a Store handed to an Apply callback. All writes are
// journaled so the Apply can be reverted.
type Tx struct {
	s *Store
	j *Journal
}

func (tx *Tx) touch(id string) {
	if _, seen := tx.j.entries[id]; seen {
		return
	}
	var prior priorState
	if it, ok := tx.s.items[id]; ok {
		c := it.Clone()
		prior.item = &c
	}
	_, prior.tombstoned = tx.s.deleted[id]
	tx.j.entries[id] = prior
	tx.j.order = append(tx.j.order, id)
}

func (tx *Tx) Get(id string) (Item, bool) {
	it, ok := tx.s.items[id]
	if !ok {
		return Item{}, false
	}
	return it.Clone(), true
}

func (tx *Tx) Has(id string) bool {
	_, ok := tx.s.items[id]
	return ok
}

func (tx *Tx) IsDeleted(id string) bool {
	_, ok := tx.s.deleted[id]
	return ok
}

// Put inserts or replaces an item. Tombstoned ids are rejected.
func (tx *Tx) Put(it Item) error {
	tx.touch(it.ID)
	return tx.s.put(it)
}

// Update applies fn to a copy of the item and stores the result.
func (tx *Tx) Update(id string, fn func(*Item) error) (Item, error) {
	it, ok := tx.Get(id)
	if !ok {
		return Item{}, ErrNotFound
	}
	if err := fn(&it); err != nil {
		return Item{}, err
	}
	it.ID = id
	if err := tx.Put(it); err != nil {
		return Item{}, err
	}
	return it, nil
}

// Remove deletes and tombstones id.
func (tx *Tx) Remove(id string) (Item, error) {
	tx.touch(id)
	return tx.s.remove(id)
}

// Drop deletes id without tombstoning it.
func (tx *Tx) Drop(id string) {
	tx.touch(id)
	delete(tx.s.items, id)
}

// ClearTombstones empties the tombstone set.
func (tx *Tx) ClearTombstones() {
	for id := range tx.s.deleted {
		tx.touch(id)
	}
	clear(tx.s.deleted)
}

// Items returns a copy of every item ordered by id.
func (tx *Tx) Items() []Item {
	return tx.s.sorted()
}
