package catalog

import (
	"github.com/colonyops/cadence/internal/core/progress"
)

// Materialize creates a default unsolved item for every catalog problem that
// is neither in the store nor tombstoned. It returns the number of items
// created.
func Materialize(cat *Catalog, store *progress.Store) int {
	var n int
	_, _ = store.Apply(func(tx *progress.Tx) error {
		n = MaterializeTx(cat, tx)
		return nil
	})
	return n
}

// MaterializeTx is Materialize inside an existing store transaction.
func MaterializeTx(cat *Catalog, tx *progress.Tx) int {
	n := 0
	for _, id := range cat.ids {
		if tx.Has(id) || tx.IsDeleted(id) {
			continue
		}
		if err := tx.Put(cat.defaultItem(id)); err != nil {
			continue
		}
		n++
	}
	return n
}

func (c *Catalog) defaultItem(id string) progress.Item {
	p := c.problems[id]
	var at Placement
	if places := c.placement[id]; len(places) > 0 {
		at = places[0]
	}
	return progress.New(id, p.Name, p.URL, at.Topic, at.Pattern)
}
