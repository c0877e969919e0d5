package progress

import (
	"slices"

	"github.com/colonyops/cadence/internal/core/schedule"
)

// Data is the durable form of a store: every item keyed by id plus the
// tombstoned ids. It is the payload of every persistence call.
type Data struct {
	Problems   map[string]Item `json:"problems"`
	DeletedIDs []string        `json:"deletedIds"`
}

// EmptyData returns Data with non-nil collections.
func EmptyData() Data {
	return Data{
		Problems:   map[string]Item{},
		DeletedIDs: []string{},
	}
}

// Clone returns a deep copy of d.
func (d Data) Clone() Data {
	out := Data{
		Problems:   make(map[string]Item, len(d.Problems)),
		DeletedIDs: make([]string, len(d.DeletedIDs)),
	}
	for id, it := range d.Problems {
		out.Problems[id] = it.Clone()
	}
	copy(out.DeletedIDs, d.DeletedIDs)
	return out
}

// Normalize makes d internally consistent: nil collections become empty,
// item ids match their keys, tombstoned ids are dropped from Problems,
// tombstones are sorted and de-duplicated and each item satisfies the
// status/schedule invariant. It returns the ids of items that were repaired.
func (d *Data) Normalize(ladder schedule.Ladder, today schedule.Date) []string {
	if d.Problems == nil {
		d.Problems = map[string]Item{}
	}
	if d.DeletedIDs == nil {
		d.DeletedIDs = []string{}
	}

	slices.Sort(d.DeletedIDs)
	d.DeletedIDs = slices.Compact(d.DeletedIDs)

	var repaired []string
	for _, id := range d.DeletedIDs {
		if _, ok := d.Problems[id]; ok {
			delete(d.Problems, id)
			repaired = append(repaired, id)
		}
	}

	for key, it := range d.Problems {
		changed := false
		if it.ID != key {
			it.ID = key
			changed = true
		}
		if it.Normalize(ladder, today) {
			changed = true
		}
		if changed {
			d.Problems[key] = it
			repaired = append(repaired, key)
		}
	}

	slices.Sort(repaired)
	return repaired
}
