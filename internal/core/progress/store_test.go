package progress

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/colonyops/cadence/internal/core/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDay    = schedule.MustParseDate("2024-01-01")
	testLadder = schedule.DefaultLadder
)

func seed(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	solved := New("b", "Two Sum", "https://example.com/b", "Arrays", "Hashing")
	solved.Solve(testLadder, testDay)
	solved.Note = "use a map"
	require.NoError(t, s.Set(New("a", "Contains Duplicate", "https://example.com/a", "Arrays", "Hashing")))
	require.NoError(t, s.Set(solved))
	require.NoError(t, s.Set(New("c", "Valid Anagram", "https://example.com/c", "Arrays", "Sorting")))
	return s
}

func exportJSON(t *testing.T, s *Store) string {
	t.Helper()
	data, err := json.Marshal(s.Export())
	require.NoError(t, err)
	return string(data)
}

func TestItem_Transitions(t *testing.T) {
	it := New("x", "X", "", "T", "P")

	it.Solve(testLadder, testDay)
	assert.Equal(t, StatusSolved, it.Status)
	assert.Equal(t, 0, it.ReviewInterval)
	require.NotNil(t, it.NextReviewDate)
	assert.Equal(t, "2024-01-02", it.NextReviewDate.String())

	it.Review(testLadder, schedule.MustParseDate("2024-01-02"))
	assert.Equal(t, 1, it.ReviewInterval)
	assert.Equal(t, "2024-01-05", it.NextReviewDate.String())

	it.ReviewInterval = 5
	it.Review(testLadder, testDay)
	assert.Equal(t, 5, it.ReviewInterval, "last rung saturates")
	assert.Equal(t, testDay.AddDays(60), *it.NextReviewDate)

	it.Reset()
	assert.Equal(t, StatusUnsolved, it.Status)
	assert.Equal(t, 0, it.ReviewInterval)
	assert.Nil(t, it.NextReviewDate)
}

func TestItem_ResetRoundTrip(t *testing.T) {
	for interval := 0; interval <= testLadder.Max()+2; interval++ {
		it := New("x", "X", "", "T", "P")
		it.Solve(testLadder, testDay)
		it.ReviewInterval = interval
		it.Reset()
		assert.Equal(t, New("x", "X", "", "T", "P"), it)
	}
}

func TestItem_IsDue(t *testing.T) {
	it := New("x", "X", "", "T", "P")
	assert.False(t, it.IsDue(testDay), "unsolved is never due")

	it.Solve(testLadder, testDay)
	assert.False(t, it.IsDue(testDay))
	assert.True(t, it.IsDue(testDay.AddDays(1)))
	assert.True(t, it.IsDue(testDay.AddDays(30)))
}

func TestItem_Normalize(t *testing.T) {
	next := testDay.AddDays(4)

	tests := []struct {
		name    string
		in      Item
		changed bool
		check   func(t *testing.T, it Item)
	}{
		{
			name: "valid unsolved",
			in:   New("a", "", "", "", ""),
		},
		{
			name:    "unsolved with schedule",
			in:      Item{ID: "a", Status: StatusUnsolved, ReviewInterval: 2, NextReviewDate: &next},
			changed: true,
			check: func(t *testing.T, it Item) {
				assert.Equal(t, 0, it.ReviewInterval)
				assert.Nil(t, it.NextReviewDate)
			},
		},
		{
			name:    "solved without date",
			in:      Item{ID: "a", Status: StatusSolved, ReviewInterval: 2},
			changed: true,
			check: func(t *testing.T, it Item) {
				require.NotNil(t, it.NextReviewDate)
				assert.Equal(t, testDay.AddDays(7), *it.NextReviewDate)
			},
		},
		{
			name:    "interval past ladder",
			in:      Item{ID: "a", Status: StatusSolved, ReviewInterval: 40, NextReviewDate: &next},
			changed: true,
			check: func(t *testing.T, it Item) {
				assert.Equal(t, testLadder.Max(), it.ReviewInterval)
			},
		},
		{
			name:    "unknown status",
			in:      Item{ID: "a", Status: "bogus"},
			changed: true,
			check: func(t *testing.T, it Item) {
				assert.Equal(t, StatusUnsolved, it.Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := tt.in
			assert.Equal(t, tt.changed, it.Normalize(testLadder, testDay))
			if tt.check != nil {
				tt.check(t, it)
			}
		})
	}
}

func TestData_Normalize(t *testing.T) {
	d := Data{
		Problems: map[string]Item{
			"a": {ID: "wrong", Status: StatusUnsolved},
			"b": {ID: "b", Status: StatusUnsolved},
			"z": {ID: "z", Status: StatusUnsolved},
		},
		DeletedIDs: []string{"z", "y", "z"},
	}

	repaired := d.Normalize(testLadder, testDay)
	assert.Equal(t, []string{"a", "z"}, repaired)
	assert.Equal(t, []string{"y", "z"}, d.DeletedIDs)
	assert.NotContains(t, d.Problems, "z")
	assert.Equal(t, "a", d.Problems["a"].ID)

	var empty Data
	assert.Empty(t, empty.Normalize(testLadder, testDay))
	assert.NotNil(t, empty.Problems)
	assert.NotNil(t, empty.DeletedIDs)
}

func TestData_ZeroDateSurvivesRoundTrip(t *testing.T) {
	var zero schedule.Date
	d := EmptyData()
	d.Problems["a"] = Item{ID: "a", Status: StatusSolved, ReviewInterval: 1, NextReviewDate: &zero}

	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var back Data
	require.NoError(t, json.Unmarshal(raw, &back))

	stored := []byte(`{"problems":{"b":{"id":"b","status":"solved","reviewInterval":1,"nextReviewDate":""}},"deletedIds":[]}`)
	var older Data
	require.NoError(t, json.Unmarshal(stored, &older), "an empty date string does not fail the document")

	for name, doc := range map[string]*Data{"round trip": &back, "empty string": &older} {
		doc.Normalize(testLadder, testDay)
		for id, it := range doc.Problems {
			require.NotNil(t, it.NextReviewDate, "%s: %s", name, id)
			assert.Equal(t, testDay.AddDays(3), *it.NextReviewDate, "%s: %s", name, id)
		}
	}
}

func TestStore_BasicOps(t *testing.T) {
	s := seed(t)

	assert.Equal(t, 3, s.Len())
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("missing"))

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "c", all[2].ID)

	got, ok := s.Get("b")
	require.True(t, ok)
	got.NextReviewDate = nil
	again, _ := s.Get("b")
	assert.NotNil(t, again.NextReviewDate, "Get must return a copy")

	s.Delete("c")
	assert.False(t, s.Has("c"))
	assert.False(t, s.IsDeleted("c"), "plain delete does not tombstone")
}

func TestStore_RemoveRestore(t *testing.T) {
	s := seed(t)
	before := exportJSON(t, s)

	removed, err := s.Remove("b")
	require.NoError(t, err)
	assert.False(t, s.Has("b"))
	assert.True(t, s.IsDeleted("b"))

	require.ErrorIs(t, s.Set(removed), ErrDeleted, "tombstoned ids cannot be written")

	s.Restore(removed)
	assert.True(t, s.Has("b"))
	assert.False(t, s.IsDeleted("b"))
	assert.JSONEq(t, before, exportJSON(t, s))

	_, err = s.Remove("missing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, s.IsDeleted("missing"))
}

func TestStore_ExportReplace(t *testing.T) {
	s := seed(t)
	_, err := s.Remove("c")
	require.NoError(t, err)

	data := s.Export()
	assert.Len(t, data.Problems, 2)
	assert.Equal(t, []string{"c"}, data.DeletedIDs)

	data.Problems["a"] = Item{ID: "a", Name: "mutated"}
	got, _ := s.Get("a")
	assert.NotEqual(t, "mutated", got.Name, "Export must deep copy")

	other := NewStoreFrom(Data{
		Problems:   map[string]Item{"q": {ID: "q"}, "c": {ID: "c"}},
		DeletedIDs: []string{"c"},
	})
	assert.True(t, other.Has("q"))
	assert.False(t, other.Has("c"), "tombstones win on replace")
	assert.True(t, other.IsDeleted("c"))

	empty := NewStore().Export()
	assert.NotNil(t, empty.Problems)
	assert.NotNil(t, empty.DeletedIDs)
}

func TestStore_ApplyRevert(t *testing.T) {
	s := seed(t)
	before := exportJSON(t, s)

	j, err := s.Apply(func(tx *Tx) error {
		if _, err := tx.Update("a", func(it *Item) error {
			it.Solve(testLadder, testDay)
			return nil
		}); err != nil {
			return err
		}
		if _, err := tx.Remove("b"); err != nil {
			return err
		}
		tx.ClearTombstones()
		if _, err := tx.Remove("c"); err != nil {
			return err
		}
		return tx.Put(New("custom-1", "Mine", "", "Mine", "Mine"))
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "custom-1"}, j.IDs())

	prior, ok := j.Before("a")
	require.True(t, ok)
	assert.Equal(t, StatusUnsolved, prior.Status)
	_, ok = j.Before("custom-1")
	assert.False(t, ok)

	assert.NotEqual(t, before, exportJSON(t, s))

	s.Revert(j)
	assert.JSONEq(t, before, exportJSON(t, s))
}

func TestStore_ApplyErrorReverts(t *testing.T) {
	s := seed(t)
	before := exportJSON(t, s)
	boom := errors.New("boom")

	j, err := s.Apply(func(tx *Tx) error {
		if _, err := tx.Remove("a"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, j)
	assert.JSONEq(t, before, exportJSON(t, s))

	_, err = s.Apply(func(tx *Tx) error {
		_, err := tx.Update("missing", func(*Item) error { return nil })
		return err
	})
	require.ErrorIs(t, err, ErrNotFound)
	assert.JSONEq(t, before, exportJSON(t, s))
}

func TestStore_NeverPresentAndTombstoned(t *testing.T) {
	s := seed(t)
	ids := []string{"a", "b", "c"}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			data := s.Export()
			for _, id := range data.DeletedIDs {
				_, present := data.Problems[id]
				assert.False(t, present, "id %s observed in both sets", id)
			}
		}
	}()

	for range 200 {
		for _, id := range ids {
			j, err := s.Apply(func(tx *Tx) error {
				_, err := tx.Remove(id)
				return err
			})
			require.NoError(t, err)
			s.Revert(j)
		}
	}

	close(stop)
	wg.Wait()
}
