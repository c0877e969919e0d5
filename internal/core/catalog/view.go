package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/colonyops/cadence/internal/core/progress"
	"github.com/colonyops/cadence/internal/core/schedule"
)

// Labels used for custom items that were created without a topic or pattern.
const (
	DefaultCustomTopic   = "Custom"
	DefaultCustomPattern = "General"
)

// TopicOf returns the topic an item is listed under when it is placed by
// its own labels.
func TopicOf(it progress.Item) string {
	if t := strings.TrimSpace(it.Topic); t != "" {
		return t
	}
	return DefaultCustomTopic
}

// PatternOf is TopicOf for the pattern label.
func PatternOf(it progress.Item) string {
	if p := strings.TrimSpace(it.Pattern); p != "" {
		return p
	}
	return DefaultCustomPattern
}

// Filter selects items by status.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterSolved   Filter = "solved"
	FilterUnsolved Filter = "unsolved"
	FilterDue      Filter = "due"
)

// ParseFilter parses a filter name. The empty string is FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterSolved, FilterUnsolved, FilterDue:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q (want all, solved, unsolved or due)", s)
	}
}

func (f Filter) match(it progress.Item, today schedule.Date) bool {
	switch f {
	case FilterSolved:
		return it.IsSolved()
	case FilterUnsolved:
		return !it.IsSolved()
	case FilterDue:
		return it.IsDue(today)
	default:
		return true
	}
}

// ViewOptions narrows a view.
type ViewOptions struct {
	Filter Filter
	// Topic selects topics by exact name or doublestar glob. Empty selects all.
	Topic string
	Today schedule.Date
}

// ValidateTopicSelector reports whether sel is usable as ViewOptions.Topic.
func ValidateTopicSelector(sel string) error {
	if sel != "" && !doublestar.ValidatePattern(sel) {
		return fmt.Errorf("invalid topic pattern %q", sel)
	}
	return nil
}

func (o ViewOptions) selects(topic string) bool {
	if o.Topic == "" || o.Topic == topic {
		return true
	}
	ok, err := doublestar.Match(o.Topic, topic)
	return err == nil && ok
}

// View is the merged, view-ready catalog.
type View struct {
	Topics []TopicView `json:"topics"`
}

// TopicView is one topic of a View. Custom is set for topics that exist only
// because of user-created items.
type TopicView struct {
	Name     string        `json:"name"`
	Custom   bool          `json:"custom,omitempty"`
	Patterns []PatternView `json:"patterns"`
}

// PatternView is one pattern of a TopicView.
type PatternView struct {
	Name   string          `json:"name"`
	Custom bool            `json:"custom,omitempty"`
	Items  []progress.Item `json:"items"`
}

// Stats summarizes a view region. Each id is counted once no matter how many
// patterns list it.
type Stats struct {
	Unique int `json:"unique"`
	Solved int `json:"solved"`
	Due    int `json:"due"`
}

// BuildView merges cat with the store contents. Tombstoned ids and ids not
// yet in the store are omitted. Items whose id is not in the catalog are
// placed by their topic/pattern labels, after the catalog entries, in id
// order. Empty patterns and topics are dropped.
func BuildView(cat *Catalog, store *progress.Store, opts ViewOptions) View {
	data := store.Export()
	deleted := make(map[string]bool, len(data.DeletedIDs))
	for _, id := range data.DeletedIDs {
		deleted[id] = true
	}

	b := newViewBuilder()
	for _, t := range cat.topics {
		tv := b.topic(t.Name, false)
		for _, p := range t.Patterns {
			pv := b.pattern(tv, p.Name, false)
			for _, id := range p.Problems {
				if deleted[id] {
					continue
				}
				it, ok := data.Problems[id]
				if !ok {
					continue
				}
				pv.Items = append(pv.Items, it)
			}
		}
	}

	for _, it := range sortedItems(data) {
		if cat.Has(it.ID) || deleted[it.ID] {
			continue
		}
		pv := b.pattern(b.topic(TopicOf(it), true), PatternOf(it), true)
		pv.Items = append(pv.Items, it)
	}

	return b.build(opts)
}

// Stats counts unique, solved and due items across the whole view.
func (v View) Stats(today schedule.Date) Stats {
	var items []progress.Item
	for _, t := range v.Topics {
		for _, p := range t.Patterns {
			items = append(items, p.Items...)
		}
	}
	return countUnique(items, today)
}

// Stats counts unique, solved and due items in the topic.
func (t TopicView) Stats(today schedule.Date) Stats {
	var items []progress.Item
	for _, p := range t.Patterns {
		items = append(items, p.Items...)
	}
	return countUnique(items, today)
}

// Stats counts unique, solved and due items in the pattern.
func (p PatternView) Stats(today schedule.Date) Stats {
	return countUnique(p.Items, today)
}

// IDs returns every item id in the view once, in view order.
func (v View) IDs() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range v.Topics {
		for _, p := range t.Patterns {
			for _, it := range p.Items {
				if !seen[it.ID] {
					seen[it.ID] = true
					out = append(out, it.ID)
				}
			}
		}
	}
	return out
}

func countUnique(items []progress.Item, today schedule.Date) Stats {
	var s Stats
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		s.Unique++
		if it.IsSolved() {
			s.Solved++
		}
		if it.IsDue(today) {
			s.Due++
		}
	}
	return s
}

func sortedItems(data progress.Data) []progress.Item {
	out := make([]progress.Item, 0, len(data.Problems))
	for _, it := range data.Problems {
		out = append(out, it)
	}
	slices.SortFunc(out, func(a, b progress.Item) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// viewBuilder accumulates topics and patterns in first-seen order.
type viewBuilder struct {
	topics []*topicNode
	byName map[string]*topicNode
}

type topicNode struct {
	name     string
	custom   bool
	patterns []*PatternView
	byName   map[string]*PatternView
}

func newViewBuilder() *viewBuilder {
	return &viewBuilder{byName: make(map[string]*topicNode)}
}

func (b *viewBuilder) topic(name string, custom bool) *topicNode {
	if t, ok := b.byName[name]; ok {
		return t
	}
	t := &topicNode{name: name, custom: custom, byName: make(map[string]*PatternView)}
	b.topics = append(b.topics, t)
	b.byName[name] = t
	return t
}

func (b *viewBuilder) pattern(t *topicNode, name string, custom bool) *PatternView {
	if p, ok := t.byName[name]; ok {
		return p
	}
	p := &PatternView{Name: name, Custom: custom}
	t.patterns = append(t.patterns, p)
	t.byName[name] = p
	return p
}

func (b *viewBuilder) build(opts ViewOptions) View {
	var v View
	for _, t := range b.topics {
		if !opts.selects(t.name) {
			continue
		}
		tv := TopicView{Name: t.name, Custom: t.custom}
		for _, p := range t.patterns {
			var items []progress.Item
			for _, it := range p.Items {
				if opts.Filter.match(it, opts.Today) {
					items = append(items, it)
				}
			}
			if len(items) == 0 {
				continue
			}
			tv.Patterns = append(tv.Patterns, PatternView{Name: p.Name, Custom: p.Custom, Items: items})
		}
		if len(tv.Patterns) > 0 {
			v.Topics = append(v.Topics, tv)
		}
	}
	return v
}
