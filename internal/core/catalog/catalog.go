// Package catalog loads the reference problem catalog and merges it with a
// user's progress store into a view grouped by topic and pattern.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Problem is a catalog problem definition.
type Problem struct {
	ID   string `yaml:"id"   json:"id"`
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url"  json:"url"`
}

// Pattern is an ordered list of problem ids.
type Pattern struct {
	Name     string
	Problems []string
}

// Topic is an ordered list of patterns.
type Topic struct {
	Name     string
	Patterns []Pattern
}

// Placement is one topic/pattern position of a problem id.
type Placement struct {
	Topic   string
	Pattern string
}

// Catalog is the immutable reference catalog. Safe for concurrent reads.
type Catalog struct {
	topics    []Topic
	problems  map[string]Problem
	placement map[string][]Placement
	ids       []string
}

// ProblemRef is a problem entry under a pattern. It accepts either a bare id
// string or an inline {id, name, url} mapping and always resolves to an id.
type ProblemRef struct {
	ID   string
	Name string
	URL  string
}

func (r *ProblemRef) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		r.ID = strings.TrimSpace(node.Value)
		return nil
	case yaml.MappingNode:
		var p Problem
		if err := node.Decode(&p); err != nil {
			return err
		}
		r.ID = strings.TrimSpace(p.ID)
		r.Name = p.Name
		r.URL = p.URL
		return nil
	default:
		return fmt.Errorf("line %d: problem must be an id or a mapping", node.Line)
	}
}

type fileFormat struct {
	Problems map[string]struct {
		Name string `yaml:"name"`
		URL  string `yaml:"url"`
	} `yaml:"problems"`
	Topics []struct {
		Name     string `yaml:"name"`
		Patterns []struct {
			Name     string       `yaml:"name"`
			Problems []ProblemRef `yaml:"problems"`
		} `yaml:"patterns"`
	} `yaml:"topics"`
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog file from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		problems:  make(map[string]Problem, len(f.Problems)),
		placement: make(map[string][]Placement),
	}

	var errs criterio.FieldErrorsBuilder

	for id, def := range f.Problems {
		id = strings.TrimSpace(id)
		if id == "" {
			errs = errs.Append("problems", errors.New("empty problem id"))
			continue
		}
		c.problems[id] = Problem{ID: id, Name: def.Name, URL: def.URL}
	}

	topicSeen := make(map[string]bool, len(f.Topics))
	for ti, ft := range f.Topics {
		tfield := fmt.Sprintf("topics[%d]", ti)
		name := strings.TrimSpace(ft.Name)
		switch {
		case name == "":
			errs = errs.Append(tfield+".name", errors.New("name is required"))
		case topicSeen[name]:
			errs = errs.Append(tfield+".name", fmt.Errorf("duplicate topic %q", name))
		}
		topicSeen[name] = true

		topic := Topic{Name: name}
		patternSeen := make(map[string]bool, len(ft.Patterns))
		for pi, fp := range ft.Patterns {
			pfield := fmt.Sprintf("%s.patterns[%d]", tfield, pi)
			pname := strings.TrimSpace(fp.Name)
			switch {
			case pname == "":
				errs = errs.Append(pfield+".name", errors.New("name is required"))
			case patternSeen[pname]:
				errs = errs.Append(pfield+".name", fmt.Errorf("duplicate pattern %q in topic %q", pname, name))
			}
			patternSeen[pname] = true

			pattern := Pattern{Name: pname}
			idSeen := make(map[string]bool, len(fp.Problems))
			for ri, ref := range fp.Problems {
				rfield := fmt.Sprintf("%s.problems[%d]", pfield, ri)
				if ref.ID == "" {
					errs = errs.Append(rfield, errors.New("empty problem id"))
					continue
				}
				if idSeen[ref.ID] {
					errs = errs.Append(rfield, fmt.Errorf("problem %q listed twice in pattern", ref.ID))
					continue
				}
				idSeen[ref.ID] = true

				if _, ok := c.problems[ref.ID]; !ok {
					if ref.Name == "" {
						errs = errs.Append(rfield, fmt.Errorf("unknown problem %q", ref.ID))
						continue
					}
					c.problems[ref.ID] = Problem{ID: ref.ID, Name: ref.Name, URL: ref.URL}
				}

				if _, placed := c.placement[ref.ID]; !placed {
					c.ids = append(c.ids, ref.ID)
				}
				c.placement[ref.ID] = append(c.placement[ref.ID], Placement{Topic: name, Pattern: pname})
				pattern.Problems = append(pattern.Problems, ref.ID)
			}
			topic.Patterns = append(topic.Patterns, pattern)
		}
		c.topics = append(c.topics, topic)
	}

	if err := errs.ToError(); err != nil {
		return nil, err
	}
	return c, nil
}

// Topics returns the catalog topics in order. The result must not be modified.
func (c *Catalog) Topics() []Topic { return c.topics }

// Has reports whether id is a catalog problem placed under some pattern.
func (c *Catalog) Has(id string) bool {
	_, ok := c.placement[id]
	return ok
}

// Problem returns the definition for id.
func (c *Catalog) Problem(id string) (Problem, bool) {
	p, ok := c.problems[id]
	return p, ok
}

// IDs returns every placed problem id once, in catalog order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Placement returns every topic/pattern position of id.
func (c *Catalog) Placement(id string) []Placement {
	return append([]Placement(nil), c.placement[id]...)
}

// HasTopic reports whether name is a catalog topic.
func (c *Catalog) HasTopic(name string) bool {
	_, ok := c.topic(name)
	return ok
}

// TopicIDs returns the unique problem ids under a topic in catalog order.
func (c *Catalog) TopicIDs(topic string) []string {
	t, ok := c.topic(topic)
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, p := range t.Patterns {
		for _, id := range p.Problems {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// PatternIDs returns the problem ids of one pattern in catalog order.
func (c *Catalog) PatternIDs(topic, pattern string) []string {
	t, ok := c.topic(topic)
	if !ok {
		return nil
	}
	for _, p := range t.Patterns {
		if p.Name == pattern {
			return append([]string(nil), p.Problems...)
		}
	}
	return nil
}

func (c *Catalog) topic(name string) (Topic, bool) {
	for _, t := range c.topics {
		if t.Name == name {
			return t, true
		}
	}
	return Topic{}, false
}
