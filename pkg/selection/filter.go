// Package selection decides which classified skills are injected on a turn.
// Required skills fill a small number of slots, suggested skills the
// conversation already acknowledged are promoted, and affinity partners of
// selected skills come along without consuming slots.
package selection

import (
	"github.com/jingkaihe/skillgate/pkg/skills"
)

// Default slot limits.
const (
	DefaultMaxRequired  = 2
	DefaultMaxSuggested = 2
)

// Limits bounds how many skills each tier may contribute.
type Limits struct {
	MaxRequired  int
	MaxSuggested int
}

// DefaultLimits returns the default slot limits.
func DefaultLimits() Limits {
	return Limits{MaxRequired: DefaultMaxRequired, MaxSuggested: DefaultMaxSuggested}
}

// Total is the cap on required plus promoted injections.
func (l Limits) Total() int {
	return l.MaxRequired + l.MaxSuggested
}

// Result is the outcome of Filter.
type Result struct {
	// ToInject holds capped required names followed by promotions.
	ToInject []string
	// Promoted holds suggested names elevated because they were acknowledged.
	Promoted []string
	// RemainingSuggested holds suggested names offered for optional loading.
	RemainingSuggested []string
	// Manual holds matched names whose rule disables auto injection and
	// that the conversation has not acknowledged.
	Manual []string
}

// Filter partitions classified names into injected, promoted, suggested and
// manual sets. Excess required names are dropped, not demoted. Names absent
// from catalog are ignored.
func Filter(required, suggested []string, acknowledged map[string]bool, catalog *skills.Catalog, limits Limits) Result {
	var res Result
	inject := newOrderedSet()
	matched := newOrderedSet()
	requiredTaken := 0

	for _, name := range required {
		rule, ok := catalog.Get(name)
		if !ok || !matched.add(name) {
			continue
		}
		if !rule.ShouldAutoInject() {
			continue
		}
		if requiredTaken >= limits.MaxRequired {
			continue
		}
		inject.add(name)
		requiredTaken++
	}

	for _, name := range suggested {
		rule, ok := catalog.Get(name)
		if !ok || !matched.add(name) {
			continue
		}
		if !rule.ShouldAutoInject() {
			continue
		}
		if acknowledged[name] && inject.len() < limits.Total() {
			inject.add(name)
			res.Promoted = append(res.Promoted, name)
			continue
		}
		if acknowledged[name] {
			continue
		}
		if len(res.RemainingSuggested) < limits.MaxSuggested {
			res.RemainingSuggested = append(res.RemainingSuggested, name)
		}
	}

	for _, name := range matched.items {
		rule, _ := catalog.Get(name)
		if !rule.ShouldAutoInject() && !acknowledged[name] {
			res.Manual = append(res.Manual, name)
		}
	}

	res.ToInject = inject.items
	return res
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool)}
}

// add appends name and reports whether it was new.
func (s *orderedSet) add(name string) bool {
	if s.seen[name] {
		return false
	}
	s.seen[name] = true
	s.items = append(s.items, name)
	return true
}

func (s *orderedSet) has(name string) bool {
	return s.seen[name]
}

func (s *orderedSet) len() int {
	return len(s.items)
}
