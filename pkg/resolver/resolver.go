// Package resolver orders skills for loading so that every skill follows
// its dependencies.
package resolver

import (
	"container/heap"
	"fmt"
	"strings"

	"github.com/jingkaihe/skillgate/pkg/skills"
)

// CycleError reports a dependsOn cycle reachable from the requested skills.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// Resolve expands names with their transitive dependencies and returns a
// topological order. Unconstrained skills are ordered by injectionOrder and
// then by catalog position, so the result is deterministic and resolving it
// again returns it unchanged. Names missing from the catalog are skipped.
func Resolve(names []string, catalog *skills.Catalog) ([]string, error) {
	nodes := make(map[string]bool)
	for _, name := range catalog.Closure(names) {
		if catalog.Has(name) {
			nodes[name] = true
		}
	}

	indegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))
	for name := range nodes {
		rule, _ := catalog.Get(name)
		seen := make(map[string]bool)
		for _, dep := range rule.DependsOn {
			if !nodes[dep] || seen[dep] {
				continue
			}
			seen[dep] = true
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	ready := &queue{catalog: catalog}
	for name := range nodes {
		if indegree[name] == 0 {
			heap.Push(ready, name)
		}
	}

	order := make([]string, 0, len(nodes))
	for ready.Len() > 0 {
		name := heap.Pop(ready).(string)
		order = append(order, name)
		for _, dependent := range dependents[name] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				heap.Push(ready, dependent)
			}
		}
	}

	if len(order) < len(nodes) {
		var stuck []string
		for _, name := range catalog.Names() {
			if nodes[name] && indegree[name] > 0 {
				stuck = append(stuck, name)
			}
		}
		cycle := catalog.FindCycle(stuck)
		if cycle == nil {
			cycle = stuck
		}
		return nil, &CycleError{Cycle: cycle}
	}
	return order, nil
}

// Outcome is the result of ResolveAcyclic.
type Outcome struct {
	Order   []string
	Dropped []string
	Cycles  []*CycleError
}

// ResolveAcyclic resolves names, dropping every requested skill whose
// dependency closure reaches a cycle and resolving the rest.
func ResolveAcyclic(names []string, catalog *skills.Catalog) Outcome {
	var out Outcome
	remaining := append([]string(nil), names...)
	for {
		order, err := Resolve(remaining, catalog)
		if err == nil {
			out.Order = order
			return out
		}
		cycleErr := err.(*CycleError)
		out.Cycles = append(out.Cycles, cycleErr)

		onCycle := make(map[string]bool, len(cycleErr.Cycle))
		for _, name := range cycleErr.Cycle {
			onCycle[name] = true
		}
		kept := remaining[:0:0]
		for _, name := range remaining {
			if touches(catalog.Closure([]string{name}), onCycle) {
				out.Dropped = append(out.Dropped, name)
				continue
			}
			kept = append(kept, name)
		}
		if len(kept) == len(remaining) {
			// No progress possible.
			out.Dropped = append(out.Dropped, kept...)
			return out
		}
		remaining = kept
	}
}

func touches(closure []string, set map[string]bool) bool {
	for _, name := range closure {
		if set[name] {
			return true
		}
	}
	return false
}

// queue is a min-heap of skill names keyed by (injectionOrder, catalog index).
type queue struct {
	catalog *skills.Catalog
	names   []string
}

func (q *queue) Len() int { return len(q.names) }

func (q *queue) Less(i, j int) bool {
	a, _ := q.catalog.Get(q.names[i])
	b, _ := q.catalog.Get(q.names[j])
	if a.Order() != b.Order() {
		return a.Order() < b.Order()
	}
	return q.catalog.Index(q.names[i]) < q.catalog.Index(q.names[j])
}

func (q *queue) Swap(i, j int) { q.names[i], q.names[j] = q.names[j], q.names[i] }

func (q *queue) Push(x any) { q.names = append(q.names, x.(string)) }

func (q *queue) Pop() any {
	n := len(q.names)
	name := q.names[n-1]
	q.names = q.names[:n-1]
	return name
}
