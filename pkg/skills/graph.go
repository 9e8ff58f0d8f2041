package skills

// Closure returns roots plus every skill reachable from them through dependsOn,
// in discovery order. Names missing from the catalog are kept so callers can
// report them.
func (c *Catalog) Closure(roots []string) []string {
	seen := make(map[string]bool)
	var out []string
	var visit func(name string)
	visit = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
		rule, ok := c.rules[name]
		if !ok {
			return
		}
		for _, dep := range rule.DependsOn {
			visit(dep)
		}
	}
	for _, name := range roots {
		visit(name)
	}
	return out
}

// FindCycle returns one dependsOn cycle reachable from roots as a path whose
// first and last elements are equal, or nil when the subgraph is acyclic.
func (c *Catalog) FindCycle(roots []string) []string {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[string]int)
	var stack []string

	var visit func(name string) []string
	visit = func(name string) []string {
		switch state[name] {
		case done:
			return nil
		case inProgress:
			for i, n := range stack {
				if n == name {
					cycle := append([]string(nil), stack[i:]...)
					return append(cycle, name)
				}
			}
			return []string{name, name}
		}

		state[name] = inProgress
		stack = append(stack, name)
		if rule, ok := c.rules[name]; ok {
			for _, dep := range rule.DependsOn {
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}

	for _, name := range roots {
		if cycle := visit(name); cycle != nil {
			return cycle
		}
	}
	return nil
}

// OneSidedAffinities lists [from, to] pairs where from declares affinity with
// to but to does not declare it back. Pairs naming unknown skills are skipped.
func OneSidedAffinities(c *Catalog) [][2]string {
	var pairs [][2]string
	for _, name := range c.order {
		rule := c.rules[name]
		for _, other := range rule.AffinityWith {
			partner, ok := c.rules[other]
			if !ok || other == name {
				continue
			}
			if !partner.DeclaresAffinity(name) {
				pairs = append(pairs, [2]string{name, other})
			}
		}
	}
	return pairs
}
