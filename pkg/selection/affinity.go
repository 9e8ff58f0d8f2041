package selection

import (
	"github.com/jingkaihe/skillgate/pkg/skills"
)

// FindAffinity returns companion skills for everything in toInject or
// acknowledged. A candidate is added when it is in the catalog, is not
// already injected, allows auto injection, and the link is declared by
// either side. Additions never count against slot limits.
func FindAffinity(toInject []string, acknowledged map[string]bool, catalog *skills.Catalog) []string {
	taken := newOrderedSet()
	for _, name := range toInject {
		taken.add(name)
	}

	sources := append([]string(nil), toInject...)
	for _, name := range catalog.Names() {
		if acknowledged[name] && !taken.has(name) {
			sources = append(sources, name)
		}
	}

	var added []string
	for _, source := range sources {
		rule, ok := catalog.Get(source)
		if !ok {
			continue
		}
		for _, candidate := range partners(source, rule, catalog) {
			if taken.has(candidate) {
				continue
			}
			partner, _ := catalog.Get(candidate)
			if !partner.ShouldAutoInject() {
				continue
			}
			taken.add(candidate)
			added = append(added, candidate)
		}
	}
	return added
}

// partners lists skills linked to source in either direction: those it
// names in affinityWith, then those naming it, in catalog order.
func partners(source string, rule *skills.Rule, catalog *skills.Catalog) []string {
	var out []string
	seen := map[string]bool{source: true}
	for _, other := range rule.AffinityWith {
		if catalog.Has(other) && !seen[other] {
			seen[other] = true
			out = append(out, other)
		}
	}
	for _, candidate := range catalog.Rules() {
		if !seen[candidate.Name] && candidate.DeclaresAffinity(source) {
			seen[candidate.Name] = true
			out = append(out, candidate.Name)
		}
	}
	return out
}
