package skills

import (
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/jingkaihe/skillgate/pkg/security"
	"github.com/pkg/errors"
)

// Report is the outcome of validating raw catalog rules. Errors make the
// catalog unusable for some skills; Warnings are authoring smells that are
// tolerated at runtime.
type Report struct {
	Errors   error
	Warnings error
}

// OK reports whether validation found no errors.
func (r Report) OK() bool {
	return r.Errors == nil
}

// Validate checks raw rules for invalid names, duplicate declarations,
// references to unknown skills, dependency cycles and one-sided affinity.
func Validate(rules []Rule) Report {
	var errs, warns *multierror.Error

	seen := make(map[string]bool)
	valid := make([]Rule, 0, len(rules))
	for _, rule := range rules {
		if !security.ValidateName(rule.Name) {
			errs = multierror.Append(errs, errors.Errorf("invalid skill name %q", rule.Name))
			continue
		}
		if seen[rule.Name] {
			errs = multierror.Append(errs, errors.Errorf("skill %q declared more than once", rule.Name))
			continue
		}
		seen[rule.Name] = true
		if strings.TrimSpace(rule.Description) == "" {
			warns = multierror.Append(warns, errors.Errorf("skill %q has no description", rule.Name))
		}
		valid = append(valid, rule)
	}

	catalog := NewCatalog(valid)
	for _, rule := range catalog.Rules() {
		for _, dep := range rule.DependsOn {
			if dep == rule.Name {
				errs = multierror.Append(errs, errors.Errorf("skill %q depends on itself", rule.Name))
				continue
			}
			if !catalog.Has(dep) {
				errs = multierror.Append(errs, errors.Errorf("skill %q depends on unknown skill %q", rule.Name, dep))
			}
		}
		for _, other := range rule.AffinityWith {
			if !catalog.Has(other) {
				warns = multierror.Append(warns, errors.Errorf("skill %q declares affinity with unknown skill %q", rule.Name, other))
			}
		}
	}

	if cycle := catalog.FindCycle(catalog.Names()); cycle != nil && !isSelfLoop(cycle) {
		errs = multierror.Append(errs, errors.Errorf("dependency cycle: %s", strings.Join(cycle, " -> ")))
	}

	for _, pair := range OneSidedAffinities(catalog) {
		warns = multierror.Append(warns, errors.Errorf("affinity %s -> %s is one-sided", pair[0], pair[1]))
	}

	return Report{Errors: errs.ErrorOrNil(), Warnings: warns.ErrorOrNil()}
}

func isSelfLoop(cycle []string) bool {
	return len(cycle) == 2 && cycle[0] == cycle[1]
}
