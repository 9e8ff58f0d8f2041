package resolver

import (
	"testing"

	"github.com/jingkaihe/skillgate/pkg/skills"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestResolve_Chain(t *testing.T) {
	catalog := skills.NewCatalog([]skills.Rule{
		{Name: "a", DependsOn: []string{"b"}},
		{Name: "b", DependsOn: []string{"c"}},
		{Name: "c"},
	})

	order, err := Resolve([]string{"a"}, catalog)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, order)

	again, err := Resolve(order, catalog)
	require.NoError(t, err)
	assert.Equal(t, order, again)
}

func TestResolve_TieBreaks(t *testing.T) {
	catalog := skills.NewCatalog([]skills.Rule{
		{Name: "late", InjectionOrder: intPtr(90)},
		{Name: "first-declared"},
		{Name: "second-declared"},
		{Name: "early", InjectionOrder: intPtr(10), DependsOn: []string{"late"}},
	})

	order, err := Resolve([]string{"second-declared", "early", "first-declared"}, catalog)
	require.NoError(t, err)
	assert.Equal(t, []string{"first-declared", "second-declared", "late", "early"}, order)

	shuffled, err := Resolve([]string{"first-declared", "early", "second-declared"}, catalog)
	require.NoError(t, err)
	assert.Equal(t, order, shuffled)

	again, err := Resolve(order, catalog)
	require.NoError(t, err)
	assert.Equal(t, order, again)
}

func TestResolve_SharedAndUnknownDependencies(t *testing.T) {
	catalog := skills.NewCatalog([]skills.Rule{
		{Name: "api", DependsOn: []string{"base", "base", "ghost"}},
		{Name: "svc", DependsOn: []string{"base"}},
		{Name: "base"},
	})

	order, err := Resolve([]string{"svc", "api", "missing"}, catalog)
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "api", "svc"}, order)

	order, err = Resolve(nil, catalog)
	require.NoError(t, err)
	assert.Empty(t, order)
}

func TestResolve_Cycle(t *testing.T) {
	catalog := skills.NewCatalog([]skills.Rule{
		{Name: "a", DependsOn: []string{"b"}},
		{Name: "b", DependsOn: []string{"c"}},
		{Name: "c", DependsOn: []string{"a"}},
		{Name: "self", DependsOn: []string{"self"}},
	})

	_, err := Resolve([]string{"a"}, catalog)
	var cycleErr *CycleError
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycleErr.Cycle)
	assert.Contains(t, err.Error(), "a -> b -> c -> a")

	_, err = Resolve([]string{"self"}, catalog)
	require.ErrorAs(t, err, &cycleErr)
	assert.Equal(t, []string{"self", "self"}, cycleErr.Cycle)
}

func TestResolveAcyclic_DropsAffectedSubset(t *testing.T) {
	catalog := skills.NewCatalog([]skills.Rule{
		{Name: "x", DependsOn: []string{"y"}},
		{Name: "y", DependsOn: []string{"x"}},
		{Name: "uses-cycle", DependsOn: []string{"x"}},
		{Name: "healthy", DependsOn: []string{"base"}},
		{Name: "base"},
	})

	outcome := ResolveAcyclic([]string{"uses-cycle", "healthy"}, catalog)
	assert.Equal(t, []string{"base", "healthy"}, outcome.Order)
	assert.Equal(t, []string{"uses-cycle"}, outcome.Dropped)
	require.Len(t, outcome.Cycles, 1)

	outcome = ResolveAcyclic([]string{"healthy"}, catalog)
	assert.Equal(t, []string{"base", "healthy"}, outcome.Order)
	assert.Empty(t, outcome.Dropped)
	assert.Empty(t, outcome.Cycles)
}
