package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTargets builds a target table from (qualified name, type, deps...)
// tuples. Dependencies are given unqualified, as they'd appear in a file.
func makeTargets(specs ...interface{}) *TargetTable {
	targets := NewTargetTable()
	for i := 0; i < len(specs); i += 3 {
		name := specs[i].(string)
		spec := NewMap()
		spec.Set("name", Str(TargetNameOf(name)))
		spec.Set("type", Str(specs[i+1].(string)))
		if deps := specs[i+2].([]string); len(deps) > 0 {
			spec.Set("dependencies", strList(deps...))
		}
		targets.Add(name, spec)
	}
	return targets
}

func TestSimpleChain(t *testing.T) {
	targets := makeTargets(
		"a.hew:exe", TypeExecutable, []string{"lib"},
		"a.hew:lib", TypeStaticLibrary, []string{},
	)
	_, flatList, err := BuildDependencyList(targets)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.hew:lib", "a.hew:exe"}, flatList)
}

func TestDependenciesAreQualifiedInPlace(t *testing.T) {
	targets := makeTargets(
		"sub/a.hew:exe", TypeExecutable, []string{"lib", "../b.hew:other"},
		"sub/a.hew:lib", TypeStaticLibrary, []string{},
		"b.hew:other", TypeNone, []string{},
	)
	_, _, err := BuildDependencyList(targets)
	require.NoError(t, err)
	spec, _ := targets.Get("sub/a.hew:exe")
	deps, _ := spec.GetList("dependencies")
	assert.Equal(t, strList("sub/a.hew:lib", "b.hew:other"), deps)
}

func TestTopologicalOrder(t *testing.T) {
	targets := makeTargets(
		"a.hew:top", TypeExecutable, []string{"mid1", "mid2"},
		"a.hew:mid1", TypeStaticLibrary, []string{"low"},
		"a.hew:mid2", TypeStaticLibrary, []string{"low"},
		"a.hew:low", TypeStaticLibrary, []string{},
	)
	g, flatList, err := BuildDependencyList(targets)
	require.NoError(t, err)
	index := map[string]int{}
	for i, target := range flatList {
		index[target] = i
	}
	for _, target := range targets.Names() {
		for _, dep := range g.Node(target).DirectDependencies() {
			assert.Less(t, index[dep], index[target], "%s must come after %s", target, dep)
		}
	}
}

func TestFlattenIsDeterministic(t *testing.T) {
	targets := makeTargets(
		"a.hew:exe", TypeExecutable, []string{"b", "c"},
		"a.hew:b", TypeStaticLibrary, []string{},
		"a.hew:c", TypeStaticLibrary, []string{},
	)
	_, flatList, err := BuildDependencyList(targets)
	require.NoError(t, err)
	// Tie-breaking follows insertion order into the ready queue.
	assert.Equal(t, []string{"a.hew:b", "a.hew:c", "a.hew:exe"}, flatList)
	// Building and flattening the same graph again yields the same list.
	_, again, err := BuildDependencyList(targets)
	require.NoError(t, err)
	assert.Equal(t, flatList, again)
}

func TestCycleDetection(t *testing.T) {
	targets := makeTargets(
		"a.hew:x", TypeNone, []string{"y"},
		"a.hew:y", TypeNone, []string{"x"},
	)
	_, _, err := BuildDependencyList(targets)
	require.Error(t, err)
	circ, ok := err.(*CircularDependencyError)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"a.hew:x", "a.hew:y"}, circ.Remaining)
}

func TestCycleDownstreamOfValidTargets(t *testing.T) {
	targets := makeTargets(
		"a.hew:ok", TypeNone, []string{},
		"a.hew:x", TypeNone, []string{"y"},
		"a.hew:y", TypeNone, []string{"x"},
	)
	_, _, err := BuildDependencyList(targets)
	require.Error(t, err)
	circ := err.(*CircularDependencyError)
	assert.NotContains(t, circ.Remaining, "a.hew:ok")
}

func TestMissingDependency(t *testing.T) {
	targets := makeTargets("a.hew:exe", TypeExecutable, []string{"nope"})
	_, _, err := BuildDependencyList(targets)
	require.Error(t, err)
	missing, ok := err.(*MissingDependencyError)
	require.True(t, ok)
	assert.Equal(t, "a.hew:nope", missing.Dependency)
}

func TestDeepDependencies(t *testing.T) {
	targets := makeTargets(
		"a.hew:exe", TypeExecutable, []string{"mid"},
		"a.hew:mid", TypeStaticLibrary, []string{"low"},
		"a.hew:low", TypeStaticLibrary, []string{},
	)
	g, _, err := BuildDependencyList(targets)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.hew:mid"}, g.Node("a.hew:exe").DirectDependencies())
	assert.Equal(t, []string{"a.hew:mid", "a.hew:low"}, g.Node("a.hew:exe").DeepDependencies())
	assert.Equal(t, []string{"a.hew:mid", "a.hew:exe"}, g.Node("a.hew:low").DeepDependents())
}

func TestLinkDependencies(t *testing.T) {
	// exe -> lib1 -> lib2 -> dll -> lib3; the link closure of exe stops at
	// the shared library, which links its own closure separately.
	targets := makeTargets(
		"a.hew:exe", TypeExecutable, []string{"lib1"},
		"a.hew:lib1", TypeStaticLibrary, []string{"lib2"},
		"a.hew:lib2", TypeStaticLibrary, []string{"dll"},
		"a.hew:dll", TypeSharedLibrary, []string{"lib3"},
		"a.hew:lib3", TypeStaticLibrary, []string{},
	)
	g, _, err := BuildDependencyList(targets)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.hew:exe", "a.hew:lib1", "a.hew:lib2"},
		g.Node("a.hew:exe").LinkDependencies(targets))
	assert.Equal(t, []string{"a.hew:dll", "a.hew:lib3"},
		g.Node("a.hew:dll").LinkDependencies(targets))
	// A non-linkable target has no link closure of its own.
	assert.Empty(t, g.Node("a.hew:lib1").LinkDependencies(targets))
}

func TestLinkDependents(t *testing.T) {
	targets := makeTargets(
		"a.hew:exe", TypeExecutable, []string{"lib1"},
		"a.hew:dll", TypeSharedLibrary, []string{"lib1"},
		"a.hew:lib1", TypeStaticLibrary, []string{"lib2"},
		"a.hew:lib2", TypeStaticLibrary, []string{},
	)
	g, _, err := BuildDependencyList(targets)
	require.NoError(t, err)
	// lib2's object code ends up in both final binaries, via lib1.
	assert.ElementsMatch(t, []string{"a.hew:exe", "a.hew:dll"},
		g.Node("a.hew:lib2").LinkDependents(targets))
	// A linkable target is its own answer.
	assert.Equal(t, []string{"a.hew:exe"}, g.Node("a.hew:exe").LinkDependents(targets))
}
