package core

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapOf(pairs ...interface{}) *Map {
	m := NewMap()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i].(string), pairs[i+1].(Value))
	}
	return m
}

func strList(items ...string) *List {
	l := NewList()
	for _, item := range items {
		l.Items = append(l.Items, Str(item))
	}
	return l
}

func TestMergeScalarsOverwrite(t *testing.T) {
	to := mapOf("name", Str("old"), "count", Int(1))
	from := mapOf("name", Str("new"), "flag", Bool(true))
	assert.NoError(t, MergeDicts(to, from, "a.hew", "a.hew"))
	name, _ := to.GetStr("name")
	assert.Equal(t, Str("new"), name)
	flag, _ := to.Get("flag")
	assert.Equal(t, Bool(true), flag)
}

func TestMergeVariantMismatch(t *testing.T) {
	to := mapOf("name", Str("x"))
	from := mapOf("name", Int(1))
	err := MergeDicts(to, from, "a.hew", "a.hew")
	assert.Error(t, err)
	assert.IsType(t, &TypeMismatchError{}, err)
}

func TestMergeRecursesIntoMaps(t *testing.T) {
	to := mapOf("settings", mapOf("a", Str("1")))
	from := mapOf("settings", mapOf("b", Str("2")))
	assert.NoError(t, MergeDicts(to, from, "a.hew", "a.hew"))
	sub, _ := to.GetMap("settings")
	assert.Equal(t, []string{"a", "b"}, sub.Keys())
}

func TestMergeListAppendPolicy(t *testing.T) {
	to := mapOf("srcs", strList("x", "y"))
	from := mapOf("srcs", strList("a"))
	assert.NoError(t, MergeDicts(to, from, "a.hew", "a.hew"))
	srcs, _ := to.GetList("srcs")
	assert.Equal(t, strList("x", "y", "a"), srcs)
}

func TestMergeListPrependPolicy(t *testing.T) {
	// Prepending preserves source order: the first item from the source
	// ends up at the lowest index.
	to := mapOf("srcs", strList("x", "y"))
	from := mapOf("srcs+", strList("a", "b"))
	assert.NoError(t, MergeDicts(to, from, "a.hew", "a.hew"))
	srcs, _ := to.GetList("srcs")
	assert.Equal(t, strList("a", "b", "x", "y"), srcs)
}

func TestMergeListReplacePolicy(t *testing.T) {
	to := mapOf("srcs", strList("x", "y"))
	from := mapOf("srcs=", strList("c"))
	assert.NoError(t, MergeDicts(to, from, "a.hew", "a.hew"))
	srcs, _ := to.GetList("srcs")
	assert.Equal(t, strList("c"), srcs)
}

func TestMergeListConditionalPolicy(t *testing.T) {
	to := mapOf("srcs", strList("x"))
	from := mapOf("srcs?", strList("a"))
	assert.NoError(t, MergeDicts(to, from, "a.hew", "a.hew"))
	srcs, _ := to.GetList("srcs")
	assert.Equal(t, strList("x"), srcs, "existing list must be left alone")

	to = NewMap()
	assert.NoError(t, MergeDicts(to, from, "a.hew", "a.hew"))
	srcs, _ = to.GetList("srcs")
	assert.Equal(t, strList("a"), srcs, "absent list must be set")
}

func TestMergeConditionalPolicyOntoNonList(t *testing.T) {
	to := mapOf("srcs", Str("not a list"))
	from := mapOf("srcs?", strList("a"))
	err := MergeDicts(to, from, "a.hew", "a.hew")
	assert.Error(t, err)
	assert.IsType(t, &TypeMismatchError{}, err)
}

func TestMergeIncompatiblePolicies(t *testing.T) {
	from := mapOf("srcs+", strList("a"), "srcs", strList("b"), "srcs=", strList("c"))
	err := MergeDicts(NewMap(), from, "a.hew", "a.hew")
	assert.Error(t, err)
	assert.IsType(t, &IncompatiblePoliciesError{}, err)
}

func TestMergeListsCopySemantics(t *testing.T) {
	inner := mapOf("k", Str("v"))
	from := mapOf("actions", NewList(Value(inner)))
	to := NewMap()
	require.NoError(t, MergeDicts(to, from, "a.hew", "a.hew"))
	inner.Set("k", Str("changed"))
	actions, _ := to.GetList("actions")
	merged := actions.Items[0].(*Map)
	v, _ := merged.GetStr("k")
	assert.Equal(t, Str("v"), v, "merged maps must not alias the source")
}

func TestMergePathRewriting(t *testing.T) {
	to := mapOf("sources", strList())
	from := mapOf("sources", strList("x.cc", "sub/y.cc"))
	require.NoError(t, MergeDicts(to, from, "a.hew", filepath.Join("foo", "b.hew")))
	sources, _ := to.GetList("sources")
	assert.Equal(t, strList("foo/x.cc", "foo/sub/y.cc"), sources)
}

func TestMergeAbsolutePathsPassThrough(t *testing.T) {
	to := mapOf("include_dirs", strList())
	from := mapOf("include_dirs", strList("/usr/include"))
	require.NoError(t, MergeDicts(to, from, "a.hew", "foo/b.hew"))
	dirs, _ := to.GetList("include_dirs")
	assert.Equal(t, strList("/usr/include"), dirs)
}

func TestMergeNonPathListsNotRewritten(t *testing.T) {
	to := mapOf("defines", strList())
	from := mapOf("defines", strList("USE_FOO"))
	require.NoError(t, MergeDicts(to, from, "a.hew", "foo/b.hew"))
	defines, _ := to.GetList("defines")
	assert.Equal(t, strList("USE_FOO"), defines)
}

func TestPathRewritingRoundTrip(t *testing.T) {
	// A path merged from B into A and then back into B must identify the
	// same file as the original, once both are resolved against B's
	// directory.
	const fileA = "a.hew"
	const fileB = "sub/b.hew"
	original := "src/x.cc"

	inA := mapOf("sources", strList())
	require.NoError(t, MergeDicts(inA, mapOf("sources", strList(original)), fileA, fileB))
	backInB := mapOf("sources", strList())
	require.NoError(t, MergeDicts(backInB, inA, fileB, fileA))

	sources, _ := backInB.GetList("sources")
	roundTripped := string(sources.Items[0].(Str))
	resolve := func(s string) string { return filepath.Join(filepath.Dir(fileB), s) }
	assert.Equal(t, resolve(original), resolve(roundTripped))
}

func TestMergeCommutesOnDisjointKeys(t *testing.T) {
	a := mapOf("one", Str("1"), "two", strList("x"))
	b := mapOf("three", Int(3), "four", mapOf("k", Str("v")))

	ab := NewMap()
	require.NoError(t, MergeDicts(ab, a, "f.hew", "f.hew"))
	require.NoError(t, MergeDicts(ab, b, "f.hew", "f.hew"))
	ba := NewMap()
	require.NoError(t, MergeDicts(ba, b, "f.hew", "f.hew"))
	require.NoError(t, MergeDicts(ba, a, "f.hew", "f.hew"))

	for _, k := range ab.Keys() {
		v1, _ := ab.Get(k)
		v2, present := ba.Get(k)
		assert.True(t, present)
		assert.True(t, Equal(v1, v2), "values for %s differ", k)
	}
	assert.Equal(t, len(ab.Keys()), len(ba.Keys()))
}
