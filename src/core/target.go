// Qualified target names. A target is referenced as "path:name", or just
// "name" for a target in the same build file; once qualified it is always
// the pair "build_file_path:target_name" with the path normalised.

package core

import (
	"path/filepath"
	"strings"
)

// The closed set of target types.
const (
	TypeExecutable     = "executable"
	TypeSharedLibrary  = "shared_library"
	TypeStaticLibrary  = "static_library"
	TypeLoadableModule = "loadable_module"
	TypeNone           = "none"
)

// targetTypes is the set of types a target spec may declare.
var targetTypes = map[string]bool{
	TypeExecutable:     true,
	TypeSharedLibrary:  true,
	TypeStaticLibrary:  true,
	TypeLoadableModule: true,
	TypeNone:           true,
}

// IsTargetType returns true if the given string is a known target type.
func IsTargetType(typ string) bool {
	return targetTypes[typ]
}

// IsLinkable returns true if targets of the given type are produced by a
// linker. Only linkable targets gather a closure of static libraries.
func IsLinkable(typ string) bool {
	return typ == TypeExecutable || typ == TypeSharedLibrary
}

// BuildFileAndTarget splits a target reference into the build file it lives
// in, the bare target name, and the qualified form of the reference.
// A reference with no path part refers to buildFile itself. A relative path
// part is relative to the directory containing buildFile; an absolute one
// is used as-is. Either way the result is normalised, so qualified names
// compare equal regardless of how the reference was spelled.
func BuildFileAndTarget(buildFile, target string) (string, string, string) {
	if idx := strings.IndexByte(target, ':'); idx != -1 {
		rel := target[:idx]
		target = target[idx+1:]
		if filepath.IsAbs(rel) {
			buildFile = filepath.Clean(rel)
		} else {
			buildFile = filepath.Join(filepath.Dir(buildFile), rel)
		}
	}
	return buildFile, target, buildFile + ":" + target
}

// QualifiedTarget returns the qualified form of a target reference made
// from the given build file.
func QualifiedTarget(buildFile, target string) string {
	_, _, qualified := BuildFileAndTarget(buildFile, target)
	return qualified
}

// BuildFileOf returns the build file part of an already-qualified target.
func BuildFileOf(qualified string) string {
	file, _, _ := BuildFileAndTarget("", qualified)
	return file
}

// TargetNameOf returns the bare name part of an already-qualified target.
func TargetNameOf(qualified string) string {
	_, name, _ := BuildFileAndTarget("", qualified)
	return name
}

// A TargetTable maps qualified target names to their specs.
// Iteration via Names follows insertion order.
type TargetTable struct {
	names []string
	specs map[string]*Map
}

// NewTargetTable creates a new empty target table.
func NewTargetTable() *TargetTable {
	return &TargetTable{specs: map[string]*Map{}}
}

// Add registers a spec under its qualified name.
func (t *TargetTable) Add(name string, spec *Map) {
	if _, present := t.specs[name]; !present {
		t.names = append(t.names, name)
	}
	t.specs[name] = spec
}

// Get returns the spec registered under the given qualified name.
func (t *TargetTable) Get(name string) (*Map, bool) {
	spec, present := t.specs[name]
	return spec, present
}

// Has returns true if a spec is registered under the given qualified name.
func (t *TargetTable) Has(name string) bool {
	_, present := t.specs[name]
	return present
}

// Names returns the qualified names in insertion order.
func (t *TargetTable) Names() []string {
	return append([]string{}, t.names...)
}

// Len returns the number of registered targets.
func (t *TargetTable) Len() int { return len(t.names) }

// TypeOf returns the declared type of the named target, or "" if the target
// is unknown or has no string type.
func (t *TargetTable) TypeOf(name string) string {
	spec, present := t.specs[name]
	if !present {
		return ""
	}
	typ, _ := spec.GetStr("type")
	return string(typ)
}
