// Loading of build description files. A single file is read, parsed,
// early-phase processed and has its includes inlined; the transitive entry
// point then chases dependency references into other files, memoized so
// that dependency cycles between files are harmless. Includes are loaded
// afresh each time and are not checked for cycles.

package parse

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hew-build/hew/src/cli/logging"
	"github.com/hew-build/hew/src/core"
)

var log = logging.Log

// LoadOneBuildFile reads and parses one build file, applies early-phase
// variable expansion and condition evaluation, and inlines its includes.
// The caller's variables are not modified.
func LoadOneBuildFile(path string, variables map[string]core.Value) (*core.Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ParseFile(f, path)
	if err != nil {
		return nil, err
	}

	// Apply early variable expansions and condition evaluations.
	if err := core.ProcessVariablesAndConditionsInMap(m, false, core.CopyVariables(variables), path); err != nil {
		return nil, fmt.Errorf("%s while reading %s", err, path)
	}

	// Scan for includes and merge them in.
	if err := loadIncludesIntoMap(m, path, variables); err != nil {
		return nil, fmt.Errorf("%s while reading includes of %s", err, path)
	}
	return m, nil
}

// loadIncludesIntoMap expands an "includes" key by loading each referenced
// file and merging it into the map, then recurses looking for more.
// Included files handle their own nested includes while being loaded, so
// only the keys of this file's tree need visiting here.
func loadIncludesIntoMap(m *core.Map, path string, variables map[string]core.Value) error {
	if v, present := m.Get("includes"); present {
		includes, ok := v.(*core.List)
		if !ok {
			return &core.TypeMismatchError{Key: "includes", Expected: "list", Actual: v.TypeName()}
		}
		// Unhook the includes list, it's no longer needed.
		m.Delete("includes")

		for _, item := range includes.Items {
			include, ok := item.(core.Str)
			if !ok {
				return &core.TypeMismatchError{Key: "includes", Expected: "string", Actual: item.TypeName()}
			}
			// Include paths are relative to the file containing them.
			includePath := string(include)
			if !filepath.IsAbs(includePath) {
				includePath = filepath.Join(filepath.Dir(path), includePath)
			}
			log.Debug("Inlining %s into %s", includePath, path)
			included, err := LoadOneBuildFile(includePath, variables)
			if err != nil {
				return err
			}
			if err := core.MergeDicts(m, included, path, includePath); err != nil {
				return err
			}
		}
	}

	// Recurse into sub-maps, and into lists which may contain more maps.
	for _, k := range m.Keys() {
		switch v, _ := m.Get(k); child := v.(type) {
		case *core.Map:
			if err := loadIncludesIntoMap(child, path, variables); err != nil {
				return err
			}
		case *core.List:
			if err := loadIncludesIntoList(child, path, variables); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadIncludesIntoList recurses into a list looking for maps with includes.
func loadIncludesIntoList(l *core.List, path string, variables map[string]core.Value) error {
	for _, item := range l.Items {
		switch child := item.(type) {
		case *core.Map:
			if err := loadIncludesIntoMap(child, path, variables); err != nil {
				return err
			}
		case *core.List:
			if err := loadIncludesIntoList(child, path, variables); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadTargetBuildFile loads a build file into the given set, then chases
// the dependency references of its targets into the build files they name,
// recursively. Memoized on the normalized path, which also breaks include
// and dependency cycles between files; cycles between targets are caught
// later when the graph is flattened.
func LoadTargetBuildFile(path string, loaded *core.FileSet, variables map[string]core.Value) error {
	path = filepath.Clean(path)
	if loaded.Contains(path) {
		return nil
	}
	log.Debug("Loading build file %s", path)
	m, err := LoadOneBuildFile(path, variables)
	if err != nil {
		return err
	}
	loaded.Add(path, m)

	// Look for dependencies into other files. This happens after early
	// conditionals and expansion but before late ones - a dependencies
	// section inside a target_conditions block won't work.
	specs, present := m.GetList("targets")
	if !present {
		return nil
	}
	for _, item := range specs.Items {
		spec, ok := item.(*core.Map)
		if !ok {
			return &core.TypeMismatchError{Key: "targets", Expected: "map", Actual: item.TypeName(), Context: "in " + path}
		}
		deps, present := spec.GetList("dependencies")
		if !present {
			continue
		}
		for _, dep := range deps.Items {
			ref, ok := dep.(core.Str)
			if !ok {
				return &core.TypeMismatchError{Key: "dependencies", Expected: "string", Actual: dep.TypeName(), Context: "in " + path}
			}
			otherFile, _, _ := core.BuildFileAndTarget(path, string(ref))
			if err := LoadTargetBuildFile(otherFile, loaded, variables); err != nil {
				return err
			}
		}
	}
	return nil
}
