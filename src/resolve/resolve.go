// Package resolve drives the evaluation pipeline: it loads build files,
// collects their targets, builds and flattens the dependency graph,
// propagates settings, fixes up static libraries, runs the late phase and
// the rule engine, and hands back the fully-resolved target table.
package resolve

import (
	"fmt"

	"github.com/hew-build/hew/src/cli/logging"
	"github.com/hew-build/hew/src/core"
	"github.com/hew-build/hew/src/parse"
)

var log = logging.Log

// A Result is what the core hands to a generator once resolution finishes.
type Result struct {
	// FlatList is the topological order of qualified targets; every target
	// appears after all of its dependencies. Generators that need
	// dependencies defined before dependents should emit in this order.
	FlatList []string
	// Targets maps qualified target names to their resolved specs.
	Targets *core.TargetTable
	// Data maps build file paths to their loaded contents.
	Data *core.FileSet
}

// Resolve runs the whole pipeline over the given build files.
// The variables mapping is the initial set available to every file; it is
// not modified. No partial result is ever returned: any failure aborts the
// run with an error carrying the context needed to diagnose it.
func Resolve(buildFiles []string, variables map[string]core.Value) (*Result, error) {
	// Load every target-containing build file reachable from the ones given.
	data := core.NewFileSet()
	for _, buildFile := range buildFiles {
		if err := parse.LoadTargetBuildFile(buildFile, data, variables); err != nil {
			return nil, err
		}
	}
	log.Debug("Loaded %d build files", data.Len())

	targets, err := collectTargets(data)
	if err != nil {
		return nil, err
	}

	// Building the dependency list also qualifies every dependency
	// reference in place, which all the later passes rely on.
	graph, flatList, err := core.BuildDependencyList(targets)
	if err != nil {
		return nil, err
	}
	log.Debug("Flattened %d targets", len(flatList))

	// Each file's settings map is inherited by its targets.
	if err := core.MergeFileSettings(data, targets); err != nil {
		return nil, err
	}

	if err := core.ApplyDependentSettings(flatList, targets, graph); err != nil {
		return nil, err
	}

	if err := core.AdjustStaticLibraryDependencies(flatList, targets, graph); err != nil {
		return nil, err
	}

	// Apply late variable expansions and condition evaluations.
	for _, target := range flatList {
		spec, _ := targets.Get(target)
		if err := core.ProcessVariablesAndConditionsInMap(spec, true, core.CopyVariables(variables), core.BuildFileOf(target)); err != nil {
			return nil, fmt.Errorf("%s while processing %s", err, target)
		}
	}

	// Apply exclusion (!) and regex (/) rules.
	for _, target := range flatList {
		spec, _ := targets.Get(target)
		if err := core.ProcessRules(target, spec); err != nil {
			return nil, err
		}
	}

	return &Result{FlatList: flatList, Targets: targets, Data: data}, nil
}

// collectTargets registers every target of every loaded file under its
// qualified name, validating the spec shape as it goes.
func collectTargets(data *core.FileSet) (*core.TargetTable, error) {
	targets := core.NewTargetTable()
	for _, path := range data.Paths() {
		m, _ := data.Get(path)
		if m.Has("target_conditions") {
			// Late-phase conditions only make sense within a target;
			// anywhere else they would never be evaluated.
			return nil, fmt.Errorf("%s: target_conditions is not allowed outside a target", path)
		}
		v, present := m.Get("targets")
		if !present {
			continue
		}
		specs, ok := v.(*core.List)
		if !ok {
			return nil, &core.TypeMismatchError{Key: "targets", Expected: "list", Actual: v.TypeName(), Context: "in " + path}
		}
		for _, item := range specs.Items {
			spec, ok := item.(*core.Map)
			if !ok {
				return nil, &core.TypeMismatchError{Key: "targets", Expected: "map", Actual: item.TypeName(), Context: "in " + path}
			}
			name, ok := spec.GetStr("name")
			if !ok {
				return nil, fmt.Errorf("%s: every target must have a string name", path)
			}
			typ, ok := spec.GetStr("type")
			if !ok || !core.IsTargetType(string(typ)) {
				return nil, fmt.Errorf("%s: target %s has missing or unknown type", path, name)
			}
			qualified := core.QualifiedTarget(path, string(name))
			if targets.Has(qualified) {
				return nil, fmt.Errorf("Duplicate target %s", qualified)
			}
			targets.Add(qualified, spec)
		}
	}
	log.Debug("Collected %d targets", targets.Len())
	return targets, nil
}
