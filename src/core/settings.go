// Transitive settings propagation and the static-library link fixup.
// Both walk the flattened order so anything that cascades along a chain of
// dependencies is picked up link by link.

package core

// dependentSettingsKeys are the recognised dependent-settings keys, in the
// order they are applied.
var dependentSettingsKeys = []string{
	"all_dependent_settings",
	"direct_dependent_settings",
	"link_settings",
}

// MergeFileSettings merges each build file's "settings" map into each of
// that file's targets. Runs once the graph is built, before
// dependent-settings propagation.
func MergeFileSettings(data *FileSet, targets *TargetTable) error {
	for _, path := range data.Paths() {
		buildFile, _ := data.Get(path)
		settings, present := buildFile.GetMap("settings")
		if !present {
			continue
		}
		specs, present := buildFile.GetList("targets")
		if !present {
			continue
		}
		for _, item := range specs.Items {
			spec, ok := item.(*Map)
			if !ok {
				continue // the collector has already validated these
			}
			if err := MergeDicts(spec, settings, path, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// ApplyDependentSettings propagates every dependent-settings kind across
// the graph. For each target, in flattened order, the relevant dependency
// closure is computed and any of those dependencies carrying the settings
// map gets it merged into the target, rewriting list paths from the
// dependency's build file to the target's.
func ApplyDependentSettings(flatList []string, targets *TargetTable, g *Graph) error {
	for _, key := range dependentSettingsKeys {
		if err := applyDependentSettings(key, flatList, targets, g); err != nil {
			return err
		}
	}
	return nil
}

func applyDependentSettings(key string, flatList []string, targets *TargetTable, g *Graph) error {
	for _, target := range flatList {
		spec, _ := targets.Get(target)
		node := g.Node(target)

		var dependencies []string
		switch key {
		case "all_dependent_settings":
			dependencies = node.DeepDependencies()
		case "direct_dependent_settings":
			dependencies = node.DirectDependencies()
		case "link_settings":
			dependencies = node.LinkDependencies(targets)
		}

		buildFile := BuildFileOf(target)
		for _, dependency := range dependencies {
			dependencySpec, _ := targets.Get(dependency)
			settings, present := dependencySpec.GetMap(key)
			if !present {
				continue
			}
			if err := MergeDicts(spec, settings, buildFile, BuildFileOf(dependency)); err != nil {
				return err
			}
		}
	}
	return nil
}

// AdjustStaticLibraryDependencies rewrites dependency lists so that every
// non-static-library target that transitively depends on a static library
// depends on it directly and absorbs its library list. Static libraries
// themselves end up with no dependencies or libraries at all; they don't
// link, so they don't need them.
func AdjustStaticLibraryDependencies(flatList []string, targets *TargetTable, g *Graph) error {
	for _, target := range flatList {
		spec, _ := targets.Get(target)
		if typ, _ := spec.GetStr("type"); typ != TypeStaticLibrary {
			continue
		}

		for _, dependent := range g.Node(target).DeepDependents() {
			dependentSpec, _ := targets.Get(dependent)
			if typ, _ := dependentSpec.GetStr("type"); typ == TypeStaticLibrary {
				continue
			}

			// Make the dependent depend on this library directly...
			deps, present := dependentSpec.GetList("dependencies")
			if !present {
				deps = NewList()
				dependentSpec.Set("dependencies", deps)
			}
			if !deps.Contains(Str(target)) {
				deps.Items = append(deps.Items, Str(target))
			}

			// ...and link against the libraries this library wants.
			if libraries, present := spec.GetList("libraries"); present {
				dependentLibraries, present := dependentSpec.GetList("libraries")
				if !present {
					dependentLibraries = NewList()
					dependentSpec.Set("libraries", dependentLibraries)
				}
				for _, library := range libraries.Items {
					if !dependentLibraries.Contains(library) {
						dependentLibraries.Items = append(dependentLibraries.Items, library.Copy())
					}
				}
			}
		}

		spec.Delete("dependencies")
		spec.Delete("libraries")
	}
	return nil
}
