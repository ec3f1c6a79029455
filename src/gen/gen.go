// Package gen defines the interface between the resolver core and the
// back-end generators, and the registry they're looked up in by name.
package gen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hew-build/hew/src/cli/logging"
	"github.com/hew-build/hew/src/core"
)

var log = logging.Log

// A Generator consumes the fully-resolved target table and produces native
// build files of some flavour.
type Generator interface {
	// DefaultVariables returns the variables this generator contributes to
	// the initial set, before any build file is loaded.
	DefaultVariables() map[string]core.Value
	// GenerateOutput emits the native build files. flatList is the
	// topological order of qualified targets, targets the resolved specs,
	// and data the loaded build files.
	GenerateOutput(flatList []string, targets *core.TargetTable, data *core.FileSet) error
}

// A GeneratorNotFoundError is returned when a generator name doesn't resolve.
type GeneratorNotFoundError struct {
	Name  string
	Known []string
}

// Error implements the builtin error interface.
func (e *GeneratorNotFoundError) Error() string {
	return fmt.Sprintf("Unknown generator %s; available generators are: %s", e.Name, strings.Join(e.Known, ", "))
}

var generators = map[string]Generator{}

// Register makes a generator available under the given name.
// Registering the same name twice is a programming error.
func Register(name string, g Generator) {
	if _, present := generators[name]; present {
		log.Fatalf("Generator %s registered twice", name)
	}
	generators[name] = g
}

// Lookup returns the generator registered under the given name.
func Lookup(name string) (Generator, error) {
	if g, present := generators[name]; present {
		return g, nil
	}
	return nil, &GeneratorNotFoundError{Name: name, Known: Names()}
}

// Names returns the names of all registered generators, sorted.
func Names() []string {
	names := make([]string, 0, len(generators))
	for name := range generators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
