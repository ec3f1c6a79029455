// The dump generator. It writes one <build_file>.hewd next to each input
// build file containing that file's slice of the resolved target table as
// JSON, with map keys in their original order so output is byte-for-byte
// reproducible. Mostly useful for debugging build files and as the
// reference consumer of the generator interface.

package gen

import (
	"encoding/json"
	"os"

	"github.com/hashicorp/go-multierror"

	"github.com/hew-build/hew/src/core"
)

func init() {
	Register("dump", &dumpGenerator{})
}

type dumpGenerator struct{}

// DefaultVariables implements the Generator interface.
func (g *dumpGenerator) DefaultVariables() map[string]core.Value {
	return map[string]core.Value{}
}

// GenerateOutput implements the Generator interface.
// A failure on one file doesn't stop the others; all errors are reported.
func (g *dumpGenerator) GenerateOutput(flatList []string, targets *core.TargetTable, data *core.FileSet) error {
	var result *multierror.Error
	for _, path := range data.Paths() {
		if err := g.dumpFile(path, flatList, targets); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func (g *dumpGenerator) dumpFile(path string, flatList []string, targets *core.TargetTable) error {
	fileTargets := core.NewList()
	specs := core.NewMap()
	for _, target := range flatList {
		if core.BuildFileOf(target) != path {
			continue
		}
		fileTargets.Items = append(fileTargets.Items, core.Str(target))
		spec, _ := targets.Get(target)
		specs.Set(target, spec)
	}
	out := core.NewMap()
	out.Set("flat_list", fileTargets)
	out.Set("targets", specs)

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	outPath := path + ".hewd"
	log.Info("Writing %s", outPath)
	return os.WriteFile(outPath, append(b, '\n'), 0644)
}
