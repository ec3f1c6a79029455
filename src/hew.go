package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
	clilogging "github.com/peterebden/go-cli-init/v5/logging"

	"github.com/hew-build/hew/src/cli"
	"github.com/hew-build/hew/src/cli/logging"
	"github.com/hew-build/hew/src/core"
	"github.com/hew-build/hew/src/gen"
	"github.com/hew-build/hew/src/resolve"
)

var log = logging.Log

// Version of the tool. This is set to a more accurate figure at release time.
const Version = "0.4.0"

// BuildFileExtension is the extension build description files are found by
// when none are named on the command line.
const BuildFileExtension = ".hew"

var opts = struct {
	Usage     string
	Verbosity clilogging.Verbosity `short:"v" long:"verbosity" default:"warning" description:"Verbosity of output (error, warning, notice, info, debug)"`
	Format    string               `short:"f" long:"format" description:"Output format to generate"`
	Defines   []string             `short:"D" long:"define" value-name:"VAR=VAL" description:"Sets variable VAR to value VAL; without a value the variable is set to true"`
	NoConfig  bool                 `long:"no_config" description:"Don't look for or load a .hewconfig file"`

	DumpResolved bool `long:"dump_resolved" hidden:"true" description:"Dump the resolved target table to stdout instead of generating output"`

	Args struct {
		BuildFiles []string `positional-arg-name:"build_file" description:"Build files to process"`
	} `positional-args:"true"`
}{
	Usage: `
hew reads declarative build description files and emits native build files
(project files, make fragments) for the format of your choice.

It resolves cross-file references, conditional sections and variable
expansions, builds the target dependency graph and propagates settings
across it before handing the result to the chosen generator.
`,
}

func main() {
	cli.ParseFlagsOrDie("hew", Version, &opts)
	clilogging.InitLogging(opts.Verbosity)

	config := readConfig()
	if err := config.CheckVersion(Version); err != nil {
		log.Fatalf("%s", err)
	}

	format := opts.Format
	if format == "" {
		format = config.Hew.Generator
	}
	if format == "" {
		format = "make"
	}
	generator, err := gen.Lookup(format)
	if err != nil {
		log.Fatalf("%s", err)
	}

	// Precedence, lowest first: config, -D defines, GENERATOR, then the
	// generator's own defaults.
	variables := config.DefaultVariables()
	for name, v := range parseDefines(opts.Defines) {
		variables[name] = v
	}
	variables["GENERATOR"] = core.Str(format)
	for name, v := range generator.DefaultVariables() {
		variables[name] = v
	}

	buildFiles := opts.Args.BuildFiles
	if len(buildFiles) == 0 {
		buildFiles = findBuildFiles()
	}
	if len(buildFiles) == 0 {
		log.Fatalf("No build files given and none found in the current directory")
	}

	result, err := resolve.Resolve(buildFiles, variables)
	if err != nil {
		log.Fatalf("%s", err)
	}

	if opts.DumpResolved {
		for _, target := range result.FlatList {
			spec, _ := result.Targets.Get(target)
			fmt.Printf("%s:\n", target)
			spew.Dump(spec)
		}
		return
	}

	if err := generator.GenerateOutput(result.FlatList, result.Targets, result.Data); err != nil {
		log.Fatalf("Failed to generate output: %s", err)
	}
}

// parseDefines turns the repeated -D flags into variables.
// "-D var=val" sets var to val; a bare "-D var" sets it to true.
func parseDefines(defines []string) map[string]core.Value {
	variables := map[string]core.Value{}
	for _, define := range defines {
		if idx := strings.IndexByte(define, '='); idx != -1 {
			variables[define[:idx]] = core.Str(define[idx+1:])
		} else {
			variables[define] = core.Bool(true)
		}
	}
	return variables
}

// readConfig loads the repo config files, unless told not to.
func readConfig() *core.Configuration {
	if opts.NoConfig {
		return core.DefaultConfiguration()
	}
	config, err := core.ReadConfigFiles([]string{core.ConfigFileName, core.LocalConfigFileName})
	if err != nil {
		log.Fatalf("Error reading config: %s", err)
	}
	return config
}

// findBuildFiles returns the build files in the current directory, sorted.
func findBuildFiles() []string {
	entries, err := os.ReadDir(".")
	if err != nil {
		log.Fatalf("%s", err)
	}
	var buildFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == BuildFileExtension {
			buildFiles = append(buildFiles, entry.Name())
		}
	}
	sort.Strings(buildFiles)
	return buildFiles
}
