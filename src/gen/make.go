// The make generator. Emits a single Makefile.hew with one phony rule per
// target in dependency order. It is deliberately minimal - enough to drive
// real builds of simple trees and to exercise the full generator contract -
// rather than a production make back end.

package gen

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/hew-build/hew/src/core"
)

// MakefileName is the file the make generator writes.
const MakefileName = "Makefile.hew"

func init() {
	Register("make", &makeGenerator{})
}

type makeGenerator struct{}

// DefaultVariables implements the Generator interface.
func (g *makeGenerator) DefaultVariables() map[string]core.Value {
	return map[string]core.Value{
		"OS": core.Str(runtime.GOOS),
	}
}

// GenerateOutput implements the Generator interface.
func (g *makeGenerator) GenerateOutput(flatList []string, targets *core.TargetTable, data *core.FileSet) error {
	var buf bytes.Buffer
	buf.WriteString("# Generated by hew; do not edit by hand.\n\n")

	var result *multierror.Error
	names := make([]string, 0, len(flatList))
	for _, target := range flatList {
		name, err := ruleName(target)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		names = append(names, name)
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	fmt.Fprintf(&buf, "all: %s\n.PHONY: all %s\n", strings.Join(names, " "), strings.Join(names, " "))
	for i, target := range flatList {
		spec, _ := targets.Get(target)
		fmt.Fprintf(&buf, "\n%s:", names[i])
		if deps, present := spec.GetList("dependencies"); present {
			for _, dep := range deps.Items {
				name, err := ruleName(dep.String())
				if err != nil {
					return err
				}
				buf.WriteString(" " + name)
			}
		}
		if sources, present := spec.GetList("sources"); present {
			for _, src := range sources.Items {
				buf.WriteString(" " + src.String())
			}
		}
		typ, _ := spec.GetStr("type")
		fmt.Fprintf(&buf, "\n\t@echo %s %s\n", typ, target)
	}

	log.Info("Writing %s", MakefileName)
	return os.WriteFile(MakefileName, buf.Bytes(), 0644)
}

// ruleName converts a qualified target into something make will accept.
func ruleName(target string) (string, error) {
	name := strings.NewReplacer("/", "_", ":", "_", ".", "_").Replace(target)
	if name == "" {
		return "", fmt.Errorf("cannot derive a make rule name from %q", target)
	}
	return name, nil
}
