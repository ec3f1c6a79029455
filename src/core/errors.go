// The error kinds the evaluation pipeline can fail with. All of them are
// fatal to the run; they exist as types so callers can present diagnostics
// without string matching.

package core

import (
	"fmt"
	"strings"
)

// A TypeMismatchError is raised when a merge meets incompatible variants at
// a key, or a value of an unsupported variant turns up mid-pipeline.
type TypeMismatchError struct {
	Key      string // the key the offending value was found under, if any
	Expected string // the type that was required
	Actual   string // the type that was found
	Context  string // what was being done at the time
}

// Error implements the builtin error interface.
func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("Attempt to use value of type %s where %s is required", e.Actual, e.Expected)
	if e.Key != "" {
		msg += " for key " + e.Key
	}
	if e.Context != "" {
		msg += " " + e.Context
	}
	return msg
}

// An UndefinedVariableError is raised when an expansion site or a condition
// expression references a variable that isn't defined.
type UndefinedVariableError struct {
	Name  string // the variable that wasn't found
	Input string // the string or expression containing the reference
}

// Error implements the builtin error interface.
func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("Undefined variable %s in %s", e.Name, e.Input)
}

// An IncompatiblePoliciesError is raised when suffixed forms of the same
// list key that cannot coexist appear in the same map.
type IncompatiblePoliciesError struct {
	Key     string // the key being merged
	Sibling string // the incompatible sibling key found next to it
}

// Error implements the builtin error interface.
func (e *IncompatiblePoliciesError) Error() string {
	return fmt.Sprintf("Incompatible list policies %s and %s", e.Key, e.Sibling)
}

// A RuleError is raised for an invalid regex rule, an unrecognised rule
// action, or a reserved key collision in the rule engine.
type RuleError struct {
	Target string // the target the rules were being applied to
	Key    string // the rule key being processed
	Msg    string
}

// Error implements the builtin error interface.
func (e *RuleError) Error() string {
	return fmt.Sprintf("%s key %s: %s", e.Target, e.Key, e.Msg)
}

// A CircularDependencyError is raised when the dependency graph cannot be
// fully flattened. Remaining lists the targets left unvisited, which
// between them contain the cycle.
type CircularDependencyError struct {
	Remaining []string
}

// Error implements the builtin error interface.
func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("Dependency cycle detected involving:\n -> %s\nYou'll have to refactor your build files to avoid this cycle.",
		strings.Join(e.Remaining, "\n -> "))
}

// A MissingDependencyError is raised when a target's dependency list refers
// to a target that doesn't exist.
type MissingDependencyError struct {
	Target     string // the target whose dependency list is bad
	Dependency string // the qualified dependency that wasn't found
}

// Error implements the builtin error interface.
func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("Target %s depends on %s which was not found in any loaded build file", e.Target, e.Dependency)
}
