// Variable expansion and conditional evaluation. This runs twice over the
// life of a build file: the early phase at load time (the "<(...)" sigil and
// the "conditions" key) and the late phase per target once the dependency
// graph is settled (the ">(...)" sigil and "target_conditions").

package core

import (
	"github.com/peterebden/go-deferred-regex"
)

var earlyVariableRe = deferredregex.DeferredRegex{Re: `<\((.*?)\)`}
var lateVariableRe = deferredregex.DeferredRegex{Re: `>\((.*?)\)`}

// CopyVariables returns a copy of a variables mapping. Each descent into a
// child map gets one so a child can never modify its parent's variables.
func CopyVariables(variables map[string]Value) map[string]Value {
	c := make(map[string]Value, len(variables))
	for k, v := range variables {
		c[k] = v
	}
	return c
}

// ExpandVariables expands every expansion site for the current phase in the
// input string. Substituted text is never rescanned for further sites, so a
// variable value containing a sigil passes through untouched.
func ExpandVariables(input string, isLate bool, variables map[string]Value) (string, error) {
	re := &earlyVariableRe
	if isLate {
		re = &lateVariableRe
	}
	var expandErr error
	output := re.ReplaceAllStringFunc(input, func(site string) string {
		name := site[2 : len(site)-1]
		v, present := variables[name]
		if !present {
			if expandErr == nil {
				expandErr = &UndefinedVariableError{Name: name, Input: input}
			}
			return site
		}
		return v.String()
	})
	if expandErr != nil {
		return "", expandErr
	}
	return output, nil
}

// loadAutomaticVariables defines a variable "_k" for every scalar-valued
// key k of the map.
func loadAutomaticVariables(variables map[string]Value, m *Map) {
	for _, k := range m.Keys() {
		switch v, _ := m.Get(k); v.(type) {
		case Str, Int:
			variables["_"+k] = v
		}
	}
}

// loadVariablesFromVariablesMap loads the map's "variables" sub-map, if it
// has one, into the variables mapping.
func loadVariablesFromVariablesMap(variables map[string]Value, m *Map) error {
	sub, present := m.GetMap("variables")
	if !present {
		return nil
	}
	for _, k := range sub.Keys() {
		switch v, _ := sub.Get(k); v.(type) {
		case Str, Int, Bool:
			variables[k] = v
		default:
			return &TypeMismatchError{Key: k, Expected: "string, int or bool", Actual: v.TypeName(), Context: "in a variables block"}
		}
	}
	return nil
}

// conditionsKeyFor returns the key holding condition clauses for a phase.
func conditionsKeyFor(isLate bool) string {
	if isLate {
		return "target_conditions"
	}
	return "conditions"
}

// processConditions consumes and deletes the current phase's conditions key
// from the map, evaluating each clause and merging the selected branch back
// into the map. Branches are fully processed (expansion and nested
// conditions) before merging.
func processConditions(m *Map, isLate bool, variables map[string]Value, buildFile string) error {
	conditionsKey := conditionsKeyFor(isLate)
	v, present := m.Get(conditionsKey)
	if !present {
		return nil
	}
	clauses, ok := v.(*List)
	if !ok {
		return &TypeMismatchError{Key: conditionsKey, Expected: "list", Actual: v.TypeName()}
	}
	// Unhook the conditions list, it's no longer needed.
	m.Delete(conditionsKey)

	for _, clause := range clauses.Items {
		parts, ok := clause.(*List)
		if !ok {
			return &TypeMismatchError{Key: conditionsKey, Expected: "list", Actual: clause.TypeName(), Context: "as a condition clause"}
		}
		if parts.Len() != 2 && parts.Len() != 3 {
			return &TypeMismatchError{Key: conditionsKey, Expected: "clause of length 2 or 3", Actual: parts.String()}
		}
		condExpr, ok := parts.Items[0].(Str)
		if !ok {
			return &TypeMismatchError{Key: conditionsKey, Expected: "string", Actual: parts.Items[0].TypeName(), Context: "as a condition expression"}
		}
		trueMap, ok := parts.Items[1].(*Map)
		if !ok {
			return &TypeMismatchError{Key: conditionsKey, Expected: "map", Actual: parts.Items[1].TypeName(), Context: "as a condition branch"}
		}
		var falseMap *Map
		if parts.Len() == 3 {
			if falseMap, ok = parts.Items[2].(*Map); !ok {
				return &TypeMismatchError{Key: conditionsKey, Expected: "map", Actual: parts.Items[2].TypeName(), Context: "as a condition branch"}
			}
		}

		result, err := EvalCondition(string(condExpr), variables)
		if err != nil {
			return err
		}
		mergeMap := trueMap
		if !result {
			mergeMap = falseMap
		}
		if mergeMap == nil {
			continue
		}
		// Process the branch in full first so nested conditions and
		// expansion sites inside it are resolved before merging.
		if err := ProcessVariablesAndConditionsInMap(mergeMap, isLate, CopyVariables(variables), buildFile); err != nil {
			return err
		}
		// Everything in the branch comes from the same build file as the
		// enclosing map, so no path rewriting happens in this merge.
		if err := MergeDicts(m, mergeMap, buildFile, buildFile); err != nil {
			return err
		}
	}
	return nil
}

// ProcessVariablesAndConditionsInMap handles all variable expansion and
// conditional evaluation within one map, recursing into children.
//
// Within the map the order is: load automatics, process and load the
// "variables" sub-map, expand string values, reload, process conditions,
// reload again, then recurse. Conditions run after expansion so they see
// expanded values, but before recursion so variables they introduce reach
// child scopes. A consequence worth knowing: a conditions block that
// introduces a "variables" sub-map does not make those variables visible in
// the enclosing map, only in children; nest the conditions inside a
// "variables" block to get that effect.
//
// The caller keeps ownership of the variables mapping passed in; it will be
// modified, so pass a copy where that matters. Child maps always receive
// copies; child lists share the enclosing map's variables.
func ProcessVariablesAndConditionsInMap(m *Map, isLate bool, variables map[string]Value, buildFile string) error {
	loadAutomaticVariables(variables, m)

	if sub, present := m.GetMap("variables"); present {
		// Handle the variables map first so that references within it are
		// resolved before its entries are used as variables. It gets a copy
		// without the automatics this map would otherwise contribute.
		if err := ProcessVariablesAndConditionsInMap(sub, isLate, CopyVariables(variables), buildFile); err != nil {
			return err
		}
	}
	if err := loadVariablesFromVariablesMap(variables, m); err != nil {
		return err
	}

	for _, k := range m.Keys() {
		if k == "variables" {
			continue
		}
		if s, ok := m.GetStr(k); ok {
			expanded, err := ExpandVariables(string(s), isLate, variables)
			if err != nil {
				return err
			}
			m.Set(k, Str(expanded))
		}
	}

	// Expansion may have changed values that automatics or the variables
	// map were loaded from. Reload.
	loadAutomaticVariables(variables, m)
	if err := loadVariablesFromVariablesMap(variables, m); err != nil {
		return err
	}

	if err := processConditions(m, isLate, variables, buildFile); err != nil {
		return err
	}

	// Conditions may have merged in new values; reload once more before
	// descending so children see the final state.
	loadAutomaticVariables(variables, m)
	if err := loadVariablesFromVariablesMap(variables, m); err != nil {
		return err
	}

	for _, k := range m.Keys() {
		if k == "variables" {
			continue
		}
		switch v, _ := m.Get(k); child := v.(type) {
		case Str, Int, Bool:
			// Strings were expanded above; other scalars have nothing to do.
		case *Map:
			if err := ProcessVariablesAndConditionsInMap(child, isLate, CopyVariables(variables), buildFile); err != nil {
				return err
			}
		case *List:
			if err := ProcessVariablesAndConditionsInList(child, isLate, variables, buildFile); err != nil {
				return err
			}
		default:
			return &TypeMismatchError{Key: k, Expected: "string, int, bool, list or map", Actual: v.TypeName()}
		}
	}
	return nil
}

// ProcessVariablesAndConditionsInList expands string items and recurses
// into map and list items. The list itself cannot contribute variables, so
// the enclosing scope's mapping is shared; maps within it copy on descent.
func ProcessVariablesAndConditionsInList(l *List, isLate bool, variables map[string]Value, buildFile string) error {
	for i := 0; i < len(l.Items); i++ {
		switch item := l.Items[i].(type) {
		case *Map:
			if err := ProcessVariablesAndConditionsInMap(item, isLate, CopyVariables(variables), buildFile); err != nil {
				return err
			}
		case *List:
			if err := ProcessVariablesAndConditionsInList(item, isLate, variables, buildFile); err != nil {
				return err
			}
		case Str:
			expanded, err := ExpandVariables(string(item), isLate, variables)
			if err != nil {
				return err
			}
			l.Items[i] = Str(expanded)
		case Int, Bool:
		default:
			return &TypeMismatchError{Expected: "string, int, bool, list or map", Actual: item.TypeName(), Context: "as a list item"}
		}
	}
	return nil
}
