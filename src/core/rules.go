// The list-rewriting rule engine. Runs over each target spec after the
// late phase, consuming exclusion lists ("sources!") and regex rule lists
// ("sources/") and rewriting the base lists they name. Lists are mutated
// mid-iteration throughout, so everything here walks with explicit index
// cursors.

package core

import (
	"regexp"
)

// ProcessRules applies exclusion and regex include/exclude rules to the
// lists of one spec. name identifies the spec in errors.
//
// An exclusion list is a key with a trailing "!", like "sources!"; every
// item in it is removed from the "sources" list and recorded in a
// "sources_excluded" list. Regex rules live under a trailing "/" and are
// [action, pattern] pairs applied in order with substring matching. An
// "exclude" rule removes matching items to the excluded list; an "include"
// rule makes matching items sticky - immune to every later exclusion - and
// resurrects matching items already excluded (appended, since their
// original position is gone). Rule keys are consumed; the excluded list is
// dropped again if nothing ended up in it.
func ProcessRules(name string, spec *Map) error {
	// Find the base lists that have rules attached. Collected up front
	// because processing adds and removes keys.
	var bases []string
	seen := map[string]bool{}
	for _, key := range spec.Keys() {
		operation := key[len(key)-1]
		if operation != '!' && operation != '/' {
			continue
		}
		v, _ := spec.Get(key)
		if _, ok := v.(*List); !ok {
			return &RuleError{Target: name, Key: key, Msg: "must be a list, not " + v.TypeName()}
		}
		base := key[:len(key)-1]
		baseVal, present := spec.Get(base)
		if !present {
			// A rule key with nothing to operate on; drop it silently.
			spec.Delete(key)
			continue
		}
		if _, ok := baseVal.(*List); !ok {
			return &RuleError{Target: name, Key: base, Msg: "must be a list, not " + baseVal.TypeName()}
		}
		if !seen[base] {
			seen[base] = true
			bases = append(bases, base)
		}
	}

	for _, base := range bases {
		if err := processRulesForList(name, spec, base); err != nil {
			return err
		}
	}
	return nil
}

func processRulesForList(name string, spec *Map, base string) error {
	list, _ := spec.GetList(base)

	excludedKey := base + "_excluded"
	if spec.Has(excludedKey) {
		return &RuleError{Target: name, Key: excludedKey, Msg: "must not be present before exclusion/regex rules run for " + base}
	}
	excluded := NewList()
	spec.Set(excludedKey, excluded)

	// Items in the included set are golden: nothing can exclude them again.
	included := NewList()

	if excludeList, present := spec.GetList(base + "!"); present {
		for _, item := range excludeList.Items {
			if included.Contains(item) {
				continue
			}
			// The item may appear more than once; remove every occurrence.
			removed := false
			for index := 0; index < len(list.Items); {
				if Equal(list.Items[index], item) {
					removed = true
					list.Remove(index)
				} else {
					index++
				}
			}
			if removed && !excluded.Contains(item) {
				excluded.Items = append(excluded.Items, item)
			}
		}
		spec.Delete(base + "!")
	}

	if regexList, present := spec.GetList(base + "/"); present {
		for _, ruleVal := range regexList.Items {
			rule, ok := ruleVal.(*List)
			if !ok || rule.Len() != 2 {
				return &RuleError{Target: name, Key: base + "/", Msg: "rules must be [action, pattern] pairs"}
			}
			action, actionOK := rule.Items[0].(Str)
			pattern, patternOK := rule.Items[1].(Str)
			if !actionOK || !patternOK {
				return &RuleError{Target: name, Key: base + "/", Msg: "rules must be [action, pattern] pairs of strings"}
			}
			if action != "exclude" && action != "include" {
				return &RuleError{Target: name, Key: base + "/", Msg: "unrecognized action " + string(action)}
			}
			re, err := regexp.Compile(string(pattern))
			if err != nil {
				return &RuleError{Target: name, Key: base + "/", Msg: "invalid pattern: " + err.Error()}
			}

			for index := 0; index < len(list.Items); {
				item, ok := list.Items[index].(Str)
				if !ok || !re.MatchString(string(item)) {
					index++
					continue
				}
				if action == "exclude" {
					if included.Contains(item) {
						// Something already said to include it; leave it be.
						index++
						continue
					}
					list.Remove(index)
					if !excluded.Contains(item) {
						excluded.Items = append(excluded.Items, item)
					}
					// The next item moved into this index; don't advance.
					continue
				}
				// include: keep it and protect it from future exclusion.
				if !included.Contains(item) {
					included.Items = append(included.Items, item)
				}
				index++
			}

			if action == "include" {
				// Matching items may have been excluded already; resurrect
				// them. The best that can be done is an append, since
				// where they came from is no longer known.
				for index := 0; index < len(excluded.Items); {
					item, ok := excluded.Items[index].(Str)
					if !ok || !re.MatchString(string(item)) {
						index++
						continue
					}
					excluded.Remove(index)
					list.Items = append(list.Items, item)
					if !included.Contains(item) {
						included.Items = append(included.Items, item)
					}
				}
			}
		}
		spec.Delete(base + "/")
	}

	if excluded.Len() == 0 {
		spec.Delete(excludedKey)
	}
	return nil
}
