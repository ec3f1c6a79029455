// Merging of build value trees. Lists and maps merge with copy semantics
// so that no structure is ever aliased between the source and destination
// trees; both may be mutated independently afterwards.

package core

import (
	"path/filepath"
	"strings"
)

// pathListKeys is the set of list keys whose string items are paths and get
// rewritten when merged across build files.
var pathListKeys = map[string]bool{
	"include_dirs":         true,
	"sources":              true,
	"xcode_framework_dirs": true,
}

// RelativePath returns a relative path that identifies path relative to
// relativeTo, assuming both are relative to the current directory.
func RelativePath(path, relativeTo string) string {
	if filepath.IsAbs(path) != filepath.IsAbs(relativeTo) {
		// If one of the paths is absolute, both need to be absolute.
		path, _ = filepath.Abs(path)
		relativeTo, _ = filepath.Abs(relativeTo)
	}
	rel, err := filepath.Rel(relativeTo, path)
	if err != nil {
		return filepath.Clean(path)
	}
	return rel
}

// rewritePath re-expresses a path relative to fromFile's directory as one
// relative to toFile's directory, normalised. Absolute paths pass through.
func rewritePath(item, toFile, fromFile string) string {
	if filepath.IsAbs(item) {
		return filepath.Clean(item)
	}
	return filepath.Join(RelativePath(filepath.Dir(fromFile), filepath.Dir(toFile)), item)
}

// MergeLists appends (or prepends, when appendItems is false) each item of
// from into to. Scalars are copied by value; maps and lists are deep-copied.
// When isPaths is true and the two files differ, string items are treated
// as paths relative to fromFile and rewritten to be relative to toFile.
// Prepending preserves source order: the first item of from ends up first.
func MergeLists(to, from *List, toFile, fromFile string, isPaths, appendItems bool) error {
	prependIndex := 0
	for _, item := range from.Items {
		var toItem Value
		switch v := item.(type) {
		case Str:
			if isPaths && toFile != fromFile {
				toItem = Str(rewritePath(string(v), toFile, fromFile))
			} else {
				toItem = v
			}
		case Int, Bool:
			toItem = item
		case *Map, *List:
			toItem = item.Copy()
		default:
			return &TypeMismatchError{Expected: "string, int, bool, list or map", Actual: item.TypeName(), Context: "merging list items"}
		}
		if appendItems {
			to.Items = append(to.Items, toItem)
		} else {
			to.Insert(prependIndex, toItem)
			prependIndex++
		}
	}
	return nil
}

// listMergePolicy returns the base key, the incompatible sibling keys, and
// whether items append (as opposed to prepend) for a list-valued from-key.
//
// If the from-key has this      ...the to-list will have this action
// character appended:...           applied when receiving the from-list:
//
//	=      replace
//	+      prepend
//	?      set, only if the to-list does not yet exist
//	(none) append
func listMergePolicy(key string) (base string, incompatible []string, appendItems bool) {
	switch {
	case strings.HasSuffix(key, "="):
		base = key[:len(key)-1]
		return base, []string{base, base + "?"}, true
	case strings.HasSuffix(key, "+"):
		base = key[:len(key)-1]
		return base, []string{base + "=", base + "?"}, false
	case strings.HasSuffix(key, "?"):
		base = key[:len(key)-1]
		return base, []string{base, base + "=", base + "+"}, true
	default:
		return key, []string{key + "=", key + "?"}, true
	}
}

// MergeDicts merges the entries of from into to. Scalars overwrite, maps
// merge recursively, and lists follow the key-suffix policies described on
// listMergePolicy. Matching keys holding different variants are an error.
func MergeDicts(to, from *Map, toFile, fromFile string) error {
	for _, k := range from.Keys() {
		v, _ := from.Get(k)
		if existing, present := to.Get(k); present && !SameVariant(existing, v) {
			return &TypeMismatchError{Key: k, Expected: existing.TypeName(), Actual: v.TypeName(), Context: "while merging maps"}
		}
		switch fromVal := v.(type) {
		case Str, Int, Bool:
			// Overwrite the existing value, if any. Cheap and easy.
			to.Set(k, fromVal)
		case *Map:
			// Recurse, guaranteeing copies will be made of anything that needs it.
			sub, present := to.GetMap(k)
			if !present {
				sub = NewMap()
				to.Set(k, sub)
			}
			if err := MergeDicts(sub, fromVal, toFile, fromFile); err != nil {
				return err
			}
		case *List:
			base, incompatible, appendItems := listMergePolicy(k)
			// Some combinations of merge policies appearing together are
			// meaningless; only append and prepend can coexist.
			for _, sibling := range incompatible {
				if from.Has(sibling) {
					return &IncompatiblePoliciesError{Key: k, Sibling: sibling}
				}
			}
			if strings.HasSuffix(k, "=") {
				to.Set(base, NewList())
			} else if existing, present := to.Get(base); present {
				if _, ok := existing.(*List); !ok {
					return &TypeMismatchError{Key: base, Expected: "list", Actual: existing.TypeName(), Context: "(" + k + ") while merging maps"}
				}
				if strings.HasSuffix(k, "?") {
					// The list is only merged if it doesn't already exist.
					continue
				}
			} else {
				to.Set(base, NewList())
			}
			toList, _ := to.GetList(base)
			if err := MergeLists(toList, fromVal, toFile, fromFile, pathListKeys[base], appendItems); err != nil {
				return err
			}
		default:
			return &TypeMismatchError{Key: k, Expected: "string, int, bool, list or map", Actual: v.TypeName(), Context: "while merging maps"}
		}
	}
	return nil
}
