// The target dependency graph. The graph is built once all build files are
// loaded, flattened into the canonical dependencies-before-dependents order,
// and then queried for the various dependency closures the settings
// propagator and the static-library fixup need.

package core

// A DepNode is one node of the dependency graph.
// Ref is the qualified target the node stands for; the synthetic root, the
// implicit dependency of every target with no declared dependencies, has an
// empty ref and is never exposed outside this package.
type DepNode struct {
	ref          string
	dependencies []*DepNode
	dependents   []*DepNode
}

// Ref returns the qualified target this node stands for.
func (n *DepNode) Ref() string { return n.ref }

// A Graph holds the dependency nodes for a set of targets, keyed by
// qualified target name.
type Graph struct {
	nodes map[string]*DepNode
	order []string
	root  *DepNode
}

// Node returns the node for the given qualified target.
func (g *Graph) Node(target string) *DepNode {
	return g.nodes[target]
}

// Len returns the number of real (non-root) nodes in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// BuildDependencyList builds the dependency graph for a target table and
// flattens it. As a side effect every entry of every target's
// "dependencies" list is rewritten in place to its qualified form, which
// makes all later membership checks trivial.
// Returns the graph and the flattened order.
func BuildDependencyList(targets *TargetTable) (*Graph, []string, error) {
	g := &Graph{
		nodes: make(map[string]*DepNode, targets.Len()),
		order: targets.Names(),
		root:  &DepNode{},
	}
	for _, target := range g.order {
		g.nodes[target] = &DepNode{ref: target}
	}

	// Set up the dependency links. Targets that have no dependencies are
	// treated as dependent on the root node.
	for _, target := range g.order {
		node := g.nodes[target]
		spec, _ := targets.Get(target)
		deps, present := spec.GetList("dependencies")
		if !present || deps.Len() == 0 {
			node.dependencies = append(node.dependencies, g.root)
			g.root.dependents = append(g.root.dependents, node)
			continue
		}
		buildFile := BuildFileOf(target)
		for i, item := range deps.Items {
			dep, ok := item.(Str)
			if !ok {
				return nil, nil, &TypeMismatchError{Key: "dependencies", Expected: "string", Actual: item.TypeName(), Context: "in " + target}
			}
			qualified := QualifiedTarget(buildFile, string(dep))
			// Store the qualified name even if it wasn't written that way.
			deps.Items[i] = Str(qualified)
			depNode, present := g.nodes[qualified]
			if !present {
				return nil, nil, &MissingDependencyError{Target: target, Dependency: qualified}
			}
			node.dependencies = append(node.dependencies, depNode)
			depNode.dependents = append(depNode.dependents, node)
		}
	}

	flatList := g.root.FlattenToList()
	if len(flatList) != len(g.nodes) {
		// Anything unvisited is part of (or downstream of) a cycle.
		emitted := make(map[string]bool, len(flatList))
		for _, target := range flatList {
			emitted[target] = true
		}
		remaining := make([]string, 0, len(g.nodes)-len(flatList))
		for _, target := range g.order {
			if !emitted[target] {
				remaining = append(remaining, target)
			}
		}
		return nil, nil, &CircularDependencyError{Remaining: remaining}
	}
	return g, flatList, nil
}

// FlattenToList returns the refs of every node reachable from this one,
// ordered so that each target appears after all of its dependencies and
// before all of its dependents. Call on the root to flatten a whole graph.
func (n *DepNode) FlattenToList() []string {
	flatList := []string{}
	emitted := map[string]bool{}
	queued := map[string]bool{}

	// inDegreeZeros is the queue of nodes with no dependencies left
	// unemitted. Initially the root's own dependents: when the graph was
	// built, nodes with no dependencies were made dependents of the root.
	inDegreeZeros := append([]*DepNode{}, n.dependents...)
	for _, node := range inDegreeZeros {
		queued[node.ref] = true
	}

	for len(inDegreeZeros) > 0 {
		// Pop from the front so that ties break by queue insertion order.
		node := inDegreeZeros[0]
		inDegreeZeros = inDegreeZeros[1:]
		flatList = append(flatList, node.ref)
		emitted[node.ref] = true

		// Some of this node's dependents may have no unemitted
		// dependencies left; promote them into the queue.
		for _, dependent := range node.dependents {
			if queued[dependent.ref] {
				continue
			}
			ready := true
			for _, dependency := range dependent.dependencies {
				if dependency.ref != "" && !emitted[dependency.ref] {
					ready = false
					break
				}
			}
			if ready {
				inDegreeZeros = append(inDegreeZeros, dependent)
				queued[dependent.ref] = true
			}
		}
	}
	return flatList
}

// DirectDependencies returns the refs of this node's direct dependencies,
// deduplicated, in declaration order. The root never appears.
func (n *DepNode) DirectDependencies() []string {
	deps := []string{}
	seen := map[string]bool{}
	for _, dependency := range n.dependencies {
		if dependency.ref != "" && !seen[dependency.ref] {
			seen[dependency.ref] = true
			deps = append(deps, dependency.ref)
		}
	}
	return deps
}

// DeepDependencies returns the refs of all of this node's dependencies,
// transitively, deduplicated, in first-reached order.
func (n *DepNode) DeepDependencies() []string {
	return n.deepDependencies(&orderedSet{seen: map[string]bool{}}).refs
}

func (n *DepNode) deepDependencies(acc *orderedSet) *orderedSet {
	for _, dependency := range n.dependencies {
		if dependency.ref != "" && acc.add(dependency.ref) {
			dependency.deepDependencies(acc)
		}
	}
	return acc
}

// DirectDependents returns the refs of the nodes that directly depend on
// this one, deduplicated.
func (n *DepNode) DirectDependents() []string {
	dependents := []string{}
	seen := map[string]bool{}
	for _, dependent := range n.dependents {
		if !seen[dependent.ref] {
			seen[dependent.ref] = true
			dependents = append(dependents, dependent.ref)
		}
	}
	return dependents
}

// DeepDependents returns the refs of everything that depends on this node,
// transitively, deduplicated.
func (n *DepNode) DeepDependents() []string {
	return n.deepDependents(&orderedSet{seen: map[string]bool{}}).refs
}

func (n *DepNode) deepDependents(acc *orderedSet) *orderedSet {
	for _, dependent := range n.dependents {
		if acc.add(dependent.ref) {
			dependent.deepDependents(acc)
		}
	}
	return acc
}

// LinkDependencies returns the set of targets whose object code gets linked
// into this one: this target itself (if linkable) plus every non-linkable
// target reachable through non-linkable dependencies. A linkable target met
// along the way terminates that branch; it links separately and its own
// closure is its own concern. A non-linkable starting target has an empty
// link closure, because these settings would apply to a link step it
// doesn't have.
func (n *DepNode) LinkDependencies(targets *TargetTable) []string {
	return n.linkDependencies(targets, &orderedSet{seen: map[string]bool{}}, true).refs
}

func (n *DepNode) linkDependencies(targets *TargetTable, acc *orderedSet, initial bool) *orderedSet {
	if n.ref == "" {
		return acc // the root
	}
	isLinkable := IsLinkable(targets.TypeOf(n.ref))
	if initial != isLinkable {
		// Starting target that doesn't link, or a linkable met as a
		// transitive dependency; either way this branch contributes nothing.
		return acc
	}
	if acc.add(n.ref) {
		for _, dependency := range n.dependencies {
			dependency.linkDependencies(targets, acc, false)
		}
	}
	return acc
}

// LinkDependents returns the nearest enclosing linkable targets along each
// chain of dependents: the set of final binaries this target's object code
// ends up linked into. A linkable target is its own answer.
func (n *DepNode) LinkDependents(targets *TargetTable) []string {
	return n.linkDependents(targets, &orderedSet{seen: map[string]bool{}}).refs
}

func (n *DepNode) linkDependents(targets *TargetTable, acc *orderedSet) *orderedSet {
	if IsLinkable(targets.TypeOf(n.ref)) {
		acc.add(n.ref)
		return acc
	}
	for _, dependent := range n.dependents {
		dependent.linkDependents(targets, acc)
	}
	return acc
}

// An orderedSet accumulates refs preserving first-insertion order.
type orderedSet struct {
	refs []string
	seen map[string]bool
}

// add inserts a ref, returning true if it wasn't already present.
func (s *orderedSet) add(ref string) bool {
	if s.seen[ref] {
		return false
	}
	s.seen[ref] = true
	s.refs = append(s.refs, ref)
	return true
}
