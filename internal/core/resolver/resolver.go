package resolver

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/patel5d2/labctl/internal/core/catalog"
)

// =============================================================================
// Result Types
// =============================================================================

// Inclusion records why a service is part of the resolution.
type Inclusion string

const (
	// IncludedExplicit marks a directly requested service.
	IncludedExplicit Inclusion = "explicit"
	// IncludedDependency marks a service pulled in through the closure.
	IncludedDependency Inclusion = "dependency"
)

// Entry is one resolved service with its inclusion reason.
type Entry struct {
	ID        string
	Inclusion Inclusion
	// RequiredBy lists the services whose dependency edges pulled this one
	// in. Empty for explicit entries that nothing else depends on.
	RequiredBy []string
}

// Result is the ordered outcome of dependency resolution: dependencies
// always precede their dependents, ties broken by catalog order.
type Result struct {
	// BuildID identifies this resolution run in diagnostics.
	BuildID string
	Entries []Entry
}

// IDs returns the resolved service ids in deployment order.
func (r *Result) IDs() []string {
	out := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.ID
	}
	return out
}

// Contains reports whether the resolution includes the given service.
func (r *Result) Contains(id string) bool {
	for _, e := range r.Entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Summary renders the ordered service list with inclusion tags for display
// by the surrounding CLI.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "build %s: %d services\n", r.BuildID, len(r.Entries))
	for i, e := range r.Entries {
		switch e.Inclusion {
		case IncludedExplicit:
			fmt.Fprintf(&b, "  %2d. %s (explicit)\n", i+1, e.ID)
		default:
			fmt.Fprintf(&b, "  %2d. %s (pulled in by %s)\n", i+1, e.ID, strings.Join(e.RequiredBy, ", "))
		}
	}
	return b.String()
}

// =============================================================================
// Resolution
// =============================================================================

// Resolve expands the explicitly requested service ids to their full
// dependency closure, verifies the closure is acyclic and conflict-free, and
// returns the services in deployment order.
//
// Conflicts are checked over the complete closure, not just the explicit
// set: a conflict introduced purely by transitive dependencies still fails
// the build, because silently dropping a dependency could produce a
// non-functional deployment.
//
// Resolution is deterministic: the same catalog and request always produce
// the same ordered result.
func Resolve(cat *catalog.Catalog, requested []string) (*Result, error) {
	for _, id := range requested {
		if !cat.Has(id) {
			return nil, &ResolutionError{Service: id, Err: ErrUnknownService}
		}
	}

	closure, requiredBy := expand(cat, requested)

	if cycle := findCycle(cat, closure); cycle != nil {
		return nil, &ResolutionError{Cycle: cycle, Err: ErrDependencyCycle}
	}
	if a, b := findConflict(cat, closure); a != "" {
		return nil, &ResolutionError{ConflictA: a, ConflictB: b, Err: ErrConflictingServices}
	}

	ordered := order(cat, closure)

	explicit := make(map[string]bool, len(requested))
	for _, id := range requested {
		explicit[id] = true
	}

	result := &Result{BuildID: uuid.New().String()[:8]}
	for _, id := range ordered {
		entry := Entry{ID: id, Inclusion: IncludedDependency, RequiredBy: requiredBy[id]}
		if explicit[id] {
			entry.Inclusion = IncludedExplicit
		}
		result.Entries = append(result.Entries, entry)
	}
	return result, nil
}

// expand computes the dependency closure of the requested set, recording for
// each discovered service which services required it. Traversal order is
// stable: requested ids first, then breadth-first over dependency lists.
func expand(cat *catalog.Catalog, requested []string) (map[string]bool, map[string][]string) {
	closure := make(map[string]bool)
	requiredBy := make(map[string][]string)

	queue := make([]string, 0, len(requested))
	for _, id := range requested {
		if !closure[id] {
			closure[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		tmpl, _ := cat.Get(id)
		for _, dep := range tmpl.Dependencies {
			requiredBy[dep] = appendUnique(requiredBy[dep], id)
			if !closure[dep] {
				closure[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	return closure, requiredBy
}

// findCycle runs a DFS over the dependency edges restricted to the closure
// and extracts the first cycle's members in discovery order.
func findCycle(cat *catalog.Catalog, closure map[string]bool) []string {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		if onStack[id] {
			// Trim the path down to the cycle itself.
			for i, p := range path {
				if p == id {
					cycle = append([]string(nil), path[i:]...)
					return true
				}
			}
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true
		onStack[id] = true
		path = append(path, id)

		tmpl, _ := cat.Get(id)
		for _, dep := range tmpl.Dependencies {
			if closure[dep] && visit(dep) {
				return true
			}
		}

		onStack[id] = false
		path = path[:len(path)-1]
		return false
	}

	for _, id := range cat.Order() {
		if closure[id] && !visited[id] {
			if visit(id) {
				return cycle
			}
		}
	}
	return nil
}

// findConflict scans every pair in the closure for a conflicts_with
// declaration in either direction. Pairs are visited in catalog order so the
// reported pair is stable.
func findConflict(cat *catalog.Catalog, closure map[string]bool) (string, string) {
	var members []string
	for _, id := range cat.Order() {
		if closure[id] {
			members = append(members, id)
		}
	}

	conflicts := func(a, b string) bool {
		tmpl, _ := cat.Get(a)
		for _, c := range tmpl.ConflictsWith {
			if c == b {
				return true
			}
		}
		return false
	}

	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			a, b := members[i], members[j]
			if conflicts(a, b) || conflicts(b, a) {
				return a, b
			}
		}
	}
	return "", ""
}

// order topologically sorts the closure with Kahn's algorithm. When several
// services are ready at once, the one earliest in catalog declaration order
// goes first, keeping output deterministic across runs.
func order(cat *catalog.Catalog, closure map[string]bool) []string {
	members := make([]string, 0, len(closure))
	for _, id := range cat.Order() {
		if closure[id] {
			members = append(members, id)
		}
	}

	inDegree := make(map[string]int, len(members))
	dependents := make(map[string][]string)
	for _, id := range members {
		tmpl, _ := cat.Get(id)
		for _, dep := range tmpl.Dependencies {
			if closure[dep] {
				inDegree[id]++
				dependents[dep] = append(dependents[dep], id)
			}
		}
	}

	var result []string
	processed := make(map[string]bool, len(members))
	for len(result) < len(members) {
		advanced := false
		for _, id := range members {
			if processed[id] || inDegree[id] != 0 {
				continue
			}
			processed[id] = true
			result = append(result, id)
			for _, dep := range dependents[id] {
				inDegree[dep]--
			}
			advanced = true
			break
		}
		if !advanced {
			// Cycles are rejected before ordering runs.
			break
		}
	}
	return result
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}
