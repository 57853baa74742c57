package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kingrea/tddflow/internal/workflow"
)

// Tier classifies a component by how advanced it is.
type Tier string

const (
	TierBasic        Tier = "basic"
	TierIntermediate Tier = "intermediate"
	TierAdvanced     Tier = "advanced"
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierBasic, TierIntermediate, TierAdvanced:
		return true
	default:
		return false
	}
}

// Entry describes one catalog component.
type Entry struct {
	ID              string   `json:"id" yaml:"id"`
	DependsOn       []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
	TestArtifact    string   `json:"test_artifact,omitempty" yaml:"test_artifact,omitempty"`
	ExampleArtifact string   `json:"example_artifact,omitempty" yaml:"example_artifact,omitempty"`
	Tier            Tier     `json:"tier" yaml:"tier"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	clone := e
	clone.DependsOn = cloneStrings(e.DependsOn)
	return clone
}

// Registry is the validated, read-only component catalog. It is safe to share
// without locking.
type Registry struct {
	entries    map[string]Entry
	dependents map[string][]string
	orderedIDs []string
}

// New validates entries and builds a registry. Registration order is kept and
// is the scheduler's tie-break. Errors are *workflow.RegistryError.
func New(entries []Entry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, &workflow.RegistryError{Reason: "at least one component is required"}
	}
	reg := &Registry{
		entries:    make(map[string]Entry, len(entries)),
		dependents: make(map[string][]string, len(entries)),
		orderedIDs: make([]string, 0, len(entries)),
	}
	for idx, raw := range entries {
		entry := normalizeEntry(raw)
		if entry.ID == "" {
			return nil, &workflow.RegistryError{Reason: fmt.Sprintf("component[%d]: id is required", idx)}
		}
		if _, exists := reg.entries[entry.ID]; exists {
			return nil, &workflow.RegistryError{Component: entry.ID, Reason: "duplicate component id"}
		}
		if !entry.Tier.Valid() {
			return nil, &workflow.RegistryError{Component: entry.ID, Reason: fmt.Sprintf("unknown tier %q", entry.Tier)}
		}
		if err := checkDuplicateDeps(entry); err != nil {
			return nil, err
		}
		reg.entries[entry.ID] = entry
		reg.orderedIDs = append(reg.orderedIDs, entry.ID)
	}
	for _, id := range reg.orderedIDs {
		for _, dep := range reg.entries[id].DependsOn {
			if dep == id {
				return nil, &workflow.RegistryError{Component: id, Reason: "component depends on itself"}
			}
			if _, ok := reg.entries[dep]; !ok {
				return nil, &workflow.RegistryError{Component: id, Reason: fmt.Sprintf("dependency %s is not declared", dep)}
			}
			reg.dependents[dep] = append(reg.dependents[dep], id)
		}
	}
	for id := range reg.dependents {
		sort.Strings(reg.dependents[id])
	}
	if cycle := reg.findCycle(); len(cycle) > 0 {
		return nil, &workflow.RegistryError{
			Component: cycle[0],
			Reason:    "dependency cycle " + strings.Join(cycle, " -> "),
		}
	}
	return reg, nil
}

// Entry looks up a component.
func (r *Registry) Entry(id string) (Entry, bool) {
	entry, ok := r.entries[id]
	if !ok {
		return Entry{}, false
	}
	return entry.Clone(), true
}

// IDs returns component ids in registration order.
func (r *Registry) IDs() []string {
	return cloneStrings(r.orderedIDs)
}

// Entries returns every entry in registration order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.orderedIDs))
	for _, id := range r.orderedIDs {
		out = append(out, r.entries[id].Clone())
	}
	return out
}

// Dependencies returns the components id depends on.
func (r *Registry) Dependencies(id string) []string {
	return cloneStrings(r.entries[id].DependsOn)
}

// Dependents returns the components that depend on id, sorted.
func (r *Registry) Dependents(id string) []string {
	return cloneStrings(r.dependents[id])
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id string) bool {
	_, ok := r.entries[id]
	return ok
}

// Len returns the number of components.
func (r *Registry) Len() int {
	return len(r.orderedIDs)
}

// findCycle walks the graph depth first in registration order and returns the
// first cycle found as a closed path (first id repeated at the end).
func (r *Registry) findCycle() []string {
	const (
		unvisited = iota
		visiting
		done
	)
	marks := make(map[string]int, len(r.entries))
	var stack []string
	var cycle []string
	var visit func(string) bool
	visit = func(id string) bool {
		switch marks[id] {
		case done:
			return false
		case visiting:
			start := 0
			for i, candidate := range stack {
				if candidate == id {
					start = i
					break
				}
			}
			cycle = append(cloneStrings(stack[start:]), id)
			return true
		}
		marks[id] = visiting
		stack = append(stack, id)
		for _, dep := range r.entries[id].DependsOn {
			if visit(dep) {
				return true
			}
		}
		stack = stack[:len(stack)-1]
		marks[id] = done
		return false
	}
	for _, id := range r.orderedIDs {
		if visit(id) {
			return cycle
		}
	}
	return nil
}

func normalizeEntry(e Entry) Entry {
	e.ID = strings.TrimSpace(e.ID)
	e.TestArtifact = strings.TrimSpace(e.TestArtifact)
	e.ExampleArtifact = strings.TrimSpace(e.ExampleArtifact)
	e.Description = strings.TrimSpace(e.Description)
	e.Tier = Tier(strings.ToLower(strings.TrimSpace(string(e.Tier))))
	if len(e.DependsOn) == 0 {
		e.DependsOn = nil
		return e
	}
	deps := make([]string, 0, len(e.DependsOn))
	for _, dep := range e.DependsOn {
		dep = strings.TrimSpace(dep)
		if dep == "" {
			continue
		}
		deps = append(deps, dep)
	}
	if len(deps) == 0 {
		deps = nil
	}
	e.DependsOn = deps
	return e
}

func checkDuplicateDeps(e Entry) error {
	deps := cloneStrings(e.DependsOn)
	sort.Strings(deps)
	for i := 1; i < len(deps); i++ {
		if deps[i] == deps[i-1] {
			return &workflow.RegistryError{Component: e.ID, Reason: fmt.Sprintf("duplicate dependency on %s", deps[i])}
		}
	}
	return nil
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
