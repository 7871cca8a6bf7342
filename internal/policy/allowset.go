package policy

import (
	"slices"

	"github.com/project-relgate/relgate/internal/alias"
	"github.com/project-relgate/relgate/internal/attr"
	"github.com/project-relgate/relgate/internal/request"
)

// AllowedSet is the per-invocation result of allow-set resolution: the
// attribute names permitted to survive filtering, plus any per-name value
// constraints still in force.
//
// An attribute admitted through Names keeps all its values; one admitted only
// through Constraints has its values filtered. Unrestricted is the no-op
// terminal state: no filtering at all.
type AllowedSet struct {
	// Unrestricted means both policies resolved empty: everything passes
	Unrestricted bool

	// Names are the bare-admitted attribute names, ordered, with multiplicity
	Names []string

	// Constraints maps constraint-admitted attribute names to their constraint
	Constraints map[string]*ValueConstraint
}

// HasName reports exact membership in the bare name list
func (s *AllowedSet) HasName(name string) bool {
	return slices.Contains(s.Names, name)
}

// Constraint returns the value constraint for a name admitted via the
// constraint lookup
func (s *AllowedSet) Constraint(name string) (*ValueConstraint, bool) {
	c, ok := s.Constraints[name]
	return c, ok
}

// AllowedNames returns every admitted name (bare and constrained) for
// diagnostics
func (s *AllowedSet) AllowedNames() []string {
	names := slices.Clone(s.Names)
	for name := range s.Constraints {
		names = append(names, name)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// Resolve combines the static policy, the metadata-derived policy, the alias
// table, and the conditional release rules into the final allowed set for one
// invocation.
func Resolve(static StaticPolicy, metadataPolicy []string, table *alias.Table, rules []ReleaseRule, rc *request.Context, bag attr.Bag) (*AllowedSet, error) {
	// Conditional release rules widen the effective static policy for this
	// call only; the configured policy itself is never mutated.
	effective := slices.Clip(static)
	for _, rule := range rules {
		admitted, err := rule.Admit(rc, bag)
		if err != nil {
			return nil, err
		}
		for _, name := range admitted {
			effective = append(effective, AllowEntry{Name: name})
		}
	}

	expanded := table.Expand(metadataPolicy)

	// The no-op terminal state must be checked before anything else
	if len(effective) == 0 && len(expanded) == 0 {
		return &AllowedSet{Unrestricted: true}, nil
	}

	if len(expanded) == 0 {
		// Static policy alone governs, constraints intact
		allowed := &AllowedSet{Constraints: make(map[string]*ValueConstraint)}
		for _, entry := range effective {
			if entry.Constraint == nil {
				allowed.Names = append(allowed.Names, entry.Name)
			} else {
				allowed.Constraints[entry.Name] = entry.Constraint
			}
		}
		return allowed, nil
	}

	if len(effective) == 0 {
		// Metadata policy alone governs; it never carries constraints
		return &AllowedSet{Names: expanded, Constraints: map[string]*ValueConstraint{}}, nil
	}

	return &AllowedSet{
		Names:       intersectNamesOnly(effective, expanded),
		Constraints: map[string]*ValueConstraint{},
	}, nil
}

// intersectNamesOnly intersects the effective static policy against the
// expanded metadata policy by exact name equality, preserving the static
// side's order and multiplicity.
//
// Per-name value constraints on the static side are intentionally discarded:
// whenever a metadata-sourced policy is present, only coarse name admission
// applies. Existing deployments rely on this, so it must not be "fixed" here;
// applying constraints in this branch would be a one-line change in this
// function.
func intersectNamesOnly(effective StaticPolicy, expandedMetadataPolicy []string) []string {
	var names []string
	for _, entry := range effective {
		if slices.Contains(expandedMetadataPolicy, entry.Name) {
			names = append(names, entry.Name)
		}
	}
	return names
}
