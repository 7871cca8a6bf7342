// Package attr provides the attribute bag type shared across the relgate system.
//
// An attribute is a named, multi-valued identity claim (e.g. mail, eduPersonAffiliation).
// Values are ordered and not guaranteed unique.
package attr

import (
	"slices"
	"sort"
)

// IdPEntityID is the attribute carrying the identity source's entity identifier.
// It is populated by the surrounding authentication lifecycle before filtering.
const IdPEntityID = "idpEntityId"

// Bag maps an attribute name to its ordered values.
// A Bag is owned by the caller for the duration of one filtering pass; the
// engine mutates it in place.
type Bag map[string][]string

// Copy returns a deep copy of the bag
func (b Bag) Copy() Bag {
	if b == nil {
		return nil
	}
	out := make(Bag, len(b))
	for name, values := range b {
		out[name] = slices.Clone(values)
	}
	return out
}

// Names returns a sorted snapshot of the attribute names currently in the bag.
// Iterating a snapshot keeps in-place removal safe.
func (b Bag) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Values returns the values of the named attribute, or nil if absent
func (b Bag) Values(name string) []string {
	return b[name]
}

// Equal reports whether two bags hold the same attributes with the same
// values in the same order
func (b Bag) Equal(other Bag) bool {
	if len(b) != len(other) {
		return false
	}
	for name, values := range b {
		otherValues, ok := other[name]
		if !ok || !slices.Equal(values, otherValues) {
			return false
		}
	}
	return true
}
