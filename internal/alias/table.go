// Package alias reconciles alternate encodings of the same semantic attribute
// name, e.g. urn:oid identifiers versus friendly LDAP names.
//
// A Table maps an alias name to one or more canonical names. Tables are loaded
// once through an injected Loader and are immutable afterwards; a filtering
// pass only reads them.
package alias

import "slices"

// Table is an immutable alias-to-canonical-name mapping.
//
// When duplicate mode ("retain original") is on, expanding an alias keeps the
// alias name alongside its mapped names instead of replacing it.
type Table struct {
	entries   map[string][]string
	duplicate bool
}

// NewTable creates a table from the given mapping.
// The mapping is copied; later mutation of the argument does not affect the table.
func NewTable(entries map[string][]string, duplicate bool) *Table {
	copied := make(map[string][]string, len(entries))
	for aliasName, targets := range entries {
		copied[aliasName] = slices.Clone(targets)
	}
	return &Table{entries: copied, duplicate: duplicate}
}

// Resolve returns the canonical names the given name maps to, or nil when the
// table has no entry for it.
func (t *Table) Resolve(name string) []string {
	if t == nil {
		return nil
	}
	return t.entries[name]
}

// Duplicate reports whether the table is in retain-original mode
func (t *Table) Duplicate() bool {
	return t != nil && t.duplicate
}

// Len returns the number of alias entries
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Expand rewrites a metadata-derived attribute policy through the table.
//
// Names without an entry pass through unchanged. Names with an entry are
// replaced by their mapped names, in order; the original name is additionally
// kept when the table is in duplicate mode, unless it already appears among
// its own mapped targets.
func (t *Table) Expand(names []string) []string {
	if t == nil || len(t.entries) == 0 {
		return slices.Clone(names)
	}

	expanded := make([]string, 0, len(names))
	for _, name := range names {
		targets := t.entries[name]
		if targets == nil {
			expanded = append(expanded, name)
			continue
		}
		expanded = append(expanded, targets...)
		if t.duplicate && !slices.Contains(targets, name) {
			expanded = append(expanded, name)
		}
	}
	return expanded
}

// merge folds another raw mapping into an existing one according to the
// duplicate mode: off means a later load overwrites colliding keys one-for-one,
// on means values for colliding keys are concatenated.
func merge(into, from map[string][]string, duplicate bool) {
	for aliasName, targets := range from {
		if duplicate {
			into[aliasName] = append(into[aliasName], targets...)
		} else {
			into[aliasName] = slices.Clone(targets)
		}
	}
}
