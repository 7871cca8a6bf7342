// Package metadata models trust metadata for the parties of an authentication
// exchange and the stores that resolve it.
package metadata

import (
	"context"
	"errors"
)

// ErrNotFound indicates the store has no metadata for the requested entity
var ErrNotFound = errors.New("entity not found")

// Entity is the trust metadata record for one party (a relying application or
// an identity source). All fields are exported and JSON-serializable so
// records can round-trip through caches.
type Entity struct {
	// EntityID uniquely identifies the party
	EntityID string `json:"entity_id"`

	// DisplayName is a human-readable name, if the metadata carries one
	DisplayName string `json:"display_name,omitempty"`

	// Attributes is the metadata-sourced attribute allow list.
	// nil means the record does not carry the field at all; a non-nil empty
	// slice means the field is present but empty. The distinction matters:
	// only records that carry the field contribute a metadata policy.
	// No omitempty so the present-but-empty case survives cache round-trips.
	Attributes []string `json:"attributes"`

	// Extra holds any additional metadata fields, preserved but not
	// interpreted by the engine
	Extra map[string]any `json:"extra,omitempty"`
}

// HasAttributePolicy reports whether the record carries an attribute allow list
func (e *Entity) HasAttributePolicy() bool {
	return e != nil && e.Attributes != nil
}

// PolicyFor returns the metadata-derived attribute policy for one exchange.
// The destination (relying application) record is consulted first; the source
// (identity provider) record only when the destination lacks the attributes
// field. Absence of both yields an empty policy.
func PolicyFor(destination, source *Entity) []string {
	if destination.HasAttributePolicy() {
		return destination.Attributes
	}
	if source.HasAttributePolicy() {
		return source.Attributes
	}
	return nil
}

// Store resolves entity metadata by entity ID
type Store interface {
	// Lookup returns the metadata record for the given entity.
	// Returns ErrNotFound when the store has no record for it.
	Lookup(ctx context.Context, entityID string) (*Entity, error)
}

// StaticStore serves a fixed set of entities, typically declared in config
type StaticStore struct {
	entities map[string]*Entity
}

// NewStaticStore creates a store over the given entities
func NewStaticStore(entities []*Entity) *StaticStore {
	indexed := make(map[string]*Entity, len(entities))
	for _, entity := range entities {
		indexed[entity.EntityID] = entity
	}
	return &StaticStore{entities: indexed}
}

// Lookup implements Store
func (s *StaticStore) Lookup(_ context.Context, entityID string) (*Entity, error) {
	entity, ok := s.entities[entityID]
	if !ok {
		return nil, ErrNotFound
	}
	return entity, nil
}
