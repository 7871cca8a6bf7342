// Package request provides the per-invocation context of one authentication
// exchange. A Context is constructed by the caller for each exchange and
// discarded once the response is emitted.
package request

import (
	"github.com/google/uuid"

	"github.com/project-relgate/relgate/internal/attr"
	"github.com/project-relgate/relgate/internal/metadata"
)

// Context carries the parties of one authentication exchange
type Context struct {
	// ExchangeID uniquely identifies this exchange in diagnostics
	ExchangeID string `json:"exchange_id"`

	// RelyingParty is the entity identifier of the relying application
	RelyingParty string `json:"relying_party"`

	// Destination is the relying application's metadata record, if resolved
	Destination *metadata.Entity `json:"destination,omitempty"`

	// Source is the identity source's metadata record, if resolved
	Source *metadata.Entity `json:"source,omitempty"`
}

// New creates a context for one exchange with a fresh exchange ID
func New(relyingParty string, destination, source *metadata.Entity) *Context {
	return &Context{
		ExchangeID:   uuid.NewString(),
		RelyingParty: relyingParty,
		Destination:  destination,
		Source:       source,
	}
}

// MetadataPolicy returns the metadata-derived attribute policy for this
// exchange: destination first, source only when the destination record lacks
// the attributes field.
func (c *Context) MetadataPolicy() []string {
	if c == nil {
		return nil
	}
	return metadata.PolicyFor(c.Destination, c.Source)
}

// IdentitySources returns the identity-source identifiers carried in the bag
// under the idpEntityId attribute.
func IdentitySources(bag attr.Bag) []string {
	return bag[attr.IdPEntityID]
}
