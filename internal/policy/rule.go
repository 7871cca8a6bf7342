package policy

import (
	"github.com/project-relgate/relgate/internal/attr"
	"github.com/project-relgate/relgate/internal/request"
)

// ReleaseRule is a conditional business rule that can widen the effective
// static policy for a single invocation. Rules only add bare names to the
// allow set; they can never manufacture attribute values.
type ReleaseRule interface {
	// Admit returns the attribute names to append to the effective static
	// policy for this exchange, or none when the rule does not apply.
	Admit(rc *request.Context, bag attr.Bag) ([]string, error)
}

// MembershipRule re-admits one attribute when the current relying party is in
// its relying-party set and the identity source carried in the bag intersects
// its identity-source set.
type MembershipRule struct {
	relyingParties  map[string]bool
	identitySources map[string]bool
	attribute       string
}

// NewMembershipRule creates a membership release rule
func NewMembershipRule(relyingParties, identitySources []string, attribute string) *MembershipRule {
	rps := make(map[string]bool, len(relyingParties))
	for _, rp := range relyingParties {
		rps[rp] = true
	}
	idps := make(map[string]bool, len(identitySources))
	for _, idp := range identitySources {
		idps[idp] = true
	}
	return &MembershipRule{
		relyingParties:  rps,
		identitySources: idps,
		attribute:       attribute,
	}
}

// Attribute returns the attribute name this rule re-admits
func (r *MembershipRule) Attribute() string {
	return r.attribute
}

// Admit implements ReleaseRule
func (r *MembershipRule) Admit(rc *request.Context, bag attr.Bag) ([]string, error) {
	if rc == nil || !r.relyingParties[rc.RelyingParty] {
		return nil, nil
	}
	for _, source := range request.IdentitySources(bag) {
		if r.identitySources[source] {
			return []string{r.attribute}, nil
		}
	}
	return nil, nil
}
