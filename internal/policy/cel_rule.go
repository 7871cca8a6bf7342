package policy

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/project-relgate/relgate/internal/attr"
	"github.com/project-relgate/relgate/internal/request"
)

// ReleaseRuleLibrary creates a CEL library for conditional release expressions.
//
// This provides compile-time declarations for:
//   - relying_party - the relying party's entity identifier (string)
//   - identity_sources - the idpEntityId values carried in the bag (list of string)
//   - attributes - the raw attribute bag as a map of name to value list
//
// The expression should evaluate to a boolean indicating whether the rule's
// attribute is released.
//
// Example expressions:
//   - relying_party == "https://sp.example.org"
//   - "https://idp.example.edu" in identity_sources
//   - relying_party.startsWith("https://") && has(attributes.mail)
func ReleaseRuleLibrary() cel.EnvOption {
	return cel.Lib(&releaseRuleLib{})
}

type releaseRuleLib struct{}

func (lib *releaseRuleLib) CompileOptions() []cel.EnvOption {
	return []cel.EnvOption{
		cel.Variable("relying_party", cel.StringType),
		cel.Variable("identity_sources", cel.ListType(cel.StringType)),
		// Declare attributes as a dynamic type (will be a map of lists)
		cel.Variable("attributes", cel.DynType),
	}
}

func (lib *releaseRuleLib) ProgramOptions() []cel.ProgramOption {
	return []cel.ProgramOption{}
}

// CELRule releases one attribute when a CEL expression over the exchange
// context evaluates to true. It generalizes MembershipRule to arbitrary
// relationships between the relying party, the identity source, and the bag.
type CELRule struct {
	program   cel.Program
	script    string
	attribute string
}

// NewCELRule compiles a CEL release rule
func NewCELRule(script, attribute string) (*CELRule, error) {
	if script == "" {
		return nil, fmt.Errorf("CEL release rule script cannot be empty")
	}
	if attribute == "" {
		return nil, fmt.Errorf("CEL release rule requires an attribute to release")
	}

	env, err := cel.NewEnv(ReleaseRuleLibrary())
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(script)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile CEL release rule: %w", issues.Err())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	return &CELRule{
		program:   program,
		script:    script,
		attribute: attribute,
	}, nil
}

// Script returns the CEL expression used by this rule
func (r *CELRule) Script() string {
	return r.script
}

// Admit implements ReleaseRule
func (r *CELRule) Admit(rc *request.Context, bag attr.Bag) ([]string, error) {
	activation := createReleaseRuleActivation(rc, bag)

	result, _, err := r.program.Eval(activation)
	if err != nil {
		return nil, fmt.Errorf("CEL release rule evaluation failed: %w", err)
	}

	if result.Type() == types.BoolType && result.Value().(bool) {
		return []string{r.attribute}, nil
	}
	return nil, nil
}

// createReleaseRuleActivation builds the CEL activation map for one exchange
func createReleaseRuleActivation(rc *request.Context, bag attr.Bag) map[string]any {
	relyingParty := ""
	if rc != nil {
		relyingParty = rc.RelyingParty
	}

	sources := request.IdentitySources(bag)
	if sources == nil {
		sources = []string{}
	}

	attributes := make(map[string]any, len(bag))
	for name, values := range bag {
		converted := make([]any, len(values))
		for i, v := range values {
			converted[i] = v
		}
		attributes[name] = converted
	}

	return map[string]any{
		"relying_party":    relyingParty,
		"identity_sources": sources,
		"attributes":       attributes,
	}
}
