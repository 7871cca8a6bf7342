package config

import (
	"fmt"

	"github.com/project-relgate/relgate/internal/alias"
	"github.com/project-relgate/relgate/internal/policy"
)

// NewStaticPolicy parses the static policy document from configuration
func NewStaticPolicy(cfg PolicyConfig) (policy.StaticPolicy, error) {
	return policy.ParseStaticPolicy(cfg.Static)
}

// NewReleaseRules creates the conditional release rules from configuration
func NewReleaseRules(cfg []ReleaseRuleConfig) ([]policy.ReleaseRule, error) {
	var rules []policy.ReleaseRule
	for i, ruleCfg := range cfg {
		rule, err := newReleaseRule(ruleCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create release rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// newReleaseRule creates one release rule from configuration
func newReleaseRule(cfg ReleaseRuleConfig) (policy.ReleaseRule, error) {
	if cfg.Attribute == "" {
		return nil, fmt.Errorf("release rule requires an attribute")
	}

	switch cfg.Type {
	case "membership", "":
		if len(cfg.RelyingParties) == 0 || len(cfg.IdentitySources) == 0 {
			return nil, fmt.Errorf("membership rule requires relying_parties and identity_sources")
		}
		return policy.NewMembershipRule(cfg.RelyingParties, cfg.IdentitySources, cfg.Attribute), nil
	case "cel":
		return policy.NewCELRule(cfg.Expression, cfg.Attribute)
	default:
		return nil, fmt.Errorf("unknown release rule type: %s (supported: membership, cel)", cfg.Type)
	}
}

// NewEngine creates the filtering engine from configuration
func NewEngine(cfg *Config, aliases alias.Provider, observer policy.FilterObserver) (*policy.Engine, error) {
	static, err := NewStaticPolicy(cfg.Policy)
	if err != nil {
		return nil, fmt.Errorf("failed to parse static policy: %w", err)
	}

	rules, err := NewReleaseRules(cfg.Policy.Rules)
	if err != nil {
		return nil, err
	}

	return policy.NewEngine(policy.EngineConfig{
		Static:   static,
		Rules:    rules,
		Aliases:  aliases,
		Observer: observer,
	}), nil
}
