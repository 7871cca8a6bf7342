// Package policy implements the attribute release engine: allow-set
// resolution over a static policy, a metadata-derived policy, a name-alias
// table, and conditional release rules, followed by per-attribute value
// filtering.
package policy

import "fmt"

// AllowEntry is one entry of a static policy: either a bare attribute name
// admitting all values, or a name paired with a value constraint.
type AllowEntry struct {
	Name       string
	Constraint *ValueConstraint // nil for bare names
}

// StaticPolicy is the ordered allow set configured directly on the engine.
// Bare-name entries and constrained entries may coexist.
type StaticPolicy []AllowEntry

// Names returns the entry names in order, with multiplicity
func (p StaticPolicy) Names() []string {
	names := make([]string, len(p))
	for i, entry := range p {
		names[i] = entry.Name
	}
	return names
}

// ParseStaticPolicy parses the raw static policy document into a StaticPolicy.
//
// The document is an ordered list where a plain string is a bare allow-all
// name and a single-key map pairs an attribute name with a constraint payload:
//
//	static:
//	  - cn
//	  - mail: ["user@example.org"]          # exact value set
//	  - role:
//	      ignoreCase: true
//	      values: ["Admin", "Auditor"]      # case-insensitive value set
//	  - memberOf:
//	      regex: true
//	      values: ["^cn=grp-.*"]            # regex pattern set
//
// Mode selection is by marker key presence: regex wins over ignoreCase when
// both are set. Anything else is a ConfigurationError.
func ParseStaticPolicy(raw []any) (StaticPolicy, error) {
	var parsed StaticPolicy
	for i, entry := range raw {
		switch e := entry.(type) {
		case string:
			parsed = append(parsed, AllowEntry{Name: e})
		case map[string]any:
			if len(e) != 1 {
				return nil, configErrorf("static policy entry %d: constrained entry must have exactly one attribute name, got %d keys", i, len(e))
			}
			for name, payload := range e {
				constraint, err := parseConstraint(payload)
				if err != nil {
					return nil, configErrorf("static policy entry %q: %v", name, err)
				}
				parsed = append(parsed, AllowEntry{Name: name, Constraint: constraint})
			}
		default:
			return nil, configErrorf("static policy entry %d: expected attribute name or constrained entry, got %T", i, entry)
		}
	}
	return parsed, nil
}

// parseConstraint parses a constraint payload into a ValueConstraint
func parseConstraint(payload any) (*ValueConstraint, error) {
	switch p := payload.(type) {
	case []any:
		values, err := stringList(p)
		if err != nil {
			return nil, err
		}
		return &ValueConstraint{Mode: ModeExact, Values: values}, nil
	case []string:
		return &ValueConstraint{Mode: ModeExact, Values: p}, nil
	case map[string]any:
		mode := ModeExact
		if isTrue(p["regex"]) {
			mode = ModeRegex
		} else if isTrue(p["ignoreCase"]) {
			mode = ModeIgnoreCase
		} else {
			return nil, fmt.Errorf("constraint payload must carry a regex or ignoreCase marker, or be a plain value list")
		}

		rawValues, ok := p["values"]
		if !ok {
			return nil, fmt.Errorf("constraint payload is missing values")
		}
		list, ok := rawValues.([]any)
		if !ok {
			if strs, isStrs := rawValues.([]string); isStrs {
				return &ValueConstraint{Mode: mode, Values: strs}, nil
			}
			return nil, fmt.Errorf("constraint values must be a list, got %T", rawValues)
		}
		values, err := stringList(list)
		if err != nil {
			return nil, err
		}
		return &ValueConstraint{Mode: mode, Values: values}, nil
	default:
		return nil, fmt.Errorf("constraint payload must be a value list or marker map, got %T", payload)
	}
}

// stringList converts a []any of strings, rejecting anything else
func stringList(list []any) ([]string, error) {
	values := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected string value, got %T", item)
		}
		values = append(values, s)
	}
	return values, nil
}

// isTrue reports whether a marker value is boolean true
func isTrue(v any) bool {
	b, ok := v.(bool)
	return ok && b
}
