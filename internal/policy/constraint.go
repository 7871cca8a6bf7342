package policy

import (
	"regexp"
	"slices"
	"strings"
)

// ConstraintMode selects how a ValueConstraint admits values
type ConstraintMode int

const (
	// ModeExact admits values byte-for-byte equal to an allowed value
	ModeExact ConstraintMode = iota

	// ModeRegex admits values matched by at least one pattern
	ModeRegex

	// ModeIgnoreCase admits values case-insensitively equal to an allowed value
	ModeIgnoreCase
)

// String returns the mode name as used in configuration
func (m ConstraintMode) String() string {
	switch m {
	case ModeRegex:
		return "regex"
	case ModeIgnoreCase:
		return "ignoreCase"
	default:
		return "exact"
	}
}

// ValueConstraint restricts which values of an attribute survive filtering.
// Exactly one mode is active; Values holds the allowed values, or the regex
// patterns when the mode is ModeRegex, in declared order.
type ValueConstraint struct {
	Mode   ConstraintMode
	Values []string
}

// PatternReporter receives non-fatal pattern diagnostics during filtering.
// A nil reporter is allowed.
type PatternReporter func(pattern string, err error)

// Filter returns the values admitted by the constraint, applying the mode's
// ordering rules. The input slice is not modified.
func (c *ValueConstraint) Filter(values []string, report PatternReporter) []string {
	switch c.Mode {
	case ModeRegex:
		return c.filterRegex(values, report)
	case ModeIgnoreCase:
		return c.filterIgnoreCase(values)
	default:
		return c.filterExact(values)
	}
}

// filterExact keeps values equal to an allowed value, in original order
func (c *ValueConstraint) filterExact(values []string) []string {
	var surviving []string
	for _, value := range values {
		if slices.Contains(c.Values, value) {
			surviving = append(surviving, value)
		}
	}
	return surviving
}

// filterIgnoreCase keeps values case-insensitively equal to an allowed value,
// in original order
func (c *ValueConstraint) filterIgnoreCase(values []string) []string {
	var surviving []string
	for _, value := range values {
		for _, allowed := range c.Values {
			if strings.EqualFold(value, allowed) {
				surviving = append(surviving, value)
				break
			}
		}
	}
	return surviving
}

// filterRegex evaluates patterns in declared order. Each pattern claims the
// remaining values it matches, consuming them so a later pattern cannot match
// them again. The surviving order is match order: all matches of the first
// pattern (in their original relative order), then all matches of the second,
// and so on. A pattern that fails to compile is reported and skipped; it
// contributes no matches and does not abort the remaining patterns.
func (c *ValueConstraint) filterRegex(values []string, report PatternReporter) []string {
	remaining := slices.Clone(values)
	var surviving []string

	for _, pattern := range c.Values {
		re, err := regexp.Compile(pattern)
		if err != nil {
			if report != nil {
				report(pattern, err)
			}
			continue
		}

		unmatched := remaining[:0]
		for _, value := range remaining {
			if re.MatchString(value) {
				surviving = append(surviving, value)
			} else {
				unmatched = append(unmatched, value)
			}
		}
		remaining = unmatched
	}

	return surviving
}
