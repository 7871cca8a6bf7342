package policy

import (
	"context"

	"github.com/project-relgate/relgate/internal/alias"
	"github.com/project-relgate/relgate/internal/attr"
	"github.com/project-relgate/relgate/internal/request"
)

// Engine runs one filtering pass per authentication exchange.
//
// The static policy, release rules, and alias provider are fixed at
// construction and read-only afterwards, so a single engine can serve
// concurrent exchanges against independent bags. Each Process call is a pure
// function of its inputs apart from the in-place mutation of the bag.
type Engine struct {
	static   StaticPolicy
	rules    []ReleaseRule
	aliases  alias.Provider
	observer FilterObserver
}

// EngineConfig configures an Engine
type EngineConfig struct {
	// Static is the statically configured allow set
	Static StaticPolicy

	// Rules are the conditional release rules, evaluated in order
	Rules []ReleaseRule

	// Aliases provides the name-alias table consulted against
	// metadata-derived policy names. If nil, no aliasing is applied.
	Aliases alias.Provider

	// Observer receives filtering diagnostics. If nil, a no-op observer
	// is used.
	Observer FilterObserver
}

// NewEngine creates a filtering engine
func NewEngine(cfg EngineConfig) *Engine {
	observer := cfg.Observer
	if observer == nil {
		observer = NoOpFilterObserver{}
	}
	return &Engine{
		static:   cfg.Static,
		rules:    cfg.Rules,
		aliases:  cfg.Aliases,
		observer: observer,
	}
}

// Process filters the bag in place for one exchange.
//
// Attributes not in the allowed set are removed; constraint-admitted
// attributes have their values filtered and are removed entirely when nothing
// survives. When both policies resolve empty the bag passes through unchanged.
// A ConfigurationError aborts the pass and must fail the enclosing exchange.
func (e *Engine) Process(ctx context.Context, bag attr.Bag, rc *request.Context) error {
	ctx, probe := e.observer.FilterStarted(ctx, rc)

	if err := e.process(ctx, bag, rc, probe); err != nil {
		probe.FilterFailed(err)
		return err
	}

	probe.FilterSucceeded(len(bag))
	return nil
}

func (e *Engine) process(ctx context.Context, bag attr.Bag, rc *request.Context, probe FilterProbe) error {
	var table *alias.Table
	if e.aliases != nil {
		var err error
		table, err = e.aliases.Table(ctx)
		if err != nil {
			return configErrorf("failed to load alias table: %w", err)
		}
	}

	allowed, err := Resolve(e.static, rc.MetadataPolicy(), table, e.rules, rc, bag)
	if err != nil {
		return err
	}
	probe.AllowSetResolved(allowed)

	if allowed.Unrestricted {
		return nil
	}

	return applyAllowedSet(bag, allowed, probe)
}

// applyAllowedSet filters the bag in place against a resolved allow set
func applyAllowedSet(bag attr.Bag, allowed *AllowedSet, probe FilterProbe) error {
	// Iterate a snapshot of names: the bag is mutated during the walk
	for _, name := range bag.Names() {
		if allowed.HasName(name) {
			// Bare name admission keeps all values unchanged
			continue
		}

		constraint, ok := allowed.Constraint(name)
		if !ok {
			delete(bag, name)
			probe.AttributeDropped(name, DropNotAllowed)
			continue
		}
		if constraint == nil {
			return configErrorf("attribute %q has a malformed value constraint", name)
		}

		values := bag[name]
		surviving := constraint.Filter(values, func(pattern string, patternErr error) {
			probe.InvalidPattern(name, pattern, patternErr)
		})
		probe.ValuesFiltered(name, len(surviving), len(values)-len(surviving))

		if len(surviving) == 0 {
			delete(bag, name)
			probe.AttributeDropped(name, DropEmptyAfterFilter)
			continue
		}
		bag[name] = surviving
	}

	return nil
}
