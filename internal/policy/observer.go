package policy

import (
	"context"

	"github.com/project-relgate/relgate/internal/request"
)

// DropReason explains why an attribute was removed from the bag
type DropReason string

const (
	// DropNotAllowed means the attribute name was not in the allowed set
	DropNotAllowed DropReason = "not_allowed"

	// DropEmptyAfterFilter means value filtering left no surviving values
	DropEmptyAfterFilter DropReason = "empty_after_filter"
)

// FilterObserver creates request-scoped probes for filtering passes.
// Observers are observability only and never affect control flow.
type FilterObserver interface {
	// FilterStarted is called at the start of one filtering pass.
	// The returned context is used for the rest of the pass.
	FilterStarted(ctx context.Context, rc *request.Context) (context.Context, FilterProbe)
}

// FilterProbe receives the events of a single filtering pass
type FilterProbe interface {
	// AllowSetResolved reports the computed allow set
	AllowSetResolved(allowed *AllowedSet)

	// AttributeDropped reports an attribute removed from the bag
	AttributeDropped(name string, reason DropReason)

	// ValuesFiltered reports the outcome of value filtering for one attribute
	ValuesFiltered(name string, kept, removed int)

	// InvalidPattern reports a regex pattern that failed to compile.
	// Non-fatal: the pattern contributes no matches and filtering continues.
	InvalidPattern(attribute, pattern string, err error)

	// FilterSucceeded reports the end of a successful pass
	FilterSucceeded(attributesKept int)

	// FilterFailed reports a pass aborted by a fatal error
	FilterFailed(err error)
}

// NoOpFilterObserver is a FilterObserver that does nothing.
// Embed it to implement only the events you care about.
type NoOpFilterObserver struct{}

// FilterStarted implements FilterObserver
func (NoOpFilterObserver) FilterStarted(ctx context.Context, _ *request.Context) (context.Context, FilterProbe) {
	return ctx, NoOpFilterProbe{}
}

// NoOpFilterProbe is a FilterProbe that does nothing
type NoOpFilterProbe struct{}

func (NoOpFilterProbe) AllowSetResolved(*AllowedSet)         {}
func (NoOpFilterProbe) AttributeDropped(string, DropReason)  {}
func (NoOpFilterProbe) ValuesFiltered(string, int, int)      {}
func (NoOpFilterProbe) InvalidPattern(string, string, error) {}
func (NoOpFilterProbe) FilterSucceeded(int)                  {}
func (NoOpFilterProbe) FilterFailed(error)                   {}

// CompositeObserver fans events out to multiple observers
type CompositeObserver struct {
	observers []FilterObserver
}

// NewCompositeObserver creates an observer delegating to all given observers
func NewCompositeObserver(observers ...FilterObserver) *CompositeObserver {
	return &CompositeObserver{observers: observers}
}

// FilterStarted implements FilterObserver
func (o *CompositeObserver) FilterStarted(ctx context.Context, rc *request.Context) (context.Context, FilterProbe) {
	probes := make([]FilterProbe, 0, len(o.observers))
	for _, observer := range o.observers {
		var probe FilterProbe
		ctx, probe = observer.FilterStarted(ctx, rc)
		probes = append(probes, probe)
	}
	return ctx, &compositeProbe{probes: probes}
}

type compositeProbe struct {
	probes []FilterProbe
}

func (p *compositeProbe) AllowSetResolved(allowed *AllowedSet) {
	for _, probe := range p.probes {
		probe.AllowSetResolved(allowed)
	}
}

func (p *compositeProbe) AttributeDropped(name string, reason DropReason) {
	for _, probe := range p.probes {
		probe.AttributeDropped(name, reason)
	}
}

func (p *compositeProbe) ValuesFiltered(name string, kept, removed int) {
	for _, probe := range p.probes {
		probe.ValuesFiltered(name, kept, removed)
	}
}

func (p *compositeProbe) InvalidPattern(attribute, pattern string, err error) {
	for _, probe := range p.probes {
		probe.InvalidPattern(attribute, pattern, err)
	}
}

func (p *compositeProbe) FilterSucceeded(attributesKept int) {
	for _, probe := range p.probes {
		probe.FilterSucceeded(attributesKept)
	}
}

func (p *compositeProbe) FilterFailed(err error) {
	for _, probe := range p.probes {
		probe.FilterFailed(err)
	}
}
