// Package probe provides FilterObserver implementations: structured logging
// with slog and Prometheus metrics.
package probe

import (
	"context"
	"log/slog"

	"github.com/project-relgate/relgate/internal/policy"
	"github.com/project-relgate/relgate/internal/request"
)

// loggingObserver creates request-scoped logging probes
type loggingObserver struct {
	logger *slog.Logger
}

// LoggingObserverConfig configures the logging observer
type LoggingObserverConfig struct {
	// Logger is the base logger to use. If nil, uses slog.Default()
	Logger *slog.Logger
}

// NewLoggingObserver creates a filter observer that logs all filtering events
// using structured logging with slog.
func NewLoggingObserver(logger *slog.Logger) policy.FilterObserver {
	return NewLoggingObserverWithConfig(LoggingObserverConfig{
		Logger: logger,
	})
}

// NewLoggingObserverWithConfig creates a logging observer with custom configuration
func NewLoggingObserverWithConfig(cfg LoggingObserverConfig) policy.FilterObserver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &loggingObserver{
		logger: logger,
	}
}

func (o *loggingObserver) FilterStarted(ctx context.Context, rc *request.Context) (context.Context, policy.FilterProbe) {
	// Create scoped logger for this probe type
	probeLogger := o.logger.With("event", "attribute_filter")

	attrs := []slog.Attr{}
	if rc != nil {
		attrs = append(attrs,
			slog.String("exchange_id", rc.ExchangeID),
			slog.String("relying_party", rc.RelyingParty),
		)
		probeLogger = probeLogger.With("exchange_id", rc.ExchangeID)
	}

	probeLogger.LogAttrs(ctx, slog.LevelDebug, "Starting attribute filtering", attrs...)

	// Return a request-scoped probe that captures the context
	return ctx, &loggingFilterProbe{
		ctx:    ctx,
		logger: probeLogger,
	}
}

// loggingFilterProbe logs the events of a single filtering pass
type loggingFilterProbe struct {
	policy.NoOpFilterProbe
	ctx    context.Context
	logger *slog.Logger
}

func (p *loggingFilterProbe) AllowSetResolved(allowed *policy.AllowedSet) {
	if allowed.Unrestricted {
		p.logger.LogAttrs(p.ctx, slog.LevelDebug, "No attribute policy in force, passing everything through")
		return
	}
	p.logger.LogAttrs(p.ctx, slog.LevelDebug,
		"Computed allow set",
		slog.Any("allowed_names", allowed.AllowedNames()),
	)
}

func (p *loggingFilterProbe) AttributeDropped(name string, reason policy.DropReason) {
	p.logger.LogAttrs(p.ctx, slog.LevelDebug,
		"Attribute dropped",
		slog.String("attribute", name),
		slog.String("reason", string(reason)),
	)
}

func (p *loggingFilterProbe) ValuesFiltered(name string, kept, removed int) {
	p.logger.LogAttrs(p.ctx, slog.LevelDebug,
		"Attribute values filtered",
		slog.String("attribute", name),
		slog.Int("kept", kept),
		slog.Int("removed", removed),
	)
}

func (p *loggingFilterProbe) InvalidPattern(attribute, pattern string, err error) {
	p.logger.LogAttrs(p.ctx, slog.LevelWarn,
		"Invalid regex pattern in value constraint",
		slog.String("attribute", attribute),
		slog.String("pattern", pattern),
		slog.String("error", err.Error()),
	)
}

func (p *loggingFilterProbe) FilterSucceeded(attributesKept int) {
	p.logger.LogAttrs(p.ctx, slog.LevelDebug,
		"Attribute filtering completed",
		slog.Int("attributes_kept", attributesKept),
	)
}

func (p *loggingFilterProbe) FilterFailed(err error) {
	p.logger.LogAttrs(p.ctx, slog.LevelError,
		"Attribute filtering failed",
		slog.String("error", err.Error()),
	)
}
