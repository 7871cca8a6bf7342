package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/project-relgate/relgate/internal/policy"
	"github.com/project-relgate/relgate/internal/probe"
)

// NewObserver creates a filter observer from configuration.
// This is a convenience wrapper that creates its own logger from cfg.
func NewObserver(cfg *ObservabilityConfig, registerer prometheus.Registerer) (policy.FilterObserver, error) {
	return NewObserverWithLogger(cfg, NewLogger(cfg), registerer)
}

// NewObserverWithLogger creates a filter observer using the provided logger.
// Use this when you want the observer to share a logger with other components.
func NewObserverWithLogger(cfg *ObservabilityConfig, logger *slog.Logger, registerer prometheus.Registerer) (policy.FilterObserver, error) {
	if cfg == nil {
		// Default to no-op observer if not configured
		return policy.NoOpFilterObserver{}, nil
	}

	switch cfg.Type {
	case "logging":
		return probe.NewLoggingObserverWithConfig(probe.LoggingObserverConfig{
			Logger: logger,
		}), nil
	case "metrics":
		return probe.NewMetricsObserver(registerer), nil
	case "noop", "":
		return policy.NoOpFilterObserver{}, nil
	case "composite":
		return newCompositeObserver(cfg, logger, registerer)
	default:
		return nil, fmt.Errorf("unknown observability type: %s (supported: logging, metrics, noop, composite)", cfg.Type)
	}
}

// NewLogger creates a structured logger from the observability configuration.
// Returns slog.Default() if cfg is nil.
func NewLogger(cfg *ObservabilityConfig) *slog.Logger {
	if cfg == nil {
		return slog.Default()
	}

	defaultLevel := parseLogLevel(cfg.LogLevel)
	handler := createEventFilteringHandler(cfg, defaultLevel)
	return slog.New(handler)
}

// newCompositeObserver creates a composite observer that delegates to multiple observers
func newCompositeObserver(cfg *ObservabilityConfig, logger *slog.Logger, registerer prometheus.Registerer) (policy.FilterObserver, error) {
	if len(cfg.Observers) == 0 {
		return nil, fmt.Errorf("composite observer requires at least one sub-observer")
	}

	var observers []policy.FilterObserver
	for i, subCfg := range cfg.Observers {
		observer, err := NewObserverWithLogger(&subCfg, logger, registerer)
		if err != nil {
			return nil, fmt.Errorf("failed to create observer %d: %w", i, err)
		}
		observers = append(observers, observer)
	}

	return policy.NewCompositeObserver(observers...), nil
}

// createEventFilteringHandler creates a handler that filters log events based on the event attribute
func createEventFilteringHandler(cfg *ObservabilityConfig, defaultLevel slog.Level) slog.Handler {
	// Create base handler
	baseHandler := createHandler(cfg.LogFormat, defaultLevel)

	// Build event-specific level map
	eventLevels := make(map[string]slog.Level)

	if cfg.AttributeFilter != nil {
		if cfg.AttributeFilter.Enabled != nil && !*cfg.AttributeFilter.Enabled {
			eventLevels["attribute_filter"] = slog.Level(1000) // Effectively disabled
		} else if cfg.AttributeFilter.LogLevel != "" {
			eventLevels["attribute_filter"] = parseLogLevel(cfg.AttributeFilter.LogLevel)
		}
	}

	return &eventFilteringHandler{
		next:         baseHandler,
		eventLevels:  eventLevels,
		defaultLevel: defaultLevel,
	}
}

// eventFilteringHandler wraps a handler and filters based on the event attribute
type eventFilteringHandler struct {
	next         slog.Handler
	eventLevels  map[string]slog.Level
	defaultLevel slog.Level
}

func (h *eventFilteringHandler) Enabled(ctx context.Context, level slog.Level) bool {
	// For now, use default level check
	// The actual filtering happens in Handle
	return level >= h.defaultLevel
}

func (h *eventFilteringHandler) Handle(ctx context.Context, record slog.Record) error {
	// Extract event attribute if present
	var eventName string
	record.Attrs(func(attr slog.Attr) bool {
		if attr.Key == "event" {
			eventName = attr.Value.String()
			return false // Stop iteration
		}
		return true
	})

	// Check event-specific level
	if eventName != "" {
		if eventLevel, ok := h.eventLevels[eventName]; ok {
			if record.Level < eventLevel {
				return nil // Filter out
			}
		}
	}

	return h.next.Handle(ctx, record)
}

func (h *eventFilteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &eventFilteringHandler{
		next:         h.next.WithAttrs(attrs),
		eventLevels:  h.eventLevels,
		defaultLevel: h.defaultLevel,
	}
}

func (h *eventFilteringHandler) WithGroup(name string) slog.Handler {
	return &eventFilteringHandler{
		next:         h.next.WithGroup(name),
		eventLevels:  h.eventLevels,
		defaultLevel: h.defaultLevel,
	}
}

// createHandler creates a slog handler based on format and level
func createHandler(format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	switch strings.ToLower(format) {
	case "text":
		return slog.NewTextHandler(os.Stdout, opts)
	case "json", "":
		return slog.NewJSONHandler(os.Stdout, opts)
	default:
		// Default to JSON
		return slog.NewJSONHandler(os.Stdout, opts)
	}
}

// parseLogLevel parses a log level string
func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		// Default to info
		return slog.LevelInfo
	}
}
