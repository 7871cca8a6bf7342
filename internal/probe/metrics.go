package probe

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/project-relgate/relgate/internal/policy"
	"github.com/project-relgate/relgate/internal/request"
)

// MetricsObserver records filtering outcomes as Prometheus metrics
type MetricsObserver struct {
	exchangesTotal       *prometheus.CounterVec
	attributesDropped    *prometheus.CounterVec
	valuesRemovedTotal   prometheus.Counter
	invalidPatternsTotal prometheus.Counter
}

// NewMetricsObserver creates a metrics observer and registers its collectors
// with the given registerer. If registerer is nil, the default Prometheus
// registerer is used.
func NewMetricsObserver(registerer prometheus.Registerer) *MetricsObserver {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	o := &MetricsObserver{
		exchangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relgate",
			Subsystem: "filter",
			Name:      "exchanges_total",
			Help:      "Filtering passes, by outcome.",
		}, []string{"outcome"}),
		attributesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relgate",
			Subsystem: "filter",
			Name:      "attributes_dropped_total",
			Help:      "Attributes removed from bags, by reason.",
		}, []string{"reason"}),
		valuesRemovedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relgate",
			Subsystem: "filter",
			Name:      "values_removed_total",
			Help:      "Attribute values removed by value constraints.",
		}),
		invalidPatternsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "relgate",
			Subsystem: "filter",
			Name:      "invalid_patterns_total",
			Help:      "Regex patterns that failed to compile during filtering.",
		}),
	}

	registerer.MustRegister(
		o.exchangesTotal,
		o.attributesDropped,
		o.valuesRemovedTotal,
		o.invalidPatternsTotal,
	)

	return o
}

// FilterStarted implements policy.FilterObserver
func (o *MetricsObserver) FilterStarted(ctx context.Context, _ *request.Context) (context.Context, policy.FilterProbe) {
	return ctx, &metricsFilterProbe{observer: o}
}

type metricsFilterProbe struct {
	policy.NoOpFilterProbe
	observer *MetricsObserver
}

func (p *metricsFilterProbe) AttributeDropped(_ string, reason policy.DropReason) {
	p.observer.attributesDropped.WithLabelValues(string(reason)).Inc()
}

func (p *metricsFilterProbe) ValuesFiltered(_ string, _, removed int) {
	p.observer.valuesRemovedTotal.Add(float64(removed))
}

func (p *metricsFilterProbe) InvalidPattern(_, _ string, _ error) {
	p.observer.invalidPatternsTotal.Inc()
}

func (p *metricsFilterProbe) FilterSucceeded(int) {
	p.observer.exchangesTotal.WithLabelValues("success").Inc()
}

func (p *metricsFilterProbe) FilterFailed(error) {
	p.observer.exchangesTotal.WithLabelValues("error").Inc()
}
