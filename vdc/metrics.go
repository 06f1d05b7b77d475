package vdc

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/xcube-dev/xcube-vdc-places/metric"
)

const metricsComponent = "pipeline"

// pipelineMetrics counts the work done by the resolve-load-materialize
// pipeline. All methods are nil-safe so the pipeline runs unchanged without
// a metrics registry.
type pipelineMetrics struct {
	datasetsResolved   prometheus.Counter
	cubesOpened        prometheus.Counter
	openerMisses       prometheus.Counter
	openFailures       *prometheus.CounterVec
	placeGroupsCreated prometheus.Counter
	featuresLoaded     prometheus.Counter
}

func newPipelineMetrics(registry metric.MetricsRegistrar) (*pipelineMetrics, error) {
	m := &pipelineMetrics{
		datasetsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: metricsComponent,
			Name:      "datasets_resolved_total",
			Help:      "Resolved dataset configs produced by wildcard expansion.",
		}),
		cubesOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: metricsComponent,
			Name:      "cubes_opened_total",
			Help:      "Vector data cubes opened successfully.",
		}),
		openerMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: metricsComponent,
			Name:      "opener_misses_total",
			Help:      "Datasets skipped because no vector-data-cube opener was advertised.",
		}),
		openFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: metricsComponent,
			Name:      "open_failures_total",
			Help:      "Datasets whose cube open failed, by store instance.",
		}, []string{"store_instance"}),
		placeGroupsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: metricsComponent,
			Name:      "place_groups_created_total",
			Help:      "Place groups created and cached.",
		}),
		featuresLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: metricsComponent,
			Name:      "features_loaded_total",
			Help:      "Features materialized into place groups.",
		}),
	}

	registrations := []struct {
		name    string
		counter prometheus.Counter
	}{
		{"datasets_resolved", m.datasetsResolved},
		{"cubes_opened", m.cubesOpened},
		{"opener_misses", m.openerMisses},
		{"place_groups_created", m.placeGroupsCreated},
		{"features_loaded", m.featuresLoaded},
	}
	for _, reg := range registrations {
		if err := registry.RegisterCounter(metricsComponent, reg.name, reg.counter); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterCounterVec(metricsComponent, "open_failures", m.openFailures); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *pipelineMetrics) addDatasetsResolved(n int) {
	if m != nil {
		m.datasetsResolved.Add(float64(n))
	}
}

func (m *pipelineMetrics) incCubesOpened() {
	if m != nil {
		m.cubesOpened.Inc()
	}
}

func (m *pipelineMetrics) incOpenerMisses() {
	if m != nil {
		m.openerMisses.Inc()
	}
}

func (m *pipelineMetrics) incOpenFailures(storeInstanceID string) {
	if m != nil {
		m.openFailures.WithLabelValues(storeInstanceID).Inc()
	}
}

func (m *pipelineMetrics) incPlaceGroupsCreated() {
	if m != nil {
		m.placeGroupsCreated.Inc()
	}
}

func (m *pipelineMetrics) addFeaturesLoaded(n int) {
	if m != nil {
		m.featuresLoaded.Add(float64(n))
	}
}
