package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sandfs"

// ResultOK labels successful operations; failures are labelled with their error kind.
const ResultOK = "ok"

// Metrics holds the Prometheus collectors of a single engine
type Metrics struct {
	// Operation metrics
	Ops *prometheus.CounterVec

	// Volume metrics
	Nodes *prometheus.GaugeVec
	Bytes *prometheus.GaugeVec

	// Persistence metrics
	Persist *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates metrics on a private registry so several engines can coexist
// in one process.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWith(reg, reg)
}

// NewWith registers the collectors on reg and reports through g.
func NewWith(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Ops: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Engine operations by name and result",
			},
			[]string{"op", "result"},
		),
		Nodes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "volume_nodes",
				Help:      "Node count per volume",
			},
			[]string{"volume"},
		),
		Bytes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "volume_bytes",
				Help:      "Total file content bytes per volume",
			},
			[]string{"volume"},
		),
		Persist: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persistence_total",
				Help:      "Persistence backend calls by name and result",
			},
			[]string{"op", "result"},
		),
		gatherer: g,
	}
}

// ObserveOp counts one finished operation.
func (m *Metrics) ObserveOp(op, result string) {
	m.Ops.WithLabelValues(op, result).Inc()
}

// ObservePersist counts one finished backend call.
func (m *Metrics) ObservePersist(op, result string) {
	m.Persist.WithLabelValues(op, result).Inc()
}

// SetVolume records the current size of a volume.
func (m *Metrics) SetVolume(volume string, nodes int, bytes int64) {
	m.Nodes.WithLabelValues(volume).Set(float64(nodes))
	m.Bytes.WithLabelValues(volume).Set(float64(bytes))
}

// Gatherer exposes the collected metrics
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// Totals sums every counter sample per metric family name. Handy for logging a
// summary without an HTTP exporter.
func (m *Metrics) Totals() (map[string]float64, error) {
	families, err := m.gatherer.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(families))
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				out[mf.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				out[mf.GetName()] += metric.GetGauge().GetValue()
			}
		}
	}
	return out, nil
}
