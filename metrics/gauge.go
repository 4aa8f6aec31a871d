package metrics

import (
	"errors"

	prom "github.com/prometheus/client_golang/prometheus"
)

type promGauge struct {
	gauge *prom.GaugeVec
}

var _ Gauge = (*promGauge)(nil)

// NewGauge registers and returns a Prometheus-backed Gauge.
func NewGauge(opt VectorOption) Gauge {
	vec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: opt.Namespace,
		Subsystem: opt.Subsystem,
		Name:      opt.Name,
		Help:      opt.Help,
	}, opt.Labels)
	prom.MustRegister(vec)
	return &promGauge{gauge: vec}
}

func (g *promGauge) Set(value float64, labels ...string) {
	g.gauge.WithLabelValues(labels...).Set(value)
}

func (g *promGauge) Inc(labels ...string) {
	g.gauge.WithLabelValues(labels...).Inc()
}

func (g *promGauge) Dec(labels ...string) {
	g.gauge.WithLabelValues(labels...).Dec()
}

func (g *promGauge) Close() error {
	if prom.Unregister(g.gauge) {
		return nil
	}
	return errors.New("metrics: failed to unregister gauge")
}
