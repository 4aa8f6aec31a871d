package metrics

import (
	"errors"

	prom "github.com/prometheus/client_golang/prometheus"
)

type promCounter struct {
	counter *prom.CounterVec
}

var _ Counter = (*promCounter)(nil)

// NewCounter registers and returns a Prometheus-backed Counter.
func NewCounter(opt VectorOption) Counter {
	vec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: opt.Namespace,
		Subsystem: opt.Subsystem,
		Name:      opt.Name,
		Help:      opt.Help,
	}, opt.Labels)
	prom.MustRegister(vec)
	return &promCounter{counter: vec}
}

func (c *promCounter) Inc(labels ...string) {
	c.counter.WithLabelValues(labels...).Inc()
}

func (c *promCounter) Add(delta float64, labels ...string) {
	c.counter.WithLabelValues(labels...).Add(delta)
}

func (c *promCounter) Close() error {
	if prom.Unregister(c.counter) {
		return nil
	}
	return errors.New("metrics: failed to unregister counter")
}
