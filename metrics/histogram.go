package metrics

import (
	"errors"

	prom "github.com/prometheus/client_golang/prometheus"
)

type promHistogram struct {
	histogram *prom.HistogramVec
}

var _ Histogram = (*promHistogram)(nil)

// NewHistogram registers and returns a Prometheus-backed Histogram
// using buckets, or the default bucket set when buckets is nil.
func NewHistogram(opt VectorOption, buckets []float64) Histogram {
	if buckets == nil {
		buckets = prom.DefBuckets
	}
	vec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: opt.Namespace,
		Subsystem: opt.Subsystem,
		Name:      opt.Name,
		Help:      opt.Help,
		Buckets:   buckets,
	}, opt.Labels)
	prom.MustRegister(vec)
	return &promHistogram{histogram: vec}
}

func (h *promHistogram) Observe(value float64, labels ...string) {
	h.histogram.WithLabelValues(labels...).Observe(value)
}

func (h *promHistogram) Close() error {
	if prom.Unregister(h.histogram) {
		return nil
	}
	return errors.New("metrics: failed to unregister histogram")
}
