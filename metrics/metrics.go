// Package metrics wraps github.com/prometheus/client_golang behind
// small Counter/Gauge/Histogram interfaces, the same shape the
// teacher's metrics package uses, and a Start function that exposes
// them over an HTTP /metrics endpoint. Process-level metrics export is an
// ambient concern the core logs through, not a gameplay feature.
package metrics

// VectorOption configures a labeled metric vector.
type VectorOption struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string
	Labels    []string
}

// Metric is the lifecycle every metric kind shares.
type Metric interface {
	Close() error
}

// Counter is a monotonically increasing value.
type Counter interface {
	Metric
	Inc(labels ...string)
	Add(delta float64, labels ...string)
}

// Gauge is a value that can move in either direction.
type Gauge interface {
	Metric
	Set(value float64, labels ...string)
	Inc(labels ...string)
	Dec(labels ...string)
}

// Histogram observes a distribution of values.
type Histogram interface {
	Metric
	Observe(value float64, labels ...string)
}
