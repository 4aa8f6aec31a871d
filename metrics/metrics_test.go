package metrics

import "testing"

func TestCounterIncAndClose(t *testing.T) {
	c := NewCounter(VectorOption{Namespace: "test", Name: "counter_inc_close", Labels: []string{"kind"}})
	c.Inc("a")
	c.Add(2, "a")
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestGaugeSetIncDec(t *testing.T) {
	g := NewGauge(VectorOption{Namespace: "test", Name: "gauge_set_inc_dec", Labels: []string{"kind"}})
	g.Set(5, "a")
	g.Inc("a")
	g.Dec("a")
	if err := g.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestHistogramObserve(t *testing.T) {
	h := NewHistogram(VectorOption{Namespace: "test", Name: "histogram_observe", Labels: []string{"kind"}}, nil)
	h.Observe(0.5, "a")
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
