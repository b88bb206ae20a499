// Package promtest provides helpers to check prometheus metrics in tests.
package promtest

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

// PrometheusMetricTest stores information about a metric to use for testing.
type PrometheusMetricTest struct {
	tb          testing.TB
	metric      prometheus.Collector
	name        string
	initValue   float64
	labelValues []string
}

// CheckDelta checks that the metric value changes exactly delta from when
// NewPrometheusMetricTest was called.
//
// For histograms the value is the sample count.
func (p *PrometheusMetricTest) CheckDelta(delta float64) {
	p.tb.Helper()
	got := p.getValue() - p.initValue
	if got != delta {
		p.tb.Errorf("%s metric delta: wanted %v, got %v", p.name, delta, got)
	}
}

// CheckValue checks the current value of the metric.
func (p *PrometheusMetricTest) CheckValue(want float64) {
	p.tb.Helper()
	if got := p.getValue(); got != want {
		p.tb.Errorf("%s metric value: wanted %v, got %v", p.name, want, got)
	}
}

// CheckExists confirms that the metric exists.
func (p *PrometheusMetricTest) CheckExists() {
	p.tb.Helper()
	got := testutil.CollectAndCount(p.metric)
	if got < 1 {
		p.tb.Errorf("%s metric count: wanted at least 1, got %v", p.name, got)
	}
}

// NewPrometheusMetricTest creates a new test object for a Prometheus metric.
// It stores the current value of the metric along with the metric name.
func NewPrometheusMetricTest(tb testing.TB, name string, metric prometheus.Collector, labelValues ...string) *PrometheusMetricTest {
	tb.Helper()
	p := &PrometheusMetricTest{
		tb:          tb,
		metric:      metric,
		name:        name,
		labelValues: labelValues,
	}
	p.initValue = p.getValue()
	return p
}

// getValue returns the current value of the metric.
func (p *PrometheusMetricTest) getValue() float64 {
	p.tb.Helper()
	switch m := p.metric.(type) {
	case *prometheus.GaugeVec:
		gauge, err := m.GetMetricWithLabelValues(p.labelValues...)
		if err != nil {
			p.tb.Fatalf("get %s metric err %v", p.name, err)
		}
		return testutil.ToFloat64(gauge)
	case *prometheus.CounterVec:
		counter, err := m.GetMetricWithLabelValues(p.labelValues...)
		if err != nil {
			p.tb.Fatalf("get %s metric err %v", p.name, err)
		}
		return testutil.ToFloat64(counter)
	case *prometheus.HistogramVec:
		// testutil.ToFloat64 doesn't support histograms, read the sample count.
		observer, err := m.GetMetricWithLabelValues(p.labelValues...)
		if err != nil {
			p.tb.Fatalf("get %s metric err %v", p.name, err)
		}
		var pb dto.Metric
		if err := observer.(prometheus.Metric).Write(&pb); err != nil {
			p.tb.Fatalf("write %s metric err %v", p.name, err)
		}
		return float64(pb.GetHistogram().GetSampleCount())
	case prometheus.Collector:
		return testutil.ToFloat64(m)
	}
	return 0
}
