package prometheusbpint

import (
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// HighWatermarkValue is an int64 gauge that remembers its highest value.
//
// The zero value is ready to use.
type HighWatermarkValue struct {
	curr atomic.Int64
	max  atomic.Int64
}

// Inc increases the gauge value by 1.
func (hwv *HighWatermarkValue) Inc() {
	hwv.raise(hwv.curr.Add(1))
}

// Dec decreases the gauge value by 1.
func (hwv *HighWatermarkValue) Dec() {
	hwv.curr.Add(-1)
}

// Set sets the current value, and updates high watermark if needed.
func (hwv *HighWatermarkValue) Set(v int64) {
	hwv.curr.Store(v)
	hwv.raise(v)
}

func (hwv *HighWatermarkValue) raise(v int64) {
	for {
		max := hwv.max.Load()
		if v <= max || hwv.max.CompareAndSwap(max, v) {
			return
		}
	}
}

// Get gets the current gauge value.
func (hwv *HighWatermarkValue) Get() int64 {
	return hwv.curr.Load()
}

// Max returns the high watermark.
func (hwv *HighWatermarkValue) Max() int64 {
	return hwv.max.Load()
}

// HighWatermarkVec is a prometheus.Collector of HighWatermarkValues
// partitioned by a single label, reported as two gauges: name and name_max.
//
// Values are created on first use and live as long as the vec.
type HighWatermarkVec struct {
	curr *prometheus.Desc
	max  *prometheus.Desc

	lock   sync.Mutex
	values map[string]*HighWatermarkValue
}

var _ prometheus.Collector = (*HighWatermarkVec)(nil)

// NewHighWatermarkVec creates a HighWatermarkVec. It's not registered.
func NewHighWatermarkVec(name, help, label string) *HighWatermarkVec {
	return &HighWatermarkVec{
		curr:   prometheus.NewDesc(name, help, []string{label}, nil),
		max:    prometheus.NewDesc(name+"_max", "The high watermark of "+name, []string{label}, nil),
		values: make(map[string]*HighWatermarkValue),
	}
}

// WithLabelValue returns the value of labelValue, creating it when needed.
func (v *HighWatermarkVec) WithLabelValue(labelValue string) *HighWatermarkValue {
	v.lock.Lock()
	defer v.lock.Unlock()

	hwv, ok := v.values[labelValue]
	if !ok {
		hwv = new(HighWatermarkValue)
		v.values[labelValue] = hwv
	}
	return hwv
}

// Describe implements prometheus.Collector.
func (v *HighWatermarkVec) Describe(ch chan<- *prometheus.Desc) {
	ch <- v.curr
	ch <- v.max
}

// Collect implements prometheus.Collector.
func (v *HighWatermarkVec) Collect(ch chan<- prometheus.Metric) {
	v.lock.Lock()
	defer v.lock.Unlock()

	for labelValue, hwv := range v.values {
		ch <- prometheus.MustNewConstMetric(v.curr, prometheus.GaugeValue, float64(hwv.Get()), labelValue)
		ch <- prometheus.MustNewConstMetric(v.max, prometheus.GaugeValue, float64(hwv.Max()), labelValue)
	}
}
