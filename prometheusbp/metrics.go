// Package prometheusbp provides shared helpers for the prometheus metrics
// exported by this module.
package prometheusbp

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultLatencyBuckets is the default bucket values for a prometheus
// histogram metric measuring latencies.
//
// Queue operations that don't wait are in the tens of microseconds,
// so the buckets start lower than the usual rpc buckets.
var DefaultLatencyBuckets = prometheus.ExponentialBuckets(0.00001, 2.5, 16) // 10us ~ 9.3s
