package breakerbp

import (
	"errors"
	"testing"

	"github.com/reddit/posixmq.go/prometheusbp/promtest"
)

func TestClosedGauge(t *testing.T) {
	const name = "gauge"
	cb := NewFailureRatioBreaker(Config{
		Name:              name,
		MinRequestsToTrip: 2,
		FailureThreshold:  .5,
	})
	promtest.NewPrometheusMetricTest(t, "closed", breakerClosed, name).CheckValue(1)
	promtest.NewPrometheusMetricTest(t, "timeout", breakerTimeout, name).CheckValue(0)

	for i := 0; i < 2; i++ {
		cb.Do(func() error { return errors.New("queue full") })
	}
	promtest.NewPrometheusMetricTest(t, "closed", breakerClosed, name).CheckValue(0)
}
