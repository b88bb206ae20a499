package posixmq

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reddit/posixmq.go/internal/prometheusbpint"
	"github.com/reddit/posixmq.go/prometheusbp"
)

const (
	promNamespace = "posixmq"

	queueLabel   = "queue"
	successLabel = "success"
	sourceLabel  = "source"
)

var (
	publishLabels = []string{
		queueLabel,
		successLabel,
	}

	publishCounter = promauto.With(prometheusbpint.GlobalRegistry).NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "publish_total",
		Help:      "Total number of Publish calls",
	}, publishLabels)

	publishLatency = promauto.With(prometheusbpint.GlobalRegistry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: promNamespace,
		Name:      "publish_latency_seconds",
		Help:      "Latency of Publish calls, including the time waiting on a full queue",
		Buckets:   prometheusbp.DefaultLatencyBuckets,
	}, publishLabels)

	receiveLabels = []string{
		queueLabel,
		sourceLabel,
	}

	receiveCounter = promauto.With(prometheusbpint.GlobalRegistry).NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "receive_total",
		Help:      "Total number of messages received",
	}, receiveLabels)

	queueLabels = []string{
		queueLabel,
	}

	decodeErrorCounter = promauto.With(prometheusbpint.GlobalRegistry).NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "decode_errors_total",
		Help:      "Total number of received messages that are not valid utf-8 text",
	}, queueLabels)

	handlerErrorCounter = promauto.With(prometheusbpint.GlobalRegistry).NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "handler_errors_total",
		Help:      "Total number of unsuppressed errors returned by handlers",
	}, queueLabels)

	panicRecoverCounter = promauto.With(prometheusbpint.GlobalRegistry).NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "handler_recovered_panics_total",
		Help:      "Total number of panics recovered from handlers",
	}, queueLabels)

	notificationCounter = promauto.With(prometheusbpint.GlobalRegistry).NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "notifications_total",
		Help:      "Total number of notifications delivered by the system",
	}, queueLabels)

	activeHandlers = prometheusbpint.NewHighWatermarkVec(
		"posixmq_active_handlers",
		"The number of Handler calls in progress, from the receive loop and notifications combined",
		queueLabel,
	)
)

func init() {
	prometheusbpint.GlobalRegistry.MustRegister(activeHandlers)
}
