package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "popup_http_requests_total",
			Help: "Total number of HTTP requests processed by the popup service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "popup_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	streamActiveListeners = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "popup_stream_active_listeners",
			Help: "Number of connected live-stream listeners.",
		},
		[]string{"transport"},
	)
	streamEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "popup_stream_events_total",
			Help: "Total number of events published to the stream hub.",
		},
		[]string{"event"},
	)
	streamDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "popup_stream_dropped_events_total",
			Help: "Events dropped because a listener queue was full.",
		},
	)
	pushDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "popup_push_deliveries_total",
			Help: "Web push delivery attempts by outcome.",
		},
		[]string{"outcome"},
	)
	smsDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "popup_sms_deliveries_total",
			Help: "SMS delivery attempts by outcome.",
		},
		[]string{"outcome"},
	)
	reapedBroadcastsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "popup_reaped_broadcasts_total",
			Help: "Broadcasts removed by the expiry reaper.",
		},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "popup_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		streamActiveListeners,
		streamEventsTotal,
		streamDroppedTotal,
		pushDeliveriesTotal,
		smsDeliveriesTotal,
		reapedBroadcastsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncStreamActive(transport string) {
	streamActiveListeners.WithLabelValues(transport).Inc()
}

func DecStreamActive(transport string) {
	streamActiveListeners.WithLabelValues(transport).Dec()
}

func IncStreamEvent(event string) {
	streamEventsTotal.WithLabelValues(event).Inc()
}

func IncStreamDropped() {
	streamDroppedTotal.Inc()
}

func IncPushDelivery(outcome string) {
	pushDeliveriesTotal.WithLabelValues(outcome).Inc()
}

func IncSMSDelivery(outcome string) {
	smsDeliveriesTotal.WithLabelValues(outcome).Inc()
}

func AddReapedBroadcasts(count int64) {
	reapedBroadcastsTotal.Add(float64(count))
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
