package devserver

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the stub backend's Prometheus collectors
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	LoginsTotal         prometheus.Counter
	UnauthorizedTotal   prometheus.Counter
	RollcallUpserts     prometheus.Counter
	UploadedBytes       prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dormdesk_devserver_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dormdesk_devserver_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LoginsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "dormdesk_devserver_logins_total",
			Help: "Authorization codes exchanged for a session",
		}),
		UnauthorizedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "dormdesk_devserver_unauthorized_total",
			Help: "Requests rejected for a missing or invalid session",
		}),
		RollcallUpserts: f.NewCounter(prometheus.CounterOpts{
			Name: "dormdesk_devserver_rollcall_upserts_total",
			Help: "Roll-call records written",
		}),
		UploadedBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "dormdesk_devserver_uploaded_bytes_total",
			Help: "Bytes received on presigned upload URLs",
		}),
	}
}

// metricsMiddleware records request counts and latency per route
func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		s.metrics.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		s.metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
