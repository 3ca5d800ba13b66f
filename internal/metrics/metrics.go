package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "teamchat_ws_connections",
		Help: "Current number of active websocket connections",
	})
	MessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "teamchat_messages_total",
		Help: "Total number of chat messages sent",
	})
	ProvisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "teamchat_group_provisions_total",
		Help: "Group chat provisioning outcomes by terminal step",
	}, []string{"outcome", "step"})
	MemberSyncFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "teamchat_member_sync_failures_total",
		Help: "Per-member provider failures by workflow step and error kind",
	}, []string{"step", "kind"})
	MembershipSyncTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "teamchat_membership_sync_total",
		Help: "Collaborator sync attempts after chat membership changes",
	}, []string{"op", "result"})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(
		WsConnections,
		MessagesTotal,
		ProvisionsTotal,
		MemberSyncFailuresTotal,
		MembershipSyncTotal,
		HttpRequestsTotal,
		HttpRequestDuration,
	)
}

// GinMiddleware records request counts and latency per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
