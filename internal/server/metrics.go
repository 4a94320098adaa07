package server

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsNamespace = "peakinfo"

	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// Analysis outcomes recorded in peakinfo_analyses_total.
const (
	outcomeFound = "found"
	outcomeEmpty = "empty"
	outcomeError = "error"
)

type metrics struct {
	analyses *prometheus.CounterVec
	duration *prometheus.HistogramVec
	bins     prometheus.Histogram
	ranked   prometheus.Histogram
}

// newMetrics registers the analysis collectors on reg.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		analyses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "analyses_total",
			Help:      "Uploaded tables analyzed, by route and outcome.",
		}, []string{"route", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent reading and analyzing one upload.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		bins: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "histogram_bins",
			Help:      "Distinct energies per analyzed table.",
			Buckets:   prometheus.ExponentialBuckets(16, 2, 10),
		}),
		ranked: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "ranked_peaks",
			Help:      "Peaks reported per analyzed table.",
			Buckets:   prometheus.LinearBuckets(0, 1, 6),
		}),
	}
}

func metricsHandler(reg *prometheus.Registry) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
}

// requestID tags each request with the caller's X-Request-ID or a new UUID
// and echoes it in the response.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
