package main

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects HTTP and ABI lookup metrics for the service.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	lookups         *prometheus.CounterVec
	cacheSize       prometheus.GaugeFunc
}

// NewMetrics registers the service metrics on reg.
func NewMetrics(reg prometheus.Registerer, storage *ABIStorage) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "getabi",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "getabi",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"method", "path"},
		),
		lookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "getabi",
				Subsystem: "abi",
				Name:      "lookups_total",
				Help:      "ABI lookups by chain and source (cache, explorer, decompiler, error)",
			},
			[]string{"chain", "source"},
		),
		cacheSize: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: "getabi",
				Subsystem: "abi",
				Name:      "cache_entries",
				Help:      "Number of cached ABIs",
			},
			func() float64 { return float64(storage.Len()) },
		),
	}

	reg.MustRegister(m.requests, m.requestDuration, m.lookups, m.cacheSize)
	return m
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ObserveLookup(chainID int, source string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(strconv.Itoa(chainID), source).Inc()
}
