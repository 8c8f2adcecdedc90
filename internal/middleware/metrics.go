package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/panelkit/panelkit/pkg/metrics"
)

// unmatchedRoute caps the path label cardinality: requests that hit no
// registered route would otherwise put arbitrary URLs into the metric.
const unmatchedRoute = "unmatched"

// Metrics observes per-route request latency.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		metrics.APILatency.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
