package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campus-os/timetable-api/internal/service"
)

// Metrics returns middleware that records request counts and latency.
func Metrics(httpMetrics *service.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if httpMetrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		httpMetrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
