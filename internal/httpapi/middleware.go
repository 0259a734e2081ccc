package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moltislabs/moltis/internal/logging"
)

var log = logging.NewComponentLogger("HTTPAPI")

// RequestLogger mirrors the teacher's LoggingMiddleware: one line per
// request, method/path/remote-addr plus latency once the handler returns.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("%s %s from %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.ClientIP(), c.Writer.Status(), time.Since(start))
	}
}
