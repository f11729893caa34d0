package middleware

import (
	"net/http"

	"github.com/auditgate/auditgate/internal/config"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware applies one shared token bucket to the log query
// API, keeping expensive list scans from starving the write path.
func RateLimitMiddleware(cfg *config.Config) gin.HandlerFunc {
	perSecond := 50.0
	burst := 100
	if cfg != nil {
		if cfg.Server.RatePerSecond > 0 {
			perSecond = cfg.Server.RatePerSecond
		}
		if cfg.Server.RateBurst > 0 {
			burst = cfg.Server.RateBurst
		}
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": "1s",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
