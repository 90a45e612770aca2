package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/quocanhngo/sportcast/internal/model"
)

// RateLimit shares one token bucket between every request on the route group.
// Manual pushes reach every device, so the limit is global rather than per client.
func RateLimit(perSecond float64, burst int) gin.HandlerFunc {
	if perSecond <= 0 || burst <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, model.ErrorResponse{
				Error:   "Too many requests",
				Message: "notification sending is rate limited, try again shortly",
			})
			return
		}
		c.Next()
	}
}
