package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pricewatch_back_end/internal/database"
)

const (
	// Track kicks off a headless-browser scrape on the far side, so it gets a
	// much tighter budget than plain reads.
	TrackMaxRequests = 10
	APIMaxRequests   = 100

	rateLimitWindow = 1 * time.Minute
)

// TrackRateLimit limits track requests per client IP.
func TrackRateLimit() gin.HandlerFunc {
	return rateLimit("track_requests:", TrackMaxRequests)
}

// APIRateLimit limits general API requests per client IP.
func APIRateLimit() gin.HandlerFunc {
	return rateLimit("api_requests:", APIMaxRequests)
}

func rateLimit(prefix string, max int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if database.Redis == nil {
			c.Next()
			return
		}

		ctx := context.Background()
		key := prefix + c.ClientIP()

		requests, _ := database.Redis.Get(ctx, key).Int()
		if requests >= max {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Try again in a minute",
				"retry_after": int(rateLimitWindow.Seconds()),
			})
			c.Abort()
			return
		}

		pipe := database.Redis.Pipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, rateLimitWindow)
		pipe.Exec(ctx)

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", max))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", max-requests-1))

		c.Next()
	}
}
