package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"civictrack-be/metrics"
)

// atomic INCR, and set the window on the first hit
var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// IssueRateLimiter caps how many issues one user may submit per window. It
// must run after AuthMiddleware. A nil client disables the limit and Redis
// failures let the request through.
func IssueRateLimiter(rdb *redis.Client, keyPrefix string, limit int, window time.Duration, m *metrics.Metrics, logger *logrus.Logger) gin.HandlerFunc {
	if rdb == nil || limit <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		userID := c.GetString(userIDKey)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided"})
			return
		}

		ctx := c.Request.Context()
		userKey := keyPrefix + ":" + userID

		count, err := incrExpireScript.Run(ctx, rdb, []string{userKey}, window.Milliseconds()).Int64()
		if err != nil {
			if logger != nil {
				logger.WithError(err).WithField("key", userKey).Warn("issue rate limiter unavailable")
			}
			c.Next()
			return
		}

		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(limit) {
			retryAfter, _ := rdb.TTL(ctx, userKey).Result()
			if retryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			}
			m.RateLimited()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter.Seconds(),
			})
			return
		}

		c.Next()
	}
}
