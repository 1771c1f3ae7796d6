package middlewares

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// LoginThrottle is a redis-backed fixed-window counter keyed by client
// IP. It is shared across API replicas, unlike the in-process limiter,
// which matters exactly for the credential-guessing case. Redis being
// unavailable fails open: login keeps working, the throttle does not.
type LoginThrottle struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	log    *slog.Logger
}

func NewLoginThrottle(rdb *redis.Client, limit int, window time.Duration, log *slog.Logger) *LoginThrottle {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Minute
	}

	return &LoginThrottle{
		rdb:    rdb,
		limit:  limit,
		window: window,
		log:    log,
	}
}

func (t *LoginThrottle) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if t.rdb == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("throttle:login:%s", clientIP(c))
		ctx := c.Request.Context()

		pipe := t.rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, t.window)

		if _, err := pipe.Exec(ctx); err != nil {
			t.log.WarnContext(ctx, "login throttle unavailable", "error", err)
			c.Next()
			return
		}

		if incr.Val() > int64(t.limit) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(t.window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many login attempts. Please try again shortly.",
				},
			})
			return
		}

		c.Next()
	}
}
