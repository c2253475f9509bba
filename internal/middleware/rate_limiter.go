package middleware

import (
	"net/http"
	"strconv"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// NewLimiter builds a limiter from a formatted rate ("300-M"). Counters live
// in Redis when rdb is given so every replica shares them; otherwise in
// process memory.
func NewLimiter(rate string, rdb *redis.Client) (*limiter.Limiter, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	var store limiter.Store
	if rdb != nil {
		store, err = sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "ratelimit"})
		if err != nil {
			return nil, err
		}
	} else {
		store = memory.NewStore()
	}
	return limiter.New(store, r), nil
}

// RateLimit keys on the operator when authenticated, the client IP otherwise.
// A store failure lets the request through.
func RateLimit(l *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if claims := GetClaims(c); claims != nil {
			key = "op:" + strconv.FormatInt(claims.OperatorID, 10)
		}

		lc, err := l.Get(c.Request.Context(), key)
		if err != nil {
			log.Warn().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("rate limit check failed")
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(lc.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(lc.Remaining, 10))
		if lc.Reached {
			c.Header("Retry-After", strconv.FormatInt(lc.Reset, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many requests"))
			return
		}
		c.Next()
	}
}
