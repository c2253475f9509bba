package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/apierror"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/infra"
	"github.com/2gwcdxw7tk-arch/SystemInvoice-sub001/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports store, Redis and sales feed state. Only the store and
// Redis decide the status code; an open breaker degrades closing, not reads.
// breaker is nil when the built-in ledger feed is used.
func Health(db *gorm.DB, rdb *redis.Client, breaker *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "disabled"
		dlq := gin.H{}
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			} else {
				for _, q := range []string{worker.QueueSessionReport, worker.QueueVarianceAlert} {
					if n, err := worker.DLQLength(ctx, rdb, q); err == nil {
						dlq[q] = n
					}
				}
			}
		}

		feed := "ledger"
		if breaker != nil {
			feed = breaker.State().String()
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus == "error" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ok":         status == http.StatusOK,
			"db":         dbStatus,
			"redis":      redisStatus,
			"sales_feed": feed,
			"dlq":        dlq,
		})
	}
}

// deadLetterQueues maps the public queue names to their Redis lists.
var deadLetterQueues = map[string]string{
	"session_report": worker.QueueSessionReport,
	"variance_alert": worker.QueueVarianceAlert,
}

// DeadLetters godoc
// @Summary Lists the newest dead-lettered jobs of a queue
// @Tags jobs
// @Produce json
// @Security BearerAuth
// @Param queue query string true "session_report | variance_alert"
// @Param limit query int false "1..100, default 20"
// @Success 200 {array} worker.DLQEntry
// @Failure 400 {object} apierror.APIError
// @Failure 503 {object} apierror.APIError
// @Router /v1/jobs/dead-letters [get]
func DeadLetters(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		queue, ok := deadLetterQueues[c.Query("queue")]
		if !ok {
			c.JSON(http.StatusBadRequest, apierror.New("queue must be session_report or variance_alert"))
			return
		}
		limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
		if err != nil || limit < 1 || limit > 100 {
			c.JSON(http.StatusBadRequest, apierror.New("limit must be between 1 and 100"))
			return
		}
		if rdb == nil {
			c.JSON(http.StatusServiceUnavailable, apierror.New("job queue disabled"))
			return
		}
		entries, err := worker.PeekDLQ(c.Request.Context(), rdb, queue, limit)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}
