package handler

import (
	"context"
	"net/http"
	"time"

	"foodie/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports DB and Redis connectivity plus dead-letter queue depths.
// A nil dependency is reported as "disabled" and does not fail the check.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		healthy := true
		body := gin.H{}

		body["db"] = "disabled"
		if db != nil {
			body["db"] = "connected"
			sqlDB, err := db.DB()
			if err != nil || sqlDB.PingContext(ctx) != nil {
				body["db"] = "error"
				healthy = false
			}
		}

		body["redis"] = "disabled"
		if rdb != nil {
			body["redis"] = "connected"
			if rdb.Ping(ctx).Err() != nil {
				body["redis"] = "error"
				healthy = false
			} else if depths, err := worker.DLQDepths(ctx, rdb); err == nil {
				body["dlq"] = depths
			}
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		body["ok"] = healthy
		c.JSON(status, body)
	}
}
