package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/taleemlabs/taleem-backend/internal/config"
	"github.com/taleemlabs/taleem-backend/internal/response"
)

// SystemHandler serves health and queue-depth probes.
type SystemHandler struct {
	pool      *pgxpool.Pool
	rdb       *redis.Client
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(pool *pgxpool.Pool, rdb *redis.Client) *SystemHandler {
	return &SystemHandler{pool: pool, rdb: rdb, startTime: time.Now()}
}

// Health godoc
// GET /health
// Reports process liveness plus dependency reachability and the archive
// queue depth.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbOK := h.pool.Ping(ctx) == nil
	redisOK := h.rdb.Ping(ctx).Err() == nil
	queueDepth, _ := h.rdb.LLen(ctx, config.WorkerKey.PersistReportsQueue).Result()

	status := http.StatusOK
	if !dbOK || !redisOK {
		status = http.StatusServiceUnavailable
	}

	response.Success(c, status, gin.H{
		"status":        map[bool]string{true: "ok", false: "degraded"}[dbOK && redisOK],
		"uptime":        time.Since(h.startTime).Round(time.Second).String(),
		"postgres":      dbOK,
		"redis":         redisOK,
		"archive_queue": queueDepth,
	})
}
