package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cashdesk/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var errSchemaNotReady = errors.New("schema not migrated")

// openSessionIndex must exist for opens to be atomic; a database without it
// is reported as not ready.
const openSessionIndex = "uq_cash_sessions_open_operator"

type healthCheck struct {
	name string
	run  func(ctx context.Context) error
}

// HealthHandler reports whether the service can take a shift: Postgres is
// reachable and migrated, and Redis answers. It never exposes credentials.
type HealthHandler struct {
	currency string
	checks   []healthCheck
	backlog  func(ctx context.Context) (int64, error) // queued close reports, optional
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client, currency string) *HealthHandler {
	return &HealthHandler{
		currency: currency,
		checks: []healthCheck{
			{"db", func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			}},
			{"schema", func(ctx context.Context) error {
				var n int64
				err := db.WithContext(ctx).
					Raw("SELECT count(*) FROM pg_indexes WHERE indexname = ?", openSessionIndex).
					Scan(&n).Error
				if err == nil && n == 0 {
					return errSchemaNotReady
				}
				return err
			}},
			{"redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
		},
		backlog: func(ctx context.Context) (int64, error) {
			return rdb.LLen(ctx, worker.QueueReports).Result()
		},
	}
}

type healthResponse struct {
	OK             bool              `json:"ok"`
	Currency       string            `json:"currency"`
	Checks         map[string]string `json:"checks"`
	PendingReports *int64            `json:"pending_reports,omitempty"`
}

// Check godoc
// @Summary Liveness and readiness
// @Tags health
// @Produce json
// @Success 200 {object} healthResponse
// @Failure 503 {object} healthResponse
// @Router /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	resp := healthResponse{OK: true, Currency: h.currency, Checks: make(map[string]string, len(h.checks))}
	for _, chk := range h.checks {
		if err := chk.run(ctx); err != nil {
			resp.OK = false
			resp.Checks[chk.name] = "error"
			continue
		}
		resp.Checks[chk.name] = "ok"
	}
	if resp.OK && h.backlog != nil {
		if n, err := h.backlog(ctx); err == nil {
			resp.PendingReports = &n
		}
	}

	status := http.StatusOK
	if !resp.OK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
