package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/your-org/medassist/internal/engine"
	"github.com/your-org/medassist/internal/queue"
	"github.com/your-org/medassist/internal/storage"
)

type SystemHandler struct {
	db        *storage.PostgresStore
	minio     *storage.MinIOStore
	producer  *queue.Producer
	scheduler *engine.Scheduler
}

func NewSystemHandler(db *storage.PostgresStore, minio *storage.MinIOStore, producer *queue.Producer, scheduler *engine.Scheduler) *SystemHandler {
	return &SystemHandler{db: db, minio: minio, producer: producer, scheduler: scheduler}
}

func (h *SystemHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *SystemHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := h.db.Ping(ctx); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	} else {
		checks["postgres"] = "ok"
	}

	if err := h.minio.Ping(ctx); err != nil {
		checks["minio"] = err.Error()
		healthy = false
	} else {
		checks["minio"] = "ok"
	}

	if err := h.producer.Ping(); err != nil {
		checks["nats"] = err.Error()
		healthy = false
	} else {
		checks["nats"] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":          map[bool]string{true: "ready", false: "not ready"}[healthy],
		"checks":          checks,
		"active_sessions": h.scheduler.ActiveSessions(),
	})
}

// Status reports the live reminder sessions, mainly for operators.
func (h *SystemHandler) Status(c *gin.Context) {
	sessions := h.scheduler.LiveSessions()
	out := make([]gin.H, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, gin.H{
			"user_id":      s.User.ID,
			"user_name":    s.User.Name,
			"medicine":     s.Entry.Medicine,
			"scheduled_at": s.ScheduledAt.Format(time.RFC3339),
			"state":        s.State().String(),
			"attempt":      s.Attempt(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out, "total": len(out)})
}
