package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/medassist/internal/api/handlers"
	"github.com/your-org/medassist/internal/api/ws"
	"github.com/your-org/medassist/internal/auth"
	"github.com/your-org/medassist/internal/engine"
	"github.com/your-org/medassist/internal/queue"
	"github.com/your-org/medassist/internal/storage"
)

type RouterConfig struct {
	APIKey    string
	DB        *storage.PostgresStore
	MinIO     *storage.MinIOStore
	Producer  *queue.Producer
	Hub       *ws.Hub
	Store     *engine.ScheduleStore
	Scheduler *engine.Scheduler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.MinIO, cfg.Producer, cfg.Scheduler)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))

	// WebSocket
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Users
	userH := handlers.NewUserHandler(cfg.DB, cfg.Store, cfg.Scheduler)
	v1.POST("/users", userH.Create)
	v1.GET("/users", userH.List)
	v1.GET("/users/:id", userH.Get)
	v1.DELETE("/users/:id", userH.Delete)

	// Schedules
	schedH := handlers.NewScheduleHandler(cfg.DB, cfg.Store)
	v1.POST("/users/:id/schedule", schedH.Add)
	v1.GET("/users/:id/schedule", schedH.List)
	v1.DELETE("/users/:id/schedule/:entryId", schedH.Remove)

	// Face enrollment
	faceH := handlers.NewFaceHandler(cfg.DB, cfg.MinIO, cfg.Store, cfg.Producer)
	v1.POST("/users/:id/faces", faceH.Enroll)
	v1.GET("/users/:id/faces", faceH.ListTemplates)

	// Dose log
	doseH := handlers.NewDoseHandler(cfg.DB, cfg.MinIO)
	v1.GET("/users/:id/doses", doseH.ListForUser)
	v1.GET("/doses", doseH.List)
	v1.GET("/doses/:id", doseH.Get)
	v1.GET("/doses/:id/snapshot", doseH.Snapshot)

	// Live sessions
	v1.GET("/sessions", systemH.Status)

	return r
}
