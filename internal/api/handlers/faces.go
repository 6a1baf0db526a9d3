package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/medassist/internal/engine"
	"github.com/your-org/medassist/internal/models"
	"github.com/your-org/medassist/internal/storage"
	"github.com/your-org/medassist/pkg/dto"
)

// EnrollPublisher hands an uploaded enrollment image off to the external
// embedding agent.
type EnrollPublisher interface {
	PublishEnrollTask(data interface{}) error
}

type FaceHandler struct {
	db    *storage.PostgresStore
	minio *storage.MinIOStore
	store *engine.ScheduleStore
	queue EnrollPublisher
}

func NewFaceHandler(db *storage.PostgresStore, minio *storage.MinIOStore, store *engine.ScheduleStore, queue EnrollPublisher) *FaceHandler {
	return &FaceHandler{db: db, minio: minio, store: store, queue: queue}
}

// Enroll accepts a multipart image upload, stores it, and queues template
// extraction. The template appears asynchronously once the embedding agent
// answers on the observations stream.
func (h *FaceHandler) Enroll(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if _, ok := h.store.User(userID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrUnknownUser.Error()})
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read image failed"})
		return
	}

	key := storage.EnrollmentKey(userID)
	if err := h.minio.PutObject(c.Request.Context(), key, imageData, header.Header.Get("Content-Type")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store image failed"})
		return
	}

	task := models.EnrollmentTask{UserID: userID, ImageKey: key}
	if err := h.queue.PublishEnrollTask(task); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "enrollment queue unavailable"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "image_key": key})
}

func (h *FaceHandler) ListTemplates(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	templates, err := h.db.ListFaceTemplates(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.FaceTemplateResponse, 0, len(templates))
	for _, t := range templates {
		resp = append(resp, dto.FaceTemplateResponse{
			ID:        t.ID,
			UserID:    t.UserID,
			Quality:   t.Quality,
			SourceKey: t.SourceKey,
			CreatedAt: t.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}

	c.JSON(http.StatusOK, gin.H{"templates": resp, "total": len(resp)})
}
