package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/medassist/internal/models"
	"github.com/your-org/medassist/internal/storage"
	"github.com/your-org/medassist/pkg/dto"
)

type DoseHandler struct {
	db    *storage.PostgresStore
	minio *storage.MinIOStore
}

func NewDoseHandler(db *storage.PostgresStore, minio *storage.MinIOStore) *DoseHandler {
	return &DoseHandler{db: db, minio: minio}
}

// List returns the dose log, optionally narrowed by user and time range.
func (h *DoseHandler) List(c *gin.Context) {
	var f models.DoseFilter

	if uidStr := c.Query("user_id"); uidStr != "" {
		id, err := uuid.Parse(uidStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
			return
		}
		f.UserID = &id
	}
	if fromStr := c.Query("from"); fromStr != "" {
		if t, err := time.Parse(time.RFC3339, fromStr); err == nil {
			f.From = &t
		}
	}
	if toStr := c.Query("to"); toStr != "" {
		if t, err := time.Parse(time.RFC3339, toStr); err == nil {
			f.To = &t
		}
	}
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "200"))

	records, err := h.db.QueryDoses(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.DoseRecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, DoseResponse(rec))
	}

	c.JSON(http.StatusOK, dto.DoseListResponse{Doses: resp, Total: len(resp)})
}

// ListForUser returns one user's dose history.
func (h *DoseHandler) ListForUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	f := models.DoseFilter{UserID: &userID}
	if fromStr := c.Query("from"); fromStr != "" {
		if t, err := time.Parse(time.RFC3339, fromStr); err == nil {
			f.From = &t
		}
	}
	if toStr := c.Query("to"); toStr != "" {
		if t, err := time.Parse(time.RFC3339, toStr); err == nil {
			f.To = &t
		}
	}
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "200"))

	records, err := h.db.QueryDoses(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.DoseRecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, DoseResponse(rec))
	}
	c.JSON(http.StatusOK, dto.DoseListResponse{Doses: resp, Total: len(resp)})
}

func (h *DoseHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dose id"})
		return
	}

	rec, err := h.db.GetDose(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "dose not found"})
		return
	}

	c.JSON(http.StatusOK, DoseResponse(*rec))
}

// Snapshot proxies the confirming face snapshot from MinIO.
func (h *DoseHandler) Snapshot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dose id"})
		return
	}

	rec, err := h.db.GetDose(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rec == nil || rec.SnapshotKey == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
		return
	}

	data, err := h.minio.GetObject(c.Request.Context(), rec.SnapshotKey)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "snapshot not found"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}

// DoseResponse converts a record into its API shape. Shared with the
// WebSocket event bridge.
func DoseResponse(rec models.DoseRecord) dto.DoseRecordResponse {
	r := dto.DoseRecordResponse{
		ID:          rec.ID,
		UserID:      rec.UserID,
		UserName:    rec.UserName,
		Medicine:    rec.Medicine,
		ScheduledAt: rec.ScheduledAt.Format(time.RFC3339),
		ResolvedAt:  rec.ResolvedAt.Format(time.RFC3339),
		Outcome:     string(rec.Outcome),
		Channel:     string(rec.Channel),
		Attempts:    rec.Attempts,
		Confidence:  rec.Confidence,
	}
	if rec.SnapshotKey != "" {
		r.SnapshotURL = "/v1/doses/" + rec.ID.String() + "/snapshot"
	}
	return r
}
