package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/medassist/internal/engine"
	"github.com/your-org/medassist/internal/models"
	"github.com/your-org/medassist/internal/storage"
	"github.com/your-org/medassist/pkg/dto"
)

type ScheduleHandler struct {
	db    *storage.PostgresStore
	store *engine.ScheduleStore
}

func NewScheduleHandler(db *storage.PostgresStore, store *engine.ScheduleStore) *ScheduleHandler {
	return &ScheduleHandler{db: db, store: store}
}

// Add creates one schedule entry for a user. Validation happens before
// anything touches storage; the in-memory store and Postgres stay in sync.
func (h *ScheduleHandler) Add(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req dto.AddScheduleEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	at, err := models.ParseTimeOfDay(req.Time)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	days, err := models.ParseWeekdaySet(req.Weekdays)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, ok := h.store.User(userID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": models.ErrUnknownUser.Error()})
		return
	}

	entry := models.ScheduleEntry{
		UserID:   userID,
		Medicine: req.Medicine,
		At:       at,
		Days:     days,
	}

	// Postgres is the source of truth; the unique constraint rejects
	// duplicate (medicine, time) pairs before the scheduler sees them.
	if err := h.db.CreateScheduleEntry(c.Request.Context(), &entry); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if err := h.store.AddEntry(entry); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, entryResponse(entry))
}

func (h *ScheduleHandler) List(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	entries, err := h.store.Entries(userID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.ScheduleEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, entryResponse(e))
	}
	c.JSON(http.StatusOK, dto.ScheduleListResponse{Entries: resp, Total: len(resp)})
}

func (h *ScheduleHandler) Remove(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	entryID, err := uuid.Parse(c.Param("entryId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	if err := h.store.RemoveEntry(userID, entryID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if err := h.db.DeleteScheduleEntry(c.Request.Context(), userID, entryID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": entryID})
}

func entryResponse(e models.ScheduleEntry) dto.ScheduleEntryResponse {
	return dto.ScheduleEntryResponse{
		ID:       e.ID,
		UserID:   e.UserID,
		Medicine: e.Medicine,
		Time:     e.At.String(),
		Weekdays: e.Days.Names(),
	}
}
