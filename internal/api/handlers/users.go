package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/medassist/internal/engine"
	"github.com/your-org/medassist/internal/models"
	"github.com/your-org/medassist/internal/storage"
	"github.com/your-org/medassist/pkg/dto"
)

// SessionCanceller is the scheduler's deregistration hook.
type SessionCanceller interface {
	CancelUser(userID uuid.UUID) int
}

type UserHandler struct {
	db        *storage.PostgresStore
	store     *engine.ScheduleStore
	scheduler SessionCanceller
}

func NewUserHandler(db *storage.PostgresStore, store *engine.ScheduleStore, scheduler SessionCanceller) *UserHandler {
	return &UserHandler{db: db, store: store, scheduler: scheduler}
}

func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.db.CreateUser(c.Request.Context(), req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.store.AddUser(*user)

	c.JSON(http.StatusCreated, dto.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	})
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.db.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		entries, _ := h.store.Entries(u.ID)
		templates, _ := h.db.ListFaceTemplates(c.Request.Context(), u.ID)
		resp = append(resp, dto.UserResponse{
			ID:            u.ID,
			Name:          u.Name,
			EntryCount:    len(entries),
			TemplateCount: len(templates),
			CreatedAt:     u.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, dto.UserListResponse{Users: resp, Total: len(resp)})
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.db.GetUser(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	entries, _ := h.store.Entries(id)
	templates, _ := h.db.ListFaceTemplates(c.Request.Context(), id)

	c.JSON(http.StatusOK, dto.UserResponse{
		ID:            user.ID,
		Name:          user.Name,
		EntryCount:    len(entries),
		TemplateCount: len(templates),
		CreatedAt:     user.CreatedAt.Format(time.RFC3339),
	})
}

// Delete deregisters a user: live reminder sessions are cancelled and
// discarded, schedule entries and templates removed. Dose log rows stay.
func (h *UserHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	cancelled := h.scheduler.CancelUser(id)
	h.store.RemoveUser(id)

	if err := h.db.DeleteUser(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id, "cancelled_sessions": cancelled})
}

// statusFor maps schedule boundary errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrDuplicateEntry):
		return http.StatusConflict
	case errors.Is(err, models.ErrUnknownUser):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidTime):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
