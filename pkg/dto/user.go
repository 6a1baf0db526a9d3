package dto

import "github.com/google/uuid"

type CreateUserRequest struct {
	Name string `json:"name" binding:"required"`
}

type UserResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	EntryCount    int       `json:"entry_count"`
	TemplateCount int       `json:"template_count"`
	CreatedAt     string    `json:"created_at"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}

type FaceTemplateResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Quality   float32   `json:"quality"`
	SourceKey string    `json:"source_key"`
	CreatedAt string    `json:"created_at"`
}
