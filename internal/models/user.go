package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FaceTemplate is an enrolled face embedding for a user. The reminder
// engine never inspects the embedding; it only consumes match scores
// computed against it.
type FaceTemplate struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Embedding []float32 `json:"-" db:"embedding"`
	Quality   float32   `json:"quality" db:"quality"`
	SourceKey string    `json:"source_key" db:"source_key"` // MinIO key of the enrollment image
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
