package models

import (
	"time"

	"github.com/google/uuid"
)

// FaceObservation is published by the external capture/embedding agent for
// every face seen by the shared camera. The engine only consumes the match
// score derived from the embedding; the raw imagery stays in MinIO.
type FaceObservation struct {
	ID          uuid.UUID `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Embedding   []float32 `json:"embedding"`
	Quality     float32   `json:"quality"`
	SnapshotKey string    `json:"snapshot_key"` // MinIO key of the face crop
	Source      string    `json:"source"`       // capture device identifier
}

// Transcript is one recognized utterance from the external
// speech-recognition agent.
type Transcript struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// EnrollmentTask asks the external embedding agent to turn an uploaded
// enrollment image into a face template.
type EnrollmentTask struct {
	UserID   uuid.UUID `json:"user_id"`
	ImageKey string    `json:"image_key"` // MinIO key of the uploaded image
}

// TemplateResult is the embedding agent's answer to an EnrollmentTask.
type TemplateResult struct {
	UserID    uuid.UUID `json:"user_id"`
	Embedding []float32 `json:"embedding"`
	Quality   float32   `json:"quality"`
	SourceKey string    `json:"source_key"`
}
