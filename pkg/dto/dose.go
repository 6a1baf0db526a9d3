package dto

import "github.com/google/uuid"

type DoseRecordResponse struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	UserName    string    `json:"user_name"`
	Medicine    string    `json:"medicine"`
	ScheduledAt string    `json:"scheduled_at"`
	ResolvedAt  string    `json:"resolved_at"`
	Outcome     string    `json:"outcome"`
	Channel     string    `json:"channel"`
	Attempts    int       `json:"attempts"`
	Confidence  float64   `json:"confidence,omitempty"`
	SnapshotURL string    `json:"snapshot_url,omitempty"`
}

type DoseListResponse struct {
	Doses []DoseRecordResponse `json:"doses"`
	Total int                  `json:"total"`
}

// WSEvent is a WebSocket message for real-time reminder delivery.
type WSEvent struct {
	Type     string              `json:"type"` // reminder_due, dose_confirmed, dose_missed
	UserID   uuid.UUID           `json:"user_id"`
	UserName string              `json:"user_name,omitempty"`
	Medicine string              `json:"medicine,omitempty"`
	DueAt    string              `json:"due_at,omitempty"`
	Record   *DoseRecordResponse `json:"record,omitempty"`
}
