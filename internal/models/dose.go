package models

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is the terminal result of a reminder session.
type Outcome string

const (
	OutcomeConfirmed Outcome = "confirmed"
	OutcomeMissed    Outcome = "missed"
)

// Channel is the confirmation modality that resolved a session.
type Channel string

const (
	ChannelFace  Channel = "face"
	ChannelVoice Channel = "voice"
	ChannelNone  Channel = "none"
)

// DoseRecord is one append-only audit row: exactly one per resolved
// reminder session. Never mutated after write.
type DoseRecord struct {
	ID          uuid.UUID `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	UserName    string    `json:"user_name" db:"user_name"`
	Medicine    string    `json:"medicine" db:"medicine"`
	ScheduledAt time.Time `json:"scheduled_at" db:"scheduled_at"`
	ResolvedAt  time.Time `json:"resolved_at" db:"resolved_at"`
	Outcome     Outcome   `json:"outcome" db:"outcome"`
	Channel     Channel   `json:"channel" db:"channel"`
	Attempts    int       `json:"attempts" db:"attempts"`
	Confidence  float64   `json:"confidence,omitempty" db:"confidence"`
	SnapshotKey string    `json:"snapshot_key,omitempty" db:"snapshot_key"`
}

// DoseFilter narrows a dose log query. Nil fields match everything.
type DoseFilter struct {
	UserID *uuid.UUID
	From   *time.Time
	To     *time.Time
	Limit  int
}
