package dto

import "github.com/google/uuid"

type AddScheduleEntryRequest struct {
	Medicine string `json:"medicine" binding:"required"`
	// Time is a 24h "HH:MM" wall-clock time.
	Time string `json:"time" binding:"required"`
	// Weekdays are lowercase names ("monday", ...); empty means every day.
	Weekdays []string `json:"weekdays"`
}

type ScheduleEntryResponse struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Medicine string    `json:"medicine"`
	Time     string    `json:"time"`
	Weekdays []string  `json:"weekdays"`
}

type ScheduleListResponse struct {
	Entries []ScheduleEntryResponse `json:"entries"`
	Total   int                     `json:"total"`
}
