package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Schedule boundary errors. Requests that trip these are rejected
// synchronously; nothing invalid ever reaches the scheduling engine.
var (
	ErrInvalidTime    = errors.New("invalid schedule time")
	ErrDuplicateEntry = errors.New("duplicate schedule entry")
	ErrUnknownUser    = errors.New("unknown user")
)

// TimeOfDay is a wall-clock hour:minute in 24h form.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseTimeOfDay parses a strict "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var t TimeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &t.Hour, &t.Minute); err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) != 2 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return t, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On anchors the time-of-day to the calendar date of ref in loc.
func (t TimeOfDay) On(ref time.Time, loc *time.Location) time.Time {
	ref = ref.In(loc)
	return time.Date(ref.Year(), ref.Month(), ref.Day(), t.Hour, t.Minute, 0, 0, loc)
}

// WeekdaySet is a bitmask of applicable weekdays, bit 0 = Sunday.
type WeekdaySet uint8

// AllDays covers every weekday, the default for new entries.
func AllDays() WeekdaySet { return WeekdaySet(0x7f) }

func (s WeekdaySet) Contains(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

func (s WeekdaySet) With(d time.Weekday) WeekdaySet {
	return s | 1<<uint(d)
}

// Days lists the contained weekdays in Sunday-first order.
func (s WeekdaySet) Days() []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

// Names renders the set as lowercase weekday names for API round-trips.
func (s WeekdaySet) Names() []string {
	names := make([]string, 0, 7)
	for _, d := range s.Days() {
		names = append(names, strings.ToLower(d.String()))
	}
	return names
}

// ParseWeekdaySet builds a set from weekday names ("monday", "Tue", ...).
// An empty list means every day.
func ParseWeekdaySet(names []string) (WeekdaySet, error) {
	if len(names) == 0 {
		return AllDays(), nil
	}
	var s WeekdaySet
	for _, n := range names {
		d, err := parseWeekday(n)
		if err != nil {
			return 0, err
		}
		s = s.With(d)
	}
	return s, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if n == full || (len(n) == 3 && n == full[:3]) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidTime, name)
}

// ScheduleEntry is one recurring dose: a medicine due at a time-of-day on
// a set of weekdays. Uniquely identified by (user, medicine, time-of-day).
type ScheduleEntry struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Medicine  string     `json:"medicine" db:"medicine"`
	At        TimeOfDay  `json:"at" db:"time_of_day"`
	Days      WeekdaySet `json:"days" db:"weekdays"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Validate enforces the entry-creation invariants.
func (e ScheduleEntry) Validate() error {
	if strings.TrimSpace(e.Medicine) == "" {
		return fmt.Errorf("%w: empty medicine name", ErrInvalidTime)
	}
	if e.At.Hour < 0 || e.At.Hour > 23 || e.At.Minute < 0 || e.At.Minute > 59 {
		return fmt.Errorf("%w: %s", ErrInvalidTime, e.At)
	}
	if e.Days == 0 {
		return fmt.Errorf("%w: empty weekday set", ErrInvalidTime)
	}
	return nil
}
