package models

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Run("accepts valid times", func(t *testing.T) {
		cases := map[string]TimeOfDay{
			"08:00": {Hour: 8, Minute: 0},
			"8:05":  {Hour: 8, Minute: 5},
			"23:59": {Hour: 23, Minute: 59},
			"00:00": {Hour: 0, Minute: 0},
		}
		for in, want := range cases {
			got, err := ParseTimeOfDay(in)
			if err != nil {
				t.Fatalf("ParseTimeOfDay(%q) returned error: %v", in, err)
			}
			if got != want {
				t.Fatalf("ParseTimeOfDay(%q) = %+v, want %+v", in, got, want)
			}
		}
	})

	t.Run("rejects invalid times", func(t *testing.T) {
		for _, in := range []string{"", "8", "24:00", "12:60", "12:5", "noon", "-1:00"} {
			if _, err := ParseTimeOfDay(in); !errors.Is(err, ErrInvalidTime) {
				t.Fatalf("ParseTimeOfDay(%q) = %v, want ErrInvalidTime", in, err)
			}
		}
	})
}

func TestTimeOfDayOn(t *testing.T) {
	loc := time.UTC
	ref := time.Date(2025, 3, 14, 22, 45, 12, 0, loc)

	got := TimeOfDay{Hour: 8, Minute: 30}.On(ref, loc)
	want := time.Date(2025, 3, 14, 8, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("On = %s, want %s", got, want)
	}
}

func TestWeekdaySet(t *testing.T) {
	t.Run("empty list means every day", func(t *testing.T) {
		s, err := ParseWeekdaySet(nil)
		if err != nil {
			t.Fatalf("ParseWeekdaySet(nil) returned error: %v", err)
		}
		if s != AllDays() {
			t.Fatalf("ParseWeekdaySet(nil) = %b, want AllDays", s)
		}
		for d := time.Sunday; d <= time.Saturday; d++ {
			if !s.Contains(d) {
				t.Fatalf("AllDays should contain %s", d)
			}
		}
	})

	t.Run("parses full and short names", func(t *testing.T) {
		s, err := ParseWeekdaySet([]string{"Monday", "wed", " FRIDAY "})
		if err != nil {
			t.Fatalf("ParseWeekdaySet returned error: %v", err)
		}
		for _, d := range []time.Weekday{time.Monday, time.Wednesday, time.Friday} {
			if !s.Contains(d) {
				t.Fatalf("set should contain %s", d)
			}
		}
		for _, d := range []time.Weekday{time.Sunday, time.Tuesday, time.Thursday, time.Saturday} {
			if s.Contains(d) {
				t.Fatalf("set should not contain %s", d)
			}
		}
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		if _, err := ParseWeekdaySet([]string{"funday"}); err == nil {
			t.Fatal("expected error for unknown weekday name")
		}
	})

	t.Run("names round-trip", func(t *testing.T) {
		s := WeekdaySet(0).With(time.Sunday).With(time.Saturday)
		names := s.Names()
		if len(names) != 2 || names[0] != "sunday" || names[1] != "saturday" {
			t.Fatalf("Names = %v, want [sunday saturday]", names)
		}
	})
}

func TestScheduleEntryValidate(t *testing.T) {
	valid := ScheduleEntry{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		Medicine: "aspirin",
		At:       TimeOfDay{Hour: 8, Minute: 0},
		Days:     AllDays(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid entry rejected: %v", err)
	}

	t.Run("empty medicine", func(t *testing.T) {
		e := valid
		e.Medicine = "  "
		if err := e.Validate(); !errors.Is(err, ErrInvalidTime) {
			t.Fatalf("Validate = %v, want ErrInvalidTime", err)
		}
	})

	t.Run("out of range time", func(t *testing.T) {
		e := valid
		e.At = TimeOfDay{Hour: 24, Minute: 0}
		if err := e.Validate(); !errors.Is(err, ErrInvalidTime) {
			t.Fatalf("Validate = %v, want ErrInvalidTime", err)
		}
	})

	t.Run("empty weekday set", func(t *testing.T) {
		e := valid
		e.Days = 0
		if err := e.Validate(); !errors.Is(err, ErrInvalidTime) {
			t.Fatalf("Validate = %v, want ErrInvalidTime", err)
		}
	})
}
