package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/your-org/medassist/internal/models"
)

// ScheduleStore is the engine's in-memory view of who takes what and
// when: per user, an ordered set of schedule entries. It is read on every
// scheduler tick and mutated through the API layer, which also persists
// the same changes to Postgres. Pure data, guarded by a read-write lock;
// the scheduler never holds it across a poll or timer wait.
type ScheduleStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*userSchedule
}

type userSchedule struct {
	user    models.User
	entries []models.ScheduleEntry
}

// UserSchedule is one user with their ordered entries, as returned by
// Snapshot.
type UserSchedule struct {
	User    models.User
	Entries []models.ScheduleEntry
}

func NewScheduleStore() *ScheduleStore {
	return &ScheduleStore{users: make(map[uuid.UUID]*userSchedule)}
}

// AddUser registers a user. Re-adding an existing id refreshes the
// display name and keeps the entries.
func (s *ScheduleStore) AddUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.users[u.ID]; ok {
		existing.user = u
		return
	}
	s.users[u.ID] = &userSchedule{user: u}
}

// RemoveUser deregisters a user and drops their entries.
func (s *ScheduleStore) RemoveUser(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return false
	}
	delete(s.users, id)
	return true
}

// User looks up a registered user.
func (s *ScheduleStore) User(id uuid.UUID) (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	us, ok := s.users[id]
	if !ok {
		return models.User{}, false
	}
	return us.user, true
}

// AddEntry validates and inserts one schedule entry. Duplicates on
// (user, medicine, time-of-day) are rejected.
func (s *ScheduleStore) AddEntry(e models.ScheduleEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	us, ok := s.users[e.UserID]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownUser, e.UserID)
	}
	for _, existing := range us.entries {
		if existing.Medicine == e.Medicine && existing.At == e.At {
			return fmt.Errorf("%w: %s at %s", models.ErrDuplicateEntry, e.Medicine, e.At)
		}
	}

	us.entries = append(us.entries, e)
	sortEntries(us.entries)
	return nil
}

// RemoveEntry deletes one entry by id.
func (s *ScheduleStore) RemoveEntry(userID, entryID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	us, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownUser, userID)
	}
	for i, e := range us.entries {
		if e.ID == entryID {
			us.entries = append(us.entries[:i], us.entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("schedule entry not found: %s", entryID)
}

// Entries returns a user's entries ordered by time-of-day then medicine.
func (s *ScheduleStore) Entries(userID uuid.UUID) ([]models.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	us, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownUser, userID)
	}
	out := make([]models.ScheduleEntry, len(us.entries))
	copy(out, us.entries)
	return out, nil
}

// Snapshot returns a stable copy of every user's schedule for one
// scheduler tick.
func (s *ScheduleStore) Snapshot() []UserSchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]UserSchedule, 0, len(s.users))
	for _, us := range s.users {
		entries := make([]models.ScheduleEntry, len(us.entries))
		copy(entries, us.entries)
		out = append(out, UserSchedule{User: us.user, Entries: entries})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User.Name < out[j].User.Name })
	return out
}

func sortEntries(entries []models.ScheduleEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.At != b.At {
			if a.At.Hour != b.At.Hour {
				return a.At.Hour < b.At.Hour
			}
			return a.At.Minute < b.At.Minute
		}
		return a.Medicine < b.Medicine
	})
}
