// Package engine contains the reminder orchestration core: the schedule
// store, the tick-driven scheduler, the per-dose session state machine and
// the buffered confirmation journal.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"

	"github.com/your-org/medassist/internal/gateway"
	"github.com/your-org/medassist/internal/models"
	"github.com/your-org/medassist/internal/observability"
)

// Authenticator is the session's view of the authentication gateway.
type Authenticator interface {
	Poll(ctx context.Context, userID uuid.UUID, deadline time.Time) gateway.Outcome
}

// EventSink receives engine lifecycle events for live delivery (WebSocket,
// NATS). Implementations must not block.
type EventSink interface {
	ReminderDue(user models.User, entry models.ScheduleEntry, scheduledAt time.Time)
	DoseResolved(rec models.DoseRecord)
}

// NopEvents discards all events.
type NopEvents struct{}

func (NopEvents) ReminderDue(models.User, models.ScheduleEntry, time.Time) {}
func (NopEvents) DoseResolved(models.DoseRecord)                           {}

// Config holds the scheduling knobs.
type Config struct {
	TickInterval   time.Duration
	AttemptTimeout time.Duration
	MaxAttempts    int
	CatchupWindow  time.Duration
	Location       *time.Location
}

func (c Config) withDefaults() Config {
	if c.TickInterval <= 0 {
		c.TickInterval = 60 * time.Second
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 20 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.CatchupWindow <= 0 {
		c.CatchupWindow = 10 * time.Minute
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	return c
}

// Slot marks live for two days; by then the calendar day it guards is
// over everywhere.
const slotTTL = 48 * time.Hour

// Scheduler turns per-user schedules into time-triggered reminder
// sessions. One Tick per interval computes which dose slots are newly due
// and spawns exactly one session per slot; a guard keyed by
// (user, medicine, time-of-day, date) makes ticks idempotent and
// concurrent ticks double-spawn safe.
type Scheduler struct {
	store   *ScheduleStore
	auth    Authenticator
	notify  NotificationPort
	journal *Journal
	events  EventSink
	clock   Clock
	cfg     Config

	// slots records every spawned or already-resolved dose slot.
	slots *cache.Cache

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

func NewScheduler(store *ScheduleStore, auth Authenticator, notify NotificationPort, journal *Journal, events EventSink, clock Clock, cfg Config) *Scheduler {
	if notify == nil {
		notify = LogNotifier{}
	}
	if events == nil {
		events = NopEvents{}
	}
	if clock == nil {
		clock = SystemClock
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		store:      store,
		auth:       auth,
		notify:     notify,
		journal:    journal,
		events:     events,
		clock:      clock,
		cfg:        cfg.withDefaults(),
		slots:      cache.New(slotTTL, time.Hour),
		sessions:   make(map[uuid.UUID]*Session),
		rootCtx:    ctx,
		rootCancel: cancel,
	}
}

// Run ticks the scheduler until ctx is done, then shuts down.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	s.Tick(s.clock.Now())
	for {
		select {
		case <-ctx.Done():
			s.Shutdown()
			return
		case <-ticker.C:
			s.Tick(s.clock.Now())
		}
	}
}

// Tick processes one scheduling instant. Idempotent: calling it twice
// with the same now spawns nothing new.
func (s *Scheduler) Tick(now time.Time) {
	s.journal.Flush(s.rootCtx)

	now = now.In(s.cfg.Location)
	for _, us := range s.store.Snapshot() {
		for _, entry := range us.Entries {
			if !entry.Days.Contains(now.Weekday()) {
				continue
			}
			due := entry.At.On(now, s.cfg.Location)
			if due.After(now) {
				continue
			}

			key := slotKey(us.User.ID, entry, due)
			if err := s.slots.Add(key, struct{}{}, slotTTL); err != nil {
				continue // live or already resolved today
			}

			if now.Sub(due) > s.cfg.CatchupWindow {
				// Stale trigger: the process slept past the slot. Log the
				// miss without alerting anyone hours after the fact.
				s.logStaleMiss(us.User, entry, due, now)
				continue
			}

			s.spawn(us.User, entry, due)
		}
	}
}

func (s *Scheduler) spawn(user models.User, entry models.ScheduleEntry, due time.Time) {
	ctx, cancel := context.WithCancel(s.rootCtx)
	sess := &Session{
		ID:          uuid.New(),
		User:        user,
		Entry:       entry,
		ScheduledAt: due,
		cancel:      cancel,
		sched:       s,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	observability.RemindersStarted.Inc()
	observability.ActiveSessions.Inc()
	s.events.ReminderDue(user, entry, due)
	slog.Info("reminder session started",
		"user", user.Name, "medicine", entry.Medicine, "due", due.Format(time.RFC3339))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(sess)
		sess.run(ctx)
	}()
}

func (s *Scheduler) release(sess *Session) {
	sess.cancel()
	s.mu.Lock()
	delete(s.sessions, sess.ID)
	s.mu.Unlock()
	observability.ActiveSessions.Dec()
}

func (s *Scheduler) logStaleMiss(user models.User, entry models.ScheduleEntry, due, now time.Time) {
	rec := models.DoseRecord{
		ID:          uuid.New(),
		UserID:      user.ID,
		UserName:    user.Name,
		Medicine:    entry.Medicine,
		ScheduledAt: due,
		ResolvedAt:  now,
		Outcome:     models.OutcomeMissed,
		Channel:     models.ChannelNone,
		Attempts:    0,
	}
	observability.DosesMissed.Inc()
	slog.Warn("slot aged past catch-up window; logging as missed",
		"user", user.Name, "medicine", entry.Medicine, "due", due.Format(time.RFC3339))
	s.journal.Append(s.rootCtx, rec)
	s.events.DoseResolved(rec)
}

// CancelUser cancels every live session for a deregistered user. The
// sessions are discarded without writing a record.
func (s *Scheduler) CancelUser(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, sess := range s.sessions {
		if sess.User.ID == userID {
			sess.cancel()
			n++
		}
	}
	return n
}

// ActiveSessions returns how many sessions are currently live.
func (s *Scheduler) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// LiveSessions returns a snapshot of the live sessions, for status APIs.
func (s *Scheduler) LiveSessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// Shutdown cancels all live sessions, waits for them to unwind and makes
// a final attempt to drain the journal buffer.
func (s *Scheduler) Shutdown() {
	s.rootCancel()
	s.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.journal.Flush(ctx)
}

func slotKey(userID uuid.UUID, entry models.ScheduleEntry, due time.Time) string {
	return fmt.Sprintf("%s|%s|%s|%s", userID, entry.Medicine, entry.At, due.Format("2006-01-02"))
}
