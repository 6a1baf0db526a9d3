package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/medassist/internal/models"
	"github.com/your-org/medassist/internal/observability"
)

// SessionState is a reminder session's position in its lifecycle.
type SessionState int32

const (
	StateIdle SessionState = iota
	StateAlerting
	StateAwaitingConfirmation
	StateRetrying
	StateConfirmed
	StateMissed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAlerting:
		return "alerting"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	case StateRetrying:
		return "retrying"
	case StateConfirmed:
		return "confirmed"
	case StateMissed:
		return "missed"
	default:
		return "unknown"
	}
}

// Session is one per-dose reminder: it alerts, polls the authentication
// gateway under a per-attempt deadline, retries up to the configured
// maximum, and resolves to exactly one terminal outcome. Owned by the
// Scheduler for its whole lifetime.
type Session struct {
	ID          uuid.UUID
	User        models.User
	Entry       models.ScheduleEntry
	ScheduledAt time.Time

	state   atomic.Int32
	attempt atomic.Int32
	cancel  context.CancelFunc
	sched   *Scheduler
}

// State returns the current lifecycle state.
func (sess *Session) State() SessionState {
	return SessionState(sess.state.Load())
}

// Attempt returns the attempt currently in progress (1-based).
func (sess *Session) Attempt() int {
	return int(sess.attempt.Load())
}

func (sess *Session) setState(st SessionState) {
	sess.state.Store(int32(st))
}

// run drives the state machine to a terminal outcome. Cancellation
// (user deregistration or shutdown) discards the session without writing
// a record; no synthetic outcome is ever logged.
func (sess *Session) run(ctx context.Context) {
	s := sess.sched

	for attempt := 1; ; attempt++ {
		sess.attempt.Store(int32(attempt))
		sess.setState(StateAlerting)
		s.notify.Announce(alertText(sess.User.Name, sess.Entry.Medicine, attempt))

		sess.setState(StateAwaitingConfirmation)
		// The deadline is fixed once per attempt; no external event can
		// extend it, and a wall-clock jump mid-attempt does not move it.
		deadline := s.clock.Now().Add(s.cfg.AttemptTimeout)
		out := s.auth.Poll(ctx, sess.User.ID, deadline)

		if ctx.Err() != nil {
			return
		}
		if out.Matched {
			sess.setState(StateConfirmed)
			sess.resolve(models.DoseRecord{
				Outcome:     models.OutcomeConfirmed,
				Channel:     out.Channel,
				Confidence:  out.Confidence,
				SnapshotKey: out.SnapshotKey,
				Attempts:    attempt,
			})
			s.notify.Announce(confirmText(sess.User.Name, sess.Entry.Medicine))
			return
		}
		if attempt >= s.cfg.MaxAttempts {
			sess.setState(StateMissed)
			sess.resolve(models.DoseRecord{
				Outcome:  models.OutcomeMissed,
				Channel:  models.ChannelNone,
				Attempts: attempt,
			})
			s.notify.Announce(missedText(sess.User.Name, sess.Entry.Medicine))
			return
		}
		sess.setState(StateRetrying)
	}
}

// resolve fills in the identity fields and writes the single terminal
// record for this session.
func (sess *Session) resolve(rec models.DoseRecord) {
	s := sess.sched

	rec.ID = uuid.New()
	rec.UserID = sess.User.ID
	rec.UserName = sess.User.Name
	rec.Medicine = sess.Entry.Medicine
	rec.ScheduledAt = sess.ScheduledAt
	rec.ResolvedAt = s.clock.Now()

	if rec.Outcome == models.OutcomeConfirmed {
		observability.DosesConfirmed.WithLabelValues(string(rec.Channel)).Inc()
	} else {
		observability.DosesMissed.Inc()
	}
	observability.ReminderAttempts.Observe(float64(rec.Attempts))

	// Storage failures buffer inside the journal; the session is done
	// either way.
	s.journal.Append(context.Background(), rec)
	s.events.DoseResolved(rec)
}
