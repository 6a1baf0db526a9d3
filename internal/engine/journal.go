package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/your-org/medassist/internal/models"
	"github.com/your-org/medassist/internal/observability"
)

// DoseSink is the durable append-only backend of the confirmation log.
type DoseSink interface {
	AppendDose(ctx context.Context, rec models.DoseRecord) error
}

// Journal wraps the dose sink with a bounded retry/backoff policy and an
// in-memory overflow buffer. A session's outcome is never blocked on
// storage: on retry exhaustion the record is buffered and re-flushed on
// the next scheduler tick. Record ids are fixed before the first write
// attempt, so the sink can deduplicate and delivery is at-least-once.
type Journal struct {
	sink    DoseSink
	retries int
	backoff time.Duration

	mu     sync.Mutex
	buffer []models.DoseRecord
}

func NewJournal(sink DoseSink, retries int, backoff time.Duration) *Journal {
	if retries <= 0 {
		retries = 3
	}
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	return &Journal{sink: sink, retries: retries, backoff: backoff}
}

// Append writes one record, retrying with doubling backoff. On exhaustion
// the record is buffered for the next Flush.
func (j *Journal) Append(ctx context.Context, rec models.DoseRecord) {
	wait := j.backoff
	var err error
	for attempt := 1; attempt <= j.retries; attempt++ {
		if err = j.sink.AppendDose(ctx, rec); err == nil {
			return
		}
		if attempt == j.retries {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			attempt = j.retries
		case <-time.After(wait):
			wait *= 2
		}
	}

	slog.Error("dose record append failed; buffering for retry",
		"user", rec.UserName, "medicine", rec.Medicine, "error", err)

	j.mu.Lock()
	j.buffer = append(j.buffer, rec)
	observability.LogBufferSize.Set(float64(len(j.buffer)))
	j.mu.Unlock()
}

// Flush retries buffered records once each, keeping the ones that still
// fail. Called from the scheduler tick.
func (j *Journal) Flush(ctx context.Context) {
	j.mu.Lock()
	pending := j.buffer
	j.buffer = nil
	j.mu.Unlock()

	if len(pending) == 0 {
		return
	}

	var kept []models.DoseRecord
	for _, rec := range pending {
		if err := j.sink.AppendDose(ctx, rec); err != nil {
			kept = append(kept, rec)
		}
	}

	j.mu.Lock()
	j.buffer = append(kept, j.buffer...)
	observability.LogBufferSize.Set(float64(len(j.buffer)))
	j.mu.Unlock()

	if flushed := len(pending) - len(kept); flushed > 0 {
		slog.Info("flushed buffered dose records", "count", flushed, "remaining", len(kept))
	}
}

// Buffered reports how many records await a storage retry.
func (j *Journal) Buffered() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.buffer)
}
