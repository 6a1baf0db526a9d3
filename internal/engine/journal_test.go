package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/medassist/internal/models"
)

// memorySink is an in-memory DoseSink that can be made to fail for a
// number of calls. It deduplicates on record id like the Postgres table.
type memorySink struct {
	mu       sync.Mutex
	records  map[uuid.UUID]models.DoseRecord
	order    []uuid.UUID
	failures int
	calls    int
}

func newMemorySink() *memorySink {
	return &memorySink{records: make(map[uuid.UUID]models.DoseRecord)}
}

func (s *memorySink) AppendDose(_ context.Context, rec models.DoseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failures > 0 {
		s.failures--
		return errors.New("storage unavailable")
	}
	if _, ok := s.records[rec.ID]; !ok {
		s.records[rec.ID] = rec
		s.order = append(s.order, rec.ID)
	}
	return nil
}

func (s *memorySink) failNext(n int) {
	s.mu.Lock()
	s.failures = n
	s.mu.Unlock()
}

func (s *memorySink) all() []models.DoseRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.DoseRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

func record() models.DoseRecord {
	return models.DoseRecord{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		UserName: "Alice",
		Medicine: "aspirin",
		Outcome:  models.OutcomeConfirmed,
		Channel:  models.ChannelFace,
		Attempts: 1,
	}
}

func TestJournalAppend(t *testing.T) {
	t.Run("writes through on success", func(t *testing.T) {
		sink := newMemorySink()
		j := NewJournal(sink, 3, time.Millisecond)
		j.Append(context.Background(), record())

		if got := len(sink.all()); got != 1 {
			t.Fatalf("stored records = %d, want 1", got)
		}
		if j.Buffered() != 0 {
			t.Fatalf("Buffered = %d, want 0", j.Buffered())
		}
	})

	t.Run("retries transient failures", func(t *testing.T) {
		sink := newMemorySink()
		sink.failNext(2)
		j := NewJournal(sink, 3, time.Millisecond)
		j.Append(context.Background(), record())

		if got := len(sink.all()); got != 1 {
			t.Fatalf("stored records = %d, want 1 after retries", got)
		}
		if j.Buffered() != 0 {
			t.Fatalf("Buffered = %d, want 0", j.Buffered())
		}
	})

	t.Run("buffers on retry exhaustion and flushes later", func(t *testing.T) {
		sink := newMemorySink()
		sink.failNext(10)
		j := NewJournal(sink, 3, time.Millisecond)
		rec := record()
		j.Append(context.Background(), rec)

		if j.Buffered() != 1 {
			t.Fatalf("Buffered = %d, want 1", j.Buffered())
		}
		if got := len(sink.all()); got != 0 {
			t.Fatalf("stored records = %d, want 0 while storage is down", got)
		}

		// Storage is still down: flush keeps the record.
		j.Flush(context.Background())
		if j.Buffered() != 1 {
			t.Fatalf("Buffered after failed flush = %d, want 1", j.Buffered())
		}

		// Storage recovers: flush drains.
		sink.failNext(0)
		j.Flush(context.Background())
		if j.Buffered() != 0 {
			t.Fatalf("Buffered after flush = %d, want 0", j.Buffered())
		}
		got := sink.all()
		if len(got) != 1 || got[0].ID != rec.ID {
			t.Fatalf("stored = %v, want exactly the buffered record", got)
		}
	})

	t.Run("pre-assigned ids keep redelivery idempotent", func(t *testing.T) {
		sink := newMemorySink()
		j := NewJournal(sink, 3, time.Millisecond)
		rec := record()

		// A crash between write and ack can replay the same record; the
		// sink must end up with one row.
		j.Append(context.Background(), rec)
		j.Append(context.Background(), rec)

		if got := len(sink.all()); got != 1 {
			t.Fatalf("stored records = %d, want 1", got)
		}
	})
}
