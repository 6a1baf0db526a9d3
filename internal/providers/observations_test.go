package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/medassist/internal/models"
)

func TestObservationBuffer(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("filters out stale observations", func(t *testing.T) {
		b := NewObservationBuffer(5 * time.Second)
		b.Add(models.FaceObservation{ID: uuid.New(), Timestamp: now.Add(-10 * time.Second)})
		b.Add(models.FaceObservation{ID: uuid.New(), Timestamp: now.Add(-2 * time.Second)})
		b.Add(models.FaceObservation{ID: uuid.New(), Timestamp: now})

		fresh := b.Recent(now)
		if len(fresh) != 2 {
			t.Fatalf("len(Recent) = %d, want 2", len(fresh))
		}
	})

	t.Run("returns newest first", func(t *testing.T) {
		b := NewObservationBuffer(time.Minute)
		first := models.FaceObservation{ID: uuid.New(), Timestamp: now.Add(-2 * time.Second)}
		second := models.FaceObservation{ID: uuid.New(), Timestamp: now}
		b.Add(first)
		b.Add(second)

		fresh := b.Recent(now)
		if len(fresh) != 2 || fresh[0].ID != second.ID || fresh[1].ID != first.ID {
			t.Fatal("Recent should list newest observation first")
		}
	})

	t.Run("evicts oldest beyond capacity", func(t *testing.T) {
		b := NewObservationBuffer(time.Hour)
		for i := 0; i < observationCap+10; i++ {
			b.Add(models.FaceObservation{ID: uuid.New(), Timestamp: now})
		}
		if got := len(b.Recent(now)); got != observationCap {
			t.Fatalf("len(Recent) = %d, want %d", got, observationCap)
		}
	})
}

type fakeMatcher struct {
	scores map[uuid.UUID]float64 // observation id -> score
	hasAny bool
	err    error
}

func (m *fakeMatcher) BestMatch(_ context.Context, _ uuid.UUID, emb []float32) (float64, bool, error) {
	if m.err != nil {
		return 0, false, m.err
	}
	if !m.hasAny {
		return 0, false, nil
	}
	// Embeddings in these tests carry the score in their first element.
	return float64(emb[0]), true, nil
}

func TestObservationVerifier(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	obsWithScore := func(score float32, key string) models.FaceObservation {
		return models.FaceObservation{
			ID:          uuid.New(),
			Timestamp:   now,
			Embedding:   []float32{score},
			SnapshotKey: key,
		}
	}

	t.Run("returns the best score over fresh observations", func(t *testing.T) {
		b := NewObservationBuffer(time.Minute)
		b.Add(obsWithScore(0.4, "low.jpg"))
		b.Add(obsWithScore(0.9, "high.jpg"))
		b.Add(obsWithScore(0.6, "mid.jpg"))

		v := NewObservationVerifier(b, &fakeMatcher{hasAny: true}, func() time.Time { return now })
		res, err := v.Verify(context.Background(), userID)
		if err != nil {
			t.Fatalf("Verify returned error: %v", err)
		}
		if !res.Seen || res.Score != 0.9 || res.SnapshotKey != "high.jpg" {
			t.Fatalf("Verify = %+v, want best score 0.9 from high.jpg", res)
		}
	})

	t.Run("not seen when buffer is empty", func(t *testing.T) {
		b := NewObservationBuffer(time.Minute)
		v := NewObservationVerifier(b, &fakeMatcher{hasAny: true}, func() time.Time { return now })
		res, err := v.Verify(context.Background(), userID)
		if err != nil {
			t.Fatalf("Verify returned error: %v", err)
		}
		if res.Seen {
			t.Fatal("Verify should not report Seen with no observations")
		}
	})

	t.Run("not seen when user has no templates", func(t *testing.T) {
		b := NewObservationBuffer(time.Minute)
		b.Add(obsWithScore(0.9, ""))
		v := NewObservationVerifier(b, &fakeMatcher{hasAny: false}, func() time.Time { return now })
		res, err := v.Verify(context.Background(), userID)
		if err != nil {
			t.Fatalf("Verify returned error: %v", err)
		}
		if res.Seen {
			t.Fatal("Verify should not report Seen without enrolled templates")
		}
	})

	t.Run("propagates matcher errors", func(t *testing.T) {
		b := NewObservationBuffer(time.Minute)
		b.Add(obsWithScore(0.9, ""))
		wantErr := errors.New("db down")
		v := NewObservationVerifier(b, &fakeMatcher{err: wantErr}, func() time.Time { return now })
		if _, err := v.Verify(context.Background(), userID); !errors.Is(err, wantErr) {
			t.Fatalf("Verify error = %v, want %v", err, wantErr)
		}
	})
}
