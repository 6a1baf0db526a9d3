package providers

import (
	"sync"
	"time"

	"github.com/your-org/medassist/internal/models"
)

const observationCap = 64

// ObservationBuffer keeps the most recent face observations from the
// shared camera. The gateway's face channel reads from here instead of
// touching capture hardware; anything older than the freshness window is
// ignored so a stale frame can never confirm a dose.
type ObservationBuffer struct {
	mu        sync.Mutex
	obs       []models.FaceObservation
	freshness time.Duration
}

func NewObservationBuffer(freshness time.Duration) *ObservationBuffer {
	return &ObservationBuffer{freshness: freshness}
}

// Add records an observation, evicting the oldest when full.
func (b *ObservationBuffer) Add(o models.FaceObservation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.obs = append(b.obs, o)
	if len(b.obs) > observationCap {
		b.obs = b.obs[len(b.obs)-observationCap:]
	}
}

// Recent returns fresh observations, newest first.
func (b *ObservationBuffer) Recent(now time.Time) []models.FaceObservation {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := now.Add(-b.freshness)
	var fresh []models.FaceObservation
	for i := len(b.obs) - 1; i >= 0; i-- {
		if b.obs[i].Timestamp.Before(cutoff) {
			continue
		}
		fresh = append(fresh, b.obs[i])
	}
	return fresh
}
