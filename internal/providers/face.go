package providers

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FaceVerifier is one non-blocking probe of the face channel: did the
// camera see this user just now, and with what raw score? The returned
// score is uninterpreted; the gateway applies the configured convention
// and tolerance.
type FaceVerifier interface {
	Verify(ctx context.Context, userID uuid.UUID) (FaceResult, error)
}

// FaceResult carries one raw match score from the face provider.
type FaceResult struct {
	Seen        bool
	Score       float64
	SnapshotKey string
}

// TemplateMatcher scores an observed embedding against one user's
// enrolled templates. The Postgres store implements it with a pgvector
// cosine search.
type TemplateMatcher interface {
	BestMatch(ctx context.Context, userID uuid.UUID, embedding []float32) (score float64, ok bool, err error)
}

// ObservationVerifier implements FaceVerifier on top of the observation
// buffer: each probe scores the freshest camera observations against the
// user's enrolled templates. Scores are cosine similarities, so it pairs
// with ConventionHigher.
type ObservationVerifier struct {
	buf     *ObservationBuffer
	matcher TemplateMatcher
	now     func() time.Time
}

func NewObservationVerifier(buf *ObservationBuffer, matcher TemplateMatcher, now func() time.Time) *ObservationVerifier {
	if now == nil {
		now = time.Now
	}
	return &ObservationVerifier{buf: buf, matcher: matcher, now: now}
}

func (v *ObservationVerifier) Verify(ctx context.Context, userID uuid.UUID) (FaceResult, error) {
	best := FaceResult{}
	for _, o := range v.buf.Recent(v.now()) {
		score, ok, err := v.matcher.BestMatch(ctx, userID, o.Embedding)
		if err != nil {
			return FaceResult{}, err
		}
		if !ok {
			// No templates enrolled for this user.
			return FaceResult{}, nil
		}
		if !best.Seen || score > best.Score {
			best = FaceResult{Seen: true, Score: score, SnapshotKey: o.SnapshotKey}
		}
	}
	return best, nil
}
