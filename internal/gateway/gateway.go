// Package gateway unifies the two identity-confirmation channels (face
// match and spoken confirmation) behind one polling interface. The shared
// camera and microphone sit behind it: at most one poll runs at a time
// across all reminder sessions, waiters served in FIFO order.
package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/medassist/internal/models"
	"github.com/your-org/medassist/internal/observability"
	"github.com/your-org/medassist/internal/providers"
)

// Outcome is the result of one gateway poll.
type Outcome struct {
	Matched     bool
	Channel     models.Channel
	Confidence  float64
	SnapshotKey string
}

type Config struct {
	Tolerance    float64
	Convention   providers.ScoreConvention
	Phrases      providers.PhraseSet
	PollInterval time.Duration
}

// Gateway races the face and voice channels to a single first-positive
// result. A nil channel is treated as permanently unavailable: it stays
// silent for the process lifetime and never blocks the other channel.
type Gateway struct {
	face  providers.FaceVerifier
	voice providers.TranscriptSource
	cfg   Config

	// sem serializes polls across sessions; channel receive order gives
	// waiting sessions FIFO-ish fairness.
	sem chan struct{}
}

func New(face providers.FaceVerifier, voice providers.TranscriptSource, cfg Config) *Gateway {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.Convention == "" {
		cfg.Convention = providers.ConventionHigher
	}
	if cfg.Phrases.Empty() {
		// An empty phrase set disables voice confirmation outright.
		voice = nil
	}

	if face == nil {
		slog.Warn("face channel unavailable; relying on voice confirmation only")
	}
	if voice == nil {
		slog.Warn("voice channel unavailable; relying on face confirmation only")
	}
	if face == nil && voice == nil {
		slog.Warn("no confirmation channel available; every reminder will time out to missed")
	}

	return &Gateway{
		face:  face,
		voice: voice,
		cfg:   cfg,
		sem:   make(chan struct{}, 1),
	}
}

// FaceEnabled reports whether the face channel is usable.
func (g *Gateway) FaceEnabled() bool { return g.face != nil }

// VoiceEnabled reports whether the voice channel is usable.
func (g *Gateway) VoiceEnabled() bool { return g.voice != nil }

// Poll blocks until either channel positively confirms userID or the
// deadline passes, whichever comes first. When both channels confirm
// within the same poll interval, face wins as the recorded channel.
func (g *Gateway) Poll(ctx context.Context, userID uuid.UUID, deadline time.Time) Outcome {
	start := time.Now()

	select {
	case g.sem <- struct{}{}:
	case <-ctx.Done():
		return Outcome{}
	}
	defer func() { <-g.sem }()

	pctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	results := make(chan Outcome, 2)
	if g.face != nil {
		go g.pollFace(pctx, userID, results)
	}
	if g.voice != nil {
		go g.pollVoice(pctx, results)
	}

	out := g.awaitFirst(pctx, results)

	result := "timeout"
	if out.Matched {
		result = string(out.Channel)
	}
	observability.GatewayPollDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	return out
}

// awaitFirst returns the first positive result. A voice win is held for
// one poll interval to let a simultaneous face match take precedence in
// the record; the outcome itself is already decided.
func (g *Gateway) awaitFirst(ctx context.Context, results <-chan Outcome) Outcome {
	select {
	case out := <-results:
		if out.Channel == models.ChannelVoice && g.face != nil {
			select {
			case other := <-results:
				if other.Matched && other.Channel == models.ChannelFace {
					return other
				}
			case <-time.After(g.cfg.PollInterval):
			}
		}
		return out
	case <-ctx.Done():
		return Outcome{}
	}
}

func (g *Gateway) pollFace(ctx context.Context, userID uuid.UUID, out chan<- Outcome) {
	ticker := time.NewTicker(g.cfg.PollInterval)
	defer ticker.Stop()

	for {
		res, err := g.face.Verify(ctx, userID)
		if err != nil {
			if ctx.Err() == nil {
				slog.Warn("face verify", "user_id", userID, "error", err)
			}
		} else if res.Seen && g.cfg.Convention.Accepts(res.Score, g.cfg.Tolerance) {
			out <- Outcome{
				Matched:     true,
				Channel:     models.ChannelFace,
				Confidence:  res.Score,
				SnapshotKey: res.SnapshotKey,
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (g *Gateway) pollVoice(ctx context.Context, out chan<- Outcome) {
	for {
		tr, err := g.voice.Next(ctx)
		if err != nil {
			return
		}
		if g.cfg.Phrases.Matches(tr.Text) {
			out <- Outcome{Matched: true, Channel: models.ChannelVoice, Confidence: 1}
			return
		}
	}
}
