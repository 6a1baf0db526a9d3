package gateway

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/medassist/internal/models"
	"github.com/your-org/medassist/internal/providers"
)

type fakeVerifier struct {
	result providers.FaceResult
	err    error
	calls  atomic.Int64
}

func (f *fakeVerifier) Verify(context.Context, uuid.UUID) (providers.FaceResult, error) {
	f.calls.Add(1)
	return f.result, f.err
}

type fakeTranscripts struct {
	ch chan models.Transcript
}

func newFakeTranscripts() *fakeTranscripts {
	return &fakeTranscripts{ch: make(chan models.Transcript, 8)}
}

func (f *fakeTranscripts) Next(ctx context.Context) (models.Transcript, error) {
	select {
	case t := <-f.ch:
		return t, nil
	case <-ctx.Done():
		return models.Transcript{}, ctx.Err()
	}
}

func testConfig() Config {
	return Config{
		Tolerance:    0.6,
		Convention:   providers.ConventionHigher,
		Phrases:      providers.NewPhraseSet([]string{"i took my medicine"}),
		PollInterval: 5 * time.Millisecond,
	}
}

func TestPollFaceConfirms(t *testing.T) {
	face := &fakeVerifier{result: providers.FaceResult{Seen: true, Score: 0.85, SnapshotKey: "snap.jpg"}}
	g := New(face, newFakeTranscripts(), testConfig())

	out := g.Poll(context.Background(), uuid.New(), time.Now().Add(time.Second))
	if !out.Matched {
		t.Fatal("expected a match")
	}
	if out.Channel != models.ChannelFace {
		t.Fatalf("channel = %s, want face", out.Channel)
	}
	if out.Confidence != 0.85 || out.SnapshotKey != "snap.jpg" {
		t.Fatalf("outcome = %+v, want score 0.85 and snap.jpg", out)
	}
}

func TestPollFaceBelowTolerance(t *testing.T) {
	face := &fakeVerifier{result: providers.FaceResult{Seen: true, Score: 0.3}}
	g := New(face, newFakeTranscripts(), testConfig())

	out := g.Poll(context.Background(), uuid.New(), time.Now().Add(50*time.Millisecond))
	if out.Matched {
		t.Fatal("a below-tolerance score must not confirm")
	}
}

func TestPollVoiceConfirms(t *testing.T) {
	voice := newFakeTranscripts()
	voice.ch <- models.Transcript{Text: "uh, i took my medicine already"}

	g := New(nil, voice, testConfig())
	out := g.Poll(context.Background(), uuid.New(), time.Now().Add(time.Second))
	if !out.Matched {
		t.Fatal("expected a match")
	}
	if out.Channel != models.ChannelVoice {
		t.Fatalf("channel = %s, want voice", out.Channel)
	}
}

func TestPollVoiceIgnoresNonConfirmations(t *testing.T) {
	voice := newFakeTranscripts()
	voice.ch <- models.Transcript{Text: "what is the weather"}

	g := New(nil, voice, testConfig())
	out := g.Poll(context.Background(), uuid.New(), time.Now().Add(50*time.Millisecond))
	if out.Matched {
		t.Fatal("an unrelated utterance must not confirm")
	}
}

func TestPollDeadline(t *testing.T) {
	g := New(&fakeVerifier{}, newFakeTranscripts(), testConfig())

	start := time.Now()
	out := g.Poll(context.Background(), uuid.New(), start.Add(40*time.Millisecond))
	if out.Matched {
		t.Fatal("expected timeout, got a match")
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Fatal("Poll returned before the deadline with no match")
	}
}

func TestPollContextCancellation(t *testing.T) {
	g := New(&fakeVerifier{}, newFakeTranscripts(), testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	out := g.Poll(ctx, uuid.New(), time.Now().Add(time.Minute))
	if out.Matched {
		t.Fatal("cancelled poll must not match")
	}
}

func TestEmptyPhrasesDisablesVoice(t *testing.T) {
	cfg := testConfig()
	cfg.Phrases = providers.NewPhraseSet(nil)

	g := New(&fakeVerifier{}, newFakeTranscripts(), cfg)
	if g.VoiceEnabled() {
		t.Fatal("voice channel should be disabled with an empty phrase set")
	}
	if !g.FaceEnabled() {
		t.Fatal("face channel should remain enabled")
	}
}

func TestNoChannels(t *testing.T) {
	g := New(nil, nil, testConfig())
	out := g.Poll(context.Background(), uuid.New(), time.Now().Add(30*time.Millisecond))
	if out.Matched {
		t.Fatal("poll with no channels must time out unmatched")
	}
}

func TestAwaitFirstFaceOverVoice(t *testing.T) {
	g := New(&fakeVerifier{}, newFakeTranscripts(), testConfig())

	results := make(chan Outcome, 2)
	results <- Outcome{Matched: true, Channel: models.ChannelVoice, Confidence: 1}
	results <- Outcome{Matched: true, Channel: models.ChannelFace, Confidence: 0.9}

	out := g.awaitFirst(context.Background(), results)
	if out.Channel != models.ChannelFace {
		t.Fatalf("channel = %s, want face to win a simultaneous confirmation", out.Channel)
	}
}

func TestAwaitFirstVoiceAloneWins(t *testing.T) {
	g := New(&fakeVerifier{}, newFakeTranscripts(), testConfig())

	results := make(chan Outcome, 2)
	results <- Outcome{Matched: true, Channel: models.ChannelVoice, Confidence: 1}

	out := g.awaitFirst(context.Background(), results)
	if out.Channel != models.ChannelVoice {
		t.Fatalf("channel = %s, want voice", out.Channel)
	}
}

func TestPollSerializesAccess(t *testing.T) {
	face := &fakeVerifier{result: providers.FaceResult{Seen: true, Score: 0.9}}
	g := New(face, nil, testConfig())

	// Two concurrent polls must both complete; the semaphore serializes
	// them rather than deadlocking or racing.
	done := make(chan Outcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			done <- g.Poll(context.Background(), uuid.New(), time.Now().Add(time.Second))
		}()
	}
	for i := 0; i < 2; i++ {
		select {
		case out := <-done:
			if !out.Matched {
				t.Fatal("expected both serialized polls to match")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("poll did not complete; semaphore may be stuck")
		}
	}
}
