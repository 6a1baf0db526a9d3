package providers

import (
	"context"
	"strings"

	"github.com/your-org/medassist/internal/models"
)

// TranscriptSource delivers recognized utterances one at a time, blocking
// until the next utterance arrives or ctx is done.
type TranscriptSource interface {
	Next(ctx context.Context) (models.Transcript, error)
}

// PhraseSet is the configured set of confirmation phrases. Matching is
// case-insensitive and substring based: "yes i took my medicine today"
// confirms against "i took my medicine".
type PhraseSet struct {
	phrases []string
}

func NewPhraseSet(phrases []string) PhraseSet {
	var ps PhraseSet
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			ps.phrases = append(ps.phrases, p)
		}
	}
	return ps
}

// Empty reports whether the set disables the voice channel.
func (ps PhraseSet) Empty() bool { return len(ps.phrases) == 0 }

func (ps PhraseSet) Matches(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return false
	}
	for _, p := range ps.phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// Phrases returns the normalized phrase list.
func (ps PhraseSet) Phrases() []string {
	out := make([]string, len(ps.phrases))
	copy(out, ps.phrases)
	return out
}

// TranscriptFeed is a channel-backed TranscriptSource. The NATS transcript
// subscription pushes into it; tests push directly.
type TranscriptFeed struct {
	ch chan models.Transcript
}

func NewTranscriptFeed(buffer int) *TranscriptFeed {
	if buffer <= 0 {
		buffer = 16
	}
	return &TranscriptFeed{ch: make(chan models.Transcript, buffer)}
}

// Push delivers an utterance, dropping it when the feed is saturated.
// Speech is ephemeral; backpressure onto the recognizer makes no sense.
func (f *TranscriptFeed) Push(t models.Transcript) {
	select {
	case f.ch <- t:
	default:
	}
}

func (f *TranscriptFeed) Next(ctx context.Context) (models.Transcript, error) {
	select {
	case t := <-f.ch:
		return t, nil
	case <-ctx.Done():
		return models.Transcript{}, ctx.Err()
	}
}
