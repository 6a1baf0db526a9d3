package providers

import (
	"context"
	"testing"
	"time"

	"github.com/your-org/medassist/internal/models"
)

func TestPhraseSet(t *testing.T) {
	ps := NewPhraseSet([]string{"I Took My Medicine", "  medicine taken  ", ""})

	t.Run("matching is case-insensitive and substring based", func(t *testing.T) {
		for _, text := range []string{
			"i took my medicine",
			"I TOOK MY MEDICINE",
			"yes i took my medicine just now",
			"ok, medicine taken",
		} {
			if !ps.Matches(text) {
				t.Fatalf("Matches(%q) = false, want true", text)
			}
		}
	})

	t.Run("non-confirmations do not match", func(t *testing.T) {
		for _, text := range []string{"", "   ", "what time is it", "i will take it later"} {
			if ps.Matches(text) {
				t.Fatalf("Matches(%q) = true, want false", text)
			}
		}
	})

	t.Run("empty strings are dropped during normalization", func(t *testing.T) {
		if got := len(ps.Phrases()); got != 2 {
			t.Fatalf("len(Phrases) = %d, want 2", got)
		}
	})

	t.Run("empty set reports Empty", func(t *testing.T) {
		if !NewPhraseSet(nil).Empty() {
			t.Fatal("NewPhraseSet(nil).Empty() = false, want true")
		}
		if !NewPhraseSet([]string{"", "  "}).Empty() {
			t.Fatal("whitespace-only phrases should leave the set empty")
		}
		if ps.Empty() {
			t.Fatal("populated set should not be Empty")
		}
	})
}

func TestTranscriptFeed(t *testing.T) {
	t.Run("delivers pushed transcripts in order", func(t *testing.T) {
		f := NewTranscriptFeed(4)
		f.Push(models.Transcript{Text: "one"})
		f.Push(models.Transcript{Text: "two"})

		ctx := context.Background()
		for _, want := range []string{"one", "two"} {
			tr, err := f.Next(ctx)
			if err != nil {
				t.Fatalf("Next returned error: %v", err)
			}
			if tr.Text != want {
				t.Fatalf("Next = %q, want %q", tr.Text, want)
			}
		}
	})

	t.Run("drops when saturated instead of blocking", func(t *testing.T) {
		f := NewTranscriptFeed(1)
		done := make(chan struct{})
		go func() {
			f.Push(models.Transcript{Text: "a"})
			f.Push(models.Transcript{Text: "b"})
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Push blocked on a full feed")
		}
	})

	t.Run("Next honors context cancellation", func(t *testing.T) {
		f := NewTranscriptFeed(1)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := f.Next(ctx); err == nil {
			t.Fatal("Next should fail once the context is done")
		}
	})
}
