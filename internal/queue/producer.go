package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	// ObservationsStreamName holds face observations and enrollment
	// template results coming back from the capture/embedding agents.
	ObservationsStreamName = "OBSERVATIONS"
	ObservationsFaceSubj   = "observations.face"
	TemplateResultSubj     = "observations.template"

	// DosesStreamName holds resolved dose events for downstream consumers.
	DosesStreamName  = "DOSES"
	DosesSubjectBase = "doses"

	// Fire-and-forget subjects carried over core NATS, not JetStream.
	TranscriptsSubj = "speech.transcripts"
	AnnounceSubj    = "speech.announce"
	EnrollTasksSubj = "enroll.tasks"
)

type Producer struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewProducer(natsURL string) (*Producer, error) {
	nc, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	return &Producer{nc: nc, js: js}, nil
}

// EnsureStreams creates JetStream streams if they don't exist.
// Retries up to 30 times (1s apart) to handle NATS startup delay.
func (p *Producer) EnsureStreams(ctx context.Context) error {
	streams := []jetstream.StreamConfig{
		{
			Name:        ObservationsStreamName,
			Subjects:    []string{"observations.>"},
			Retention:   jetstream.InterestPolicy,
			MaxAge:      1 * time.Hour,
			MaxMsgs:     100000,
			Storage:     jetstream.FileStorage,
			Discard:     jetstream.DiscardOld,
			Description: "Face observations and enrollment template results",
		},
		{
			Name:        DosesStreamName,
			Subjects:    []string{DosesSubjectBase + ".>"},
			Retention:   jetstream.InterestPolicy,
			MaxAge:      30 * 24 * time.Hour,
			MaxMsgs:     1000000,
			Storage:     jetstream.FileStorage,
			Description: "Resolved dose reminder outcomes",
		},
	}

	const maxAttempts = 30
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		allOK := true
		for _, cfg := range streams {
			opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			_, err := p.js.CreateOrUpdateStream(opCtx, cfg)
			cancel()
			if err != nil {
				allOK = false
				if attempt == maxAttempts {
					return fmt.Errorf("create stream %s: %w (after %d attempts)", cfg.Name, err, maxAttempts)
				}
				slog.Warn("ensure NATS stream (retrying...)", "name", cfg.Name, "attempt", attempt, "error", err)
				break
			}
			slog.Info("ensured NATS stream", "name", cfg.Name)
		}
		if allOK {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(1 * time.Second):
		}
	}
	return nil
}

// PublishObservation publishes a face observation, as the capture agent
// and the dev simulator do.
func (p *Producer) PublishObservation(ctx context.Context, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal observation: %w", err)
	}
	if _, err := p.js.Publish(ctx, ObservationsFaceSubj, payload); err != nil {
		return fmt.Errorf("publish observation: %w", err)
	}
	return nil
}

// PublishTemplateResult publishes an embedding computed for an enrollment
// image (the embedding agent's side of the enrollment handshake).
func (p *Producer) PublishTemplateResult(ctx context.Context, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal template result: %w", err)
	}
	if _, err := p.js.Publish(ctx, TemplateResultSubj, payload); err != nil {
		return fmt.Errorf("publish template result: %w", err)
	}
	return nil
}

// PublishDoseEvent publishes a resolved dose outcome keyed by user.
func (p *Producer) PublishDoseEvent(ctx context.Context, userID string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal dose event: %w", err)
	}
	subject := fmt.Sprintf("%s.%s", DosesSubjectBase, userID)
	if _, err := p.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publish dose event: %w", err)
	}
	return nil
}

// PublishAnnounce hands alert text to the speech-synthesis agent.
// Fire-and-forget over core NATS; nobody listening is not an error.
func (p *Producer) PublishAnnounce(text string) error {
	return p.nc.Publish(AnnounceSubj, []byte(text))
}

// PublishTranscript publishes a recognized utterance (simulator only; in
// production the speech agent publishes these itself).
func (p *Producer) PublishTranscript(data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	return p.nc.Publish(TranscriptsSubj, payload)
}

// PublishEnrollTask asks the embedding agent to process an uploaded
// enrollment image.
func (p *Producer) PublishEnrollTask(data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal enroll task: %w", err)
	}
	return p.nc.Publish(EnrollTasksSubj, payload)
}

func (p *Producer) Ping() error {
	if !p.nc.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

func (p *Producer) Close() {
	p.nc.Close()
}
