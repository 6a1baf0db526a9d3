package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type MessageHandler func(ctx context.Context, msg jetstream.Msg) error

type Consumer struct {
	nc   *nats.Conn
	js   jetstream.JetStream
	subs []*nats.Subscription
}

func NewConsumer(natsURL string) (*Consumer, error) {
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

	return &Consumer{nc: nc, js: js}, nil
}

// ConsumeObservations starts consuming the OBSERVATIONS stream (face
// observations and enrollment template results). The handler can tell the
// two apart by msg.Subject().
func (c *Consumer) ConsumeObservations(ctx context.Context, consumerName string, handler MessageHandler) error {
	stream, err := c.js.Stream(ctx, ObservationsStreamName)
	if err != nil {
		return fmt.Errorf("get stream %s: %w", ObservationsStreamName, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       10 * time.Second,
		MaxDeliver:    3,
		FilterSubject: "observations.>",
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", consumerName, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			batch, err := cons.Fetch(32, jetstream.FetchMaxWait(5*time.Second))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				time.Sleep(time.Second)
				continue
			}

			for msg := range batch.Messages() {
				if err := handler(ctx, msg); err != nil {
					slog.Error("process observation", "error", err, "subject", msg.Subject())
					_ = msg.Nak()
				} else {
					_ = msg.Ack()
				}
			}
		}
	}()

	slog.Info("observation consumer started", "consumer", consumerName)
	return nil
}

// SubscribeTranscripts delivers recognized utterances as they arrive.
// Transcripts are ephemeral (core NATS): an utterance published while the
// service was down is gone, which matches how speech works.
func (c *Consumer) SubscribeTranscripts(handler func(data []byte)) error {
	sub, err := c.nc.Subscribe(TranscriptsSubj, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TranscriptsSubj, err)
	}
	c.subs = append(c.subs, sub)
	slog.Info("transcript subscription started", "subject", TranscriptsSubj)
	return nil
}

// SubscribeEnrollTasks is used by the dev simulator to stand in for the
// embedding agent.
func (c *Consumer) SubscribeEnrollTasks(handler func(data []byte)) error {
	sub, err := c.nc.Subscribe(EnrollTasksSubj, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", EnrollTasksSubj, err)
	}
	c.subs = append(c.subs, sub)
	return nil
}

func (c *Consumer) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.nc.Close()
}
