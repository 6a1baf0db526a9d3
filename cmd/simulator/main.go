// The simulator stands in for the external capture, embedding and speech
// agents during development. It answers enrollment tasks with a synthetic
// embedding derived from the user id, and can publish matching face
// observations and spoken transcripts so a full reminder round trip can be
// exercised without a camera or microphone.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/medassist/internal/models"
	"github.com/your-org/medassist/internal/observability"
	"github.com/your-org/medassist/internal/queue"
)

const embeddingDim = 512

func main() {
	natsURL := flag.String("nats", "nats://localhost:4222", "NATS server URL")
	userStr := flag.String("user", "", "user id to publish face observations for")
	say := flag.String("say", "", "publish one transcript with this text and exit")
	interval := flag.Duration("interval", time.Second, "observation publish interval")
	flag.Parse()

	observability.SetupLogger("info", "text")

	producer, err := queue.NewProducer(*natsURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to nats: %v\n", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	if *say != "" {
		tr := models.Transcript{Text: *say, Timestamp: time.Now(), Source: "simulator"}
		if err := producer.PublishTranscript(tr); err != nil {
			slog.Error("publish transcript", "error", err)
			os.Exit(1)
		}
		slog.Info("transcript published", "text", *say)
		return
	}

	// Answer enrollment tasks the way the embedding agent would, with a
	// deterministic embedding so later observations for the same user match.
	consumer, err := queue.NewConsumer(*natsURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to nats: %v\n", err)
		os.Exit(1)
	}
	defer consumer.Close()

	err = consumer.SubscribeEnrollTasks(func(data []byte) {
		var task models.EnrollmentTask
		if err := json.Unmarshal(data, &task); err != nil {
			slog.Warn("decode enroll task", "error", err)
			return
		}
		result := models.TemplateResult{
			UserID:    task.UserID,
			Embedding: syntheticEmbedding(task.UserID),
			Quality:   0.95,
			SourceKey: task.ImageKey,
		}
		if err := producer.PublishTemplateResult(context.Background(), result); err != nil {
			slog.Error("publish template result", "error", err)
			return
		}
		slog.Info("enrollment answered", "user_id", task.UserID, "image_key", task.ImageKey)
	})
	if err != nil {
		slog.Error("subscribe enroll tasks", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *userStr != "" {
		userID, err := uuid.Parse(*userStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid user id: %v\n", err)
			os.Exit(1)
		}
		go publishObservations(ctx, producer, userID, *interval)
	}

	slog.Info("simulator running", "nats", *natsURL)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("simulator stopped")
}

// publishObservations emits one face observation per interval, as a
// camera agent pointed at the given user would.
func publishObservations(ctx context.Context, producer *queue.Producer, userID uuid.UUID, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		obs := models.FaceObservation{
			ID:        uuid.New(),
			Timestamp: time.Now(),
			Embedding: syntheticEmbedding(userID),
			Quality:   0.9,
			Source:    "simulator",
		}
		if err := producer.PublishObservation(ctx, obs); err != nil {
			slog.Warn("publish observation", "error", err)
			continue
		}
		slog.Info("observation published", "user_id", userID)
	}
}

// syntheticEmbedding derives a unit-length vector from the user id. The
// same id always produces the same vector, so enrollment and observation
// score a cosine similarity of 1.
func syntheticEmbedding(userID uuid.UUID) []float32 {
	emb := make([]float32, embeddingDim)
	seed := sha256.Sum256(userID[:])

	var norm float64
	for i := range emb {
		h := sha256.Sum256(append(seed[:], byte(i), byte(i>>8)))
		bits := binary.BigEndian.Uint32(h[:4])
		v := float64(bits)/float64(math.MaxUint32)*2 - 1
		emb[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	for i := range emb {
		emb[i] = float32(float64(emb[i]) / norm)
	}
	return emb
}
