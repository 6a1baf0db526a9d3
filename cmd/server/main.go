package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/medassist/internal/api"
	"github.com/your-org/medassist/internal/api/handlers"
	"github.com/your-org/medassist/internal/api/ws"
	"github.com/your-org/medassist/internal/config"
	"github.com/your-org/medassist/internal/engine"
	"github.com/your-org/medassist/internal/gateway"
	"github.com/your-org/medassist/internal/models"
	"github.com/your-org/medassist/internal/observability"
	"github.com/your-org/medassist/internal/providers"
	"github.com/your-org/medassist/internal/queue"
	"github.com/your-org/medassist/internal/storage"
	"github.com/your-org/medassist/pkg/dto"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting medassist server", "port", cfg.Server.Port)

	loc, err := cfg.Reminder.Location()
	if err != nil {
		slog.Error("resolve timezone", "timezone", cfg.Reminder.Timezone, "error", err)
		os.Exit(1)
	}

	convention, err := providers.ParseConvention(cfg.Face.Convention)
	if err != nil {
		slog.Error("parse score convention", "error", err)
		os.Exit(1)
	}

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Connect to MinIO
	minioStore, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := minioStore.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStreams(context.Background()); err != nil {
		slog.Warn("ensure nats streams", "error", err)
	}

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Warm-load users and schedules into the in-memory store.
	store := engine.NewScheduleStore()
	if err := warmLoad(ctx, db, store); err != nil {
		slog.Error("load schedules", "error", err)
		os.Exit(1)
	}

	// Confirmation channels: the face channel scores fresh camera
	// observations against stored templates, the voice channel listens for
	// confirmation phrases in recognized speech.
	obsBuf := providers.NewObservationBuffer(cfg.Face.Freshness)
	verifier := providers.NewObservationVerifier(obsBuf, db, time.Now)
	feed := providers.NewTranscriptFeed(64)

	gw := gateway.New(verifier, feed, gateway.Config{
		Tolerance:  cfg.Face.Tolerance,
		Convention: convention,
		Phrases:    providers.NewPhraseSet(cfg.Voice.ConfirmationPhrases),
	})

	// Feed the channels from NATS.
	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	err = consumer.ConsumeObservations(ctx, "server-observations", func(ctx context.Context, msg jetstream.Msg) error {
		switch msg.Subject() {
		case queue.ObservationsFaceSubj:
			var obs models.FaceObservation
			if err := json.Unmarshal(msg.Data(), &obs); err != nil {
				return err
			}
			observability.ObservationsReceived.Inc()
			obsBuf.Add(obs)
		case queue.TemplateResultSubj:
			var res models.TemplateResult
			if err := json.Unmarshal(msg.Data(), &res); err != nil {
				return err
			}
			if _, err := db.AddFaceTemplate(ctx, res.UserID, res.Embedding, res.Quality, res.SourceKey); err != nil {
				return err
			}
			slog.Info("face template stored", "user_id", res.UserID, "quality", res.Quality)
		}
		return nil
	})
	if err != nil {
		slog.Warn("start observation consumer", "error", err)
	}

	err = consumer.SubscribeTranscripts(func(data []byte) {
		var tr models.Transcript
		if err := json.Unmarshal(data, &tr); err != nil {
			slog.Warn("decode transcript", "error", err)
			return
		}
		observability.TranscriptsReceived.Inc()
		feed.Push(tr)
	})
	if err != nil {
		slog.Warn("subscribe transcripts", "error", err)
	}

	// Reminder engine
	journal := engine.NewJournal(db, 0, 0)
	notify := engine.MultiNotifier{
		engine.LogNotifier{},
		engine.SpeechNotifier{Producer: producer},
	}
	scheduler := engine.NewScheduler(store, gw, notify, journal,
		&eventBridge{hub: hub, producer: producer},
		nil, engine.Config{
			TickInterval:   cfg.Reminder.TickInterval,
			AttemptTimeout: cfg.Reminder.AttemptTimeout,
			MaxAttempts:    cfg.Reminder.MaxAttempts,
			CatchupWindow:  cfg.Reminder.CatchupWindow,
			Location:       loc,
		})
	go scheduler.Run(ctx)

	// HTTP API
	router := api.NewRouter(api.RouterConfig{
		APIKey:    cfg.Server.APIKey,
		DB:        db,
		MinIO:     minioStore,
		Producer:  producer,
		Hub:       hub,
		Store:     store,
		Scheduler: scheduler,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")
	cancel()
	scheduler.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

// warmLoad seeds the in-memory schedule store from Postgres so the
// scheduler sees every user on the first tick.
func warmLoad(ctx context.Context, db *storage.PostgresStore, store *engine.ScheduleStore) error {
	users, err := db.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		store.AddUser(u)
	}

	entries, err := db.ListAllScheduleEntries(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := store.AddEntry(e); err != nil {
			slog.Warn("skip schedule entry", "entry_id", e.ID, "error", err)
		}
	}

	slog.Info("schedules loaded", "users", len(users), "entries", len(entries))
	return nil
}

// eventBridge forwards engine lifecycle events to WebSocket clients and
// the durable DOSES stream.
type eventBridge struct {
	hub      *ws.Hub
	producer *queue.Producer
}

func (b *eventBridge) ReminderDue(user models.User, entry models.ScheduleEntry, scheduledAt time.Time) {
	b.hub.BroadcastEvent(&dto.WSEvent{
		Type:     "reminder_due",
		UserID:   user.ID,
		UserName: user.Name,
		Medicine: entry.Medicine,
		DueAt:    scheduledAt.Format(time.RFC3339),
	})
}

func (b *eventBridge) DoseResolved(rec models.DoseRecord) {
	evtType := "dose_confirmed"
	if rec.Outcome == models.OutcomeMissed {
		evtType = "dose_missed"
	}

	resp := handlers.DoseResponse(rec)
	b.hub.BroadcastEvent(&dto.WSEvent{
		Type:     evtType,
		UserID:   rec.UserID,
		UserName: rec.UserName,
		Medicine: rec.Medicine,
		Record:   &resp,
	})

	if err := b.producer.PublishDoseEvent(context.Background(), rec.UserID.String(), rec); err != nil {
		slog.Warn("publish dose event", "error", err)
	}
}
