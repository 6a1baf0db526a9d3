package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RemindersStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medassist",
		Name:      "reminders_started_total",
		Help:      "Total number of reminder sessions spawned",
	})

	DosesConfirmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medassist",
		Name:      "doses_confirmed_total",
		Help:      "Total number of doses confirmed, by confirming channel",
	}, []string{"channel"})

	DosesMissed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medassist",
		Name:      "doses_missed_total",
		Help:      "Total number of doses logged as missed",
	})

	ReminderAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "medassist",
		Name:      "reminder_attempts",
		Help:      "Attempts used before a session resolved",
		Buckets:   []float64{1, 2, 3, 4, 5},
	})

	GatewayPollDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "medassist",
		Name:      "gateway_poll_duration_seconds",
		Help:      "Duration of authentication gateway polls",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"result"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "medassist",
		Name:      "active_sessions",
		Help:      "Number of reminder sessions currently awaiting confirmation",
	})

	ObservationsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medassist",
		Name:      "face_observations_total",
		Help:      "Total face observations received from capture agents",
	})

	TranscriptsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medassist",
		Name:      "transcripts_total",
		Help:      "Total speech transcripts received",
	})

	LogBufferSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "medassist",
		Name:      "dose_log_buffer_size",
		Help:      "Dose records buffered in memory awaiting a storage retry",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "medassist",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "medassist",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
