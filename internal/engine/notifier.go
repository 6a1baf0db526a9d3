package engine

import (
	"fmt"
	"log/slog"
)

// NotificationPort is the sink reminder sessions write alert text and
// confirmation/miss announcements to. Fire-and-forget: a failing sink is
// logged by its implementation and never blocks the state machine.
type NotificationPort interface {
	Announce(text string)
}

// LogNotifier announces through slog, the fallback when no speech agent
// or UI is attached.
type LogNotifier struct{}

func (LogNotifier) Announce(text string) {
	slog.Info("announce", "text", text)
}

// Announcer is the narrow slice of the NATS producer the speech notifier
// needs.
type Announcer interface {
	PublishAnnounce(text string) error
}

// SpeechNotifier hands announcements to the external speech-synthesis
// agent over NATS.
type SpeechNotifier struct {
	Producer Announcer
}

func (n SpeechNotifier) Announce(text string) {
	if err := n.Producer.PublishAnnounce(text); err != nil {
		slog.Warn("publish announcement", "error", err)
	}
}

// MultiNotifier fans an announcement out to several sinks.
type MultiNotifier []NotificationPort

func (m MultiNotifier) Announce(text string) {
	for _, n := range m {
		n.Announce(text)
	}
}

func alertText(name, medicine string, attempt int) string {
	if attempt == 1 {
		return fmt.Sprintf("Hello %s. It is time for your %s. Please take it now.", name, medicine)
	}
	return fmt.Sprintf("Reminder, %s. Please take your %s now.", name, medicine)
}

func confirmText(name, medicine string) string {
	return fmt.Sprintf("Thank you, %s. I have recorded that you have taken your %s.", name, medicine)
}

func missedText(name, medicine string) string {
	return fmt.Sprintf("%s, I could not confirm your %s. I will log it as a missed dose.", name, medicine)
}
