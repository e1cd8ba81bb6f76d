// Package notify is the user-visible notification channel. Polling loops
// report their failures here instead of propagating them; the dashboard
// reads recent notifications back out.
package notify

import (
	"sync"
	"time"

	logger "log/slog"

	"github.com/google/uuid"
	"github.com/vietddude/agentboard/internal/metrics"
)

// Level classifies a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notification is a single user-visible event.
type Notification struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Source  string    `json:"source"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Notifier receives notifications from polling loops.
type Notifier interface {
	Notify(level Level, source, message string)
}

// Publisher forwards notifications to an external channel (e.g. redis).
type Publisher interface {
	Publish(n Notification) error
}

// Recorder keeps the most recent notifications in a ring buffer, mirrors
// them to slog, and optionally forwards them to a Publisher.
type Recorder struct {
	mu        sync.RWMutex
	entries   []Notification
	max       int
	publisher Publisher
	log       *logger.Logger
}

// NewRecorder creates a recorder holding at most max notifications.
func NewRecorder(max int) *Recorder {
	if max <= 0 {
		max = 100
	}
	return &Recorder{
		max: max,
		log: logger.Default(),
	}
}

// SetPublisher attaches an external publisher. Publish failures are logged
// and never block or fail the notifying loop.
func (r *Recorder) SetPublisher(p Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publisher = p
}

// Notify records a notification.
func (r *Recorder) Notify(level Level, source, message string) {
	n := Notification{
		ID:      uuid.NewString(),
		Level:   level,
		Source:  source,
		Message: message,
		Time:    time.Now(),
	}

	metrics.NotificationsTotal.WithLabelValues(string(level)).Inc()

	switch level {
	case LevelError:
		r.log.Error(message, "source", source)
	case LevelWarn:
		r.log.Warn(message, "source", source)
	default:
		r.log.Info(message, "source", source)
	}

	r.mu.Lock()
	if len(r.entries) >= r.max {
		copy(r.entries, r.entries[1:])
		r.entries[len(r.entries)-1] = n
	} else {
		r.entries = append(r.entries, n)
	}
	publisher := r.publisher
	r.mu.Unlock()

	if publisher != nil {
		if err := publisher.Publish(n); err != nil {
			r.log.Warn("failed to publish notification", "error", err)
		}
	}
}

// Recent returns the recorded notifications, newest last.
func (r *Recorder) Recent() []Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Notification, len(r.entries))
	copy(out, r.entries)
	return out
}
