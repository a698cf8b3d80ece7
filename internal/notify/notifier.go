package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Notifier is the sink interface consumed by the lifecycle services.
// Publish must not block on network I/O; sinks that deliver remotely are
// expected to queue internally.
type Notifier interface {
	Publish(ctx context.Context, event Event)
}

// LogSink writes every event to the structured log. It is the default sink
// and the delivery path for local development.
type LogSink struct {
	log *slog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{log: logger.With("component", "notify")}
}

func (s *LogSink) Publish(ctx context.Context, event Event) {
	attrs := []slog.Attr{
		slog.String("event", event.Kind.String()),
		slog.String("logbook_id", event.LogbookID.String()),
		slog.Time("occurred_at", event.OccurredAt),
	}
	if event.ActorID != nil {
		attrs = append(attrs, slog.String("actor_id", event.ActorID.String()))
	}
	s.log.LogAttrs(ctx, slog.LevelInfo, "notification", attrs...)
}

// Fanout delivers each event to every registered sink in order.
type Fanout struct {
	mu    sync.RWMutex
	sinks []Notifier
}

// NewFanout creates a Fanout over the given sinks.
func NewFanout(sinks ...Notifier) *Fanout {
	return &Fanout{sinks: sinks}
}

// Add registers an additional sink.
func (f *Fanout) Add(sink Notifier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, sink)
}

func (f *Fanout) Publish(ctx context.Context, event Event) {
	f.mu.RLock()
	sinks := f.sinks
	f.mu.RUnlock()

	for _, s := range sinks {
		s.Publish(ctx, event)
	}
}

// Recorder captures events in memory. Test sink.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of the captured events in publish order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
