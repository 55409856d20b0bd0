package queue

import (
	"context"

	"github.com/angelmondragon/songqueue-backend/pkg/metrics"
)

// EventType names a queue lifecycle transition.
type EventType string

const (
	EventRequestSubmitted EventType = "song_request.submitted"
	EventSubmitRejected   EventType = "song_request.rejected"
	EventRequestPlayed    EventType = "song_request.played"
	EventQueueReordered   EventType = "song_queue.reordered"
	EventPlayedCleared    EventType = "song_queue.played_cleared"
)

// Event describes a completed mutation. Pending is the pending depth after
// the mutation was saved.
type Event struct {
	Type       EventType
	Request    *SongRequest
	RequestIDs []string
	Removed    int
	Pending    int
	Reason     string
}

// Observer is told about every completed mutation. Implementations must not
// block for long and cannot fail the operation.
type Observer interface {
	Observe(ctx context.Context, event Event)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(ctx context.Context, event Event)

func (f ObserverFunc) Observe(ctx context.Context, event Event) {
	f(ctx, event)
}

// Observers fans an event out to each non-nil observer in order.
type Observers []Observer

func (o Observers) Observe(ctx context.Context, event Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(ctx, event)
		}
	}
}

// MetricsObserver feeds queue events into prometheus collectors.
type MetricsObserver struct {
	metrics *metrics.QueueMetrics
}

func NewMetricsObserver(m *metrics.QueueMetrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (m *MetricsObserver) Observe(_ context.Context, event Event) {
	switch event.Type {
	case EventRequestSubmitted:
		m.metrics.IncSubmitted()
	case EventSubmitRejected:
		m.metrics.IncRejected(event.Reason)
		return
	case EventRequestPlayed:
		m.metrics.IncPlayed()
	case EventQueueReordered:
		m.metrics.IncReordered()
	case EventPlayedCleared:
		m.metrics.AddCleared(event.Removed)
	}
	m.metrics.SetPending(event.Pending)
}
