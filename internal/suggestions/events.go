package suggestions

import (
	"context"
	"time"

	"github.com/PancyStudios/SuggesterGo/pkg/logger"
	"github.com/PancyStudios/SuggesterGo/pkg/models"
)

// EventType names a suggestion lifecycle event
type EventType string

const (
	EventCreated       EventType = "created"
	EventEdited        EventType = "edited"
	EventDeleted       EventType = "deleted"
	EventStatusChanged EventType = "statusChanged"
)

// Event carries everything downstream consumers (audit logging, external
// sinks) need about a lifecycle transition.
type Event struct {
	Type       EventType
	Suggestion *models.Suggestion
	ExecutorID string
	Reason     string
	Before     string
	After      string
	Timestamp  time.Time
}

// EventSink consumes lifecycle events. Sink failures never roll back the
// primary operation.
type EventSink interface {
	HandleSuggestionEvent(ctx context.Context, ev Event) error
}

// emit fans an event out to every sink, logging failures individually
func emit(ctx context.Context, sinks []EventSink, ev Event) {
	for _, sink := range sinks {
		if err := sink.HandleSuggestionEvent(ctx, ev); err != nil {
			logger.Error("Event sink failed for "+string(ev.Type)+": "+err.Error(), "Suggestions")
		}
	}
}
