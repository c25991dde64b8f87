package ports

import (
	"context"

	"SanduqVerify/internal/core/domain"
)

// Topics published by the engine so a read-only UI subscriber knows
// when to re-render.
const (
	TopicStepCompleted  = "verification:step_completed"
	TopicDocumentStatus = "verification:document_status"
	TopicDraftSaved     = "verification:draft_saved"
)

// StepCompletedEvent is the payload for TopicStepCompleted.
type StepCompletedEvent struct {
	StepID   string
	Index    int
	Terminal bool
	Level    int
}

// DocumentStatusEvent is the payload for TopicDocumentStatus. A status
// of UploadSucceeded may unblock a step whose validity the UI should
// re-query.
type DocumentStatusEvent struct {
	Type     domain.DocumentType
	Status   domain.UploadStatus
	Progress int
	Error    string
}

// DraftSavedEvent is the payload for TopicDraftSaved.
type DraftSavedEvent struct {
	SavedAt int64 // epoch milliseconds
}

// Event is a generic wrapper for any event payload
type Event struct {
	Topic string
	Data  interface{}
}

// EventHandler is a function that can handle a specific event
type EventHandler func(ctx context.Context, event Event) error

// EventBus defines the interface for our in-process pub/sub system
type EventBus interface {
	// Publish sends an event to all subscribers of a topic
	Publish(ctx context.Context, topic string, data interface{}) error

	// Subscribe registers a handler for a specific topic
	Subscribe(topic string, handler EventHandler)
}
