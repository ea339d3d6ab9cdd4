package events

import "time"

// Event types emitted by the field data services.
const (
	RecordAdded         = "record_added"
	RecordDeleted       = "record_deleted"
	RecordsCleared      = "records_cleared"
	ProjectCreated      = "project_created"
	ProjectActivated    = "project_activated"
	LocationUpdated     = "location_updated"
	CaptureStateChanged = "capture_state_changed"
	ExportCompleted     = "export_completed"
)

// Event defines the contract for all system events.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
