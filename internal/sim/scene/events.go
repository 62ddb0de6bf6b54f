package scene

import "campfire.ai/internal/sim/inventory"

type EventKind string

const (
	EventSceneEntered  EventKind = "SCENE_ENTERED"
	EventSceneLeft     EventKind = "SCENE_LEFT"
	EventIgnited       EventKind = "IGNITED"
	EventStoked        EventKind = "STOKED"
	EventExtinguished  EventKind = "EXTINGUISHED"
	EventCookStarted   EventKind = "COOK_STARTED"
	EventCookCompleted EventKind = "COOK_COMPLETED"
	EventCookCancelled EventKind = "COOK_CANCELLED"
	EventClaimed       EventKind = "CLAIMED"
	EventRejected      EventKind = "REJECTED"
)

// Event is delivered to observers after the mutation it describes has committed.
type Event struct {
	Seq     uint64          `json:"seq"`
	At      int64           `json:"at"`
	Session string          `json:"session"`
	Scene   ID              `json:"scene,omitempty"`
	Kind    EventKind       `json:"kind"`
	Source  string          `json:"source,omitempty"`
	Item    *inventory.Item `json:"item,omitempty"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
}

// Observer receives events on the session goroutine; it must not block.
type Observer func(Event)
