package protocol

import (
	"campfire.ai/internal/sim/inventory"
	"campfire.ai/internal/sim/view"
)

// STATE (server -> client): a full redraw of the active scene.
type StateMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	Step            uint64     `json:"step"`
	Frame           view.Frame `json:"frame"`
}

// EVENT (server -> client)
type EventMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Event           Event  `json:"event"`
}

type Event struct {
	Seq     uint64          `json:"seq"`
	At      int64           `json:"at"`
	Kind    string          `json:"kind"`
	Scene   string          `json:"scene,omitempty"`
	Source  string          `json:"source,omitempty"`
	Item    *inventory.Item `json:"item,omitempty"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
}
