package protocol

import "campfire.ai/internal/sim/inventory"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
	ResumeToken     string `json:"resume_token,omitempty"`
	Scene           string `json:"scene,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	SessionID       string        `json:"session_id"`
	ResumeToken     string        `json:"resume_token"`
	Resumed         bool          `json:"resumed,omitempty"`
	Scenes          []string      `json:"scenes"`
	Params          SessionParams `json:"params"`
}

type SessionParams struct {
	TickPeriodMs    int     `json:"tick_period_ms"`
	MaxStokes       float64 `json:"max_stokes"`
	SecondsPerStoke float64 `json:"seconds_per_stoke"`
	CookSeconds     float64 `json:"cook_seconds"`
	RestorePolicy   string  `json:"restore_policy"`
}

// ACK (server -> client): the outcome of one ACT.
type AckMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	AckFor          string          `json:"ack_for"`
	Accepted        bool            `json:"accepted"`
	Code            string          `json:"code,omitempty"`
	Message         string          `json:"message,omitempty"`
	Item            *inventory.Item `json:"item,omitempty"`
}
