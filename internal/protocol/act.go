package protocol

// Actions carried by an ACT message.
const (
	ActionStoke = "STOKE"
	ActionCook  = "COOK"
	ActionClaim = "CLAIM"
	ActionEnter = "ENTER"
	ActionLeave = "LEAVE"
)

// ACT (client -> server)
type ActMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ID              string `json:"id"`
	Action          string `json:"action"`

	// STOKE
	Target   string `json:"target,omitempty"`
	Quantity int    `json:"quantity,omitempty"`
	// STOKE, COOK
	Item string `json:"item,omitempty"`
	// ENTER
	Scene string `json:"scene,omitempty"`
}
