// Package chat talks to the messaging platform: webhook reply payloads,
// message pushes, and presence status updates.
package chat

// Response is what the assistant sends back, either as a webhook reply or an
// out-of-band push.
type Response struct {
	Text   string  `json:"text"`
	Blocks []Block `json:"blocks,omitempty"`
}

// Block is one interactive element attached to a response. Action IDs and
// values are stable identifiers: interaction callbacks echo them back and the
// dispatcher routes on them.
type Block struct {
	Type     string `json:"type"` // currently always "button"
	Label    string `json:"label"`
	ActionID string `json:"action_id"`
	Value    string `json:"value,omitempty"`
}

// Button returns a button block.
func Button(label, actionID, value string) Block {
	return Block{Type: "button", Label: label, ActionID: actionID, Value: value}
}
