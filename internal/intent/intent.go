// Package intent normalizes raw user input into a closed vocabulary of
// actions. A deterministic fast path covers structured input; everything else
// goes through the text generation collaborator and fails closed to
// unsupported when the result cannot be trusted.
package intent

// Action is the normalized interpretation of user input.
type Action string

const (
	ActionFocus        Action = "focus"
	ActionBreak        Action = "break"
	ActionProductivity Action = "productivity"
	ActionGreeting     Action = "greeting"
	ActionUnsupported  Action = "unsupported"
)

// knownAction reports whether raw names a classifiable action.
func knownAction(raw string) bool {
	switch Action(raw) {
	case ActionFocus, ActionBreak, ActionProductivity, ActionGreeting, ActionUnsupported:
		return true
	}
	return false
}

// Operation distinguishes focus transitions.
type Operation string

const (
	OpStart Operation = "start"
	OpEnd   Operation = "end"
)

// Source records which path resolved the intent.
type Source string

const (
	// SourceFast marks intents resolved by the deterministic pattern match.
	SourceFast Source = "fast"
	// SourceModel marks intents resolved by the text generation collaborator.
	SourceModel Source = "model"
	// SourceCallback marks intents pre-resolved by an interactive callback.
	SourceCallback Source = "callback"
)

// Intent is the classified form of one inbound input.
type Intent struct {
	Action          Action
	Operation       Operation // set for focus intents
	DurationMinutes int       // set for focus start intents
	Category        string    // wellness category for break intents, may be empty
	Confidence      float64
	Source          Source
}

// Unsupported returns the fail-closed intent carrying the given confidence.
func Unsupported(source Source, confidence float64) Intent {
	return Intent{Action: ActionUnsupported, Confidence: confidence, Source: source}
}
