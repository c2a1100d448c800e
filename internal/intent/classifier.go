package intent

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"

	suggestiondomain "focusflow/backend/internal/suggestion/domain"
	"focusflow/backend/internal/textgen"
)

// Slash commands the platform registers for the assistant.
const (
	CommandFocus = "/focus"
	CommandBreak = "/break"
	CommandStats = "/focus-stats"
)

// Duration bounds for focus sessions resolved from free input. Out-of-range
// values are clamped rather than rejected.
const (
	minFocusMinutes = 5
	maxFocusMinutes = 480
)

// Input is one piece of raw user input. Command is the slash command it
// arrived on, if any; Text is the free text after it.
type Input struct {
	Command string
	Text    string
}

// Classifier maps raw input to an Intent. The fast path is a pure pattern
// match; the slow path asks the text generation collaborator and fails closed
// to unsupported on any parse failure or low-confidence result.
type Classifier struct {
	generator           textgen.Generator // nil disables the slow path
	confidenceFloor     float64
	defaultFocusMinutes int
}

// NewClassifier returns a Classifier. generator may be nil, in which case
// free text the fast path cannot match resolves to unsupported.
func NewClassifier(generator textgen.Generator, confidenceFloor float64, defaultFocusMinutes int) *Classifier {
	if defaultFocusMinutes < minFocusMinutes || defaultFocusMinutes > maxFocusMinutes {
		defaultFocusMinutes = 25
	}
	return &Classifier{
		generator:           generator,
		confidenceFloor:     confidenceFloor,
		defaultFocusMinutes: defaultFocusMinutes,
	}
}

// Classify resolves in to an Intent, trying the fast path first.
func (c *Classifier) Classify(ctx context.Context, in Input) Intent {
	if it, ok := c.FastPath(in); ok {
		return it
	}
	return c.slowPath(ctx, in)
}

// FastPath resolves structured input without any external call. It reports
// false when the input needs the model round trip.
func (c *Classifier) FastPath(in Input) (Intent, bool) {
	text := strings.ToLower(strings.TrimSpace(in.Text))

	// A bare command carries its default meaning.
	if text == "" {
		switch in.Command {
		case CommandFocus:
			return c.focusStart(c.defaultFocusMinutes, SourceFast), true
		case CommandBreak:
			return Intent{Action: ActionBreak, Confidence: 1.0, Source: SourceFast}, true
		case CommandStats:
			return Intent{Action: ActionProductivity, Confidence: 1.0, Source: SourceFast}, true
		}
		return Unsupported(SourceFast, 1.0), true
	}

	// Stats command ignores trailing text.
	if in.Command == CommandStats {
		return Intent{Action: ActionProductivity, Confidence: 1.0, Source: SourceFast}, true
	}

	if n, err := strconv.Atoi(text); err == nil {
		return c.focusStart(n, SourceFast), true
	}
	if text == "end" || text == "stop" {
		return Intent{Action: ActionFocus, Operation: OpEnd, Confidence: 1.0, Source: SourceFast}, true
	}
	if suggestiondomain.KnownCategory(text) {
		return Intent{Action: ActionBreak, Category: text, Confidence: 1.0, Source: SourceFast}, true
	}
	return Intent{}, false
}

// classifyPrompt instructs the model to answer with a single JSON object and
// nothing else. The parser is defensive anyway.
const classifyPrompt = `You classify messages sent to a workplace productivity assistant.
Reply with exactly one JSON object and no other text:
{"action":"...","confidence":0.0,"duration_minutes":0,"operation":"...","category":"..."}
action must be one of: greeting, focus, break, productivity, unsupported.
operation applies to focus only and must be "start" or "end".
duration_minutes applies to focus start only; omit or use 0 when unknown.
category applies to break only and must be one of: stretch, hydrate, walk, breathe, rest; omit when unknown.
confidence is your certainty between 0 and 1. Use "unsupported" for anything outside these actions.`

// modelResult is the JSON object the slow path expects back.
type modelResult struct {
	Action          string  `json:"action"`
	Confidence      float64 `json:"confidence"`
	DurationMinutes int     `json:"duration_minutes"`
	Operation       string  `json:"operation"`
	Category        string  `json:"category"`
}

func (c *Classifier) slowPath(ctx context.Context, in Input) Intent {
	if c.generator == nil {
		return Unsupported(SourceModel, 0)
	}
	reply, err := c.generator.Complete(ctx, []textgen.Message{
		{Role: "system", Content: classifyPrompt},
		{Role: "user", Content: in.Text},
	})
	if err != nil {
		log.Printf("intent: completion failed: %v", err)
		return Unsupported(SourceModel, 0)
	}

	res, ok := extractResult(reply)
	if !ok || !knownAction(res.Action) {
		return Unsupported(SourceModel, 0)
	}
	// Low confidence fails closed regardless of the action field.
	if res.Confidence < c.confidenceFloor {
		return Unsupported(SourceModel, res.Confidence)
	}

	it := Intent{Action: Action(res.Action), Confidence: res.Confidence, Source: SourceModel}
	switch it.Action {
	case ActionFocus:
		if Operation(res.Operation) == OpEnd {
			it.Operation = OpEnd
		} else {
			it.Operation = OpStart
			minutes := res.DurationMinutes
			if minutes == 0 {
				minutes = c.defaultFocusMinutes
			}
			it.DurationMinutes = clampDuration(minutes)
		}
	case ActionBreak:
		if suggestiondomain.KnownCategory(res.Category) {
			it.Category = res.Category
		}
	}
	return it
}

// extractResult finds the first well-formed JSON object in reply and decodes
// it. Reports false when no object decodes or the action field is missing.
func extractResult(reply string) (modelResult, bool) {
	for i := 0; i < len(reply); i++ {
		if reply[i] != '{' {
			continue
		}
		var res modelResult
		dec := json.NewDecoder(strings.NewReader(reply[i:]))
		if err := dec.Decode(&res); err != nil {
			continue
		}
		if res.Action == "" {
			continue
		}
		return res, true
	}
	return modelResult{}, false
}

func (c *Classifier) focusStart(minutes int, source Source) Intent {
	return Intent{
		Action:          ActionFocus,
		Operation:       OpStart,
		DurationMinutes: clampDuration(minutes),
		Confidence:      1.0,
		Source:          source,
	}
}

func clampDuration(minutes int) int {
	if minutes < minFocusMinutes {
		return minFocusMinutes
	}
	if minutes > maxFocusMinutes {
		return maxFocusMinutes
	}
	return minutes
}
