// Package message defines the data flowing through a voice-assistant turn.
package message

// PromptText is spoken when the assistant invoked the skill without a
// command yet.
const PromptText = "What would you like me to do?"

// Intent is what the extractor found in an inbound request.
type Intent struct {
	// Utterance is the spoken command. Only meaningful when Present is set.
	Utterance string

	// Present is false when the assistant sent no usable Question slot.
	Present bool

	// ResponseText is the reply prepared so far.
	ResponseText string

	// ResponseEnd reports whether the voice session should close after the reply.
	ResponseEnd bool
}

// State is a step of the turn state machine.
type State string

const (
	StateAwaitingIntent State = "awaiting_intent"
	StateResolving      State = "resolving"
	StateCancelled      State = "cancelled"
	StateExecuting      State = "executing"
	StateDone           State = "done"
)

// Prompt identifies the clarifying prompt outstanding on a turn.
type Prompt int

// PromptNone means no prompt is active.
const PromptNone Prompt = -1

// Turn is the state of one webhook call. A new Turn is built for every
// request and dropped once the reply is written.
type Turn struct {
	ID     string
	Intent Intent

	Prompt    Prompt
	Prompted  bool
	Cancelled bool

	// Macro is the name of the resolved macro, empty if none matched.
	Macro string

	// States lists every state the turn entered, in order.
	States []State
}

// NewTurn starts a turn for intent.
func NewTurn(id string, intent Intent) *Turn {
	return &Turn{ID: id, Intent: intent, Prompt: PromptNone}
}

// Enter records a transition.
func (t *Turn) Enter(s State) {
	t.States = append(t.States, s)
}

// State returns the current state, or StateAwaitingIntent before the first transition.
func (t *Turn) State() State {
	if len(t.States) == 0 {
		return StateAwaitingIntent
	}
	return t.States[len(t.States)-1]
}

// Reply is the body returned to the voice-assistant webhook.
type Reply struct {
	Text             string `json:"text"`
	ShouldEndSession bool   `json:"shouldEndSession"`
}

// Reply builds the outbound body from the turn's current response.
func (t *Turn) Reply() *Reply {
	return &Reply{Text: t.Intent.ResponseText, ShouldEndSession: t.Intent.ResponseEnd}
}
