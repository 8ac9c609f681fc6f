package booking

import (
	"errors"
	"strings"
)

type Stage string

const (
	StageCollecting Stage = "collecting"
	StageConfirming Stage = "confirming"
	StageCompleted  Stage = "completed"
	StageCancelled  Stage = "cancelled"
)

// Open reports whether the dialogue still expects input from the user.
func (s Stage) Open() bool {
	return s == StageCollecting || s == StageConfirming || s == ""
}

const (
	msgConfirmPrompt    = "Please confirm: do you want me to place this booking? (yes/no)"
	msgConfirmEmpty     = "Please respond with 'yes' to confirm the booking or 'no' to cancel."
	msgConfirmUnknown   = "Please answer with 'yes' to confirm the booking or 'no' to cancel."
	msgConfirmed        = "Great, your booking is confirmed!"
	msgCancelled        = "Okay, I’ve cancelled this booking request. If you’d like to start over, just let me know."
	msgAlreadyConfirmed = "This booking has already been confirmed."
	msgFlowCancelled    = "This booking flow has been cancelled. Start a new booking if needed."
	msgNotCaught        = "I didn't catch that. "
)

var (
	affirmativeTokens = map[string]struct{}{"yes": {}, "y": {}, "confirm": {}, "sure": {}}
	negativeTokens    = map[string]struct{}{"no": {}, "n": {}, "cancel": {}}
)

// State is the progress of one booking dialogue.
type State struct {
	Draft         Draft `json:"draft"`
	Stage         Stage `json:"stage"`
	AwaitingField Field `json:"awaiting_field,omitempty"`
	Confirmed     bool  `json:"confirmed"`
}

// Result is what one turn of the dialogue produced. Booking is set when the
// user confirmed and when a completed dialogue is replayed.
type Result struct {
	Text    string
	Booking *Booking
}

func NewState() State {
	return State{Stage: StageCollecting}
}

// Advance runs one turn of the booking dialogue. The given state is not
// modified; the updated state is returned.
func Advance(state State, input string) (State, Result) {
	if state.Stage == "" {
		state.Stage = StageCollecting
	}
	text := strings.TrimSpace(input)

	switch state.Stage {
	case StageConfirming:
		return confirm(state, text)
	case StageCompleted:
		if bk, err := state.Draft.Complete(); err == nil {
			return state, Result{Text: msgAlreadyConfirmed, Booking: bk}
		}
		return state, Result{Text: msgAlreadyConfirmed}
	case StageCancelled:
		return state, Result{Text: msgFlowCancelled}
	}

	if state.AwaitingField != "" {
		field := state.AwaitingField
		if text == "" {
			return state, Result{Text: msgNotCaught + field.Prompt()}
		}
		if err := Validate(field, text); err != nil {
			return state, Result{Text: err.Error()}
		}
		state.Draft.Set(field, text)
		state.AwaitingField = ""
	}

	if next, ok := state.Draft.NextMissing(); ok {
		state.AwaitingField = next
		return state, Result{Text: next.Prompt()}
	}
	state.Stage = StageConfirming
	return state, Result{Text: Summarize(state.Draft) + "\n\n" + msgConfirmPrompt}
}

func confirm(state State, text string) (State, Result) {
	if text == "" {
		return state, Result{Text: msgConfirmEmpty}
	}
	token := strings.ToLower(text)
	if _, ok := negativeTokens[token]; ok {
		state.Stage = StageCancelled
		state.Confirmed = false
		return state, Result{Text: msgCancelled}
	}
	if _, ok := affirmativeTokens[token]; !ok {
		return state, Result{Text: msgConfirmUnknown}
	}
	bk, err := state.Draft.Complete()
	if err != nil {
		// a stored value no longer validates, ask for it again
		var verr *ValidationError
		if errors.As(err, &verr) {
			state.Draft.Set(verr.Field, "")
			state.Stage = StageCollecting
			state.AwaitingField = verr.Field
			return state, Result{Text: verr.Message}
		}
		return state, Result{Text: msgConfirmUnknown}
	}
	state.Stage = StageCompleted
	state.Confirmed = true
	return state, Result{Text: msgConfirmed, Booking: bk}
}
