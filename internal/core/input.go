package core

// Action represents a semantic game action, abstracted from physical key presses.
type Action int

const (
	ActionNone    Action = iota
	ActionLeft           // Left arrow, A - steer one lane left
	ActionRight          // Right arrow, D - steer one lane right
	ActionUp             // Up arrow, W - move a cursor up (lobby, quiz)
	ActionDown           // Down arrow, S - move a cursor down
	ActionConfirm        // Enter - confirm selection / continue
	ActionAutoWin        // X - spend an auto-win token
	ActionBack           // B, Escape - go back to the lobby
	ActionRestart        // R - replay after the result screen
	ActionRetry          // S on the result screen - retry a failed submission
	ActionQuit           // Q, Ctrl+C - exit
	ActionOption1        // 1..4 - pick an answer directly
	ActionOption2
	ActionOption3
	ActionOption4
)

// String returns a human-readable name for the action.
func (a Action) String() string {
	switch a {
	case ActionNone:
		return "None"
	case ActionLeft:
		return "Left"
	case ActionRight:
		return "Right"
	case ActionUp:
		return "Up"
	case ActionDown:
		return "Down"
	case ActionConfirm:
		return "Confirm"
	case ActionAutoWin:
		return "AutoWin"
	case ActionBack:
		return "Back"
	case ActionRestart:
		return "Restart"
	case ActionRetry:
		return "Retry"
	case ActionQuit:
		return "Quit"
	case ActionOption1, ActionOption2, ActionOption3, ActionOption4:
		return "Option"
	default:
		return "Unknown"
	}
}

// OptionIndex returns the 0-based answer index for ActionOption1..4.
func (a Action) OptionIndex() (int, bool) {
	if a >= ActionOption1 && a <= ActionOption4 {
		return int(a - ActionOption1), true
	}
	return 0, false
}

// InputFrame collects the actions triggered between two simulation ticks.
type InputFrame struct {
	Actions map[Action]bool
}

// NewInputFrame creates an empty input frame.
func NewInputFrame() InputFrame {
	return InputFrame{
		Actions: make(map[Action]bool),
	}
}

// Set marks an action as triggered for this frame.
func (f *InputFrame) Set(a Action) {
	if f.Actions == nil {
		f.Actions = make(map[Action]bool)
	}
	f.Actions[a] = true
}

// Has returns true if the given action was triggered this frame.
func (f InputFrame) Has(a Action) bool {
	if f.Actions == nil {
		return false
	}
	return f.Actions[a]
}

// Clear resets all actions for the next frame.
func (f *InputFrame) Clear() {
	for k := range f.Actions {
		delete(f.Actions, k)
	}
}
