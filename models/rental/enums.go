package rental

// State of a rental's lifecycle. StateEventCancelled is distinct from
// rejected and expired so history keeps apart "the organizer pulled the
// event" from "the user didn't pay" and "the window ran out".
type State string

const (
	StatePending        State = "pending"
	StateApproved       State = "approved"
	StateRejected       State = "rejected"
	StateExpired        State = "expired"
	StateEventCancelled State = "event_cancelled"
)

func (s State) String() string {
	return string(s)
}

func (s State) IsValid() bool {
	switch s {
	case StatePending, StateApproved, StateRejected, StateExpired, StateEventCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the rally cascade and the sweeper must leave
// this row alone.
func (s State) IsTerminal() bool {
	return s == StateRejected || s == StateExpired || s == StateEventCancelled
}

func (s State) CanApprove() bool { return s == StatePending }
func (s State) CanReject() bool  { return s == StatePending }

// Deletable states may be hard-deleted by an administrator.
func (s State) Deletable() bool {
	return s == StatePending || s == StateRejected || s == StateExpired
}

// NonTerminalStates are the states a rally cascade touches.
func NonTerminalStates() []State {
	return []State{StatePending, StateApproved}
}
