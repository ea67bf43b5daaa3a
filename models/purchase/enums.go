package purchase

// State of a purchase's lifecycle.
type State string

const (
	StatePending  State = "pending"
	StateApproved State = "approved"
	StateRejected State = "rejected"
	StateExpired  State = "expired"
)

func (s State) String() string {
	return string(s)
}

func (s State) IsValid() bool {
	switch s {
	case StatePending, StateApproved, StateRejected, StateExpired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition may leave this state
// except the approved → expired sweep.
func (s State) IsTerminal() bool {
	return s == StateRejected || s == StateExpired
}

// CanApprove and CanReject gate the pending-only transitions.
func (s State) CanApprove() bool { return s == StatePending }
func (s State) CanReject() bool  { return s == StatePending }

// Deletable states may be hard-deleted by an administrator. Approved grants
// must go through cancellation instead.
func (s State) Deletable() bool {
	return s == StatePending || s == StateRejected || s == StateExpired
}
