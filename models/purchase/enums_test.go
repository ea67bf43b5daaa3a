package purchase

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStateValidity(t *testing.T) {
	for _, s := range []State{StatePending, StateApproved, StateRejected, StateExpired} {
		assert.True(t, s.IsValid(), s.String())
	}
	assert.False(t, State("event_cancelled").IsValid(), "purchases have no event to cancel")
	assert.False(t, State("").IsValid())
}

func TestStateTransitionGates(t *testing.T) {
	tests := []struct {
		state      State
		canApprove bool
		canReject  bool
		terminal   bool
		deletable  bool
	}{
		{StatePending, true, true, false, true},
		{StateApproved, false, false, false, false},
		{StateRejected, false, false, true, true},
		{StateExpired, false, false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.canApprove, tt.state.CanApprove())
			assert.Equal(t, tt.canReject, tt.state.CanReject())
			assert.Equal(t, tt.terminal, tt.state.IsTerminal())
			assert.Equal(t, tt.deletable, tt.state.Deletable())
		})
	}
}

func TestActive(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	p := Purchase{State: StateApproved, ExpirationDate: at.Add(24 * time.Hour)}
	assert.True(t, p.Active(at))

	p.ExpirationDate = at.Add(-time.Minute)
	assert.False(t, p.Active(at), "past expiration date")

	p.ExpirationDate = at
	assert.False(t, p.Active(at), "expiration instant itself is inactive")

	p = Purchase{State: StatePending, ExpirationDate: at.Add(24 * time.Hour)}
	assert.False(t, p.Active(at), "pending grants do not authorize use")
}
