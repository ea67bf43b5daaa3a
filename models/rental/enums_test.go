package rental

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStateValidity(t *testing.T) {
	for _, s := range []State{StatePending, StateApproved, StateRejected, StateExpired, StateEventCancelled} {
		assert.True(t, s.IsValid(), s.String())
	}
	assert.False(t, State("cancelled").IsValid())
}

func TestStateTransitionGates(t *testing.T) {
	tests := []struct {
		state     State
		terminal  bool
		deletable bool
	}{
		{StatePending, false, true},
		{StateApproved, false, false},
		{StateRejected, true, true},
		{StateExpired, true, true},
		{StateEventCancelled, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.state.IsTerminal())
			assert.Equal(t, tt.deletable, tt.state.Deletable())
		})
	}
}

func TestNonTerminalStates(t *testing.T) {
	assert.ElementsMatch(t, []State{StatePending, StateApproved}, NonTerminalStates())
}

func TestEffectiveEndDate(t *testing.T) {
	original := time.Date(2026, 5, 10, 23, 59, 59, 0, time.UTC)
	moved := time.Date(2026, 6, 20, 23, 59, 59, 0, time.UTC)

	r := Rental{OriginalEndDate: original}
	assert.Equal(t, original, r.EffectiveEndDate())

	r.RescheduledEndDate = &moved
	assert.Equal(t, moved, r.EffectiveEndDate(), "reschedule stamp wins")
}

func TestActive(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 10, 23, 59, 59, 0, time.UTC)

	r := Rental{State: StateApproved, OriginalEndDate: end}
	assert.True(t, r.Active(at))

	earlier := at.Add(-time.Hour)
	r.RescheduledEndDate = &earlier
	assert.False(t, r.Active(at), "event moved before now")

	r = Rental{State: StateEventCancelled, OriginalEndDate: end}
	assert.False(t, r.Active(at))
}
