package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to string }{
		{StatusPending, StatusApproved},
		{StatusPending, StatusAssigned},
		{StatusPending, StatusCancelled},
		{StatusApproved, StatusAssigned},
		{StatusAssigned, StatusInProgress},
		{StatusAssigned, StatusAssigned}, // re-assignment
		{StatusInProgress, StatusCompleted},
		{StatusInProgress, StatusOnHold},
		{StatusOnHold, StatusInProgress},
		{StatusOnHold, StatusAssigned},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	denied := []struct{ from, to string }{
		{StatusPending, StatusInProgress},
		{StatusPending, StatusCompleted},
		{StatusApproved, StatusCompleted},
		{StatusCompleted, StatusInProgress},
		{StatusCompleted, StatusCancelled},
		{StatusCancelled, StatusPending},
		{StatusCancelled, StatusCancelled},
		{StatusOnHold, StatusCompleted},
	}
	for _, tc := range denied {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be denied", tc.from, tc.to)
	}
}

func TestIdempotentSelfTransitions(t *testing.T) {
	// Repeating the current status must stay legal for in-flight and
	// completed work so retried calls do not error.
	assert.True(t, CanTransition(StatusInProgress, StatusInProgress))
	assert.True(t, CanTransition(StatusCompleted, StatusCompleted))
	// But not for statuses where a repeat makes no sense.
	assert.False(t, CanTransition(StatusPending, StatusPending))
	assert.False(t, CanTransition(StatusCancelled, StatusCancelled))
}

func TestTerminalStatus(t *testing.T) {
	assert.True(t, TerminalStatus(StatusCompleted))
	assert.True(t, TerminalStatus(StatusCancelled))
	assert.False(t, TerminalStatus(StatusOnHold))
	assert.False(t, TerminalStatus(StatusInProgress))
}

func TestValidStatus(t *testing.T) {
	for s := range statusTransitions {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus("done"))
	assert.False(t, ValidStatus(""))
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidDeviceType("laptop"))
	assert.False(t, ValidDeviceType("toaster"))
	assert.True(t, ValidUrgency("critical"))
	assert.False(t, ValidUrgency("asap"))
	assert.True(t, ValidContactMethod("both"))
	assert.False(t, ValidContactMethod("fax"))
	assert.True(t, ValidServiceCategory("hardware"))
	assert.False(t, ValidServiceCategory("misc"))
}
