package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionPerbaikan(t *testing.T) {
	cases := []struct {
		from, to TicketStatus
		want     bool
	}{
		{StatusSubmitted, StatusApproved, true},
		{StatusSubmitted, StatusAssigned, true},
		{StatusSubmitted, StatusClosed, false},
		{StatusApproved, StatusAssigned, true},
		{StatusAssigned, StatusInProgress, true},
		{StatusAssigned, StatusClosed, false},
		{StatusInProgress, StatusWaitingForSubmitter, true},
		{StatusOnHold, StatusInProgress, true},
		{StatusWaitingForSubmitter, StatusClosed, true},
		{StatusWaitingForSubmitter, StatusCancelled, false},
		{StatusInRepair, StatusInProgress, true},
		{StatusInProgress, StatusInRepair, false},
		{StatusInProgress, StatusInProgress, false},
		{StatusClosed, StatusInProgress, false},
		{StatusCancelled, StatusSubmitted, false},
		{StatusSubmitted, StatusPendingReview, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(TicketTypePerbaikan, tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCanTransitionZoom(t *testing.T) {
	assert.True(t, CanTransition(TicketTypeZoomMeeting, StatusPendingReview, StatusApproved))
	assert.True(t, CanTransition(TicketTypeZoomMeeting, StatusPendingReview, StatusRejected))
	assert.True(t, CanTransition(TicketTypeZoomMeeting, StatusApproved, StatusCompleted))
	assert.False(t, CanTransition(TicketTypeZoomMeeting, StatusPendingReview, StatusAssigned))
	assert.False(t, CanTransition(TicketTypeZoomMeeting, StatusSubmitted, StatusApproved))
	assert.False(t, CanTransition(TicketTypeZoomMeeting, StatusRejected, StatusApproved))
}

func TestAllowedTargets(t *testing.T) {
	assert.ElementsMatch(t,
		[]TicketStatus{StatusInProgress, StatusOnHold, StatusCancelled},
		AllowedTargets(TicketTypePerbaikan, StatusAssigned))
	assert.Empty(t, AllowedTargets(TicketTypePerbaikan, StatusClosed))
}

func TestCheckTransitionGates(t *testing.T) {
	ticket := func(ready bool) *Ticket {
		return &Ticket{Type: TicketTypePerbaikan, Status: StatusInProgress, WorkOrdersReady: ready, Perbaikan: &PerbaikanDetails{}}
	}
	direct := &Diagnosis{RepairType: RepairDirect}
	sparepart := &Diagnosis{RepairType: RepairNeedSparepart}

	assert.ErrorIs(t, CheckTransition(ticket(false), nil, StatusClosed), ErrDiagnosisRequired)
	assert.ErrorIs(t, CheckTransition(ticket(false), nil, StatusWaitingForSubmitter), ErrDiagnosisRequired)
	assert.NoError(t, CheckTransition(ticket(false), nil, StatusOnHold))
	assert.NoError(t, CheckTransition(ticket(false), direct, StatusClosed))
	assert.ErrorIs(t, CheckTransition(ticket(false), sparepart, StatusClosed), ErrWorkOrdersNotReady)
	assert.NoError(t, CheckTransition(ticket(true), sparepart, StatusClosed))
	assert.ErrorIs(t, CheckTransition(ticket(true), sparepart, StatusAssigned), ErrIllegalTransition)

	zoom := &Ticket{Type: TicketTypeZoomMeeting, Status: StatusApproved, Zoom: &ZoomDetails{}}
	assert.NoError(t, CheckTransition(zoom, nil, StatusClosed))
}

func TestStatusPredicates(t *testing.T) {
	for _, s := range []TicketStatus{StatusClosed, StatusCompleted, StatusRejected, StatusCancelled} {
		assert.True(t, s.Terminal(), s)
	}
	assert.False(t, StatusWaitingForSubmitter.Terminal())
	assert.True(t, StatusPendingReview.HoldsBooking())
	assert.False(t, StatusRejected.HoldsBooking())
	assert.True(t, StatusInRepair.AllowsWorkOrders())
	assert.False(t, StatusSubmitted.AllowsWorkOrders())

	_, ok := ParseTicketStatus("in_progress")
	assert.True(t, ok)
	_, ok = ParseTicketStatus("done")
	assert.False(t, ok)
}

func TestCheckShape(t *testing.T) {
	assert.NoError(t, (&Ticket{Type: TicketTypePerbaikan, Perbaikan: &PerbaikanDetails{}}).CheckShape())
	assert.ErrorIs(t, (&Ticket{Type: TicketTypePerbaikan, Perbaikan: &PerbaikanDetails{}, Zoom: &ZoomDetails{}}).CheckShape(), ErrTicketShape)
	assert.ErrorIs(t, (&Ticket{Type: TicketTypeZoomMeeting}).CheckShape(), ErrTicketShape)
	assert.ErrorIs(t, (&Ticket{Type: "other"}).CheckShape(), ErrTicketShape)
}
