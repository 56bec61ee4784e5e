package domain

import "errors"

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	StatusSubmitted           TicketStatus = "submitted"
	StatusPendingReview       TicketStatus = "pending_review"
	StatusApproved            TicketStatus = "approved"
	StatusAssigned            TicketStatus = "assigned"
	StatusInProgress          TicketStatus = "in_progress"
	StatusOnHold              TicketStatus = "on_hold"
	StatusWaitingForSubmitter TicketStatus = "waiting_for_submitter"
	StatusClosed              TicketStatus = "closed"
	StatusCompleted           TicketStatus = "completed"
	StatusRejected            TicketStatus = "rejected"
	StatusCancelled           TicketStatus = "cancelled"

	// Legacy states still present on imported rows. They are accepted as
	// work order preconditions but no transition leads into them.
	StatusInDiagnosis TicketStatus = "in_diagnosis"
	StatusInRepair    TicketStatus = "in_repair"
	StatusAccepted    TicketStatus = "accepted"
)

var knownStatuses = map[TicketStatus]struct{}{
	StatusSubmitted: {}, StatusPendingReview: {}, StatusApproved: {}, StatusAssigned: {},
	StatusInProgress: {}, StatusOnHold: {}, StatusWaitingForSubmitter: {}, StatusClosed: {},
	StatusCompleted: {}, StatusRejected: {}, StatusCancelled: {}, StatusInDiagnosis: {},
	StatusInRepair: {}, StatusAccepted: {},
}

// ParseTicketStatus validates a raw status string.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	s := TicketStatus(raw)
	_, ok := knownStatuses[s]
	return s, ok
}

// Terminal states accept no further transitions.
func (s TicketStatus) Terminal() bool {
	switch s {
	case StatusClosed, StatusCompleted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// HoldsBooking reports whether a zoom ticket in this state occupies its slot.
func (s TicketStatus) HoldsBooking() bool {
	return s == StatusPendingReview || s == StatusApproved
}

// AllowsWorkOrders reports whether work orders may be opened in this state.
func (s TicketStatus) AllowsWorkOrders() bool {
	switch s {
	case StatusOnHold, StatusInDiagnosis, StatusInRepair, StatusAssigned, StatusAccepted, StatusInProgress:
		return true
	}
	return false
}

type edges map[TicketStatus]map[TicketStatus]bool

func edgeSet(targets ...TicketStatus) map[TicketStatus]bool {
	m := make(map[TicketStatus]bool, len(targets))
	for _, t := range targets {
		m[t] = true
	}
	return m
}

var ticketTransitions = map[TicketType]edges{
	TicketTypePerbaikan: {
		StatusSubmitted:           edgeSet(StatusApproved, StatusAssigned, StatusRejected, StatusCancelled),
		StatusApproved:            edgeSet(StatusAssigned, StatusCancelled),
		StatusAssigned:            edgeSet(StatusInProgress, StatusOnHold, StatusCancelled),
		StatusInProgress:          edgeSet(StatusOnHold, StatusWaitingForSubmitter, StatusClosed, StatusCancelled),
		StatusOnHold:              edgeSet(StatusInProgress, StatusWaitingForSubmitter, StatusClosed, StatusCancelled),
		StatusWaitingForSubmitter: edgeSet(StatusInProgress, StatusClosed),
		StatusInDiagnosis:         edgeSet(StatusInProgress, StatusOnHold, StatusCancelled),
		StatusInRepair:            edgeSet(StatusInProgress, StatusOnHold, StatusCancelled),
		StatusAccepted:            edgeSet(StatusInProgress, StatusOnHold, StatusCancelled),
	},
	TicketTypeZoomMeeting: {
		StatusPendingReview: edgeSet(StatusApproved, StatusRejected, StatusCancelled),
		StatusApproved:      edgeSet(StatusClosed, StatusCompleted, StatusCancelled),
	},
}

// CanTransition consults the state table only. Gates are checked by CheckTransition.
func CanTransition(t TicketType, from, to TicketStatus) bool {
	if from.Terminal() || from == to {
		return false
	}
	return ticketTransitions[t][from][to]
}

// AllowedTargets lists the table edges leaving from, for UI hints.
func AllowedTargets(t TicketType, from TicketStatus) []TicketStatus {
	out := []TicketStatus{}
	for _, to := range []TicketStatus{
		StatusApproved, StatusAssigned, StatusInProgress, StatusOnHold, StatusWaitingForSubmitter,
		StatusClosed, StatusCompleted, StatusRejected, StatusCancelled,
	} {
		if CanTransition(t, from, to) {
			out = append(out, to)
		}
	}
	return out
}

var (
	ErrIllegalTransition  = errors.New("transition not allowed from current status")
	ErrDiagnosisRequired  = errors.New("a diagnosis is required before this status")
	ErrWorkOrdersNotReady = errors.New("all work orders must be finished before this status")
)

// gated statuses need a diagnosis, and finished work orders when the diagnosis asked for them.
var gatedStatuses = map[TicketStatus]bool{
	StatusClosed:              true,
	StatusWaitingForSubmitter: true,
}

// CheckTransition evaluates the state table and then the completion gates.
// diag may be nil when the ticket has not been diagnosed.
func CheckTransition(t *Ticket, diag *Diagnosis, target TicketStatus) error {
	if !CanTransition(t.Type, t.Status, target) {
		return ErrIllegalTransition
	}
	if t.Type != TicketTypePerbaikan || !gatedStatuses[target] {
		return nil
	}
	if diag == nil {
		return ErrDiagnosisRequired
	}
	if diag.RepairType.NeedsWorkOrder() && !t.WorkOrdersReady {
		return ErrWorkOrdersNotReady
	}
	return nil
}
