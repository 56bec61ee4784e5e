package events

import (
	"time"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket.created"
	EventTicketAssigned      EventType = "ticket.assigned"
	EventTicketStatusChanged EventType = "ticket.status_changed"
	EventTicketZoomApproved  EventType = "ticket.zoom_approved"
	EventTicketZoomRejected  EventType = "ticket.zoom_rejected"
	EventTicketClosed        EventType = "ticket.closed"
	EventTicketDiagnosed     EventType = "ticket.diagnosed"
	EventWorkOrderCreated    EventType = "work_order.created"
)

// AllEventTypes lists every type the service emits.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketAssigned,
	EventTicketStatusChanged,
	EventTicketZoomApproved,
	EventTicketZoomRejected,
	EventTicketClosed,
	EventTicketDiagnosed,
	EventWorkOrderCreated,
}

// Actor identifies who caused an event.
type Actor struct {
	UserID string        `json:"user_id"`
	Roles  []domain.Role `json:"roles"`
}

// Event represents a domain event emitted by services after their change committed.
type Event struct {
	ID           string            `json:"id"`
	Type         EventType         `json:"type"`
	TicketID     string            `json:"ticket_id"`
	TicketNumber string            `json:"ticket_number"`
	TicketType   domain.TicketType `json:"ticket_type"`
	RequesterID  string            `json:"requester_id"`
	AssigneeID   *string           `json:"assignee_id,omitempty"`
	Actor        Actor             `json:"actor"`
	Timestamp    time.Time         `json:"timestamp"`
	Payload      interface{}       `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title    string          `json:"title"`
	Status   string          `json:"status"`
	Severity domain.Severity `json:"severity,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID         string  `json:"assignee_id"`
	PreviousAssigneeID *string `json:"previous_assignee_id,omitempty"`
	Notes              string  `json:"notes,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Details   string              `json:"details,omitempty"`
}

// ZoomApprovedPayload payload.
type ZoomApprovedPayload struct {
	AccountID         string  `json:"account_id"`
	PreviousAccountID *string `json:"previous_account_id,omitempty"`
	MeetingLink       string  `json:"meeting_link"`
}

// ZoomRejectedPayload payload.
type ZoomRejectedPayload struct {
	Reason string `json:"reason"`
}

// DiagnosisPayload payload.
type DiagnosisPayload struct {
	RepairType     domain.RepairType `json:"repair_type"`
	NeedsWorkOrder bool              `json:"needs_work_order"`
	Updated        bool              `json:"updated"`
}

// WorkOrderCreatedPayload payload.
type WorkOrderCreatedPayload struct {
	WorkOrderID string               `json:"work_order_id"`
	Type        domain.WorkOrderType `json:"type"`
}

// ForTicket fills the ticket fields common to every event.
func ForTicket(t *domain.Ticket, typ EventType, actor Actor, payload interface{}) Event {
	return Event{
		Type:         typ,
		TicketID:     t.ID,
		TicketNumber: t.Number,
		TicketType:   t.Type,
		RequesterID:  t.RequesterID,
		AssigneeID:   t.AssigneeID,
		Actor:        actor,
		Payload:      payload,
	}
}
