package domain

import "time"

// TimelineAction names what a timeline entry records.
type TimelineAction string

const (
	ActionTicketCreated          TimelineAction = "ticket_created"
	ActionStatusChanged          TimelineAction = "status_changed"
	ActionAssigned               TimelineAction = "assigned"
	ActionTicketUpdated          TimelineAction = "ticket_updated"
	ActionZoomApproved           TimelineAction = "zoom_approved"
	ActionDiagnosisSubmitted     TimelineAction = "diagnosis_submitted"
	ActionDiagnosisDeleted       TimelineAction = "diagnosis_deleted"
	ActionWorkOrderCreated       TimelineAction = "work_order_created"
	ActionWorkOrderUpdated       TimelineAction = "work_order_updated"
	ActionWorkOrderStatusChanged TimelineAction = "work_order_status_changed"
	ActionWorkOrderDeleted       TimelineAction = "work_order_deleted"
	ActionWorkOrdersReady        TimelineAction = "work_orders_ready"
)

// TimelineEntry is an immutable audit trail entry.
type TimelineEntry struct {
	ID          string
	TicketID    string
	WorkOrderID *string
	ActorID     string
	Action      TimelineAction
	OldStatus   *string
	NewStatus   *string
	Details     string
	Metadata    map[string]any
	CreatedAt   time.Time
}
