package dto

import (
	"time"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/service"
)

// AttachmentRequest describes an already uploaded file.
type AttachmentRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Path     string `json:"path" validate:"required"`
	URL      string `json:"url"`
	Size     int64  `json:"size" validate:"min=0"`
	MimeType string `json:"mime_type" validate:"required"`
}

// CoHostRequest is an extra meeting host.
type CoHostRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email"`
}

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Type        domain.TicketType   `json:"type" validate:"required,oneof=perbaikan zoom_meeting"`
	Title       string              `json:"title" validate:"required,max=255"`
	Description string              `json:"description"`
	FormData    map[string]any      `json:"form_data"`
	Attachments []AttachmentRequest `json:"attachments" validate:"dive"`

	AssetCode string          `json:"asset_code" validate:"required_if=Type perbaikan"`
	AssetNUP  string          `json:"asset_nup" validate:"required_if=Type perbaikan"`
	Location  string          `json:"location"`
	Severity  domain.Severity `json:"severity" validate:"omitempty,oneof=low normal high critical"`

	Date                  string          `json:"zoom_date" validate:"required_if=Type zoom_meeting"`
	StartTime             string          `json:"zoom_start_time" validate:"required_if=Type zoom_meeting"`
	EndTime               string          `json:"zoom_end_time" validate:"required_if=Type zoom_meeting"`
	DurationMinutes       *int            `json:"zoom_duration"`
	EstimatedParticipants int             `json:"zoom_estimated_participants" validate:"min=0"`
	CoHosts               []CoHostRequest `json:"zoom_co_hosts" validate:"dive"`
	BreakoutRooms         int             `json:"zoom_breakout_rooms" validate:"min=0"`
}

// Input converts the payload for the ticket service.
func (r CreateTicketRequest) Input() service.TicketCreateInput {
	attachments := make([]domain.Attachment, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		attachments = append(attachments, domain.Attachment{Name: a.Name, Path: a.Path, URL: a.URL, Size: a.Size, MimeType: a.MimeType})
	}
	cohosts := make([]domain.CoHost, 0, len(r.CoHosts))
	for _, c := range r.CoHosts {
		cohosts = append(cohosts, domain.CoHost{Name: c.Name, Email: c.Email})
	}
	return service.TicketCreateInput{
		Type:                  r.Type,
		Title:                 r.Title,
		Description:           r.Description,
		FormData:              r.FormData,
		Attachments:           attachments,
		AssetCode:             r.AssetCode,
		AssetNUP:              r.AssetNUP,
		Location:              r.Location,
		Severity:              r.Severity,
		Date:                  r.Date,
		StartTime:             r.StartTime,
		EndTime:               r.EndTime,
		DurationMinutes:       r.DurationMinutes,
		EstimatedParticipants: r.EstimatedParticipants,
		CoHosts:               cohosts,
		BreakoutRooms:         r.BreakoutRooms,
	}
}

// UpdateTicketRequest edits descriptive fields.
type UpdateTicketRequest struct {
	Title       *string        `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string        `json:"description"`
	FormData    map[string]any `json:"form_data"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status              domain.TicketStatus `json:"status" validate:"required"`
	Notes               string              `json:"notes" validate:"max=2000"`
	MarkWorkOrdersReady bool                `json:"mark_work_orders_ready"`
	CompletionData      map[string]any      `json:"completion_data"`
	EstimatedSchedule   string              `json:"estimated_schedule"`
	RejectReason        string              `json:"reject_reason" validate:"max=500"`
}

// Input converts the payload.
func (r UpdateStatusRequest) Input() service.UpdateStatusInput {
	return service.UpdateStatusInput{
		Status:              r.Status,
		Notes:               r.Notes,
		MarkWorkOrdersReady: r.MarkWorkOrdersReady,
		CompletionData:      r.CompletionData,
		EstimatedSchedule:   r.EstimatedSchedule,
		RejectReason:        r.RejectReason,
	}
}

// AssignRequest payload.
type AssignRequest struct {
	AssignedTo string `json:"assigned_to" validate:"required"`
	Notes      string `json:"notes" validate:"max=2000"`
}

// NotesRequest carries optional notes for approvals.
type NotesRequest struct {
	Notes string `json:"notes" validate:"max=2000"`
}

// RejectRequest payload.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ZoomApprovalRequest payload.
type ZoomApprovalRequest struct {
	AccountID   string `json:"zoom_account_id"`
	MeetingLink string `json:"zoom_meeting_link" validate:"required,url"`
	MeetingID   string `json:"zoom_meeting_id"`
	Passcode    string `json:"zoom_passcode"`
}

// Input converts the payload.
func (r ZoomApprovalRequest) Input() service.ZoomApprovalInput {
	return service.ZoomApprovalInput{
		AccountID:   r.AccountID,
		MeetingLink: r.MeetingLink,
		MeetingID:   r.MeetingID,
		Passcode:    r.Passcode,
	}
}

// TicketResponse is the flattened ticket representation.
type TicketResponse struct {
	ID              string              `json:"id"`
	Number          string              `json:"ticket_number"`
	Type            domain.TicketType   `json:"type"`
	Title           string              `json:"title"`
	Description     string              `json:"description"`
	RequesterID     string              `json:"user_id"`
	AssigneeID      *string             `json:"assigned_to"`
	Status          domain.TicketStatus `json:"status"`
	FormData        map[string]any      `json:"form_data,omitempty"`
	WorkOrdersReady bool                `json:"work_orders_ready"`
	RejectionReason *string             `json:"rejection_reason,omitempty"`
	ClosedAt        *time.Time          `json:"closed_at,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`

	AssetCode   string              `json:"asset_code,omitempty"`
	AssetNUP    string              `json:"asset_nup,omitempty"`
	Location    string              `json:"location,omitempty"`
	Severity    domain.Severity     `json:"severity,omitempty"`
	Attachments []domain.Attachment `json:"attachments,omitempty"`

	Zoom *ZoomResponse `json:"zoom,omitempty"`
}

// ZoomResponse holds the booking fields of a zoom ticket.
type ZoomResponse struct {
	Date                  string           `json:"date"`
	Start                 domain.ClockTime `json:"start_time"`
	End                   domain.ClockTime `json:"end_time"`
	DurationMinutes       int              `json:"duration"`
	EstimatedParticipants int              `json:"estimated_participants"`
	CoHosts               []domain.CoHost  `json:"co_hosts"`
	BreakoutRooms         int              `json:"breakout_rooms"`
	AccountID             *string          `json:"account_id"`
	MeetingLink           string           `json:"meeting_link,omitempty"`
	MeetingID             string           `json:"meeting_id,omitempty"`
	Passcode              string           `json:"passcode,omitempty"`
}

// Ticket maps a domain ticket.
func Ticket(t *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:              t.ID,
		Number:          t.Number,
		Type:            t.Type,
		Title:           t.Title,
		Description:     t.Description,
		RequesterID:     t.RequesterID,
		AssigneeID:      t.AssigneeID,
		Status:          t.Status,
		FormData:        t.FormData,
		WorkOrdersReady: t.WorkOrdersReady,
		RejectionReason: t.RejectionReason,
		ClosedAt:        t.ClosedAt,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	if p := t.Perbaikan; p != nil {
		resp.AssetCode = p.AssetCode
		resp.AssetNUP = p.AssetNUP
		resp.Location = p.Location
		resp.Severity = p.Severity
		resp.Attachments = p.Attachments
	}
	if z := t.Zoom; z != nil {
		resp.Attachments = z.Attachments
		resp.Zoom = &ZoomResponse{
			Date:                  domain.FormatDate(z.Date),
			Start:                 z.Start,
			End:                   z.End,
			DurationMinutes:       z.DurationMinutes,
			EstimatedParticipants: z.EstimatedParticipants,
			CoHosts:               z.CoHosts,
			BreakoutRooms:         z.BreakoutRooms,
			AccountID:             z.AccountID,
			MeetingLink:           z.MeetingLink,
			MeetingID:             z.MeetingID,
			Passcode:              z.Passcode,
		}
	}
	return resp
}

// Tickets maps a page of tickets.
func Tickets(items []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(items))
	for i := range items {
		out = append(out, Ticket(&items[i]))
	}
	return out
}

// TicketDetailResponse is a ticket with its repair records.
type TicketDetailResponse struct {
	TicketResponse
	Diagnosis          *DiagnosisResponse    `json:"diagnosis"`
	WorkOrders         []WorkOrderResponse   `json:"work_orders"`
	AllowedTransitions []domain.TicketStatus `json:"allowed_transitions"`
}

// TicketDetail maps a detail view.
func TicketDetail(d *service.TicketDetail) TicketDetailResponse {
	resp := TicketDetailResponse{
		TicketResponse:     Ticket(d.Ticket),
		WorkOrders:         WorkOrders(d.WorkOrders),
		AllowedTransitions: d.AllowedTransitions,
	}
	if d.Diagnosis != nil {
		diag := Diagnosis(d.Diagnosis)
		resp.Diagnosis = &diag
	}
	if resp.AllowedTransitions == nil {
		resp.AllowedTransitions = []domain.TicketStatus{}
	}
	return resp
}

// TimelineResponse is one audit entry.
type TimelineResponse struct {
	ID          string                `json:"id"`
	TicketID    string                `json:"ticket_id"`
	WorkOrderID *string               `json:"work_order_id,omitempty"`
	ActorID     string                `json:"user_id"`
	Action      domain.TimelineAction `json:"action"`
	OldStatus   *string               `json:"old_status,omitempty"`
	NewStatus   *string               `json:"new_status,omitempty"`
	Details     string                `json:"details"`
	Metadata    map[string]any        `json:"metadata,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// Timeline maps audit entries.
func Timeline(entries []domain.TimelineEntry) []TimelineResponse {
	out := make([]TimelineResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, TimelineResponse{
			ID:          e.ID,
			TicketID:    e.TicketID,
			WorkOrderID: e.WorkOrderID,
			ActorID:     e.ActorID,
			Action:      e.Action,
			OldStatus:   e.OldStatus,
			NewStatus:   e.NewStatus,
			Details:     e.Details,
			Metadata:    e.Metadata,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}

// Page wraps list results.
type Page[T any] struct {
	Data   []T `json:"data"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
