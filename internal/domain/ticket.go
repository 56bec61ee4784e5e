package domain

import (
	"errors"
	"time"
)

// TicketType selects the type-specific field group of a ticket. It never changes after creation.
type TicketType string

const (
	TicketTypePerbaikan   TicketType = "perbaikan"
	TicketTypeZoomMeeting TicketType = "zoom_meeting"
)

// Valid reports whether the type is known.
func (t TicketType) Valid() bool {
	return t == TicketTypePerbaikan || t == TicketTypeZoomMeeting
}

// Severity applies to repair tickets only.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityNormal   Severity = "normal"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityNormal, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Attachment is file metadata returned by the storage collaborator.
type Attachment struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	URL        string    `json:"url,omitempty"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// CoHost is an additional host requested for a zoom meeting.
type CoHost struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PerbaikanDetails holds repair-specific fields.
type PerbaikanDetails struct {
	AssetCode   string
	AssetNUP    string
	Location    string
	Severity    Severity
	Attachments []Attachment
}

// ZoomDetails holds booking-specific fields.
type ZoomDetails struct {
	Date                  time.Time
	Start                 ClockTime
	End                   ClockTime
	DurationMinutes       int
	EstimatedParticipants int
	CoHosts               []CoHost
	BreakoutRooms         int
	AccountID             *string
	MeetingLink           string
	MeetingID             string
	Passcode              string
	Attachments           []Attachment
}

// Window returns the booked time window.
func (z *ZoomDetails) Window() BookingWindow {
	return BookingWindow{Date: z.Date, Start: z.Start, End: z.End}
}

// Ticket is the unit of work tracked by the service desk.
type Ticket struct {
	ID              string
	Number          string
	Type            TicketType
	Title           string
	Description     string
	RequesterID     string
	AssigneeID      *string
	Status          TicketStatus
	FormData        map[string]any
	WorkOrdersReady bool
	RejectionReason *string
	Perbaikan       *PerbaikanDetails
	Zoom            *ZoomDetails
	ClosedAt        *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

var ErrTicketShape = errors.New("ticket must carry exactly the field group of its type")

// CheckShape enforces that exactly one type-specific group is populated and that it matches Type.
func (t *Ticket) CheckShape() error {
	switch t.Type {
	case TicketTypePerbaikan:
		if t.Perbaikan == nil || t.Zoom != nil {
			return ErrTicketShape
		}
	case TicketTypeZoomMeeting:
		if t.Zoom == nil || t.Perbaikan != nil {
			return ErrTicketShape
		}
	default:
		return ErrTicketShape
	}
	return nil
}

// IsAssignedTo reports whether userID is the ticket's technician.
func (t *Ticket) IsAssignedTo(userID string) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// IsZoom is shorthand for the booking type.
func (t *Ticket) IsZoom() bool { return t.Type == TicketTypeZoomMeeting }

// HoldsZoomSlot reports whether the ticket currently occupies its account's calendar.
func (t *Ticket) HoldsZoomSlot() bool {
	return t.IsZoom() && t.Zoom != nil && t.Zoom.AccountID != nil && t.Status.HoldsBooking()
}
