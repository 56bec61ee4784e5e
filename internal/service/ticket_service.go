package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	core
	zoom *ZoomBookingService
}

// NewTicketService constructs the service.
func NewTicketService(deps Dependencies, zoom *ZoomBookingService) *TicketService {
	if zoom == nil {
		zoom = NewZoomBookingService(deps)
	}
	return &TicketService{core: newCore(deps), zoom: zoom}
}

// TicketCreateInput describes ticket creation payload. Only the group matching Type is read.
type TicketCreateInput struct {
	Type        domain.TicketType
	Title       string
	Description string
	FormData    map[string]any
	Attachments []domain.Attachment

	AssetCode string
	AssetNUP  string
	Location  string
	Severity  domain.Severity

	Date                  string
	StartTime             string
	EndTime               string
	DurationMinutes       *int
	EstimatedParticipants int
	CoHosts               []domain.CoHost
	BreakoutRooms         int
}

// UpdateStatusInput is a staff status change.
type UpdateStatusInput struct {
	Status              domain.TicketStatus
	Notes               string
	MarkWorkOrdersReady bool
	CompletionData      map[string]any
	EstimatedSchedule   string
	RejectReason        string
}

// ZoomApprovalInput carries the meeting details an admin fills in on approval.
type ZoomApprovalInput struct {
	AccountID   string
	MeetingLink string
	MeetingID   string
	Passcode    string
}

// TicketUpdateInput edits descriptive fields. Nil fields are left unchanged.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	FormData    map[string]any
}

// TicketListInput describes list filters.
type TicketListInput struct {
	Scope      string
	Type       domain.TicketType
	Statuses   []domain.TicketStatus
	AssigneeID string
	Severity   domain.Severity
	Search     string
	Limit      int
	Offset     int
}

// TicketDetail is a ticket with its repair records.
type TicketDetail struct {
	Ticket             *domain.Ticket
	Diagnosis          *domain.Diagnosis
	WorkOrders         []domain.WorkOrder
	AllowedTransitions []domain.TicketStatus
}

// TicketCounts groups visible tickets by status.
type TicketCounts struct {
	Total    int                         `json:"total"`
	Open     int                         `json:"open"`
	Finished int                         `json:"finished"`
	ByStatus map[domain.TicketStatus]int `json:"by_status"`
}

const maxRejectReason = 500

type attachmentRule struct {
	maxBytes int64
	mimes    map[string]bool
}

var attachmentRules = map[domain.TicketType]attachmentRule{
	domain.TicketTypePerbaikan: {
		maxBytes: 2 << 20,
		mimes:    map[string]bool{"image/jpeg": true, "image/png": true, "application/pdf": true},
	},
	domain.TicketTypeZoomMeeting: {
		maxBytes: 10 << 20,
		mimes: map[string]bool{
			"application/pdf":    true,
			"application/msword": true,
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
			"application/vnd.ms-excel": true,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
			"image/jpeg": true,
			"image/png":  true,
		},
	},
}

func (s *TicketService) checkAttachments(typ domain.TicketType, in []domain.Attachment) ([]domain.Attachment, error) {
	rule := attachmentRules[typ]
	out := make([]domain.Attachment, 0, len(in))
	for _, a := range in {
		if a.Size > rule.maxBytes {
			return nil, apperrors.NewFieldError("attachments",
				fmt.Sprintf("%s exceeds the %d MB limit", a.Name, rule.maxBytes>>20))
		}
		if !rule.mimes[strings.ToLower(a.MimeType)] {
			return nil, apperrors.NewFieldError("attachments",
				fmt.Sprintf("%s has an unsupported file type %s", a.Name, a.MimeType))
		}
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		if a.UploadedAt.IsZero() {
			a.UploadedAt = s.now()
		}
		out = append(out, a)
	}
	return out, nil
}

var numberPrefixes = map[domain.TicketType]string{
	domain.TicketTypePerbaikan:   "PRB",
	domain.TicketTypeZoomMeeting: "ZM",
}

func (s *TicketService) nextNumber(ctx context.Context, typ domain.TicketType) (string, error) {
	prefix := numberPrefixes[typ]
	day := domain.DateOnly(s.now())
	seq, err := s.deps.Tickets.NextNumber(ctx, prefix, day)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format("20060102"), seq), nil
}

// CreateTicket validates the type-specific group and stores a new ticket for the requester.
func (s *TicketService) CreateTicket(ctx context.Context, p *auth.Principal, input TicketCreateInput) (*domain.Ticket, error) {
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket := &domain.Ticket{
		Type:        input.Type,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		RequesterID: p.UserID,
		FormData:    input.FormData,
	}
	attachments, err := s.checkAttachments(input.Type, input.Attachments)
	if err != nil {
		return nil, err
	}

	switch input.Type {
	case domain.TicketTypePerbaikan:
		if err := s.preparePerbaikan(ctx, ticket, input, attachments); err != nil {
			return nil, err
		}
		if err := s.insert(ctx, p, ticket, nil); err != nil {
			return nil, err
		}
		return ticket, nil
	case domain.TicketTypeZoomMeeting:
		window, err := s.prepareZoom(ticket, input, attachments)
		if err != nil {
			return nil, err
		}
		release, err := s.zoom.lockDate(ctx, window.Date)
		if err != nil {
			return nil, translateError(err)
		}
		defer release()
		err = s.insert(ctx, p, ticket, func(ctx context.Context) error {
			result, err := s.zoom.ValidateAndAssign(ctx, window)
			if err != nil {
				return err
			}
			if !result.Success {
				return apperrors.NewValidationError(result.Message, map[string]any{
					"fields": map[string]string{"zoom_date": result.Message},
				})
			}
			ticket.Zoom.AccountID = strPtr(result.AccountID)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return ticket, nil
	}
	return nil, apperrors.NewFieldError("type", "type must be perbaikan or zoom_meeting")
}

func (s *TicketService) preparePerbaikan(ctx context.Context, t *domain.Ticket, in TicketCreateInput, attachments []domain.Attachment) error {
	code, nup := strings.TrimSpace(in.AssetCode), strings.TrimSpace(in.AssetNUP)
	if code == "" || nup == "" {
		return apperrors.NewFieldError("kode_barang", "asset code and NUP are required")
	}
	asset, err := s.deps.Assets.Find(ctx, code, nup)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewFieldError("kode_barang", "asset with this code and NUP is not registered")
	}
	if err != nil {
		return err
	}
	severity := in.Severity
	if severity == "" {
		severity = domain.SeverityNormal
	}
	if !severity.Valid() {
		return apperrors.NewFieldError("severity", "severity must be low, normal, high or critical")
	}
	location := strings.TrimSpace(in.Location)
	if location == "" {
		location = asset.Location
	}
	t.Status = domain.StatusSubmitted
	t.Perbaikan = &domain.PerbaikanDetails{
		AssetCode:   asset.Code,
		AssetNUP:    asset.NUP,
		Location:    location,
		Severity:    severity,
		Attachments: attachments,
	}
	return nil
}

func (s *TicketService) prepareZoom(t *domain.Ticket, in TicketCreateInput, attachments []domain.Attachment) (domain.BookingWindow, error) {
	date, err := domain.ParseDate(in.Date)
	if err != nil {
		return domain.BookingWindow{}, apperrors.NewFieldError("zoom_date", "date must be formatted YYYY-MM-DD")
	}
	if date.Before(domain.DateOnly(s.now())) {
		return domain.BookingWindow{}, apperrors.NewFieldError("zoom_date", "date must not be in the past")
	}
	start, err := domain.ParseClock(in.StartTime)
	if err != nil {
		return domain.BookingWindow{}, apperrors.NewFieldError("zoom_start_time", err.Error())
	}
	end, err := domain.ParseClock(in.EndTime)
	if err != nil {
		return domain.BookingWindow{}, apperrors.NewFieldError("zoom_end_time", err.Error())
	}
	if end <= start {
		return domain.BookingWindow{}, apperrors.NewFieldError("zoom_end_time", "end time must be after start time")
	}
	if in.EstimatedParticipants < 0 {
		return domain.BookingWindow{}, apperrors.NewFieldError("zoom_estimated_participants", "must not be negative")
	}
	if in.BreakoutRooms < 0 {
		return domain.BookingWindow{}, apperrors.NewFieldError("zoom_breakout_rooms", "must not be negative")
	}
	window := domain.BookingWindow{Date: date, Start: start, End: end}
	duration := window.Minutes()
	if in.DurationMinutes != nil && *in.DurationMinutes > 0 {
		duration = *in.DurationMinutes
	}
	t.Status = domain.StatusPendingReview
	t.Zoom = &domain.ZoomDetails{
		Date:                  date,
		Start:                 start,
		End:                   end,
		DurationMinutes:       duration,
		EstimatedParticipants: in.EstimatedParticipants,
		CoHosts:               in.CoHosts,
		BreakoutRooms:         in.BreakoutRooms,
		Attachments:           attachments,
	}
	return window, nil
}

// insert numbers and stores the ticket. prepare runs inside the same unit of work first.
func (s *TicketService) insert(ctx context.Context, p *auth.Principal, t *domain.Ticket, prepare func(ctx context.Context) error) error {
	return s.inTx(ctx, func(ctx context.Context, out *outbox) error {
		if prepare != nil {
			if err := prepare(ctx); err != nil {
				return err
			}
		}
		number, err := s.nextNumber(ctx, t.Type)
		if err != nil {
			return err
		}
		t.Number = number
		if err := t.CheckShape(); err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		if err := s.deps.Tickets.Create(ctx, t); err != nil {
			return err
		}
		newS := string(t.Status)
		if err := s.recordTimeline(ctx, domain.TimelineEntry{
			TicketID:  t.ID,
			ActorID:   p.UserID,
			Action:    domain.ActionTicketCreated,
			NewStatus: &newS,
			Details:   "Ticket " + t.Number + " created",
		}); err != nil {
			return err
		}
		payload := events.TicketCreatedPayload{Title: t.Title, Status: newS}
		if t.Perbaikan != nil {
			payload.Severity = t.Perbaikan.Severity
		}
		out.add(events.ForTicket(t, events.EventTicketCreated, actorOf(p), payload))
		return nil
	})
}

func transitionError(t *domain.Ticket, target domain.TicketStatus, err error) error {
	switch {
	case errors.Is(err, domain.ErrIllegalTransition):
		return apperrors.NewInvalidTransition(string(t.Status), string(target))
	case errors.Is(err, domain.ErrDiagnosisRequired), errors.Is(err, domain.ErrWorkOrdersNotReady):
		return apperrors.NewValidationError(err.Error(), map[string]any{
			"fields": map[string]string{"status": err.Error()},
		})
	}
	return err
}

func (s *TicketService) diagnosisOf(ctx context.Context, t *domain.Ticket) (*domain.Diagnosis, error) {
	if t.Type != domain.TicketTypePerbaikan {
		return nil, nil
	}
	d, err := s.deps.Diagnoses.GetByTicket(ctx, t.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return d, err
}

// CanTransitionTo evaluates the state table and gates for a stored ticket.
func (s *TicketService) CanTransitionTo(ctx context.Context, t *domain.Ticket, target domain.TicketStatus) error {
	diag, err := s.diagnosisOf(ctx, t)
	if err != nil {
		return err
	}
	return transitionError(t, target, domain.CheckTransition(t, diag, target))
}

func canOperate(p *auth.Principal, t *domain.Ticket) bool {
	if p.HasAnyRole(domain.RoleSuperAdmin, domain.RoleAdminLayanan) {
		return true
	}
	return p.HasRole(domain.RoleTeknisi) && t.IsAssignedTo(p.UserID)
}

// dedicatedTransitions maps targets that only their own operations may reach.
var dedicatedTransitions = map[domain.TicketStatus]string{
	domain.StatusApproved: "the approve endpoint",
	domain.StatusRejected: "the reject endpoint",
}

// UpdateStatus moves a ticket through the state table, enforcing the completion gates.
func (s *TicketService) UpdateStatus(ctx context.Context, p *auth.Principal, ticketID string, input UpdateStatusInput) (*domain.Ticket, error) {
	if err := requireRoles(p, domain.RoleSuperAdmin, domain.RoleAdminLayanan, domain.RoleTeknisi); err != nil {
		return nil, err
	}
	if _, ok := domain.ParseTicketStatus(string(input.Status)); !ok {
		return nil, apperrors.NewFieldError("status", "unknown status "+string(input.Status))
	}
	var ticket *domain.Ticket
	err := s.inTx(ctx, func(ctx context.Context, out *outbox) error {
		t, err := s.loadTicket(ctx, ticketID, true)
		if err != nil {
			return err
		}
		if !canOperate(p, t) {
			return apperrors.NewForbidden("only admins or the assigned technician can change this ticket")
		}
		if dedicated, ok := dedicatedTransitions[input.Status]; ok {
			err := apperrors.NewInvalidTransition(string(t.Status), string(input.Status)).(*apperrors.DomainError)
			err.Message += ", use " + dedicated
			return err
		}
		// Gates see the stored flag; the override only applies to a transition that already passed.
		if err := s.CanTransitionTo(ctx, t, input.Status); err != nil {
			return err
		}
		if input.MarkWorkOrdersReady && !t.WorkOrdersReady {
			t.WorkOrdersReady = true
			if err := s.recordTimeline(ctx, domain.TimelineEntry{
				TicketID: t.ID,
				ActorID:  p.UserID,
				Action:   domain.ActionWorkOrdersReady,
				Details:  "Work orders marked ready manually",
			}); err != nil {
				return err
			}
		}
		if input.Status == domain.StatusAssigned && t.AssigneeID == nil {
			return apperrors.NewFieldError("status", "assign a technician to move the ticket to assigned")
		}

		old := t.Status
		now := s.now()
		t.Status = input.Status
		switch input.Status {
		case domain.StatusClosed, domain.StatusCompleted:
			t.ClosedAt = &now
			if input.CompletionData != nil {
				info := make(map[string]any, len(input.CompletionData)+2)
				for k, v := range input.CompletionData {
					info[k] = v
				}
				info["completed_at"] = now.Format(time.RFC3339)
				info["completed_by"] = p.DisplayName()
				if t.FormData == nil {
					t.FormData = map[string]any{}
				}
				t.FormData["completion_info"] = info
			}
		}
		if err := s.deps.Tickets.Update(ctx, t); err != nil {
			return err
		}

		details := joinDetails(input.Notes, prefixed("Estimated schedule: ", input.EstimatedSchedule), prefixed("Reason: ", input.RejectReason))
		if err := s.recordStatusChange(ctx, p.UserID, t.ID, old, t.Status, details); err != nil {
			return err
		}
		eventType := events.EventTicketStatusChanged
		if t.Status == domain.StatusClosed {
			eventType = events.EventTicketClosed
		}
		out.add(events.ForTicket(t, eventType, actorOf(p), events.TicketStatusChangedPayload{
			OldStatus: old,
			NewStatus: t.Status,
			Details:   details,
		}))
		ticket = t
		return nil
	})
	return ticket, err
}

func prefixed(prefix, value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return prefix + strings.TrimSpace(value)
}

// Assign routes a repair ticket to a technician.
func (s *TicketService) Assign(ctx context.Context, p *auth.Principal, ticketID, technicianID, notes string) (*domain.Ticket, error) {
	if err := requireRoles(p, domain.RoleSuperAdmin, domain.RoleAdminLayanan); err != nil {
		return nil, err
	}
	technician, err := s.deps.Users.GetByID(ctx, technicianID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewFieldError("assigned_to", "technician does not exist")
	}
	if err != nil {
		return nil, err
	}
	if !technician.Roles.Has(domain.RoleTeknisi) {
		return nil, apperrors.NewFieldError("assigned_to", "user is not a technician")
	}

	var ticket *domain.Ticket
	err = s.inTx(ctx, func(ctx context.Context, out *outbox) error {
		t, err := s.loadTicket(ctx, ticketID, true)
		if err != nil {
			return err
		}
		if t.Type != domain.TicketTypePerbaikan {
			return apperrors.NewValidationError("only repair tickets can be assigned", nil)
		}
		switch t.Status {
		case domain.StatusSubmitted, domain.StatusApproved, domain.StatusAssigned:
		default:
			return apperrors.NewInvalidTransition(string(t.Status), string(domain.StatusAssigned))
		}

		previous := t.AssigneeID
		old := t.Status
		t.AssigneeID = strPtr(technician.ID)
		t.Status = domain.StatusAssigned
		if err := s.deps.Tickets.Update(ctx, t); err != nil {
			return err
		}
		if old != t.Status {
			if err := s.recordStatusChange(ctx, p.UserID, t.ID, old, t.Status, notes); err != nil {
				return err
			}
		}
		metadata := map[string]any{"assigned_to": technician.ID}
		if previous != nil {
			metadata["previous_assignee"] = *previous
		}
		if err := s.recordTimeline(ctx, domain.TimelineEntry{
			TicketID: t.ID,
			ActorID:  p.UserID,
			Action:   domain.ActionAssigned,
			Details:  joinDetails("Assigned to "+technician.Name, notes),
			Metadata: metadata,
		}); err != nil {
			return err
		}
		out.add(events.ForTicket(t, events.EventTicketAssigned, actorOf(p), events.TicketAssignedPayload{
			AssigneeID:         technician.ID,
			PreviousAssigneeID: previous,
			Notes:              notes,
		}))
		ticket = t
		return nil
	})
	return ticket, err
}

func awaitingReview(t *domain.Ticket) bool {
	return t.Status == domain.StatusSubmitted || t.Status == domain.StatusPendingReview
}

// ApproveTicket is the canonical approval of a repair ticket.
func (s *TicketService) ApproveTicket(ctx context.Context, p *auth.Principal, ticketID, notes string) (*domain.Ticket, error) {
	if err := requireRoles(p, domain.RoleSuperAdmin, domain.RoleAdminLayanan); err != nil {
		return nil, err
	}
	var ticket *domain.Ticket
	err := s.inTx(ctx, func(ctx context.Context, out *outbox) error {
		t, err := s.loadTicket(ctx, ticketID, true)
		if err != nil {
			return err
		}
		if t.Type != domain.TicketTypePerbaikan {
			return apperrors.NewValidationError("zoom tickets are approved with a meeting account", nil)
		}
		if !awaitingReview(t) {
			return apperrors.NewInvalidTransition(string(t.Status), string(domain.StatusApproved))
		}
		old := t.Status
		t.Status = domain.StatusApproved
		if err := s.deps.Tickets.Update(ctx, t); err != nil {
			return err
		}
		if err := s.recordStatusChange(ctx, p.UserID, t.ID, old, t.Status, joinDetails("Ticket approved", notes)); err != nil {
			return err
		}
		out.add(events.ForTicket(t, events.EventTicketStatusChanged, actorOf(p), events.TicketStatusChangedPayload{
			OldStatus: old, NewStatus: t.Status, Details: notes,
		}))
		ticket = t
		return nil
	})
	return ticket, err
}

func checkReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", apperrors.NewFieldError("reason", "a rejection reason is required")
	}
	if len([]rune(reason)) > maxRejectReason {
		return "", apperrors.NewFieldError("reason", fmt.Sprintf("reason must be at most %d characters", maxRejectReason))
	}
	return reason, nil
}

// RejectTicket rejects a ticket still awaiting review.
func (s *TicketService) RejectTicket(ctx context.Context, p *auth.Principal, ticketID, reason string) (*domain.Ticket, error) {
	return s.reject(ctx, p, ticketID, reason, false)
}

// RejectZoom rejects a pending booking and releases its slot.
func (s *TicketService) RejectZoom(ctx context.Context, p *auth.Principal, ticketID, reason string) (*domain.Ticket, error) {
	return s.reject(ctx, p, ticketID, reason, true)
}

func (s *TicketService) reject(ctx context.Context, p *auth.Principal, ticketID, reason string, zoom bool) (*domain.Ticket, error) {
	if err := requireRoles(p, domain.RoleSuperAdmin, domain.RoleAdminLayanan); err != nil {
		return nil, err
	}
	reason, err := checkReason(reason)
	if err != nil {
		return nil, err
	}
	var ticket *domain.Ticket
	err = s.inTx(ctx, func(ctx context.Context, out *outbox) error {
		t, err := s.loadTicket(ctx, ticketID, true)
		if err != nil {
			return err
		}
		if zoom && !t.IsZoom() {
			return apperrors.NewValidationError("ticket is not a zoom booking", nil)
		}
		if !awaitingReview(t) {
			return apperrors.NewInvalidTransition(string(t.Status), string(domain.StatusRejected))
		}
		old := t.Status
		t.Status = domain.StatusRejected
		t.RejectionReason = &reason
		if err := s.deps.Tickets.Update(ctx, t); err != nil {
			return err
		}
		if err := s.recordStatusChange(ctx, p.UserID, t.ID, old, t.Status, "Reason: "+reason); err != nil {
			return err
		}
		if t.IsZoom() {
			out.add(events.ForTicket(t, events.EventTicketZoomRejected, actorOf(p), events.ZoomRejectedPayload{Reason: reason}))
		} else {
			out.add(events.ForTicket(t, events.EventTicketStatusChanged, actorOf(p), events.TicketStatusChangedPayload{
				OldStatus: old, NewStatus: t.Status, Details: reason,
			}))
		}
		ticket = t
		return nil
	})
	return ticket, err
}

// ApproveZoom confirms a booking on the chosen account after re-checking the slot.
func (s *TicketService) ApproveZoom(ctx context.Context, p *auth.Principal, ticketID string, input ZoomApprovalInput) (*domain.Ticket, error) {
	if err := requireRoles(p, domain.RoleSuperAdmin, domain.RoleAdminLayanan); err != nil {
		return nil, err
	}
	current, err := s.loadTicket(ctx, ticketID, false)
	if err != nil {
		return nil, err
	}
	if !current.IsZoom() {
		return nil, apperrors.NewValidationError("ticket is not a zoom booking", nil)
	}
	accountID := strings.TrimSpace(input.AccountID)
	if accountID == "" && current.Zoom.AccountID != nil {
		accountID = *current.Zoom.AccountID
	}
	if accountID == "" {
		return nil, apperrors.NewFieldError("zoom_account_id", "a zoom account is required")
	}
	account, err := s.zoom.account(ctx, accountID)
	if err != nil {
		return nil, err
	}
	release, err := s.zoom.lockDate(ctx, current.Zoom.Date)
	if err != nil {
		return nil, translateError(err)
	}
	defer release()

	var ticket *domain.Ticket
	err = s.inTx(ctx, func(ctx context.Context, out *outbox) error {
		t, err := s.loadTicket(ctx, ticketID, true)
		if err != nil {
			return err
		}
		if t.Status != domain.StatusPendingReview {
			return apperrors.NewInvalidTransition(string(t.Status), string(domain.StatusApproved))
		}
		conflicts, err := s.zoom.GetConflicts(ctx, account.ID, t.Zoom.Window(), t.ID)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return apperrors.NewBookingConflict(
				fmt.Sprintf("%s already has %d booking(s) overlapping this slot", account.Name, len(conflicts)), conflicts)
		}

		previous := t.Zoom.AccountID
		old := t.Status
		t.Zoom.AccountID = strPtr(account.ID)
		t.Zoom.MeetingLink = strings.TrimSpace(input.MeetingLink)
		t.Zoom.MeetingID = strings.TrimSpace(input.MeetingID)
		t.Zoom.Passcode = strings.TrimSpace(input.Passcode)
		t.Status = domain.StatusApproved
		if err := s.deps.Tickets.Update(ctx, t); err != nil {
			return err
		}

		details := "Booking approved on " + account.Name
		if previous != nil && *previous != account.ID {
			details += " (account changed by approver)"
		}
		oldS, newS := string(old), string(t.Status)
		metadata := map[string]any{"zoom_account_id": account.ID}
		if previous != nil {
			metadata["previous_zoom_account_id"] = *previous
		}
		if err := s.recordTimeline(ctx, domain.TimelineEntry{
			TicketID:  t.ID,
			ActorID:   p.UserID,
			Action:    domain.ActionZoomApproved,
			OldStatus: &oldS,
			NewStatus: &newS,
			Details:   details,
			Metadata:  metadata,
		}); err != nil {
			return err
		}
		out.add(events.ForTicket(t, events.EventTicketZoomApproved, actorOf(p), events.ZoomApprovedPayload{
			AccountID:         account.ID,
			PreviousAccountID: previous,
			MeetingLink:       t.Zoom.MeetingLink,
		}))
		ticket = t
		return nil
	})
	return ticket, err
}

// GetTicket returns a ticket the caller may see.
func (s *TicketService) GetTicket(ctx context.Context, p *auth.Principal, ticketID string) (*domain.Ticket, error) {
	t, err := s.loadTicket(ctx, ticketID, false)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTicket(ctx, p, t); err != nil {
		return nil, err
	}
	return t, nil
}

// GetTicketDetail returns a ticket with its diagnosis, work orders and the statuses it can move to.
func (s *TicketService) GetTicketDetail(ctx context.Context, p *auth.Principal, ticketID string) (*TicketDetail, error) {
	t, err := s.GetTicket(ctx, p, ticketID)
	if err != nil {
		return nil, err
	}
	detail := &TicketDetail{Ticket: t, AllowedTransitions: domain.AllowedTargets(t.Type, t.Status)}
	if t.Type != domain.TicketTypePerbaikan {
		return detail, nil
	}
	if detail.Diagnosis, err = s.diagnosisOf(ctx, t); err != nil {
		return nil, err
	}
	if detail.WorkOrders, err = s.deps.WorkOrders.ListByTicket(ctx, t.ID); err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *TicketService) filterFor(p *auth.Principal, input TicketListInput) (repository.TicketFilter, error) {
	scope, err := ScopeFor(p, input.Scope)
	if err != nil {
		return repository.TicketFilter{}, err
	}
	return repository.TicketFilter{
		Visibility: TicketVisibility(p),
		Scope:      scope,
		Type:       input.Type,
		Statuses:   input.Statuses,
		AssigneeID: input.AssigneeID,
		Severity:   input.Severity,
		Search:     strings.TrimSpace(input.Search),
		Limit:      input.Limit,
		Offset:     input.Offset,
	}, nil
}

// ListTickets returns the visible tickets matching input and the total before paging.
func (s *TicketService) ListTickets(ctx context.Context, p *auth.Principal, input TicketListInput) ([]domain.Ticket, int, error) {
	filter, err := s.filterFor(p, input)
	if err != nil {
		return nil, 0, err
	}
	return s.deps.Tickets.List(ctx, filter)
}

// Counts groups visible tickets by status for dashboards.
func (s *TicketService) Counts(ctx context.Context, p *auth.Principal, input TicketListInput) (TicketCounts, error) {
	input.Statuses = nil
	filter, err := s.filterFor(p, input)
	if err != nil {
		return TicketCounts{}, err
	}
	byStatus, err := s.deps.Tickets.CountByStatus(ctx, filter)
	if err != nil {
		return TicketCounts{}, err
	}
	counts := TicketCounts{ByStatus: byStatus}
	for status, n := range byStatus {
		counts.Total += n
		if status.Terminal() {
			counts.Finished += n
		} else {
			counts.Open += n
		}
	}
	return counts, nil
}

// Timeline returns the audit trail of a visible ticket, oldest first.
func (s *TicketService) Timeline(ctx context.Context, p *auth.Principal, ticketID string) ([]domain.TimelineEntry, error) {
	if _, err := s.GetTicket(ctx, p, ticketID); err != nil {
		return nil, err
	}
	return s.deps.Timeline.ListByTicket(ctx, ticketID)
}

// UpdateTicket edits descriptive fields while the ticket is still open.
func (s *TicketService) UpdateTicket(ctx context.Context, p *auth.Principal, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	var ticket *domain.Ticket
	err := s.inTx(ctx, func(ctx context.Context, out *outbox) error {
		t, err := s.loadTicket(ctx, ticketID, true)
		if err != nil {
			return err
		}
		if t.RequesterID != p.UserID && !p.HasAnyRole(domain.RoleSuperAdmin, domain.RoleAdminLayanan) {
			return apperrors.NewForbidden("only the requester or an admin can edit this ticket")
		}
		if t.Status.Terminal() {
			return apperrors.NewValidationError("finished tickets cannot be edited", nil)
		}
		var changed []string
		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return apperrors.NewFieldError("title", "title must not be empty")
			}
			t.Title = title
			changed = append(changed, "title")
		}
		if input.Description != nil {
			t.Description = strings.TrimSpace(*input.Description)
			changed = append(changed, "description")
		}
		if input.FormData != nil {
			if t.FormData == nil {
				t.FormData = map[string]any{}
			}
			for k, v := range input.FormData {
				if k == "completion_info" {
					continue
				}
				t.FormData[k] = v
			}
			changed = append(changed, "form_data")
		}
		if len(changed) == 0 {
			ticket = t
			return nil
		}
		if err := s.deps.Tickets.Update(ctx, t); err != nil {
			return err
		}
		if err := s.recordTimeline(ctx, domain.TimelineEntry{
			TicketID: t.ID,
			ActorID:  p.UserID,
			Action:   domain.ActionTicketUpdated,
			Details:  "Updated " + strings.Join(changed, ", "),
		}); err != nil {
			return err
		}
		ticket = t
		return nil
	})
	return ticket, err
}
