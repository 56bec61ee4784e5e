package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// ZoomBookingService allocates conferencing accounts to booking windows.
type ZoomBookingService struct {
	core
}

// NewZoomBookingService constructs the allocator.
func NewZoomBookingService(deps Dependencies) *ZoomBookingService {
	return &ZoomBookingService{core: newCore(deps)}
}

// AssignmentResult is the outcome of ValidateAndAssign.
type AssignmentResult struct {
	Success   bool   `json:"success"`
	AccountID string `json:"account_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// BookingConflict summarizes a booking that overlaps a requested window.
type BookingConflict struct {
	TicketID     string              `json:"ticket_id"`
	TicketNumber string              `json:"ticket_number"`
	Title        string              `json:"title"`
	AccountID    string              `json:"account_id"`
	Date         string              `json:"date"`
	Start        domain.ClockTime    `json:"start_time"`
	End          domain.ClockTime    `json:"end_time"`
	Status       domain.TicketStatus `json:"status"`
	RequesterID  string              `json:"requester_id"`
}

// AccountAvailability reports one account's fit for a window.
type AccountAvailability struct {
	AccountID string            `json:"account_id"`
	Name      string            `json:"name"`
	Email     string            `json:"email"`
	Color     string            `json:"color"`
	Available bool              `json:"available"`
	Conflicts []BookingConflict `json:"conflicts"`
}

// CalendarBooking is a calendar entry. Private fields are blank unless the caller may see them.
type CalendarBooking struct {
	TicketID     string              `json:"ticket_id"`
	TicketNumber string              `json:"ticket_number"`
	AccountID    string              `json:"account_id"`
	AccountName  string              `json:"account_name"`
	Color        string              `json:"color"`
	Date         string              `json:"date"`
	Start        domain.ClockTime    `json:"start_time"`
	End          domain.ClockTime    `json:"end_time"`
	Status       domain.TicketStatus `json:"status"`
	Title        string              `json:"title"`
	Description  string              `json:"description,omitempty"`
	MeetingLink  string              `json:"meeting_link,omitempty"`
	Passcode     string              `json:"passcode,omitempty"`
	Masked       bool                `json:"masked"`
}

const maskedTitle = "Booked"

func conflictOf(b domain.Booking) BookingConflict {
	return BookingConflict{
		TicketID:     b.TicketID,
		TicketNumber: b.TicketNumber,
		Title:        b.Title,
		AccountID:    b.AccountID,
		Date:         domain.FormatDate(b.Window.Date),
		Start:        b.Window.Start,
		End:          b.Window.End,
		Status:       b.Status,
		RequesterID:  b.RequesterID,
	}
}

func (s *ZoomBookingService) bookingsOn(ctx context.Context, date time.Time, accountID, excludeTicketID string) ([]domain.Booking, error) {
	return s.deps.Tickets.ListBookings(ctx, repository.BookingQuery{
		From:            date,
		To:              date,
		AccountID:       accountID,
		ExcludeTicketID: excludeTicketID,
	})
}

func overlapping(bookings []domain.Booking, accountID string, w domain.BookingWindow) []BookingConflict {
	out := []BookingConflict{}
	for _, b := range bookings {
		if b.AccountID == accountID && b.Window.Overlaps(w) {
			out = append(out, conflictOf(b))
		}
	}
	return out
}

// ValidateAndAssign returns the first active account, in priority order, with no overlapping booking.
// The window is assumed valid (end after start); callers validate input first.
func (s *ZoomBookingService) ValidateAndAssign(ctx context.Context, w domain.BookingWindow) (AssignmentResult, error) {
	accounts, err := s.deps.ZoomAccounts.ListActive(ctx)
	if err != nil {
		return AssignmentResult{}, err
	}
	if len(accounts) == 0 {
		return AssignmentResult{Message: "no active zoom accounts are configured"}, nil
	}
	bookings, err := s.bookingsOn(ctx, w.Date, "", "")
	if err != nil {
		return AssignmentResult{}, err
	}
	for _, acc := range accounts {
		if len(overlapping(bookings, acc.ID, w)) == 0 {
			return AssignmentResult{Success: true, AccountID: acc.ID}, nil
		}
	}
	return AssignmentResult{
		Message: fmt.Sprintf("no zoom account is available on %s between %s and %s, choose another time",
			domain.FormatDate(w.Date), w.Start, w.End),
	}, nil
}

// HasConflict reports whether accountID already holds a booking overlapping w, ignoring excludeTicketID.
func (s *ZoomBookingService) HasConflict(ctx context.Context, accountID string, w domain.BookingWindow, excludeTicketID string) (bool, error) {
	conflicts, err := s.GetConflicts(ctx, accountID, w, excludeTicketID)
	return len(conflicts) > 0, err
}

// GetConflicts lists the bookings on accountID overlapping w, ignoring excludeTicketID.
func (s *ZoomBookingService) GetConflicts(ctx context.Context, accountID string, w domain.BookingWindow, excludeTicketID string) ([]BookingConflict, error) {
	bookings, err := s.bookingsOn(ctx, w.Date, accountID, excludeTicketID)
	if err != nil {
		return nil, err
	}
	return overlapping(bookings, accountID, w), nil
}

// Availability reports every active account with the bookings that block w.
func (s *ZoomBookingService) Availability(ctx context.Context, w domain.BookingWindow, excludeTicketID string) ([]AccountAvailability, error) {
	if w.End <= w.Start {
		return nil, apperrors.NewFieldError("end_time", "end time must be after start time")
	}
	accounts, err := s.deps.ZoomAccounts.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookingsOn(ctx, w.Date, "", excludeTicketID)
	if err != nil {
		return nil, err
	}
	out := make([]AccountAvailability, 0, len(accounts))
	for _, acc := range accounts {
		conflicts := overlapping(bookings, acc.ID, w)
		out = append(out, AccountAvailability{
			AccountID: acc.ID,
			Name:      acc.Name,
			Email:     acc.Email,
			Color:     acc.Color,
			Available: len(conflicts) == 0,
			Conflicts: conflicts,
		})
	}
	return out, nil
}

// maxCalendarDays bounds a calendar query.
const maxCalendarDays = 62

// Calendar lists bookings between from and to inclusive.
func (s *ZoomBookingService) Calendar(ctx context.Context, p *auth.Principal, from, to time.Time) ([]CalendarBooking, error) {
	if to.Before(from) {
		return nil, apperrors.NewFieldError("to", "end date must not be before start date")
	}
	if to.Sub(from) > maxCalendarDays*24*time.Hour {
		return nil, apperrors.NewFieldError("to", fmt.Sprintf("calendar range is limited to %d days", maxCalendarDays))
	}
	accounts, err := s.deps.ZoomAccounts.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.ZoomAccount, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	bookings, err := s.deps.Tickets.ListBookings(ctx, repository.BookingQuery{From: from, To: to})
	if err != nil {
		return nil, err
	}

	privileged := p.HasAnyRole(domain.RoleSuperAdmin, domain.RoleAdminLayanan)
	out := make([]CalendarBooking, 0, len(bookings))
	for _, b := range bookings {
		acc := byID[b.AccountID]
		entry := CalendarBooking{
			TicketID:     b.TicketID,
			TicketNumber: b.TicketNumber,
			AccountID:    b.AccountID,
			AccountName:  acc.Name,
			Color:        acc.Color,
			Date:         domain.FormatDate(b.Window.Date),
			Start:        b.Window.Start,
			End:          b.Window.End,
			Status:       b.Status,
		}
		if privileged || b.RequesterID == p.UserID {
			entry.Title = b.Title
			entry.Description = b.Description
			entry.MeetingLink = b.MeetingLink
			entry.Passcode = b.Passcode
		} else {
			entry.Title = maskedTitle
			entry.Masked = true
		}
		out = append(out, entry)
	}
	return out, nil
}

// ListAccounts returns active accounts in allocation order. Host keys are admin-only.
func (s *ZoomBookingService) ListAccounts(ctx context.Context, p *auth.Principal) ([]domain.ZoomAccount, error) {
	accounts, err := s.deps.ZoomAccounts.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	if !p.HasAnyRole(domain.RoleSuperAdmin, domain.RoleAdminLayanan) {
		for i := range accounts {
			accounts[i].HostKey = ""
		}
	}
	return accounts, nil
}

func (s *ZoomBookingService) account(ctx context.Context, id string) (*domain.ZoomAccount, error) {
	acc, err := s.deps.ZoomAccounts.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewFieldError("zoom_account_id", "zoom account does not exist")
	}
	if err != nil {
		return nil, err
	}
	if !acc.IsActive {
		return nil, apperrors.NewFieldError("zoom_account_id", "zoom account is not active")
	}
	return acc, nil
}

// lockDate serializes allocation for one calendar day. The storage constraint remains the safety net.
func (s *ZoomBookingService) lockDate(ctx context.Context, date time.Time) (func(), error) {
	return s.deps.Locker.Acquire(ctx, "zoom:alloc:"+domain.FormatDate(date))
}
