package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
)

type ticketRepo struct {
	s *Store
}

func (r *ticketRepo) NextNumber(_ context.Context, prefix string, day time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := prefix + "|" + domain.FormatDate(day)
	r.s.sequences[key]++
	return r.s.sequences[key], nil
}

func (r *ticketRepo) Create(_ context.Context, t *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.tickets {
		if existing.Number == t.Number {
			return errors.New("duplicate ticket number " + t.Number)
		}
	}
	if err := r.checkSlotLocked(t); err != nil {
		return err
	}
	now := time.Now()
	t.ID = uuid.NewString()
	t.CreatedAt, t.UpdatedAt = now, now
	r.s.tickets[t.ID] = cloneTicket(*t)
	return nil
}

func (r *ticketRepo) Update(_ context.Context, t *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.tickets[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if err := r.checkSlotLocked(t); err != nil {
		return err
	}
	updated := cloneTicket(*t)
	updated.Type, updated.Number, updated.CreatedAt = existing.Type, existing.Number, existing.CreatedAt
	updated.UpdatedAt = time.Now()
	t.UpdatedAt = updated.UpdatedAt
	r.s.tickets[t.ID] = updated
	return nil
}

// checkSlotLocked plays the role of the database exclusion constraint.
func (r *ticketRepo) checkSlotLocked(t *domain.Ticket) error {
	if !t.HoldsZoomSlot() {
		return nil
	}
	window := t.Zoom.Window()
	for id, other := range r.s.tickets {
		if id == t.ID || !other.HoldsZoomSlot() || *other.Zoom.AccountID != *t.Zoom.AccountID {
			continue
		}
		if other.Zoom.Window().Overlaps(window) {
			return errors.Join(repository.ErrRaceLost, repository.ErrBookingOverlap)
		}
	}
	return nil
}

func (r *ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := cloneTicket(t)
	return &c, nil
}

// GetForUpdate relies on the store's serialized transactions for the row lock.
func (r *ticketRepo) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *ticketRepo) matching(filter repository.TicketFilter) []domain.Ticket {
	var out []domain.Ticket
	for _, t := range r.s.tickets {
		hasWO := r.s.hasWorkOrdersLocked(t.ID)
		if !filter.Visibility.Matches(t.RequesterID, t.AssigneeID, hasWO) {
			continue
		}
		if !filter.Scope.Matches(t.RequesterID, t.AssigneeID, hasWO) {
			continue
		}
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, t.Status) {
			continue
		}
		if filter.AssigneeID != "" && !t.IsAssignedTo(filter.AssigneeID) {
			continue
		}
		if filter.Severity != "" && (t.Perbaikan == nil || t.Perbaikan.Severity != filter.Severity) {
			continue
		}
		if !matchesSearch(filter.Search, t.Number, t.Title, t.Description) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (r *ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched := r.matching(filter)
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	page := paginate(matched, filter.Limit, filter.Offset)
	out := make([]domain.Ticket, len(page))
	for i, t := range page {
		out[i] = cloneTicket(t)
	}
	return out, len(matched), nil
}

func (r *ticketRepo) CountByStatus(_ context.Context, filter repository.TicketFilter) (map[domain.TicketStatus]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := map[domain.TicketStatus]int{}
	for _, t := range r.matching(filter) {
		counts[t.Status]++
	}
	return counts, nil
}

func (r *ticketRepo) ListBookings(_ context.Context, q repository.BookingQuery) ([]domain.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	from := domain.DateOnly(q.From)
	to := from
	if !q.To.IsZero() {
		to = domain.DateOnly(q.To)
	}
	var out []domain.Booking
	for _, t := range r.s.tickets {
		if !t.HoldsZoomSlot() || t.ID == q.ExcludeTicketID {
			continue
		}
		if q.AccountID != "" && *t.Zoom.AccountID != q.AccountID {
			continue
		}
		day := domain.DateOnly(t.Zoom.Date)
		if day.Before(from) || day.After(to) {
			continue
		}
		out = append(out, domain.Booking{
			TicketID:     t.ID,
			TicketNumber: t.Number,
			Title:        t.Title,
			Description:  t.Description,
			RequesterID:  t.RequesterID,
			AccountID:    *t.Zoom.AccountID,
			Status:       t.Status,
			Window:       t.Zoom.Window(),
			MeetingLink:  t.Zoom.MeetingLink,
			Passcode:     t.Zoom.Passcode,
			CreatedAt:    t.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Window.Date.Equal(out[j].Window.Date) {
			return out[i].Window.Date.Before(out[j].Window.Date)
		}
		return out[i].Window.Start < out[j].Window.Start
	})
	return out, nil
}

func containsStatus(list []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func matchesSearch(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func paginate[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	if t.AssigneeID != nil {
		v := *t.AssigneeID
		t.AssigneeID = &v
	}
	if t.RejectionReason != nil {
		v := *t.RejectionReason
		t.RejectionReason = &v
	}
	if t.ClosedAt != nil {
		v := *t.ClosedAt
		t.ClosedAt = &v
	}
	if t.FormData != nil {
		t.FormData = copyMap(t.FormData)
	}
	if t.Perbaikan != nil {
		p := *t.Perbaikan
		p.Attachments = append([]domain.Attachment(nil), p.Attachments...)
		t.Perbaikan = &p
	}
	if t.Zoom != nil {
		z := *t.Zoom
		z.Attachments = append([]domain.Attachment(nil), z.Attachments...)
		z.CoHosts = append([]domain.CoHost(nil), z.CoHosts...)
		if z.AccountID != nil {
			v := *z.AccountID
			z.AccountID = &v
		}
		t.Zoom = &z
	}
	return t
}
