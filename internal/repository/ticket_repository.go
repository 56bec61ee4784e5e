package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// TicketFilter captures list parameters. Visibility is always applied.
type TicketFilter struct {
	Visibility Visibility
	Scope      Scope
	Type       domain.TicketType
	Statuses   []domain.TicketStatus
	AssigneeID string
	Severity   domain.Severity
	Search     string
	Limit      int
	Offset     int
}

// BookingQuery selects zoom bookings that hold a slot.
type BookingQuery struct {
	From            time.Time
	To              time.Time
	AccountID       string
	ExcludeTicketID string
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	NextNumber(ctx context.Context, prefix string, day time.Time) (int, error)
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetForUpdate locks the ticket row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	CountByStatus(ctx context.Context, filter TicketFilter) (map[domain.TicketStatus]int, error)
	ListBookings(ctx context.Context, query BookingQuery) ([]domain.Booking, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `t.id, t.ticket_number, t.type, t.title, t.description, t.requester_id, t.assignee_id,
        t.status, t.form_data, t.work_orders_ready, t.rejection_reason,
        t.asset_code, t.asset_nup, t.location, t.severity, t.attachments,
        t.zoom_date, to_char(t.zoom_start_time, 'HH24:MI'), to_char(t.zoom_end_time, 'HH24:MI'),
        t.zoom_duration, t.zoom_participants, t.zoom_co_hosts, t.zoom_breakout_rooms, t.zoom_account_id,
        t.zoom_meeting_link, t.zoom_meeting_id, t.zoom_passcode,
        t.closed_at, t.created_at, t.updated_at`

func (r *ticketRepository) NextNumber(ctx context.Context, prefix string, day time.Time) (int, error) {
	const query = `
        INSERT INTO ticket_number_sequences (prefix, day, last_value)
        VALUES ($1, $2, 1)
        ON CONFLICT (prefix, day) DO UPDATE SET last_value = ticket_number_sequences.last_value + 1
        RETURNING last_value`
	var next int
	err := conn(ctx, r.pool).QueryRow(ctx, query, prefix, domain.DateOnly(day)).Scan(&next)
	return next, mapPgError(err)
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, type, title, description, requester_id, assignee_id, status,
            form_data, work_orders_ready, rejection_reason,
            asset_code, asset_nup, location, severity, attachments,
            zoom_date, zoom_start_time, zoom_end_time, zoom_duration, zoom_participants, zoom_co_hosts,
            zoom_breakout_rooms, zoom_account_id, zoom_meeting_link, zoom_meeting_id, zoom_passcode)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26)
        RETURNING id, created_at, updated_at`
	args := append([]any{
		ticket.Number, ticket.Type, ticket.Title, ticket.Description, ticket.RequesterID,
		ticket.AssigneeID, ticket.Status, formDataOrEmpty(ticket.FormData), ticket.WorkOrdersReady,
		ticket.RejectionReason,
	}, typedColumns(ticket)...)
	err := conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return mapPgError(err)
}

// Update never touches type or ticket number.
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, assignee_id=$3, status=$4, form_data=$5,
            work_orders_ready=$6, rejection_reason=$7, closed_at=$8,
            asset_code=$9, asset_nup=$10, location=$11, severity=$12, attachments=$13,
            zoom_date=$14, zoom_start_time=$15, zoom_end_time=$16, zoom_duration=$17, zoom_participants=$18,
            zoom_co_hosts=$19, zoom_breakout_rooms=$20, zoom_account_id=$21, zoom_meeting_link=$22,
            zoom_meeting_id=$23, zoom_passcode=$24, updated_at=NOW()
        WHERE id=$25
        RETURNING updated_at`
	args := append([]any{
		ticket.Title, ticket.Description, ticket.AssigneeID, ticket.Status, formDataOrEmpty(ticket.FormData),
		ticket.WorkOrdersReady, ticket.RejectionReason, ticket.ClosedAt,
	}, typedColumns(ticket)...)
	args = append(args, ticket.ID)
	err := conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&ticket.UpdatedAt)
	return mapPgError(err)
}

// typedColumns flattens the type-specific group; the other group is written as NULLs.
func typedColumns(t *domain.Ticket) []any {
	cols := make([]any, 16)
	if p := t.Perbaikan; p != nil {
		cols[0], cols[1], cols[2], cols[3] = p.AssetCode, p.AssetNUP, p.Location, p.Severity
		cols[4] = attachmentsOrEmpty(p.Attachments)
	}
	if z := t.Zoom; z != nil {
		cols[4] = attachmentsOrEmpty(z.Attachments)
		cols[5] = domain.DateOnly(z.Date)
		cols[6], cols[7] = z.Start.String(), z.End.String()
		cols[8], cols[9] = z.DurationMinutes, z.EstimatedParticipants
		coHosts := z.CoHosts
		if coHosts == nil {
			coHosts = []domain.CoHost{}
		}
		cols[10], cols[11], cols[12] = coHosts, z.BreakoutRooms, z.AccountID
		cols[13], cols[14], cols[15] = z.MeetingLink, z.MeetingID, z.Passcode
	}
	return cols
}

func formDataOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func attachmentsOrEmpty(a []domain.Attachment) []domain.Attachment {
	if a == nil {
		return []domain.Attachment{}
	}
	return a
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets t WHERE t.id=$1`
	return scanTicket(conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets t WHERE t.id=$1 FOR UPDATE`
	return scanTicket(conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func ticketWhere(filter TicketFilter) *sqlBuilder {
	b := &sqlBuilder{}
	b.visibility("t", filter.Visibility)
	b.scope("t", filter.Scope)
	if filter.Type != "" {
		b.where("t.type = " + b.arg(filter.Type))
	}
	statuses := make([]string, len(filter.Statuses))
	for i, s := range filter.Statuses {
		statuses[i] = string(s)
	}
	b.in("t.status", statuses)
	if filter.AssigneeID != "" {
		b.where("t.assignee_id = " + b.arg(filter.AssigneeID))
	}
	if filter.Severity != "" {
		b.where("t.severity = " + b.arg(filter.Severity))
	}
	b.search([]string{"t.ticket_number", "t.title", "t.description"}, filter.Search)
	return b
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	b := ticketWhere(filter)
	where := b.sql()

	var total int
	countArgs := append([]any{}, b.args...)
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM tickets t`+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapPgError(err)
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets t` + where +
		` ORDER BY t.created_at DESC` + pageSQL(b, filter.Limit, filter.Offset)
	rows, err := conn(ctx, r.pool).Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, mapPgError(err)
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *ticket)
	}
	return result, total, rows.Err()
}

func (r *ticketRepository) CountByStatus(ctx context.Context, filter TicketFilter) (map[domain.TicketStatus]int, error) {
	b := ticketWhere(filter)
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT t.status, COUNT(*) FROM tickets t`+b.sql()+` GROUP BY t.status`, b.args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	counts := map[domain.TicketStatus]int{}
	for rows.Next() {
		var status domain.TicketStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *ticketRepository) ListBookings(ctx context.Context, q BookingQuery) ([]domain.Booking, error) {
	b := &sqlBuilder{}
	b.where("t.type = 'zoom_meeting'")
	b.where("t.status IN ('pending_review','approved')")
	b.where("t.zoom_account_id IS NOT NULL")
	b.where("t.zoom_date >= " + b.arg(domain.DateOnly(q.From)))
	to := q.To
	if to.IsZero() {
		to = q.From
	}
	b.where("t.zoom_date <= " + b.arg(domain.DateOnly(to)))
	if q.AccountID != "" {
		b.where("t.zoom_account_id = " + b.arg(q.AccountID))
	}
	if q.ExcludeTicketID != "" {
		b.where("t.id <> " + b.arg(q.ExcludeTicketID))
	}
	query := `SELECT t.id, t.ticket_number, t.title, t.description, t.requester_id, t.zoom_account_id, t.status,
            t.zoom_date, to_char(t.zoom_start_time, 'HH24:MI'), to_char(t.zoom_end_time, 'HH24:MI'),
            COALESCE(t.zoom_meeting_link, ''), COALESCE(t.zoom_passcode, ''), t.created_at
        FROM tickets t` + b.sql() + ` ORDER BY t.zoom_date, t.zoom_start_time`
	rows, err := conn(ctx, r.pool).Query(ctx, query, b.args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var result []domain.Booking
	for rows.Next() {
		var bk domain.Booking
		var start, end string
		if err := rows.Scan(&bk.TicketID, &bk.TicketNumber, &bk.Title, &bk.Description, &bk.RequesterID,
			&bk.AccountID, &bk.Status, &bk.Window.Date, &start, &end, &bk.MeetingLink, &bk.Passcode, &bk.CreatedAt); err != nil {
			return nil, err
		}
		if bk.Window.Start, err = domain.ParseClock(start); err != nil {
			return nil, err
		}
		if bk.Window.End, err = domain.ParseClock(end); err != nil {
			return nil, err
		}
		result = append(result, bk)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		t                                domain.Ticket
		assetCode, assetNUP, location    *string
		severity                         *string
		attachments                      []domain.Attachment
		zoomDate                         *time.Time
		zoomStart, zoomEnd               *string
		duration, participants, breakout *int
		coHosts                          []domain.CoHost
		accountID                        *string
		meetingLink, meetingID, passcode *string
	)
	if err := row.Scan(
		&t.ID, &t.Number, &t.Type, &t.Title, &t.Description, &t.RequesterID, &t.AssigneeID,
		&t.Status, &t.FormData, &t.WorkOrdersReady, &t.RejectionReason,
		&assetCode, &assetNUP, &location, &severity, &attachments,
		&zoomDate, &zoomStart, &zoomEnd, &duration, &participants, &coHosts, &breakout, &accountID,
		&meetingLink, &meetingID, &passcode,
		&t.ClosedAt, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}

	switch t.Type {
	case domain.TicketTypePerbaikan:
		t.Perbaikan = &domain.PerbaikanDetails{
			AssetCode:   deref(assetCode),
			AssetNUP:    deref(assetNUP),
			Location:    deref(location),
			Severity:    domain.Severity(deref(severity)),
			Attachments: attachments,
		}
	case domain.TicketTypeZoomMeeting:
		z := &domain.ZoomDetails{
			DurationMinutes:       derefInt(duration),
			EstimatedParticipants: derefInt(participants),
			BreakoutRooms:         derefInt(breakout),
			CoHosts:               coHosts,
			AccountID:             accountID,
			MeetingLink:           deref(meetingLink),
			MeetingID:             deref(meetingID),
			Passcode:              deref(passcode),
			Attachments:           attachments,
		}
		if zoomDate != nil {
			z.Date = domain.DateOnly(*zoomDate)
		}
		var err error
		if zoomStart != nil {
			if z.Start, err = domain.ParseClock(*zoomStart); err != nil {
				return nil, fmt.Errorf("ticket %s: %w", t.ID, err)
			}
		}
		if zoomEnd != nil {
			if z.End, err = domain.ParseClock(*zoomEnd); err != nil {
				return nil, fmt.Errorf("ticket %s: %w", t.ID, err)
			}
		}
		t.Zoom = z
	}
	return &t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
