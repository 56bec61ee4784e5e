package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// WorkOrderFilter captures list parameters. Visibility applies to the owning ticket.
type WorkOrderFilter struct {
	Visibility Visibility
	TicketID   string
	Status     domain.WorkOrderStatus
	Type       domain.WorkOrderType
	Search     string
	Limit      int
	Offset     int
}

// WorkOrderStats counts work orders by status and type.
type WorkOrderStats struct {
	Total    int                            `json:"total"`
	ByStatus map[domain.WorkOrderStatus]int `json:"by_status"`
	ByType   map[domain.WorkOrderType]int   `json:"by_type"`
}

// WorkOrderRepository encapsulates work order persistence.
type WorkOrderRepository interface {
	Create(ctx context.Context, wo *domain.WorkOrder) error
	Update(ctx context.Context, wo *domain.WorkOrder) error
	GetByID(ctx context.Context, id string) (*domain.WorkOrder, error)
	Delete(ctx context.Context, id string) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.WorkOrder, error)
	CountByTicket(ctx context.Context, ticketID string) (int, error)
	List(ctx context.Context, filter WorkOrderFilter) ([]domain.WorkOrder, int, error)
	Stats(ctx context.Context, filter WorkOrderFilter) (WorkOrderStats, error)
}

type workOrderRepository struct {
	pool *pgxpool.Pool
}

// NewWorkOrderRepository builds repository.
func NewWorkOrderRepository(pool *pgxpool.Pool) WorkOrderRepository {
	return &workOrderRepository{pool: pool}
}

const workOrderColumns = `w.id, w.ticket_id, w.type, w.status, w.items, w.vendor, w.license, w.created_by,
        w.completion_notes, w.failure_reason, w.completed_at, w.created_at, w.updated_at`

func (r *workOrderRepository) Create(ctx context.Context, wo *domain.WorkOrder) error {
	const query = `
        INSERT INTO work_orders (ticket_id, type, status, items, vendor, license, created_by,
            completion_notes, failure_reason, completed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		wo.TicketID, wo.Type, wo.Status, itemsOrEmpty(wo.Items), wo.Vendor, wo.License, wo.CreatedBy,
		wo.CompletionNotes, wo.FailureReason, wo.CompletedAt,
	).Scan(&wo.ID, &wo.CreatedAt, &wo.UpdatedAt)
	return mapPgError(err)
}

func (r *workOrderRepository) Update(ctx context.Context, wo *domain.WorkOrder) error {
	const query = `
        UPDATE work_orders SET status=$1, items=$2, vendor=$3, license=$4, completion_notes=$5,
            failure_reason=$6, completed_at=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		wo.Status, itemsOrEmpty(wo.Items), wo.Vendor, wo.License, wo.CompletionNotes,
		wo.FailureReason, wo.CompletedAt, wo.ID,
	).Scan(&wo.UpdatedAt)
	return mapPgError(err)
}

func itemsOrEmpty(items []domain.SparepartItem) []domain.SparepartItem {
	if items == nil {
		return []domain.SparepartItem{}
	}
	return items
}

func (r *workOrderRepository) GetByID(ctx context.Context, id string) (*domain.WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders w WHERE w.id=$1`
	return scanWorkOrder(conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func (r *workOrderRepository) Delete(ctx context.Context, id string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM work_orders WHERE id=$1`, id)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *workOrderRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.WorkOrder, error) {
	query := `SELECT ` + workOrderColumns + ` FROM work_orders w WHERE w.ticket_id=$1 ORDER BY w.created_at ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query, ticketID)
	if err != nil {
		return nil, mapPgError(err)
	}
	return collectWorkOrders(rows)
}

func (r *workOrderRepository) CountByTicket(ctx context.Context, ticketID string) (int, error) {
	var n int
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM work_orders WHERE ticket_id=$1`, ticketID).Scan(&n)
	return n, mapPgError(err)
}

func workOrderWhere(filter WorkOrderFilter) *sqlBuilder {
	b := &sqlBuilder{}
	b.visibility("t", filter.Visibility)
	if filter.TicketID != "" {
		b.where("w.ticket_id = " + b.arg(filter.TicketID))
	}
	if filter.Status != "" {
		b.where("w.status = " + b.arg(filter.Status))
	}
	if filter.Type != "" {
		b.where("w.type = " + b.arg(filter.Type))
	}
	b.search([]string{"t.ticket_number", "t.title", "w.items::text", "COALESCE(w.vendor::text, '')", "COALESCE(w.license::text, '')"}, filter.Search)
	return b
}

func (r *workOrderRepository) List(ctx context.Context, filter WorkOrderFilter) ([]domain.WorkOrder, int, error) {
	b := workOrderWhere(filter)
	where := b.sql()
	from := ` FROM work_orders w JOIN tickets t ON t.id = w.ticket_id`

	var total int
	countArgs := append([]any{}, b.args...)
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*)`+from+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapPgError(err)
	}

	query := `SELECT ` + workOrderColumns + from + where + ` ORDER BY w.created_at DESC` + pageSQL(b, filter.Limit, filter.Offset)
	rows, err := conn(ctx, r.pool).Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, mapPgError(err)
	}
	orders, err := collectWorkOrders(rows)
	return orders, total, err
}

func (r *workOrderRepository) Stats(ctx context.Context, filter WorkOrderFilter) (WorkOrderStats, error) {
	b := workOrderWhere(filter)
	query := `SELECT w.status, w.type, COUNT(*) FROM work_orders w JOIN tickets t ON t.id = w.ticket_id` +
		b.sql() + ` GROUP BY w.status, w.type`
	stats := WorkOrderStats{ByStatus: map[domain.WorkOrderStatus]int{}, ByType: map[domain.WorkOrderType]int{}}
	rows, err := conn(ctx, r.pool).Query(ctx, query, b.args...)
	if err != nil {
		return stats, mapPgError(err)
	}
	defer rows.Close()
	for rows.Next() {
		var status domain.WorkOrderStatus
		var typ domain.WorkOrderType
		var n int
		if err := rows.Scan(&status, &typ, &n); err != nil {
			return stats, err
		}
		stats.Total += n
		stats.ByStatus[status] += n
		stats.ByType[typ] += n
	}
	return stats, rows.Err()
}

func collectWorkOrders(rows pgx.Rows) ([]domain.WorkOrder, error) {
	defer rows.Close()
	var result []domain.WorkOrder
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *wo)
	}
	return result, rows.Err()
}

func scanWorkOrder(row pgx.Row) (*domain.WorkOrder, error) {
	var wo domain.WorkOrder
	if err := row.Scan(
		&wo.ID, &wo.TicketID, &wo.Type, &wo.Status, &wo.Items, &wo.Vendor, &wo.License, &wo.CreatedBy,
		&wo.CompletionNotes, &wo.FailureReason, &wo.CompletedAt, &wo.CreatedAt, &wo.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &wo, nil
}
