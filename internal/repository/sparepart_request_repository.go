package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// SparepartRequestFilter captures list parameters. Visibility applies to the owning ticket.
type SparepartRequestFilter struct {
	Visibility  Visibility
	WorkOrderID string
	Status      domain.SparepartRequestStatus
	Search      string
	Limit       int
	Offset      int
}

// SparepartRequestRepository encapsulates sparepart request persistence.
type SparepartRequestRepository interface {
	Create(ctx context.Context, req *domain.SparepartRequest) error
	Update(ctx context.Context, req *domain.SparepartRequest) error
	GetByID(ctx context.Context, id string) (*domain.SparepartRequest, error)
	// GetForUpdate locks the request row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.SparepartRequest, error)
	List(ctx context.Context, filter SparepartRequestFilter) ([]domain.SparepartRequest, int, error)
	CountByStatus(ctx context.Context, filter SparepartRequestFilter) (map[domain.SparepartRequestStatus]int, error)
}

type sparepartRequestRepository struct {
	pool *pgxpool.Pool
}

// NewSparepartRequestRepository builds repository.
func NewSparepartRequestRepository(pool *pgxpool.Pool) SparepartRequestRepository {
	return &sparepartRequestRepository{pool: pool}
}

const sparepartColumns = `s.id, s.work_order_id, w.ticket_id, s.item_name, s.quantity, s.unit, s.estimated_price,
        s.notes, s.requested_by, s.approved_by, s.approved_at, s.rejection_reason, s.status, s.created_at, s.updated_at`

const sparepartFrom = ` FROM sparepart_requests s JOIN work_orders w ON w.id = s.work_order_id JOIN tickets t ON t.id = w.ticket_id`

func (r *sparepartRequestRepository) Create(ctx context.Context, req *domain.SparepartRequest) error {
	const query = `
        INSERT INTO sparepart_requests (work_order_id, item_name, quantity, unit, estimated_price, notes,
            requested_by, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		req.WorkOrderID, req.ItemName, req.Quantity, req.Unit, req.EstimatedPrice, req.Notes,
		req.RequestedBy, req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	return mapPgError(err)
}

func (r *sparepartRequestRepository) Update(ctx context.Context, req *domain.SparepartRequest) error {
	const query = `
        UPDATE sparepart_requests SET status=$1, approved_by=$2, approved_at=$3, rejection_reason=$4,
            notes=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		req.Status, req.ApprovedBy, req.ApprovedAt, req.RejectionReason, req.Notes, req.ID,
	).Scan(&req.UpdatedAt)
	return mapPgError(err)
}

func (r *sparepartRequestRepository) GetByID(ctx context.Context, id string) (*domain.SparepartRequest, error) {
	return scanSparepartRequest(conn(ctx, r.pool).QueryRow(ctx, `SELECT `+sparepartColumns+sparepartFrom+` WHERE s.id=$1`, id))
}

func (r *sparepartRequestRepository) GetForUpdate(ctx context.Context, id string) (*domain.SparepartRequest, error) {
	query := `SELECT ` + sparepartColumns + sparepartFrom + ` WHERE s.id=$1 FOR UPDATE OF s`
	return scanSparepartRequest(conn(ctx, r.pool).QueryRow(ctx, query, id))
}

func sparepartWhere(filter SparepartRequestFilter) *sqlBuilder {
	b := &sqlBuilder{}
	b.visibility("t", filter.Visibility)
	if filter.WorkOrderID != "" {
		b.where("s.work_order_id = " + b.arg(filter.WorkOrderID))
	}
	if filter.Status != "" {
		b.where("s.status = " + b.arg(filter.Status))
	}
	b.search([]string{"s.item_name", "t.ticket_number"}, filter.Search)
	return b
}

func (r *sparepartRequestRepository) List(ctx context.Context, filter SparepartRequestFilter) ([]domain.SparepartRequest, int, error) {
	b := sparepartWhere(filter)
	where := b.sql()

	var total int
	countArgs := append([]any{}, b.args...)
	if err := conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*)`+sparepartFrom+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, mapPgError(err)
	}

	query := `SELECT ` + sparepartColumns + sparepartFrom + where + ` ORDER BY s.created_at DESC` + pageSQL(b, filter.Limit, filter.Offset)
	rows, err := conn(ctx, r.pool).Query(ctx, query, b.args...)
	if err != nil {
		return nil, 0, mapPgError(err)
	}
	defer rows.Close()

	var result []domain.SparepartRequest
	for rows.Next() {
		req, err := scanSparepartRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *req)
	}
	return result, total, rows.Err()
}

func (r *sparepartRequestRepository) CountByStatus(ctx context.Context, filter SparepartRequestFilter) (map[domain.SparepartRequestStatus]int, error) {
	b := sparepartWhere(filter)
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT s.status, COUNT(*)`+sparepartFrom+b.sql()+` GROUP BY s.status`, b.args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	counts := map[domain.SparepartRequestStatus]int{}
	for rows.Next() {
		var status domain.SparepartRequestStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func scanSparepartRequest(row pgx.Row) (*domain.SparepartRequest, error) {
	var req domain.SparepartRequest
	var price decimal.NullDecimal
	if err := row.Scan(
		&req.ID, &req.WorkOrderID, &req.TicketID, &req.ItemName, &req.Quantity, &req.Unit, &price,
		&req.Notes, &req.RequestedBy, &req.ApprovedBy, &req.ApprovedAt, &req.RejectionReason, &req.Status,
		&req.CreatedAt, &req.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	if price.Valid {
		req.EstimatedPrice = &price.Decimal
	}
	return &req, nil
}
