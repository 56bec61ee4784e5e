package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// ZoomAccountRepository reads conferencing accounts.
type ZoomAccountRepository interface {
	// ListActive returns active accounts in allocation priority order.
	ListActive(ctx context.Context) ([]domain.ZoomAccount, error)
	GetByID(ctx context.Context, id string) (*domain.ZoomAccount, error)
}

type zoomAccountRepository struct {
	pool *pgxpool.Pool
}

// NewZoomAccountRepository builds repository.
func NewZoomAccountRepository(pool *pgxpool.Pool) ZoomAccountRepository {
	return &zoomAccountRepository{pool: pool}
}

const zoomAccountColumns = `id, name, email, host_key, color, priority, is_active`

func (r *zoomAccountRepository) ListActive(ctx context.Context) ([]domain.ZoomAccount, error) {
	query := `SELECT ` + zoomAccountColumns + ` FROM zoom_accounts WHERE is_active ORDER BY priority ASC, name ASC, id ASC`
	rows, err := conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var result []domain.ZoomAccount
	for rows.Next() {
		var a domain.ZoomAccount
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.HostKey, &a.Color, &a.Priority, &a.IsActive); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *zoomAccountRepository) GetByID(ctx context.Context, id string) (*domain.ZoomAccount, error) {
	var a domain.ZoomAccount
	err := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+zoomAccountColumns+` FROM zoom_accounts WHERE id=$1`, id).
		Scan(&a.ID, &a.Name, &a.Email, &a.HostKey, &a.Color, &a.Priority, &a.IsActive)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &a, nil
}
