package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// UserRepository reads the user directory maintained by the identity service.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT id, name, email, COALESCE(roles::text, ''), created_at FROM users WHERE id=$1`

	var user domain.User
	var roles string
	if err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&roles,
		&user.CreatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	user.Roles = domain.ParseRoles(roles)
	return &user, nil
}

// ListByRole matches the role inside the stored list whichever way it was encoded.
func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	const query = `
        SELECT id, name, email, COALESCE(roles::text, ''), created_at
        FROM users WHERE roles::text LIKE '%' || $1 || '%' ORDER BY name`
	rows, err := conn(ctx, r.pool).Query(ctx, query, string(role))
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		var roles string
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &roles, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.Roles = domain.ParseRoles(roles)
		// LIKE is a prefilter; admin_layanan would also match a search for "admin".
		if user.Roles.Has(role) {
			result = append(result, user)
		}
	}
	return result, rows.Err()
}
