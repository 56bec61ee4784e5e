package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// DiagnosisRepository stores the one-per-ticket diagnosis.
type DiagnosisRepository interface {
	GetByTicket(ctx context.Context, ticketID string) (*domain.Diagnosis, error)
	// Upsert overwrites any existing diagnosis for the ticket and reports whether it was new.
	Upsert(ctx context.Context, diagnosis *domain.Diagnosis) (bool, error)
	Delete(ctx context.Context, ticketID string) error
}

type diagnosisRepository struct {
	pool *pgxpool.Pool
}

// NewDiagnosisRepository builds repository.
func NewDiagnosisRepository(pool *pgxpool.Pool) DiagnosisRepository {
	return &diagnosisRepository{pool: pool}
}

func (r *diagnosisRepository) GetByTicket(ctx context.Context, ticketID string) (*domain.Diagnosis, error) {
	const query = `
        SELECT id, ticket_id, technician_id, problem_description, problem_category, repair_type,
               repair_description, unrepairable_reason, alternative_solution, technician_notes, estimated_days,
               created_at, updated_at
        FROM ticket_diagnoses WHERE ticket_id=$1`
	var d domain.Diagnosis
	err := conn(ctx, r.pool).QueryRow(ctx, query, ticketID).Scan(
		&d.ID, &d.TicketID, &d.TechnicianID, &d.ProblemDescription, &d.ProblemCategory, &d.RepairType,
		&d.RepairDescription, &d.UnrepairableReason, &d.AlternativeSolution, &d.TechnicianNotes, &d.EstimatedDays,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &d, nil
}

func (r *diagnosisRepository) Upsert(ctx context.Context, d *domain.Diagnosis) (bool, error) {
	const query = `
        INSERT INTO ticket_diagnoses (ticket_id, technician_id, problem_description, problem_category, repair_type,
            repair_description, unrepairable_reason, alternative_solution, technician_notes, estimated_days)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (ticket_id) DO UPDATE SET
            technician_id = EXCLUDED.technician_id,
            problem_description = EXCLUDED.problem_description,
            problem_category = EXCLUDED.problem_category,
            repair_type = EXCLUDED.repair_type,
            repair_description = EXCLUDED.repair_description,
            unrepairable_reason = EXCLUDED.unrepairable_reason,
            alternative_solution = EXCLUDED.alternative_solution,
            technician_notes = EXCLUDED.technician_notes,
            estimated_days = EXCLUDED.estimated_days,
            updated_at = NOW()
        RETURNING id, created_at, updated_at, (xmax = 0)`
	var created bool
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		d.TicketID, d.TechnicianID, d.ProblemDescription, d.ProblemCategory, d.RepairType,
		d.RepairDescription, d.UnrepairableReason, d.AlternativeSolution, d.TechnicianNotes, d.EstimatedDays,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt, &created)
	return created, mapPgError(err)
}

func (r *diagnosisRepository) Delete(ctx context.Context, ticketID string) error {
	cmd, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM ticket_diagnoses WHERE ticket_id=$1`, ticketID)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
