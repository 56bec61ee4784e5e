package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// DiagnosisService records technician assessments of repair tickets.
type DiagnosisService struct {
	core
}

// NewDiagnosisService constructs the service.
func NewDiagnosisService(deps Dependencies) *DiagnosisService {
	return &DiagnosisService{core: newCore(deps)}
}

// DiagnosisInput is the technician's assessment.
type DiagnosisInput struct {
	ProblemDescription  string
	ProblemCategory     domain.ProblemCategory
	RepairType          domain.RepairType
	RepairDescription   string
	UnrepairableReason  string
	AlternativeSolution string
	TechnicianNotes     string
	EstimatedDays       string
}

func (in DiagnosisInput) validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(in.ProblemDescription) == "" {
		fields["problem_description"] = "problem description is required"
	}
	if !in.ProblemCategory.Valid() {
		fields["problem_category"] = "problem category must be hardware, software or lainnya"
	}
	switch {
	case !in.RepairType.Valid():
		fields["repair_type"] = "unknown repair type"
	case in.RepairType == domain.RepairDirect && strings.TrimSpace(in.RepairDescription) == "":
		fields["repair_description"] = "repair description is required for a direct repair"
	case in.RepairType == domain.RepairUnrepairable && strings.TrimSpace(in.UnrepairableReason) == "":
		fields["unrepairable_reason"] = "a reason is required when the asset cannot be repaired"
	}
	if len(fields) > 0 {
		return apperrors.NewValidationError("diagnosis is incomplete", map[string]any{"fields": fields})
	}
	return nil
}

// Submit creates or overwrites the diagnosis of a ticket assigned to the acting technician.
// The first diagnosis of an assigned ticket starts the repair.
func (s *DiagnosisService) Submit(ctx context.Context, p *auth.Principal, ticketID string, input DiagnosisInput) (*domain.Diagnosis, error) {
	if err := requireRoles(p, domain.RoleTeknisi); err != nil {
		return nil, err
	}
	var diagnosis *domain.Diagnosis
	err := s.inTx(ctx, func(ctx context.Context, out *outbox) error {
		t, err := s.loadTicket(ctx, ticketID, true)
		if err != nil {
			return err
		}
		if !t.IsAssignedTo(p.UserID) {
			return apperrors.NewForbidden("only the assigned technician can diagnose this ticket")
		}
		if t.Type != domain.TicketTypePerbaikan {
			return apperrors.NewValidationError("only repair tickets are diagnosed", nil)
		}
		if t.Status.Terminal() {
			return apperrors.NewValidationError("finished tickets cannot be diagnosed", nil)
		}
		if err := input.validate(); err != nil {
			return err
		}

		d := &domain.Diagnosis{
			TicketID:            t.ID,
			TechnicianID:        p.UserID,
			ProblemDescription:  strings.TrimSpace(input.ProblemDescription),
			ProblemCategory:     input.ProblemCategory,
			RepairType:          input.RepairType,
			RepairDescription:   strings.TrimSpace(input.RepairDescription),
			UnrepairableReason:  strings.TrimSpace(input.UnrepairableReason),
			AlternativeSolution: strings.TrimSpace(input.AlternativeSolution),
			TechnicianNotes:     strings.TrimSpace(input.TechnicianNotes),
			EstimatedDays:       strings.TrimSpace(input.EstimatedDays),
		}
		created, err := s.deps.Diagnoses.Upsert(ctx, d)
		if err != nil {
			return err
		}

		if created && t.Status == domain.StatusAssigned {
			old := t.Status
			t.Status = domain.StatusInProgress
			if err := s.deps.Tickets.Update(ctx, t); err != nil {
				return err
			}
			if err := s.recordStatusChange(ctx, p.UserID, t.ID, old, t.Status, "Repair started after diagnosis"); err != nil {
				return err
			}
			out.add(events.ForTicket(t, events.EventTicketStatusChanged, actorOf(p), events.TicketStatusChangedPayload{
				OldStatus: old, NewStatus: t.Status, Details: "diagnosis submitted",
			}))
		}

		verb := "submitted"
		if !created {
			verb = "updated"
		}
		if err := s.recordTimeline(ctx, domain.TimelineEntry{
			TicketID: t.ID,
			ActorID:  p.UserID,
			Action:   domain.ActionDiagnosisSubmitted,
			Details:  "Diagnosis " + verb + ": " + string(d.RepairType),
			Metadata: map[string]any{
				"problem_category": d.ProblemCategory,
				"repair_type":      d.RepairType,
				"needs_work_order": d.NeedsWorkOrder(),
			},
		}); err != nil {
			return err
		}
		out.add(events.ForTicket(t, events.EventTicketDiagnosed, actorOf(p), events.DiagnosisPayload{
			RepairType:     d.RepairType,
			NeedsWorkOrder: d.NeedsWorkOrder(),
			Updated:        !created,
		}))
		diagnosis = d
		return nil
	})
	return diagnosis, err
}

// Get returns the diagnosis of a ticket the caller may see.
func (s *DiagnosisService) Get(ctx context.Context, p *auth.Principal, ticketID string) (*domain.Diagnosis, error) {
	t, err := s.loadTicket(ctx, ticketID, false)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeTicket(ctx, p, t); err != nil {
		return nil, err
	}
	d, err := s.deps.Diagnoses.GetByTicket(ctx, t.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("diagnosis", map[string]any{"ticket_id": t.ID})
	}
	return d, err
}

// Delete removes a diagnosis so the technician can start over.
func (s *DiagnosisService) Delete(ctx context.Context, p *auth.Principal, ticketID string) error {
	if err := requireRoles(p, domain.RoleTeknisi, domain.RoleAdminLayanan, domain.RoleSuperAdmin); err != nil {
		return err
	}
	return s.inTx(ctx, func(ctx context.Context, out *outbox) error {
		t, err := s.loadTicket(ctx, ticketID, true)
		if err != nil {
			return err
		}
		if !p.HasAnyRole(domain.RoleAdminLayanan, domain.RoleSuperAdmin) && !t.IsAssignedTo(p.UserID) {
			return apperrors.NewForbidden("only the assigned technician or an admin can delete this diagnosis")
		}
		if t.Status.Terminal() {
			return apperrors.NewValidationError("diagnosis of a finished ticket cannot be deleted", nil)
		}
		if err := s.deps.Diagnoses.Delete(ctx, t.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NewNotFound("diagnosis", map[string]any{"ticket_id": t.ID})
			}
			return err
		}
		return s.recordTimeline(ctx, domain.TimelineEntry{
			TicketID: t.ID,
			ActorID:  p.UserID,
			Action:   domain.ActionDiagnosisDeleted,
			Details:  "Diagnosis deleted",
		})
	})
}
