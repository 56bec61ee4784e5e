package service

import (
	"context"
	"sort"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
)

// TechnicianLoad summarizes the open repair work held by one technician.
type TechnicianLoad struct {
	UserID   string                     `json:"user_id"`
	Name     string                     `json:"name"`
	Open     int                        `json:"open"`
	ByStatus map[domain.TicketStatus]int `json:"by_status"`
}

// AssignmentService helps admins pick an assignee for a repair ticket.
type AssignmentService struct {
	core
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps Dependencies) *AssignmentService {
	return &AssignmentService{core: newCore(deps)}
}

// Workload lists every technician with the count of non-terminal repair tickets they hold,
// least loaded first.
func (s *AssignmentService) Workload(ctx context.Context, p *auth.Principal) ([]TechnicianLoad, error) {
	if err := requireRoles(p, domain.RoleSuperAdmin, domain.RoleAdminLayanan); err != nil {
		return nil, err
	}
	technicians, err := s.deps.Users.ListByRole(ctx, domain.RoleTeknisi)
	if err != nil {
		return nil, err
	}

	loads := make([]TechnicianLoad, 0, len(technicians))
	for _, tech := range technicians {
		counts, err := s.deps.Tickets.CountByStatus(ctx, repository.TicketFilter{
			Visibility: repository.Visibility{Unrestricted: true},
			Type:       domain.TicketTypePerbaikan,
			AssigneeID: tech.ID,
		})
		if err != nil {
			return nil, err
		}
		load := TechnicianLoad{UserID: tech.ID, Name: tech.Name, ByStatus: map[domain.TicketStatus]int{}}
		for status, n := range counts {
			if status.Terminal() {
				continue
			}
			load.ByStatus[status] = n
			load.Open += n
		}
		loads = append(loads, load)
	}

	sort.SliceStable(loads, func(i, j int) bool {
		if loads[i].Open != loads[j].Open {
			return loads[i].Open < loads[j].Open
		}
		return loads[i].Name < loads[j].Name
	})
	return loads, nil
}

// Suggest returns the least loaded technician, or nil when none exist.
func (s *AssignmentService) Suggest(ctx context.Context, p *auth.Principal) (*TechnicianLoad, error) {
	loads, err := s.Workload(ctx, p)
	if err != nil || len(loads) == 0 {
		return nil, err
	}
	return &loads[0], nil
}
