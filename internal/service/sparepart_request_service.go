package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// SparepartRequestService runs the approval workflow of item requests.
type SparepartRequestService struct {
	core
}

// NewSparepartRequestService constructs the service.
func NewSparepartRequestService(deps Dependencies) *SparepartRequestService {
	return &SparepartRequestService{core: newCore(deps)}
}

// SparepartRequestInput describes a requested item.
type SparepartRequestInput struct {
	ItemName       string
	Quantity       int
	Unit           string
	EstimatedPrice *decimal.Decimal
	Notes          string
}

// SparepartRequestListInput describes list filters.
type SparepartRequestListInput struct {
	WorkOrderID string
	Status      domain.SparepartRequestStatus
	Search      string
	Limit       int
	Offset      int
}

var procurementRoles = []domain.Role{domain.RoleAdminPenyedia, domain.RoleSuperAdmin}

func (s *SparepartRequestService) load(ctx context.Context, id string, lock bool) (*domain.SparepartRequest, error) {
	var (
		req *domain.SparepartRequest
		err error
	)
	if lock {
		req, err = s.deps.SparepartRequests.GetForUpdate(ctx, id)
	} else {
		req, err = s.deps.SparepartRequests.GetByID(ctx, id)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("sparepart request", map[string]any{"id": id})
	}
	return req, err
}

// Create files an item request against an open work order.
func (s *SparepartRequestService) Create(ctx context.Context, p *auth.Principal, workOrderID string, input SparepartRequestInput) (*domain.SparepartRequest, error) {
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	name := strings.TrimSpace(input.ItemName)
	switch {
	case name == "":
		return nil, apperrors.NewFieldError("item_name", "item name is required")
	case input.Quantity < 1:
		return nil, apperrors.NewFieldError("quantity", "quantity must be at least 1")
	case input.EstimatedPrice != nil && input.EstimatedPrice.IsNegative():
		return nil, apperrors.NewFieldError("estimated_price", "estimated price must not be negative")
	}
	unit := strings.TrimSpace(input.Unit)
	if unit == "" {
		unit = "pcs"
	}

	var created *domain.SparepartRequest
	err := s.inTx(ctx, func(ctx context.Context, out *outbox) error {
		wo, err := s.loadWorkOrder(ctx, workOrderID)
		if err != nil {
			return err
		}
		t, err := s.loadTicket(ctx, wo.TicketID, false)
		if err != nil {
			return err
		}
		if !p.HasAnyRole(procurementRoles...) && !(p.HasRole(domain.RoleTeknisi) && t.IsAssignedTo(p.UserID)) {
			return apperrors.NewForbidden("only procurement admins or the assigned technician can request spareparts")
		}
		if wo.Status.Terminal() {
			return apperrors.NewValidationError("the work order is already finished", nil)
		}
		req := &domain.SparepartRequest{
			WorkOrderID:    wo.ID,
			TicketID:       wo.TicketID,
			ItemName:       name,
			Quantity:       input.Quantity,
			Unit:           unit,
			EstimatedPrice: input.EstimatedPrice,
			Notes:          strings.TrimSpace(input.Notes),
			RequestedBy:    p.UserID,
			Status:         domain.SparepartPending,
		}
		if err := s.deps.SparepartRequests.Create(ctx, req); err != nil {
			return err
		}
		if err := s.recordTimeline(ctx, domain.TimelineEntry{
			TicketID:    wo.TicketID,
			WorkOrderID: strPtr(wo.ID),
			ActorID:     p.UserID,
			Action:      domain.ActionWorkOrderUpdated,
			Details:     "Sparepart requested: " + name,
			Metadata:    map[string]any{"sparepart_request_id": req.ID, "quantity": req.Quantity},
		}); err != nil {
			return err
		}
		created = req
		return nil
	})
	return created, err
}

// transition applies one approval step under the request's row lock.
func (s *SparepartRequestService) transition(ctx context.Context, p *auth.Principal, id string, target domain.SparepartRequestStatus, mutate func(*domain.SparepartRequest)) (*domain.SparepartRequest, error) {
	if err := requireRoles(p, procurementRoles...); err != nil {
		return nil, err
	}
	var updated *domain.SparepartRequest
	err := s.inTx(ctx, func(ctx context.Context, out *outbox) error {
		req, err := s.load(ctx, id, true)
		if err != nil {
			return err
		}
		if !req.Status.CanTransition(target) {
			return apperrors.NewInvalidTransition(string(req.Status), string(target))
		}
		old := req.Status
		req.Status = target
		if mutate != nil {
			mutate(req)
		}
		if err := s.deps.SparepartRequests.Update(ctx, req); err != nil {
			return err
		}
		oldS, newS := string(old), string(target)
		if err := s.recordTimeline(ctx, domain.TimelineEntry{
			TicketID:    req.TicketID,
			WorkOrderID: strPtr(req.WorkOrderID),
			ActorID:     p.UserID,
			Action:      domain.ActionWorkOrderUpdated,
			OldStatus:   &oldS,
			NewStatus:   &newS,
			Details:     joinDetails("Sparepart request "+newS+": "+req.ItemName, prefixed("Reason: ", req.RejectionReason)),
			Metadata:    map[string]any{"sparepart_request_id": req.ID},
		}); err != nil {
			return err
		}
		updated = req
		return nil
	})
	return updated, err
}

// Approve accepts a pending request and stamps the approver.
func (s *SparepartRequestService) Approve(ctx context.Context, p *auth.Principal, id string) (*domain.SparepartRequest, error) {
	return s.transition(ctx, p, id, domain.SparepartApproved, func(r *domain.SparepartRequest) {
		now := s.now()
		r.ApprovedBy = strPtr(p.UserID)
		r.ApprovedAt = &now
	})
}

// Reject declines a pending or approved request.
func (s *SparepartRequestService) Reject(ctx context.Context, p *auth.Principal, id, reason string) (*domain.SparepartRequest, error) {
	reason, err := checkReason(reason)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, p, id, domain.SparepartRejected, func(r *domain.SparepartRequest) {
		r.RejectionReason = reason
	})
}

// Fulfill marks an approved request as delivered.
func (s *SparepartRequestService) Fulfill(ctx context.Context, p *auth.Principal, id string) (*domain.SparepartRequest, error) {
	return s.transition(ctx, p, id, domain.SparepartFulfilled, nil)
}

// Get returns a request whose ticket the caller may see.
func (s *SparepartRequestService) Get(ctx context.Context, p *auth.Principal, id string) (*domain.SparepartRequest, error) {
	req, err := s.load(ctx, id, false)
	if err != nil {
		return nil, err
	}
	t, err := s.loadTicket(ctx, req.TicketID, false)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWorkOrderTicket(ctx, p, t); err != nil {
		return nil, err
	}
	return req, nil
}

func sparepartFilter(p *auth.Principal, input SparepartRequestListInput) repository.SparepartRequestFilter {
	return repository.SparepartRequestFilter{
		Visibility:  WorkOrderVisibility(p),
		WorkOrderID: input.WorkOrderID,
		Status:      input.Status,
		Search:      strings.TrimSpace(input.Search),
		Limit:       input.Limit,
		Offset:      input.Offset,
	}
}

// List returns visible requests and the total before paging.
func (s *SparepartRequestService) List(ctx context.Context, p *auth.Principal, input SparepartRequestListInput) ([]domain.SparepartRequest, int, error) {
	return s.deps.SparepartRequests.List(ctx, sparepartFilter(p, input))
}

// Stats counts visible requests by status.
func (s *SparepartRequestService) Stats(ctx context.Context, p *auth.Principal, input SparepartRequestListInput) (map[domain.SparepartRequestStatus]int, error) {
	input.Status = ""
	return s.deps.SparepartRequests.CountByStatus(ctx, sparepartFilter(p, input))
}
