package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// WorkOrderService manages procurement sub-tasks of repair tickets.
type WorkOrderService struct {
	core
}

// NewWorkOrderService constructs the service.
func NewWorkOrderService(deps Dependencies) *WorkOrderService {
	return &WorkOrderService{core: newCore(deps)}
}

// WorkOrderInput is the type-specific payload of a work order.
type WorkOrderInput struct {
	Type    domain.WorkOrderType
	Items   []domain.SparepartItem
	Vendor  *domain.VendorDetails
	License *domain.LicenseDetails
}

// WorkOrderStatusInput is a procurement status change.
type WorkOrderStatusInput struct {
	Status          domain.WorkOrderStatus
	CompletionNotes string
	FailureReason   string
}

// WorkOrderListInput describes list filters.
type WorkOrderListInput struct {
	TicketID string
	Status   domain.WorkOrderStatus
	Type     domain.WorkOrderType
	Search   string
	Limit    int
	Offset   int
}

// apply validates the payload for typ and copies it onto wo, clearing the other groups.
func (in WorkOrderInput) apply(typ domain.WorkOrderType, wo *domain.WorkOrder) error {
	wo.Items, wo.Vendor, wo.License = nil, nil, nil
	switch typ {
	case domain.WorkOrderSparepart:
		if len(in.Items) == 0 {
			return apperrors.NewFieldError("items", "at least one sparepart item is required")
		}
		items := make([]domain.SparepartItem, 0, len(in.Items))
		for i, item := range in.Items {
			field := fmt.Sprintf("items.%d", i)
			item.Name = strings.TrimSpace(item.Name)
			item.Unit = strings.TrimSpace(item.Unit)
			if item.Name == "" {
				return apperrors.NewFieldError(field+".name", "item name is required")
			}
			if item.Quantity < 1 {
				return apperrors.NewFieldError(field+".quantity", "quantity must be at least 1")
			}
			if item.Unit == "" {
				item.Unit = "pcs"
			}
			if item.EstimatedPrice != nil && item.EstimatedPrice.IsNegative() {
				return apperrors.NewFieldError(field+".estimated_price", "estimated price must not be negative")
			}
			items = append(items, item)
		}
		wo.Items = items
	case domain.WorkOrderVendor:
		if in.Vendor == nil || strings.TrimSpace(in.Vendor.Name) == "" {
			return apperrors.NewFieldError("vendor_name", "vendor name is required")
		}
		v := *in.Vendor
		v.Name = strings.TrimSpace(v.Name)
		wo.Vendor = &v
	case domain.WorkOrderLicense:
		if in.License == nil || strings.TrimSpace(in.License.Name) == "" {
			return apperrors.NewFieldError("license_name", "license name is required")
		}
		l := *in.License
		l.Name = strings.TrimSpace(l.Name)
		wo.License = &l
	default:
		return apperrors.NewFieldError("type", "type must be sparepart, vendor or license")
	}
	return nil
}

// Create opens a work order on a ticket under repair. The ticket is parked on hold until
// procurement finishes.
func (s *WorkOrderService) Create(ctx context.Context, p *auth.Principal, ticketID string, input WorkOrderInput) (*domain.WorkOrder, error) {
	if err := requireRoles(p, domain.RoleTeknisi); err != nil {
		return nil, err
	}
	var created *domain.WorkOrder
	err := s.inTx(ctx, func(ctx context.Context, out *outbox) error {
		t, err := s.loadTicket(ctx, ticketID, true)
		if err != nil {
			return err
		}
		if err := s.authorizeTicket(ctx, p, t); err != nil {
			return err
		}
		if t.Type != domain.TicketTypePerbaikan {
			return apperrors.NewValidationError("work orders belong to repair tickets", nil)
		}
		if !t.Status.AllowsWorkOrders() {
			return apperrors.NewValidationError(
				fmt.Sprintf("work orders cannot be created while the ticket is %s", t.Status), nil)
		}
		wo := &domain.WorkOrder{
			TicketID:  t.ID,
			Type:      input.Type,
			Status:    domain.WorkOrderRequested,
			CreatedBy: p.UserID,
		}
		if err := input.apply(input.Type, wo); err != nil {
			return err
		}
		if err := s.deps.WorkOrders.Create(ctx, wo); err != nil {
			return err
		}

		old := t.Status
		t.Status = domain.StatusOnHold
		t.WorkOrdersReady = false
		if err := s.deps.Tickets.Update(ctx, t); err != nil {
			return err
		}
		if old != t.Status {
			if err := s.recordStatusChange(ctx, p.UserID, t.ID, old, t.Status, "Waiting for "+string(wo.Type)+" procurement"); err != nil {
				return err
			}
		}
		if err := s.recordTimeline(ctx, domain.TimelineEntry{
			TicketID:    t.ID,
			WorkOrderID: strPtr(wo.ID),
			ActorID:     p.UserID,
			Action:      domain.ActionWorkOrderCreated,
			Details:     "Work order created: " + string(wo.Type),
		}); err != nil {
			return err
		}
		out.add(events.ForTicket(t, events.EventWorkOrderCreated, actorOf(p), events.WorkOrderCreatedPayload{
			WorkOrderID: wo.ID,
			Type:        wo.Type,
		}))
		created = wo
		return nil
	})
	return created, err
}

// lockOwner loads a work order with its ticket row locked, in that order for every writer,
// and re-reads the work order under the lock.
func (s *WorkOrderService) lockOwner(ctx context.Context, workOrderID string) (*domain.WorkOrder, *domain.Ticket, error) {
	wo, err := s.loadWorkOrder(ctx, workOrderID)
	if err != nil {
		return nil, nil, err
	}
	t, err := s.loadTicket(ctx, wo.TicketID, true)
	if err != nil {
		return nil, nil, err
	}
	wo, err = s.loadWorkOrder(ctx, workOrderID)
	if err != nil {
		return nil, nil, err
	}
	return wo, t, nil
}

// refreshReadiness recomputes the ticket's readiness from all of its work orders.
// Callers hold the ticket row lock.
func (s *WorkOrderService) refreshReadiness(ctx context.Context, actorID string, t *domain.Ticket) error {
	orders, err := s.deps.WorkOrders.ListByTicket(ctx, t.ID)
	if err != nil {
		return err
	}
	ready := domain.WorkOrdersReady(orders)
	if ready == t.WorkOrdersReady {
		return nil
	}
	t.WorkOrdersReady = ready
	if err := s.deps.Tickets.Update(ctx, t); err != nil {
		return err
	}
	if !ready {
		return nil
	}
	return s.recordTimeline(ctx, domain.TimelineEntry{
		TicketID: t.ID,
		ActorID:  actorID,
		Action:   domain.ActionWorkOrdersReady,
		Details:  fmt.Sprintf("All %d work orders finished", len(orders)),
	})
}

// UpdateStatus moves a work order through procurement and re-evaluates ticket readiness.
func (s *WorkOrderService) UpdateStatus(ctx context.Context, p *auth.Principal, workOrderID string, input WorkOrderStatusInput) (*domain.WorkOrder, error) {
	if err := requireRoles(p, domain.RoleAdminPenyedia, domain.RoleSuperAdmin); err != nil {
		return nil, err
	}
	if !input.Status.Valid() {
		return nil, apperrors.NewFieldError("status", "unknown work order status "+string(input.Status))
	}
	var updated *domain.WorkOrder
	err := s.inTx(ctx, func(ctx context.Context, out *outbox) error {
		wo, t, err := s.lockOwner(ctx, workOrderID)
		if err != nil {
			return err
		}
		reason := strings.TrimSpace(input.FailureReason)
		switch err := wo.CheckTransition(input.Status, reason); {
		case errors.Is(err, domain.ErrSameStatus):
			return apperrors.NewFieldError("status", err.Error())
		case errors.Is(err, domain.ErrFailureReasonMissing):
			return apperrors.NewFieldError("failure_reason", err.Error())
		case err != nil:
			return err
		}
		old := wo.Status
		wo.Apply(input.Status, strings.TrimSpace(input.CompletionNotes), reason, s.now())
		if err := s.deps.WorkOrders.Update(ctx, wo); err != nil {
			return err
		}
		oldS, newS := string(old), string(wo.Status)
		if err := s.recordTimeline(ctx, domain.TimelineEntry{
			TicketID:    t.ID,
			WorkOrderID: strPtr(wo.ID),
			ActorID:     p.UserID,
			Action:      domain.ActionWorkOrderStatusChanged,
			OldStatus:   &oldS,
			NewStatus:   &newS,
			Details:     joinDetails(input.CompletionNotes, prefixed("Failure: ", reason)),
		}); err != nil {
			return err
		}
		if err := s.refreshReadiness(ctx, p.UserID, t); err != nil {
			return err
		}
		updated = wo
		return nil
	})
	return updated, err
}

func canEditWorkOrder(p *auth.Principal, wo *domain.WorkOrder) bool {
	return wo.CreatedBy == p.UserID || p.HasAnyRole(domain.RoleSuperAdmin, domain.RoleAdminPenyedia)
}

// Update replaces the payload of a work order that has not entered procurement. Its type is fixed.
func (s *WorkOrderService) Update(ctx context.Context, p *auth.Principal, workOrderID string, input WorkOrderInput) (*domain.WorkOrder, error) {
	if p == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	var updated *domain.WorkOrder
	err := s.inTx(ctx, func(ctx context.Context, out *outbox) error {
		wo, t, err := s.lockOwner(ctx, workOrderID)
		if err != nil {
			return err
		}
		if !canEditWorkOrder(p, wo) {
			return apperrors.NewForbidden("only the creator or procurement admins can edit this work order")
		}
		if !wo.Mutable() {
			return apperrors.NewValidationError(domain.ErrWorkOrderLocked.Error(), nil)
		}
		if input.Type != "" && input.Type != wo.Type {
			return apperrors.NewFieldError("type", "work order type cannot change")
		}
		if err := input.apply(wo.Type, wo); err != nil {
			return err
		}
		if err := s.deps.WorkOrders.Update(ctx, wo); err != nil {
			return err
		}
		if err := s.recordTimeline(ctx, domain.TimelineEntry{
			TicketID:    t.ID,
			WorkOrderID: strPtr(wo.ID),
			ActorID:     p.UserID,
			Action:      domain.ActionWorkOrderUpdated,
			Details:     "Work order details updated",
		}); err != nil {
			return err
		}
		updated = wo
		return nil
	})
	return updated, err
}

// Delete removes a work order that has not entered procurement and re-evaluates readiness.
func (s *WorkOrderService) Delete(ctx context.Context, p *auth.Principal, workOrderID string) error {
	if p == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	return s.inTx(ctx, func(ctx context.Context, out *outbox) error {
		wo, t, err := s.lockOwner(ctx, workOrderID)
		if err != nil {
			return err
		}
		if !canEditWorkOrder(p, wo) {
			return apperrors.NewForbidden("only the creator or procurement admins can delete this work order")
		}
		if !wo.Mutable() {
			return apperrors.NewValidationError(domain.ErrWorkOrderLocked.Error(), nil)
		}
		if err := s.deps.WorkOrders.Delete(ctx, wo.ID); err != nil {
			return err
		}
		if err := s.recordTimeline(ctx, domain.TimelineEntry{
			TicketID: t.ID,
			ActorID:  p.UserID,
			Action:   domain.ActionWorkOrderDeleted,
			Details:  "Work order deleted: " + string(wo.Type),
			Metadata: map[string]any{"work_order_id": wo.ID},
		}); err != nil {
			return err
		}
		return s.refreshReadiness(ctx, p.UserID, t)
	})
}

// Get returns a work order the caller may see.
func (s *WorkOrderService) Get(ctx context.Context, p *auth.Principal, workOrderID string) (*domain.WorkOrder, error) {
	wo, err := s.loadWorkOrder(ctx, workOrderID)
	if err != nil {
		return nil, err
	}
	t, err := s.loadTicket(ctx, wo.TicketID, false)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeWorkOrderTicket(ctx, p, t); err != nil {
		return nil, err
	}
	return wo, nil
}

func (s *WorkOrderService) filterFor(p *auth.Principal, input WorkOrderListInput) repository.WorkOrderFilter {
	return repository.WorkOrderFilter{
		Visibility: WorkOrderVisibility(p),
		TicketID:   input.TicketID,
		Status:     input.Status,
		Type:       input.Type,
		Search:     strings.TrimSpace(input.Search),
		Limit:      input.Limit,
		Offset:     input.Offset,
	}
}

// List returns visible work orders and the total before paging.
func (s *WorkOrderService) List(ctx context.Context, p *auth.Principal, input WorkOrderListInput) ([]domain.WorkOrder, int, error) {
	return s.deps.WorkOrders.List(ctx, s.filterFor(p, input))
}

// Stats counts visible work orders by status and type.
func (s *WorkOrderService) Stats(ctx context.Context, p *auth.Principal, input WorkOrderListInput) (repository.WorkOrderStats, error) {
	input.Status = ""
	return s.deps.WorkOrders.Stats(ctx, s.filterFor(p, input))
}
