package service

import (
	"context"
	"strings"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// Dashboard scopes accepted by list endpoints.
const (
	ScopeMy              = "my"
	ScopeAssigned        = "assigned"
	ScopeWorkOrderNeeded = "work_order_needed"
)

// TicketVisibility computes which tickets p may read. Requesters always see their own tickets.
func TicketVisibility(p *auth.Principal) repository.Visibility {
	if p.HasAnyRole(domain.RoleSuperAdmin, domain.RoleAdminLayanan) {
		return repository.Visibility{Unrestricted: true}
	}
	v := repository.Visibility{RequesterID: p.UserID}
	if p.HasRole(domain.RoleAdminPenyedia) {
		v.WithWorkOrders = true
	}
	if p.HasRole(domain.RoleTeknisi) {
		v.AssigneeID = p.UserID
	}
	return v
}

// WorkOrderVisibility computes which work orders (through their ticket) p may read.
func WorkOrderVisibility(p *auth.Principal) repository.Visibility {
	if p.HasAnyRole(domain.RoleSuperAdmin, domain.RoleAdminLayanan, domain.RoleAdminPenyedia) {
		return repository.Visibility{Unrestricted: true}
	}
	v := repository.Visibility{RequesterID: p.UserID}
	if p.HasRole(domain.RoleTeknisi) {
		v.AssigneeID = p.UserID
	}
	return v
}

// ScopeFor parses a dashboard scope. It only ever narrows the role visibility.
func ScopeFor(p *auth.Principal, raw string) (repository.Scope, error) {
	switch strings.TrimSpace(raw) {
	case "":
		return repository.Scope{}, nil
	case ScopeMy:
		return repository.Scope{InvolvedUserID: p.UserID}, nil
	case ScopeAssigned:
		return repository.Scope{AssigneeID: p.UserID}, nil
	case ScopeWorkOrderNeeded:
		return repository.Scope{HasWorkOrders: true}, nil
	}
	return repository.Scope{}, apperrors.NewFieldError("scope", "scope must be one of my, assigned, work_order_needed")
}

func (c *core) hasWorkOrders(ctx context.Context, ticketID string) (bool, error) {
	n, err := c.deps.WorkOrders.CountByTicket(ctx, ticketID)
	return n > 0, err
}

func (c *core) visible(ctx context.Context, v repository.Visibility, t *domain.Ticket) (bool, error) {
	if v.Matches(t.RequesterID, t.AssigneeID, false) {
		return true, nil
	}
	if !v.WithWorkOrders {
		return false, nil
	}
	has, err := c.hasWorkOrders(ctx, t.ID)
	if err != nil {
		return false, err
	}
	return v.Matches(t.RequesterID, t.AssigneeID, has), nil
}

// authorizeTicket applies the list visibility to a single record and fails loudly.
func (c *core) authorizeTicket(ctx context.Context, p *auth.Principal, t *domain.Ticket) error {
	ok, err := c.visible(ctx, TicketVisibility(p), t)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewForbidden("you do not have access to this ticket")
	}
	return nil
}

func (c *core) authorizeWorkOrderTicket(ctx context.Context, p *auth.Principal, t *domain.Ticket) error {
	ok, err := c.visible(ctx, WorkOrderVisibility(p), t)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewForbidden("you do not have access to this work order")
	}
	return nil
}

func requireRoles(p *auth.Principal, roles ...domain.Role) error {
	if p == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !p.HasAnyRole(roles...) {
		return apperrors.NewForbidden("your role does not allow this action")
	}
	return nil
}
