package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
)

func ids(tickets []domain.Ticket) []string {
	out := make([]string, len(tickets))
	for i, t := range tickets {
		out[i] = t.ID
	}
	return out
}

func TestTicketVisibilityByRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	own := f.repairTicket(t)
	assigned := f.assignedTicket(t)
	withOrder := f.assignedTicket(t)
	f.sparepartOrder(t, withOrder.ID)
	foreign, err := f.tickets.CreateTicket(ctx, f.employee2, TicketCreateInput{
		Type: domain.TicketTypePerbaikan, Title: "Scanner", AssetCode: "3100102001", AssetNUP: "12",
	})
	require.NoError(t, err)

	superAdmin := principal("root", domain.RoleSuperAdmin)
	techAndRequester := principal("emp2", domain.RolePegawai, domain.RoleTeknisi)

	cases := []struct {
		name string
		who  *auth.Principal
		want []string
	}{
		{"super admin", superAdmin, []string{own.ID, assigned.ID, withOrder.ID, foreign.ID}},
		{"service admin", f.admin, []string{own.ID, assigned.ID, withOrder.ID, foreign.ID}},
		{"procurement admin", f.penyedia, []string{withOrder.ID}},
		{"technician", f.tech, []string{assigned.ID, withOrder.ID}},
		{"other technician", f.tech2, []string{}},
		{"requester", f.employee, []string{own.ID, assigned.ID, withOrder.ID}},
		{"technician sees own requests too", techAndRequester, []string{foreign.ID}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, total, err := f.tickets.ListTickets(ctx, tc.who, TicketListInput{Limit: 100})
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.want, ids(items))
			assert.Equal(t, len(tc.want), total)

			for _, id := range []string{own.ID, assigned.ID, withOrder.ID, foreign.ID} {
				_, err := f.tickets.GetTicket(ctx, tc.who, id)
				if contains(tc.want, id) {
					assert.NoError(t, err)
				} else {
					requireCode(t, err, "FORBIDDEN")
				}
			}
		})
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func TestScopeOnlyNarrows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	own := f.repairTicket(t)
	assigned := f.assignedTicket(t)
	withOrder := f.assignedTicket(t)
	f.sparepartOrder(t, withOrder.ID)

	cases := []struct {
		who   *auth.Principal
		scope string
		want  []string
	}{
		{f.admin, ScopeWorkOrderNeeded, []string{withOrder.ID}},
		{f.admin, ScopeAssigned, []string{}},
		{f.admin, ScopeMy, []string{}},
		{f.tech, ScopeAssigned, []string{assigned.ID, withOrder.ID}},
		{f.employee, ScopeMy, []string{own.ID, assigned.ID, withOrder.ID}},
		{f.employee, ScopeWorkOrderNeeded, []string{withOrder.ID}},
		{f.penyedia, ScopeMy, []string{}},
	}
	for _, tc := range cases {
		items, _, err := f.tickets.ListTickets(ctx, tc.who, TicketListInput{Scope: tc.scope})
		require.NoError(t, err)
		assert.ElementsMatch(t, tc.want, ids(items), "%s/%s", tc.who.UserID, tc.scope)
	}

	_, _, err := f.tickets.ListTickets(ctx, f.admin, TicketListInput{Scope: "everything"})
	requireCode(t, err, "VALIDATION_FAILED")
}

func TestWorkOrderVisibility(t *testing.T) {
	assert.True(t, WorkOrderVisibility(principal("p", domain.RoleAdminPenyedia)).Unrestricted)
	assert.False(t, TicketVisibility(principal("p", domain.RoleAdminPenyedia)).Unrestricted)
	v := WorkOrderVisibility(principal("t", domain.RoleTeknisi))
	assert.Equal(t, "t", v.AssigneeID)
	assert.Equal(t, "t", v.RequesterID)
}
