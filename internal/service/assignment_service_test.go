package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/servicedesk/internal/domain"
)

func TestWorkloadOrdersTechniciansByOpenTickets(t *testing.T) {
	f := newFixture(t)
	svc := NewAssignmentService(Dependencies{Tx: f.store, Tickets: f.repos.Tickets, Users: f.repos.Users})

	f.assignedTicket(t)
	f.assignedTicket(t)

	loads, err := svc.Workload(context.Background(), f.admin)
	require.NoError(t, err)
	require.Len(t, loads, 2)
	assert.Equal(t, "tech2", loads[0].UserID)
	assert.Equal(t, 0, loads[0].Open)
	assert.Equal(t, "tech", loads[1].UserID)
	assert.Equal(t, 2, loads[1].Open)
	assert.Equal(t, 2, loads[1].ByStatus[domain.StatusAssigned])

	best, err := svc.Suggest(context.Background(), f.admin)
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "tech2", best.UserID)
}

func TestWorkloadRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	svc := NewAssignmentService(Dependencies{Tx: f.store, Tickets: f.repos.Tickets, Users: f.repos.Users})

	_, err := svc.Workload(context.Background(), f.tech)
	requireCode(t, err, "FORBIDDEN")
}
