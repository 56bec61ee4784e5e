package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkOrderTransition(t *testing.T) {
	wo := &WorkOrder{Status: WorkOrderRequested}
	assert.ErrorIs(t, wo.CheckTransition(WorkOrderRequested, ""), ErrSameStatus)
	assert.ErrorIs(t, wo.CheckTransition(WorkOrderUnsuccessful, ""), ErrFailureReasonMissing)
	assert.NoError(t, wo.CheckTransition(WorkOrderUnsuccessful, "out of stock"))
	assert.NoError(t, wo.CheckTransition(WorkOrderCompleted, ""))

	now := time.Now()
	wo.Apply(WorkOrderCompleted, "installed", "", now)
	assert.Equal(t, WorkOrderCompleted, wo.Status)
	assert.Equal(t, "installed", wo.CompletionNotes)
	assert.NotNil(t, wo.CompletedAt)
	assert.False(t, wo.Mutable())

	// completed work orders may be reopened
	assert.NoError(t, wo.CheckTransition(WorkOrderInProcurement, ""))
	wo.Apply(WorkOrderInProcurement, "", "", now)
	assert.Nil(t, wo.CompletedAt)
}

func TestWorkOrdersReady(t *testing.T) {
	mk := func(statuses ...WorkOrderStatus) []WorkOrder {
		out := make([]WorkOrder, len(statuses))
		for i, s := range statuses {
			out[i].Status = s
		}
		return out
	}
	assert.False(t, WorkOrdersReady(nil))
	assert.False(t, WorkOrdersReady(mk(WorkOrderCompleted, WorkOrderRequested)))
	assert.True(t, WorkOrdersReady(mk(WorkOrderCompleted, WorkOrderUnsuccessful)))
	assert.Equal(t,
		WorkOrdersReady(mk(WorkOrderUnsuccessful, WorkOrderCompleted)),
		WorkOrdersReady(mk(WorkOrderCompleted, WorkOrderUnsuccessful)))
}

func TestSparepartRequestTransitions(t *testing.T) {
	assert.True(t, SparepartPending.CanTransition(SparepartApproved))
	assert.True(t, SparepartApproved.CanTransition(SparepartFulfilled))
	assert.False(t, SparepartPending.CanTransition(SparepartFulfilled))
	assert.False(t, SparepartFulfilled.CanTransition(SparepartRejected))
	assert.False(t, SparepartRejected.CanTransition(SparepartApproved))
}
