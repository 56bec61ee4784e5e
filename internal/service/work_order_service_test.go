package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
)

func complete(t *testing.T, f *fixture, id string) {
	t.Helper()
	_, err := f.workOrders.UpdateStatus(context.Background(), f.penyedia, id, WorkOrderStatusInput{Status: domain.WorkOrderCompleted})
	require.NoError(t, err)
}

func TestWorkOrderCreationParksTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.assignedTicket(t)
	f.diagnose(t, ticket.ID, domain.RepairNeedSparepart)
	require.Equal(t, domain.StatusInProgress, f.reload(t, ticket.ID).Status)

	wo := f.sparepartOrder(t, ticket.ID)
	assert.Equal(t, domain.WorkOrderRequested, wo.Status)

	parked := f.reload(t, ticket.ID)
	assert.Equal(t, domain.StatusOnHold, parked.Status)
	assert.False(t, parked.WorkOrdersReady)
	assert.Contains(t, f.recorder.Types(), events.EventWorkOrderCreated)

	complete(t, f, wo.ID)
	done := f.reload(t, ticket.ID)
	assert.True(t, done.WorkOrdersReady)
	assert.Equal(t, domain.StatusOnHold, done.Status, "readiness does not move the ticket")

	stored, err := f.workOrders.Get(ctx, f.tech, wo.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.CompletedAt)
}

func TestWorkOrderCreationPreconditions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	submitted := f.repairTicket(t)
	_, err := f.workOrders.Create(ctx, f.tech, submitted.ID, WorkOrderInput{Type: domain.WorkOrderLicense, License: &domain.LicenseDetails{Name: "Office"}})
	requireCode(t, err, "FORBIDDEN")

	ticket := f.assignedTicket(t)
	_, err = f.workOrders.Create(ctx, f.penyedia, ticket.ID, WorkOrderInput{Type: domain.WorkOrderLicense, License: &domain.LicenseDetails{Name: "Office"}})
	requireCode(t, err, "FORBIDDEN")

	negative := decimal.NewFromInt(-5)
	invalid := []WorkOrderInput{
		{Type: domain.WorkOrderSparepart},
		{Type: domain.WorkOrderSparepart, Items: []domain.SparepartItem{{Name: "RAM", Quantity: 0}}},
		{Type: domain.WorkOrderSparepart, Items: []domain.SparepartItem{{Name: "RAM", Quantity: 1, EstimatedPrice: &negative}}},
		{Type: domain.WorkOrderVendor},
		{Type: domain.WorkOrderLicense, License: &domain.LicenseDetails{}},
		{Type: "courier"},
	}
	for i, in := range invalid {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, err := f.workOrders.Create(ctx, f.tech, ticket.ID, in)
			requireCode(t, err, "VALIDATION_FAILED")
		})
	}
	assert.Equal(t, domain.StatusAssigned, f.reload(t, ticket.ID).Status)

	price := decimal.RequireFromString("1250000.50")
	wo, err := f.workOrders.Create(ctx, f.tech, ticket.ID, WorkOrderInput{
		Type:  domain.WorkOrderSparepart,
		Items: []domain.SparepartItem{{Name: "RAM 8GB", Quantity: 2, EstimatedPrice: &price}},
	})
	require.NoError(t, err)
	assert.Equal(t, "pcs", wo.Items[0].Unit)
	assert.True(t, price.Equal(*wo.Items[0].EstimatedPrice))
}

func TestReadinessNeedsEveryWorkOrderFinished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.assignedTicket(t)
	f.diagnose(t, ticket.ID, domain.RepairNeedSparepart)
	first := f.sparepartOrder(t, ticket.ID)
	second := f.sparepartOrder(t, ticket.ID)

	complete(t, f, first.ID)
	assert.False(t, f.reload(t, ticket.ID).WorkOrdersReady)
	_, err := f.tickets.UpdateStatus(ctx, f.tech, ticket.ID, UpdateStatusInput{Status: domain.StatusClosed})
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = f.workOrders.UpdateStatus(ctx, f.penyedia, second.ID, WorkOrderStatusInput{Status: domain.WorkOrderUnsuccessful})
	requireCode(t, err, "VALIDATION_FAILED")
	_, err = f.workOrders.UpdateStatus(ctx, f.penyedia, second.ID, WorkOrderStatusInput{
		Status: domain.WorkOrderUnsuccessful, FailureReason: "discontinued",
	})
	require.NoError(t, err)
	assert.True(t, f.reload(t, ticket.ID).WorkOrdersReady)

	// reopening one clears readiness again
	_, err = f.workOrders.UpdateStatus(ctx, f.penyedia, second.ID, WorkOrderStatusInput{Status: domain.WorkOrderInProcurement})
	require.NoError(t, err)
	assert.False(t, f.reload(t, ticket.ID).WorkOrdersReady)
	complete(t, f, second.ID)

	closed, err := f.tickets.UpdateStatus(ctx, f.tech, ticket.ID, UpdateStatusInput{Status: domain.StatusClosed})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, closed.Status)
}

func TestWorkOrderStatusRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.assignedTicket(t)
	wo := f.sparepartOrder(t, ticket.ID)

	_, err := f.workOrders.UpdateStatus(ctx, f.penyedia, wo.ID, WorkOrderStatusInput{Status: domain.WorkOrderRequested})
	de := requireCode(t, err, "VALIDATION_FAILED")
	assert.Contains(t, de.Details["fields"], "status")

	_, err = f.workOrders.UpdateStatus(ctx, f.tech, wo.ID, WorkOrderStatusInput{Status: domain.WorkOrderInProcurement})
	requireCode(t, err, "FORBIDDEN")
	_, err = f.workOrders.UpdateStatus(ctx, f.penyedia, wo.ID, WorkOrderStatusInput{Status: "lost"})
	requireCode(t, err, "VALIDATION_FAILED")
	_, err = f.workOrders.UpdateStatus(ctx, f.penyedia, "missing", WorkOrderStatusInput{Status: domain.WorkOrderCompleted})
	requireCode(t, err, "NOT_FOUND")
}

func TestWorkOrderEditWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.assignedTicket(t)
	wo := f.sparepartOrder(t, ticket.ID)

	edited, err := f.workOrders.Update(ctx, f.tech, wo.ID, WorkOrderInput{
		Items: []domain.SparepartItem{{Name: "SSD 1TB", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "SSD 1TB", edited.Items[0].Name)

	_, err = f.workOrders.Update(ctx, f.tech, wo.ID, WorkOrderInput{Type: domain.WorkOrderVendor, Vendor: &domain.VendorDetails{Name: "x"}})
	requireCode(t, err, "VALIDATION_FAILED")
	_, err = f.workOrders.Update(ctx, f.tech2, wo.ID, WorkOrderInput{Items: edited.Items})
	requireCode(t, err, "FORBIDDEN")

	_, err = f.workOrders.UpdateStatus(ctx, f.penyedia, wo.ID, WorkOrderStatusInput{Status: domain.WorkOrderInProcurement})
	require.NoError(t, err)
	_, err = f.workOrders.Update(ctx, f.tech, wo.ID, WorkOrderInput{Items: edited.Items})
	requireCode(t, err, "VALIDATION_FAILED")
	requireCode(t, f.workOrders.Delete(ctx, f.tech, wo.ID), "VALIDATION_FAILED")
}

func TestDeletingLastOpenWorkOrderRecomputesReadiness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.assignedTicket(t)
	done := f.sparepartOrder(t, ticket.ID)
	pending := f.sparepartOrder(t, ticket.ID)
	complete(t, f, done.ID)
	require.False(t, f.reload(t, ticket.ID).WorkOrdersReady)

	require.NoError(t, f.workOrders.Delete(ctx, f.tech, pending.ID))
	assert.True(t, f.reload(t, ticket.ID).WorkOrdersReady)
	_, err := f.workOrders.Get(ctx, f.admin, pending.ID)
	requireCode(t, err, "NOT_FOUND")
}

func TestConcurrentCompletionsSetReadiness(t *testing.T) {
	f := newFixture(t)
	ticket := f.assignedTicket(t)
	const n = 8
	ids := make([]string, n)
	for i := range ids {
		ids[i] = f.sparepartOrder(t, ticket.ID).ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.workOrders.UpdateStatus(context.Background(), f.penyedia, id, WorkOrderStatusInput{Status: domain.WorkOrderCompleted})
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.True(t, f.reload(t, ticket.ID).WorkOrdersReady)
}

func TestWorkOrderListAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.assignedTicket(t)
	first := f.sparepartOrder(t, ticket.ID)
	_, err := f.workOrders.Create(ctx, f.tech, ticket.ID, WorkOrderInput{Type: domain.WorkOrderVendor, Vendor: &domain.VendorDetails{Name: "PT Servis"}})
	require.NoError(t, err)
	complete(t, f, first.ID)

	items, total, err := f.workOrders.List(ctx, f.penyedia, WorkOrderListInput{Status: domain.WorkOrderCompleted})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, first.ID, items[0].ID)

	_, total, err = f.workOrders.List(ctx, f.tech2, WorkOrderListInput{})
	require.NoError(t, err)
	assert.Zero(t, total)

	stats, err := f.workOrders.Stats(ctx, f.tech, WorkOrderListInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[domain.WorkOrderCompleted])
	assert.Equal(t, 1, stats.ByType[domain.WorkOrderVendor])
}
