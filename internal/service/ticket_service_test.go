package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
)

func TestCreateRepairTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket := f.repairTicket(t)
	assert.Equal(t, "PRB-20260301-0001", ticket.Number)
	assert.Equal(t, domain.StatusSubmitted, ticket.Status)
	assert.Equal(t, domain.SeverityNormal, ticket.Perbaikan.Severity)
	assert.Equal(t, "Room 101", ticket.Perbaikan.Location)
	assert.Nil(t, ticket.Zoom)
	assert.NoError(t, ticket.CheckShape())

	second := f.repairTicket(t)
	assert.Equal(t, "PRB-20260301-0002", second.Number)

	timeline, err := f.tickets.Timeline(ctx, f.employee, ticket.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, domain.ActionTicketCreated, timeline[0].Action)
	assert.Equal(t, []events.EventType{events.EventTicketCreated, events.EventTicketCreated}, f.recorder.Types())
}

func TestCreateRepairTicketValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tickets.CreateTicket(ctx, f.employee, TicketCreateInput{
		Type: domain.TicketTypePerbaikan, Title: "x", AssetCode: "999", AssetNUP: "1",
	})
	de := requireCode(t, err, "VALIDATION_FAILED")
	assert.Contains(t, de.Details["fields"], "kode_barang")

	_, err = f.tickets.CreateTicket(ctx, f.employee, TicketCreateInput{
		Type: domain.TicketTypePerbaikan, Title: "x", AssetCode: "3100102001", AssetNUP: "12",
		Attachments: []domain.Attachment{{Name: "huge.pdf", MimeType: "application/pdf", Size: 3 << 20}},
	})
	requireCode(t, err, "VALIDATION_FAILED")

	_, err = f.tickets.CreateTicket(ctx, f.employee, TicketCreateInput{
		Type: domain.TicketTypePerbaikan, Title: "x", AssetCode: "3100102001", AssetNUP: "12",
		Attachments: []domain.Attachment{{Name: "notes.docx", MimeType: "application/msword", Size: 10}},
	})
	requireCode(t, err, "VALIDATION_FAILED")

	assert.Empty(t, f.recorder.Events())
}

func TestUpdateStatusRequiresDiagnosisBeforeClosing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.assignedTicket(t)

	_, err := f.tickets.UpdateStatus(ctx, f.tech, ticket.ID, UpdateStatusInput{Status: domain.StatusInProgress})
	require.NoError(t, err)

	for _, target := range []domain.TicketStatus{domain.StatusClosed, domain.StatusWaitingForSubmitter} {
		_, err = f.tickets.UpdateStatus(ctx, f.admin, ticket.ID, UpdateStatusInput{Status: target})
		requireCode(t, err, "VALIDATION_FAILED")
	}
	assert.Equal(t, domain.StatusInProgress, f.reload(t, ticket.ID).Status)
}

func TestDirectRepairClosesWithoutWorkOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.assignedTicket(t)

	f.diagnose(t, ticket.ID, domain.RepairDirect)
	assert.Equal(t, domain.StatusInProgress, f.reload(t, ticket.ID).Status)

	closed, err := f.tickets.UpdateStatus(ctx, f.tech, ticket.ID, UpdateStatusInput{
		Status:         domain.StatusClosed,
		Notes:          "Cable replaced",
		CompletionData: map[string]any{"result": "fixed"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	info, ok := closed.FormData["completion_info"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fixed", info["result"])
	assert.Equal(t, "tech", info["completed_by"])
	assert.NotEmpty(t, info["completed_at"])

	assert.Contains(t, f.recorder.Types(), events.EventTicketClosed)

	_, err = f.tickets.UpdateStatus(ctx, f.admin, ticket.ID, UpdateStatusInput{Status: domain.StatusInProgress})
	requireCode(t, err, "INVALID_TRANSITION")
}

func TestUpdateStatusAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.assignedTicket(t)

	_, err := f.tickets.UpdateStatus(ctx, f.employee, ticket.ID, UpdateStatusInput{Status: domain.StatusInProgress})
	requireCode(t, err, "FORBIDDEN")
	_, err = f.tickets.UpdateStatus(ctx, f.tech2, ticket.ID, UpdateStatusInput{Status: domain.StatusInProgress})
	requireCode(t, err, "FORBIDDEN")
	_, err = f.tickets.UpdateStatus(ctx, f.tech, ticket.ID, UpdateStatusInput{Status: "finished"})
	requireCode(t, err, "VALIDATION_FAILED")
	_, err = f.tickets.UpdateStatus(ctx, f.tech, "missing", UpdateStatusInput{Status: domain.StatusInProgress})
	requireCode(t, err, "NOT_FOUND")
}

func TestFailedTransitionLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.assignedTicket(t)
	before, err := f.tickets.Timeline(ctx, f.admin, ticket.ID)
	require.NoError(t, err)
	eventsBefore := len(f.recorder.Events())

	_, err = f.tickets.UpdateStatus(ctx, f.admin, ticket.ID, UpdateStatusInput{
		Status:              domain.StatusClosed,
		MarkWorkOrdersReady: true,
	})
	requireCode(t, err, "INVALID_TRANSITION")

	after, err := f.tickets.Timeline(ctx, f.admin, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
	assert.Len(t, f.recorder.Events(), eventsBefore)
	assert.False(t, f.reload(t, ticket.ID).WorkOrdersReady)
}

func TestAssignRecordsTwoTimelineEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.repairTicket(t)

	_, err := f.tickets.Assign(ctx, f.admin, ticket.ID, f.employee.UserID, "")
	requireCode(t, err, "VALIDATION_FAILED")
	_, err = f.tickets.Assign(ctx, f.tech, ticket.ID, f.tech.UserID, "")
	requireCode(t, err, "FORBIDDEN")

	assigned, err := f.tickets.Assign(ctx, f.admin, ticket.ID, f.tech.UserID, "urgent")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, assigned.Status)
	assert.True(t, assigned.IsAssignedTo(f.tech.UserID))

	timeline, err := f.tickets.Timeline(ctx, f.admin, ticket.ID)
	require.NoError(t, err)
	require.Len(t, timeline, 3)
	assert.Equal(t, domain.ActionStatusChanged, timeline[1].Action)
	assert.Equal(t, domain.ActionAssigned, timeline[2].Action)

	// reassignment keeps the status and records only the assignment
	_, err = f.tickets.Assign(ctx, f.admin, ticket.ID, f.tech2.UserID, "")
	require.NoError(t, err)
	timeline, err = f.tickets.Timeline(ctx, f.admin, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, timeline, 4)
	assert.Equal(t, "tech", timeline[3].Metadata["previous_assignee"])
}

func TestApproveAndRejectTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ticket := f.repairTicket(t)
	approved, err := f.tickets.ApproveTicket(ctx, f.admin, ticket.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
	_, err = f.tickets.ApproveTicket(ctx, f.admin, ticket.ID, "")
	requireCode(t, err, "INVALID_TRANSITION")
	_, err = f.tickets.Assign(ctx, f.admin, ticket.ID, f.tech.UserID, "")
	require.NoError(t, err)

	other := f.repairTicket(t)
	_, err = f.tickets.RejectTicket(ctx, f.admin, other.ID, " ")
	requireCode(t, err, "VALIDATION_FAILED")
	_, err = f.tickets.RejectTicket(ctx, f.employee, other.ID, "duplicate")
	requireCode(t, err, "FORBIDDEN")
	rejected, err := f.tickets.RejectTicket(ctx, f.admin, other.ID, "duplicate")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "duplicate", *rejected.RejectionReason)
}

func TestMarkWorkOrdersReadyOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.assignedTicket(t)
	f.diagnose(t, ticket.ID, domain.RepairNeedVendor)
	_, err := f.workOrders.Create(ctx, f.tech, ticket.ID, WorkOrderInput{
		Type:   domain.WorkOrderVendor,
		Vendor: &domain.VendorDetails{Name: "PT Servis"},
	})
	require.NoError(t, err)

	_, err = f.tickets.UpdateStatus(ctx, f.tech, ticket.ID, UpdateStatusInput{Status: domain.StatusClosed})
	requireCode(t, err, "VALIDATION_FAILED")

	resumed, err := f.tickets.UpdateStatus(ctx, f.tech, ticket.ID, UpdateStatusInput{
		Status:              domain.StatusInProgress,
		MarkWorkOrdersReady: true,
	})
	require.NoError(t, err)
	assert.True(t, resumed.WorkOrdersReady)

	_, err = f.tickets.UpdateStatus(ctx, f.tech, ticket.ID, UpdateStatusInput{Status: domain.StatusClosed})
	assert.NoError(t, err)
}

func TestMarkWorkOrdersReadyCannotBypassGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.assignedTicket(t)
	f.diagnose(t, ticket.ID, domain.RepairNeedSparepart)
	wo, err := f.workOrders.Create(ctx, f.tech, ticket.ID, WorkOrderInput{
		Type:  domain.WorkOrderSparepart,
		Items: []domain.SparepartItem{{Name: "SSD 512GB", Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusOnHold, f.reload(t, ticket.ID).Status)

	for _, target := range []domain.TicketStatus{domain.StatusClosed, domain.StatusWaitingForSubmitter} {
		_, err = f.tickets.UpdateStatus(ctx, f.admin, ticket.ID, UpdateStatusInput{
			Status:              target,
			MarkWorkOrdersReady: true,
		})
		requireCode(t, err, "VALIDATION_FAILED")
	}

	stored := f.reload(t, ticket.ID)
	assert.Equal(t, domain.StatusOnHold, stored.Status)
	assert.False(t, stored.WorkOrdersReady)
	order, err := f.workOrders.Get(ctx, f.admin, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkOrderRequested, order.Status)
}

func TestUpdateStatusRefusesDedicatedTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	repair := f.repairTicket(t)
	for _, target := range []domain.TicketStatus{domain.StatusApproved, domain.StatusRejected} {
		_, err := f.tickets.UpdateStatus(ctx, f.admin, repair.ID, UpdateStatusInput{Status: target})
		requireCode(t, err, "INVALID_TRANSITION")
	}
	assert.Equal(t, domain.StatusSubmitted, f.reload(t, repair.ID).Status)
	assert.Nil(t, f.reload(t, repair.ID).RejectionReason)

	meeting, err := f.zoomTicket(t, f.employee, "09:00", "10:00")
	require.NoError(t, err)
	eventsBefore := len(f.recorder.Events())
	for _, target := range []domain.TicketStatus{domain.StatusApproved, domain.StatusRejected} {
		_, err = f.tickets.UpdateStatus(ctx, f.admin, meeting.ID, UpdateStatusInput{Status: target})
		requireCode(t, err, "INVALID_TRANSITION")
	}
	assert.Equal(t, domain.StatusPendingReview, f.reload(t, meeting.ID).Status)
	assert.Len(t, f.recorder.Events(), eventsBefore)

	approved, err := f.tickets.ApproveZoom(ctx, f.admin, meeting.ID, ZoomApprovalInput{MeetingLink: "https://zoom.example/j/9"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, approved.Status)
}

func TestUpdateTicket(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.repairTicket(t)

	title := "Laptop screen flickers"
	updated, err := f.tickets.UpdateTicket(ctx, f.employee, ticket.ID, TicketUpdateInput{
		Title:    &title,
		FormData: map[string]any{"floor": 3, "completion_info": "ignored"},
	})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, 3, updated.FormData["floor"])
	assert.NotContains(t, updated.FormData, "completion_info")
	assert.Equal(t, domain.TicketTypePerbaikan, f.reload(t, ticket.ID).Type)

	_, err = f.tickets.UpdateTicket(ctx, f.employee2, ticket.ID, TicketUpdateInput{Title: &title})
	requireCode(t, err, "FORBIDDEN")
}

func TestCountsAndDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ticket := f.assignedTicket(t)
	f.repairTicket(t)
	other, err := f.tickets.CreateTicket(ctx, f.employee2, TicketCreateInput{
		Type: domain.TicketTypePerbaikan, Title: "Printer", AssetCode: "3100102001", AssetNUP: "12",
	})
	require.NoError(t, err)
	_, err = f.tickets.RejectTicket(ctx, f.admin, other.ID, "not ours")
	require.NoError(t, err)

	counts, err := f.tickets.Counts(ctx, f.admin, TicketListInput{})
	require.NoError(t, err)
	assert.Equal(t, 3, counts.Total)
	assert.Equal(t, 2, counts.Open)
	assert.Equal(t, 1, counts.Finished)

	mine, err := f.tickets.Counts(ctx, f.employee, TicketListInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, mine.Total)

	detail, err := f.tickets.GetTicketDetail(ctx, f.tech, ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, detail.Diagnosis)
	assert.ElementsMatch(t,
		[]domain.TicketStatus{domain.StatusInProgress, domain.StatusOnHold, domain.StatusCancelled},
		detail.AllowedTransitions)
}
