package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/repository"
)

func zoomTicket(t *testing.T, number, account, start, end string) *domain.Ticket {
	t.Helper()
	day, err := domain.ParseDate("2026-03-02")
	require.NoError(t, err)
	s, err := domain.ParseClock(start)
	require.NoError(t, err)
	e, err := domain.ParseClock(end)
	require.NoError(t, err)
	return &domain.Ticket{
		Number:      number,
		Type:        domain.TicketTypeZoomMeeting,
		Title:       number,
		RequesterID: "emp",
		Status:      domain.StatusPendingReview,
		Zoom:        &domain.ZoomDetails{Date: day, Start: s, End: e, AccountID: &account},
	}
}

func TestStoreRejectsOverlappingSlots(t *testing.T) {
	store := NewStore()
	tickets := store.Repositories().Tickets
	ctx := context.Background()

	require.NoError(t, tickets.Create(ctx, zoomTicket(t, "ZM-1", "zoom-a", "10:00", "11:00")))

	err := tickets.Create(ctx, zoomTicket(t, "ZM-2", "zoom-a", "10:30", "11:30"))
	assert.ErrorIs(t, err, repository.ErrRaceLost)
	assert.ErrorIs(t, err, repository.ErrBookingOverlap)

	assert.NoError(t, tickets.Create(ctx, zoomTicket(t, "ZM-3", "zoom-b", "10:30", "11:30")))
	assert.NoError(t, tickets.Create(ctx, zoomTicket(t, "ZM-4", "zoom-a", "11:00", "12:00")))

	rejected := zoomTicket(t, "ZM-5", "zoom-a", "10:00", "11:00")
	rejected.Status = domain.StatusRejected
	assert.NoError(t, tickets.Create(ctx, rejected))
}

func TestStoreRollsBackFailedUnitOfWork(t *testing.T) {
	store := NewStore()
	repos := store.Repositories()
	ctx := context.Background()

	ticket := zoomTicket(t, "ZM-1", "zoom-a", "10:00", "11:00")
	require.NoError(t, repos.Tickets.Create(ctx, ticket))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context) error {
		loaded, err := repos.Tickets.GetForUpdate(ctx, ticket.ID)
		require.NoError(t, err)
		loaded.Status = domain.StatusApproved
		require.NoError(t, repos.Tickets.Update(ctx, loaded))
		require.NoError(t, repos.Timeline.Create(ctx, &domain.TimelineEntry{TicketID: ticket.ID, Action: domain.ActionStatusChanged}))
		_, err = repos.Tickets.NextNumber(ctx, "ZM", ticket.Zoom.Date)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	reloaded, err := repos.Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingReview, reloaded.Status)
	entries, err := repos.Timeline.ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	n, err := repos.Tickets.NextNumber(ctx, "ZM", ticket.Zoom.Date)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStoreReturnsCopies(t *testing.T) {
	store := NewStore()
	tickets := store.Repositories().Tickets
	ctx := context.Background()

	ticket := zoomTicket(t, "ZM-1", "zoom-a", "10:00", "11:00")
	require.NoError(t, tickets.Create(ctx, ticket))

	loaded, err := tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	loaded.Title = "changed"
	*loaded.Zoom.AccountID = "zoom-b"

	again, err := tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "ZM-1", again.Title)
	assert.Equal(t, "zoom-a", *again.Zoom.AccountID)
}
