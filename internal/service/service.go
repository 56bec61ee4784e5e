package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/persistence"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

// Dependencies bundles the collaborators shared by the workflow services.
type Dependencies struct {
	Tx                repository.Transactor
	Tickets           repository.TicketRepository
	Timeline          repository.TimelineRepository
	Diagnoses         repository.DiagnosisRepository
	WorkOrders        repository.WorkOrderRepository
	SparepartRequests repository.SparepartRequestRepository
	ZoomAccounts      repository.ZoomAccountRepository
	Users             repository.UserRepository
	Assets            repository.AssetRepository
	Locker            persistence.Locker
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
	// Now is overridable in tests.
	Now func() time.Time
}

// core carries what every service needs: the unit of work, the timeline and event publishing.
type core struct {
	deps   Dependencies
	logger *zap.Logger
}

func newCore(deps Dependencies) core {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Locker == nil {
		deps.Locker = persistence.NewLocalLocker()
	}
	return core{deps: deps, logger: deps.Logger}
}

func (c *core) now() time.Time {
	return c.deps.Now()
}

// outbox collects events raised inside a transaction; they are published after commit.
type outbox struct {
	events []events.Event
}

func (o *outbox) add(e events.Event) {
	o.events = append(o.events, e)
}

// inTx runs fn in a unit of work and publishes what it raised only if the work committed.
func (c *core) inTx(ctx context.Context, fn func(ctx context.Context, out *outbox) error) error {
	out := &outbox{}
	if err := c.deps.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return fn(ctx, out)
	}); err != nil {
		return translateError(err)
	}
	for _, e := range out.events {
		c.publishEvent(ctx, e)
	}
	return nil
}

func (c *core) publishEvent(ctx context.Context, event events.Event) {
	if c.deps.Dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = c.now()
	}
	if err := c.deps.Dispatcher.Publish(ctx, event); err != nil {
		c.logger.Warn("event delivery failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func actorOf(p *auth.Principal) events.Actor {
	return events.Actor{UserID: p.UserID, Roles: p.Roles.List()}
}

func (c *core) recordTimeline(ctx context.Context, entry domain.TimelineEntry) error {
	if c.deps.Timeline == nil {
		return nil
	}
	entry.CreatedAt = c.now()
	return c.deps.Timeline.Create(ctx, &entry)
}

func (c *core) recordStatusChange(ctx context.Context, actorID, ticketID string, oldStatus, newStatus domain.TicketStatus, details string) error {
	oldS, newS := string(oldStatus), string(newStatus)
	return c.recordTimeline(ctx, domain.TimelineEntry{
		TicketID:  ticketID,
		ActorID:   actorID,
		Action:    domain.ActionStatusChanged,
		OldStatus: &oldS,
		NewStatus: &newS,
		Details:   details,
	})
}

// loadTicket reads a ticket, locking it when called inside a unit of work.
func (c *core) loadTicket(ctx context.Context, id string, lock bool) (*domain.Ticket, error) {
	var (
		t   *domain.Ticket
		err error
	)
	if lock {
		t, err = c.deps.Tickets.GetForUpdate(ctx, id)
	} else {
		t, err = c.deps.Tickets.GetByID(ctx, id)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	return t, err
}

func (c *core) loadWorkOrder(ctx context.Context, id string) (*domain.WorkOrder, error) {
	wo, err := c.deps.WorkOrders.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("work order", map[string]any{"id": id})
	}
	return wo, err
}

// translateError turns storage races into the retryable conflict callers see.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrBookingOverlap):
		return apperrors.NewRaceLost("the zoom slot was taken by a concurrent booking", err)
	case errors.Is(err, persistence.ErrLockBusy):
		return apperrors.NewRaceLost("another booking for this date is in progress, retry shortly", err)
	}
	return err
}

func joinDetails(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " | ")
}

func strPtr(s string) *string {
	return &s
}
