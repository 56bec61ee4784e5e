package service

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/config"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/repository"
)

// NotificationService turns domain events into notifications for the people involved.
// Delivery channels are stubs; only recipients are resolved here.
type NotificationService struct {
	dispatcher events.Dispatcher
	users      repository.UserRepository
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, users repository.UserRepository, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		users:      users,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	events.SubscribeAll(n.dispatcher, n.handle)
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	recipients, err := n.Recipients(ctx, event)
	if err != nil {
		return err
	}
	n.logger.Info("notification",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("ticket_number", event.TicketNumber),
		zap.Strings("recipients", recipients))
	if len(recipients) == 0 {
		return nil
	}
	n.sendEmailNotificationStub(ctx, event, recipients)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

// Recipients resolves who should hear about event. The actor is never notified of their own action.
func (n *NotificationService) Recipients(ctx context.Context, event events.Event) ([]string, error) {
	set := map[string]struct{}{}
	add := func(id string) {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	addRole := func(role domain.Role) error {
		if n.users == nil {
			return nil
		}
		users, err := n.users.ListByRole(ctx, role)
		if err != nil {
			return err
		}
		for _, u := range users {
			add(u.ID)
		}
		return nil
	}

	switch event.Type {
	case events.EventTicketCreated:
		if err := addRole(domain.RoleAdminLayanan); err != nil {
			return nil, err
		}
	case events.EventTicketAssigned:
		add(event.RequesterID)
		if event.AssigneeID != nil {
			add(*event.AssigneeID)
		}
	case events.EventWorkOrderCreated:
		if err := addRole(domain.RoleAdminPenyedia); err != nil {
			return nil, err
		}
	case events.EventTicketDiagnosed:
		add(event.RequesterID)
	default:
		add(event.RequesterID)
		if event.AssigneeID != nil {
			add(*event.AssigneeID)
		}
	}
	delete(set, event.Actor.UserID)

	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event, recipients []string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.Strings("to", recipients),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
