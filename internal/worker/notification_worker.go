package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/observability"
	"github.com/spec-kit/servicedesk/internal/service"
)

// StartNotificationWorker registers notification handlers, event counters and,
// when configured, the Kafka forwarder.
func StartNotificationWorker(notificationService *service.NotificationService, dispatcher events.Dispatcher, publisher *events.KafkaPublisher, metrics *observability.Metrics, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if metrics != nil {
		events.SubscribeAll(dispatcher, func(_ context.Context, e events.Event) error {
			metrics.RecordEvent(string(e.Type))
			return nil
		})
	}
	if publisher != nil && publisher.Enabled() {
		publisher.Register(dispatcher)
		logger.Info("forwarding domain events to kafka")
	}
}
