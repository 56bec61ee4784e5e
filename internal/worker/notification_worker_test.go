package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/observability"
)

func TestWorkerCountsPublishedEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	publisher := events.NewKafkaPublisher(nil, "", zap.NewNop())

	StartNotificationWorker(nil, dispatcher, publisher, metrics, zap.NewNop())

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketCreated, TicketID: "t-1"}))
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketCreated, TicketID: "t-2"}))

	assert.Equal(t, int64(2), metrics.Snapshot().Events[string(events.EventTicketCreated)])
}
