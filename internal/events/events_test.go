package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcherRunsAllHandlersAndJoinsErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	rec := &Recorder{}
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error { return errors.New("boom") })
	d.Subscribe(EventTicketCreated, rec.Handle)

	err := d.Publish(context.Background(), Event{Type: EventTicketCreated, TicketID: "t1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, []EventType{EventTicketCreated}, rec.Types())
}

func TestSubscribeAllCoversEveryType(t *testing.T) {
	d := NewInMemoryDispatcher()
	rec := &Recorder{}
	SubscribeAll(d, rec.Handle)
	for _, typ := range AllEventTypes {
		require.NoError(t, d.Publish(context.Background(), Event{Type: typ}))
	}
	assert.Equal(t, AllEventTypes, rec.Types())
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaPublisherKeysByTicket(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, logger: zap.NewNop()}

	err := p.Handle(context.Background(), Event{ID: "e1", Type: EventTicketClosed, TicketID: "t-42"})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "t-42", string(w.msgs[0].Key))

	var decoded Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, EventTicketClosed, decoded.Type)
}

func TestKafkaPublisherDisabledWithoutBrokers(t *testing.T) {
	p := NewKafkaPublisher(nil, "topic", zap.NewNop())
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Handle(context.Background(), Event{Type: EventTicketCreated}))
	assert.NoError(t, p.Close())
}
