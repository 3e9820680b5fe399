package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/storefront/pkg/logging"
)

type fakeStore struct {
	batch  []Event
	sent   []int64
	failed map[int64]string
}

func (s *fakeStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error) {
	b := s.batch
	s.batch = nil
	return b, nil
}

func (s *fakeStore) MarkSent(ctx context.Context, ids []int64) error {
	s.sent = append(s.sent, ids...)
	return nil
}

func (s *fakeStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	if s.failed == nil {
		s.failed = map[int64]string{}
	}
	s.failed[id] = errMsg
	return nil
}

type fakeProducer struct {
	msgs   []kafka.Message
	failOn string
}

func (p *fakeProducer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		if string(m.Key) == p.failOn {
			return errors.New("broker unavailable")
		}
		p.msgs = append(p.msgs, m)
	}
	return nil
}

func TestRelayTickMarksSentAndFailed(t *testing.T) {
	store := &fakeStore{batch: []Event{
		{ID: 1, AggregateID: "10", Type: "OrderPlaced", Payload: []byte(`{}`)},
		{ID: 2, AggregateID: "11", Type: "OrderPlaced", Payload: []byte(`{}`)},
	}}
	producer := &fakeProducer{failOn: "11"}
	relay := NewRelay(logging.Discard(), store, NewDispatcher(logging.Discard(), producer, "order.events"), "test-relay")

	n, err := relay.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{1}, store.sent)
	assert.Equal(t, "broker unavailable", store.failed[2])
	require.Len(t, producer.msgs, 1)
	assert.Equal(t, "order.events", producer.msgs[0].Topic)
}

func TestRelayTickEmptyBatch(t *testing.T) {
	store := &fakeStore{}
	relay := NewRelay(logging.Discard(), store, NewDispatcher(logging.Discard(), &fakeProducer{}, "t"), "r")

	n, err := relay.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, store.sent)
}

func TestDispatcherMessageHeaders(t *testing.T) {
	d := NewDispatcher(logging.Discard(), &fakeProducer{}, "order.events")
	ev, err := NewEvent("order", "42", "OrderStatusChanged", map[string]string{"to": "CONFIRMED"},
		map[string]string{"source": "storefront"}, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	require.NoError(t, err)
	ev.ID = 17

	msg := d.Message(ev)

	assert.Equal(t, []byte("42"), msg.Key)
	assert.JSONEq(t, `{"to":"CONFIRMED"}`, string(msg.Value))
	got := map[string]string{}
	for _, h := range msg.Headers {
		got[h.Key] = string(h.Value)
	}
	assert.Equal(t, "17", got[HeaderEventID])
	assert.Equal(t, "OrderStatusChanged", got[HeaderEventType])
	assert.Equal(t, "storefront", got["source"])
	assert.NotEmpty(t, got[HeaderTraceparent])
}

func TestRelayRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	relay := NewRelay(logging.Discard(), &fakeStore{}, NewDispatcher(logging.Discard(), &fakeProducer{}, "t"), "r")
	assert.NoError(t, relay.Run(ctx))
}
