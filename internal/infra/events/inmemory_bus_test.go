package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sharedEvents "github.com/vskolike/groupdir/shared/events"
)

func TestInMemoryEventBus_PublishDeliversJSONToAllSubscribers(t *testing.T) {
	bus := NewInMemoryEventBus("group")
	first := bus.Subscribe(1)
	second := bus.Subscribe(1)

	evt := &sharedEvents.IntegrationEvent{Type: "group.created", Key: "sales", Data: json.RawMessage(`{"id":"sales"}`)}
	require.NoError(t, bus.Publish(context.Background(), evt))

	for _, ch := range []<-chan interface{}{first, second} {
		select {
		case msg := <-ch:
			payload, ok := msg.([]byte)
			require.True(t, ok)

			var got sharedEvents.IntegrationEvent
			require.NoError(t, json.Unmarshal(payload, &got))
			assert.Equal(t, "group.created", got.Type)
			assert.Equal(t, "sales", got.Key)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive the event")
		}
	}
}

func TestInMemoryEventBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewInMemoryEventBus("membership")
	assert.NoError(t, bus.Publish(context.Background(), map[string]string{"a": "b"}))
	assert.Equal(t, "membership", bus.Topic())
}

type recordingHandler struct {
	got chan []byte
}

func (h *recordingHandler) HandleMessage(ctx context.Context, key string, payload []byte) {
	h.got <- payload
}

func TestBackgroundConsumerChan_ForwardsBytes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan interface{}, 2)
	h := &recordingHandler{got: make(chan []byte, 1)}
	BackgroundConsumerChan(ctx, ch, h, zap.NewNop())

	ch <- "not bytes"
	ch <- []byte(`{"type":"x"}`)

	select {
	case payload := <-h.got:
		assert.JSONEq(t, `{"type":"x"}`, string(payload))
	case <-time.After(time.Second):
		t.Fatal("handler was not called")
	}
}
