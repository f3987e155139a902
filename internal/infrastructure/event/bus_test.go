package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jhk/storefront/internal/domain/cart"
	"github.com/jhk/storefront/internal/domain/checkout"
	"github.com/jhk/storefront/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingHandler struct {
	eventTypes []string
	mu         sync.Mutex
	handled    []shared.DomainEvent
	err        error
	panicWith  any
}

func newRecordingHandler(eventTypes ...string) *recordingHandler {
	return &recordingHandler{eventTypes: eventTypes}
}

func (h *recordingHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	h.handled = append(h.handled, event)
	h.mu.Unlock()
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *recordingHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func cartUpdated() *cart.UpdatedEvent {
	return cart.NewUpdatedEvent(uuid.New(), cart.Change{Intent: cart.IntentClearCart, State: cart.Empty()})
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	t.Run("delivers to handlers of the event type only", func(t *testing.T) {
		bus := NewInMemoryEventBus(nil)
		cartHandler := newRecordingHandler(cart.EventTypeCartUpdated)
		orderHandler := newRecordingHandler(checkout.EventTypeOrderPaid)
		bus.Subscribe(cartHandler)
		bus.Subscribe(orderHandler)

		require.NoError(t, bus.Publish(context.Background(), cartUpdated(), cartUpdated()))

		assert.Equal(t, 2, cartHandler.count())
		assert.Equal(t, 0, orderHandler.count())
	})

	t.Run("wildcard handler receives everything", func(t *testing.T) {
		bus := NewInMemoryEventBus(nil)
		all := newRecordingHandler()
		bus.Subscribe(all)

		require.NoError(t, bus.Publish(context.Background(), cartUpdated()))

		assert.Equal(t, 1, all.count())
	})

	t.Run("failing handler does not stop delivery", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		bus := NewInMemoryEventBus(zap.New(core))

		failing := newRecordingHandler(cart.EventTypeCartUpdated)
		failing.err = errors.New("boom")
		panicking := newRecordingHandler(cart.EventTypeCartUpdated)
		panicking.panicWith = "bad handler"
		healthy := newRecordingHandler(cart.EventTypeCartUpdated)
		bus.Subscribe(failing)
		bus.Subscribe(panicking)
		bus.Subscribe(healthy)

		err := bus.Publish(context.Background(), cartUpdated())

		require.NoError(t, err)
		assert.Equal(t, 1, healthy.count())
		assert.Equal(t, 2, logs.FilterMessage("Event handler failed").Len())
	})
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newRecordingHandler(cart.EventTypeCartUpdated)
	bus.Subscribe(handler)

	_ = bus.Publish(context.Background(), cartUpdated())
	bus.Unsubscribe(handler)
	_ = bus.Publish(context.Background(), cartUpdated())

	assert.Equal(t, 1, handler.count())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	require.NoError(t, bus.Start(context.Background()))
	assert.True(t, bus.Running())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.Running())
}

func TestHandlerRegistry(t *testing.T) {
	registry := NewHandlerRegistry()
	typed := newRecordingHandler()
	wildcard := newRecordingHandler()

	registry.Register(typed, checkout.EventTypeOrderPaid, checkout.EventTypeOrderPaymentFailed)
	registry.Register(wildcard)

	handlers := registry.GetHandlers(checkout.EventTypeOrderPaid)
	require.Len(t, handlers, 2)
	assert.Same(t, typed, handlers[0])
	assert.Same(t, wildcard, handlers[1])
	assert.Len(t, registry.GetHandlers(cart.EventTypeCartUpdated), 1)
	assert.Equal(t, 2, registry.Count())

	registry.Unregister(typed)

	assert.Len(t, registry.GetHandlers(checkout.EventTypeOrderPaid), 1)
	assert.Equal(t, 1, registry.Count())
}

func TestEventSerializer(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterStorefrontEvents(serializer)

	assert.Equal(t, []string{
		cart.EventTypeCartUpdated,
		checkout.EventTypeOrderPaid,
		checkout.EventTypeOrderPaymentFailed,
		checkout.EventTypeOrderPlaced,
	}, serializer.RegisteredTypes())

	t.Run("decodes into the registered type", func(t *testing.T) {
		original := cartUpdated()
		data, err := serializer.Serialize(original)
		require.NoError(t, err)

		decoded, err := serializer.Deserialize(cart.EventTypeCartUpdated, data)
		require.NoError(t, err)

		got, ok := decoded.(*cart.UpdatedEvent)
		require.True(t, ok)
		assert.Equal(t, original.EventID(), got.EventID())
		assert.Equal(t, original.SessionID, got.SessionID)
		assert.Equal(t, cart.IntentClearCart, got.Intent)
		assert.Empty(t, got.State.Items)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := serializer.Deserialize("cart.exploded", []byte(`{}`))
		assert.ErrorContains(t, err, "unknown event type")
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := serializer.Deserialize(checkout.EventTypeOrderPaid, []byte(`{`))
		assert.Error(t, err)
	})
}
