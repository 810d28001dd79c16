package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pharmabill/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, uuid.New(), uuid.New(), time.Now()),
	}
}

type testHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicWith  any
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("SaleCompleted")
	bus.Subscribe(handler)

	event := newTestEvent("SaleCompleted")
	require.NoError(t, bus.Publish(context.Background(), event))

	require.Len(t, handler.getHandled(), 1)
	assert.Equal(t, event, handler.getHandled()[0])
}

func TestInMemoryEventBus_Publish_OnlyMatchingTypes(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	sales := newTestHandler()
	bus.Subscribe(sales, "SaleCompleted")
	other := newTestHandler("MedicineDeleted")
	bus.Subscribe(other)

	require.NoError(t, bus.Publish(context.Background(),
		newTestEvent("SaleCompleted"),
		newTestEvent("SaleCompleted"),
	))

	assert.Len(t, sales.getHandled(), 2)
	assert.Empty(t, other.getHandled())
}

func TestInMemoryEventBus_Publish_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	all := newTestHandler()
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("A"), newTestEvent("B")))
	assert.Len(t, all.getHandled(), 2)
}

func TestInMemoryEventBus_Publish_HandlerFailureIsIsolated(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewInMemoryEventBus(zap.New(core))

	failing := newTestHandler("SaleCompleted")
	failing.err = errors.New("boom")
	panicking := newTestHandler("SaleCompleted")
	panicking.panicWith = "nil map"
	healthy := newTestHandler("SaleCompleted")

	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("SaleCompleted"))
	require.NoError(t, err, "handler failures never reach the publisher")

	assert.Len(t, healthy.getHandled(), 1)
	require.Equal(t, 2, logs.FilterMessage("event handler failed").Len())
	assert.Contains(t, logs.All()[1].ContextMap()["error"], "handler panicked")
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := newTestHandler("SaleCompleted")
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("SaleCompleted")))
	assert.Empty(t, handler.getHandled())
	assert.Empty(t, bus.registry.Handlers("SaleCompleted"))
}
