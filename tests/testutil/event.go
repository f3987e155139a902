package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jhk/storefront/internal/domain/shared"
	"github.com/stretchr/testify/require"
)

// RecordingHandler is a shared.EventHandler that keeps every event it receives
type RecordingHandler struct {
	mu         sync.Mutex
	eventTypes []string
	handled    []shared.DomainEvent
}

// NewRecordingHandler creates a handler for the given event types
func NewRecordingHandler(eventTypes ...string) *RecordingHandler {
	return &RecordingHandler{eventTypes: eventTypes}
}

// EventTypes returns the event types this handler subscribes to
func (h *RecordingHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle records the event
func (h *RecordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return nil
}

// Handled returns a copy of the recorded events
func (h *RecordingHandler) Handled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]shared.DomainEvent, len(h.handled))
	copy(out, h.handled)
	return out
}

// OfType returns the recorded events of one type
func (h *RecordingHandler) OfType(eventType string) []shared.DomainEvent {
	var out []shared.DomainEvent
	for _, e := range h.Handled() {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// RequireEventCount waits until at least n events of eventType were recorded
func RequireEventCount(t *testing.T, h *RecordingHandler, eventType string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(h.OfType(eventType)) >= n
	}, 2*time.Second, 10*time.Millisecond, "expected %d %s events", n, eventType)
}
