package cart

import (
	"github.com/google/uuid"
	"github.com/jhk/storefront/internal/domain/shared"
)

// EventTypeCartUpdated is published after every intent dispatched on a session cart
const EventTypeCartUpdated = "cart.updated"

// AggregateTypeCart is the aggregate type for session carts
const AggregateTypeCart = "Cart"

// UpdatedEvent carries the state of a session cart after one intent
type UpdatedEvent struct {
	shared.BaseDomainEvent
	SessionID uuid.UUID  `json:"session_id"`
	Intent    IntentKind `json:"intent"`
	State     State      `json:"state"`
}

// NewUpdatedEvent creates a cart.updated event for a session
func NewUpdatedEvent(sessionID uuid.UUID, change Change) *UpdatedEvent {
	return &UpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCartUpdated, AggregateTypeCart, sessionID),
		SessionID:       sessionID,
		Intent:          change.Intent,
		State:           change.State,
	}
}
