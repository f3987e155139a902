package event

import (
	"github.com/jhk/storefront/internal/domain/cart"
	"github.com/jhk/storefront/internal/domain/checkout"
)

// RegisterStorefrontEvents registers every storefront event type with the serializer
func RegisterStorefrontEvents(serializer *EventSerializer) {
	serializer.Register(cart.EventTypeCartUpdated, &cart.UpdatedEvent{})

	serializer.Register(checkout.EventTypeOrderPlaced, &checkout.OrderPlacedEvent{})
	serializer.Register(checkout.EventTypeOrderPaid, &checkout.OrderPaidEvent{})
	serializer.Register(checkout.EventTypeOrderPaymentFailed, &checkout.OrderPaymentFailedEvent{})
}
