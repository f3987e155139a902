package telemetry

import (
	"context"
	"errors"

	"github.com/jhk/storefront/internal/domain/cart"
	"github.com/jhk/storefront/internal/domain/checkout"
	"github.com/jhk/storefront/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when CartMetrics is built without a meter
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// CartMetrics counts cart intents and checkout outcomes.
// It subscribes to the event bus like any other handler.
type CartMetrics struct {
	intents         *Counter
	persistFailures *Counter
	checkouts       *Counter
	orderAmount     *Histogram
	activeCarts     *Gauge
	backend         string
}

// NewCartMetrics registers the storefront instruments on meter.
// backend labels persistence failures with the configured snapshot store.
func NewCartMetrics(meter metric.Meter, backend string) (*CartMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	m := &CartMetrics{backend: backend}
	var err error

	if m.intents, err = NewCounter(meter, "storefront_cart_intents_total",
		"Cart intents dispatched", "{intent}"); err != nil {
		return nil, err
	}
	if m.persistFailures, err = NewCounter(meter, "storefront_cart_persist_failures_total",
		"Cart snapshots that could not be written", "{failure}"); err != nil {
		return nil, err
	}
	if m.checkouts, err = NewCounter(meter, "storefront_checkouts_total",
		"Checkouts by payment outcome", "{checkout}"); err != nil {
		return nil, err
	}
	if m.orderAmount, err = NewHistogram(meter, HistogramOpts{
		Name:        "storefront_order_amount",
		Description: "Total of paid orders",
		Unit:        "CLP",
		Boundaries:  CheckoutAmountBuckets,
	}); err != nil {
		return nil, err
	}
	if m.activeCarts, err = NewGauge(meter, "storefront_active_carts",
		"Cart sessions held in memory", "{cart}"); err != nil {
		return nil, err
	}
	return m, nil
}

// EventTypes implements shared.EventHandler
func (m *CartMetrics) EventTypes() []string {
	return []string{
		cart.EventTypeCartUpdated,
		checkout.EventTypeOrderPlaced,
		checkout.EventTypeOrderPaid,
		checkout.EventTypeOrderPaymentFailed,
	}
}

// Handle implements shared.EventHandler
func (m *CartMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *cart.UpdatedEvent:
		m.intents.Inc(ctx, AttrIntent.String(string(e.Intent)))
	case *checkout.OrderPlacedEvent:
		m.checkouts.Inc(ctx, AttrPaymentStatus.String("initiated"))
	case *checkout.OrderPaidEvent:
		m.checkouts.Inc(ctx, AttrPaymentStatus.String("paid"))
		m.orderAmount.Record(ctx, e.Total.InexactFloat64())
	case *checkout.OrderPaymentFailedEvent:
		m.checkouts.Inc(ctx, AttrPaymentStatus.String("failed"))
	}
	return nil
}

// RecordPersistFailure matches the cart store persist failure hook
func (m *CartMetrics) RecordPersistFailure(ctx context.Context, _ error) {
	m.persistFailures.Inc(ctx, AttrBackend.String(m.backend))
}

// RecordActiveCarts reports how many sessions the registry holds
func (m *CartMetrics) RecordActiveCarts(ctx context.Context, n int) {
	m.activeCarts.Record(ctx, int64(n), attribute.String("scope", "process"))
}

var _ shared.EventHandler = (*CartMetrics)(nil)
