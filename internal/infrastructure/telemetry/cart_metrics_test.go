package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jhk/storefront/internal/domain/cart"
	"github.com/jhk/storefront/internal/domain/checkout"
	"github.com/jhk/storefront/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*CartMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewCartMetrics(provider.Meter(MeterName), "redis")
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumByAttr(t *testing.T, m metricdata.Metrics, key attribute.Key) map[string]int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	out := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(key)
		out[v.AsString()] += dp.Value
	}
	return out
}

func TestNewCartMetrics_NilMeter(t *testing.T) {
	_, err := NewCartMetrics(nil, "memory")
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestCartMetrics_Handle(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t)
	session := uuid.New()

	events := []shared.DomainEvent{
		cart.NewUpdatedEvent(session, cart.Change{Intent: cart.IntentAddItem, State: cart.Empty()}),
		cart.NewUpdatedEvent(session, cart.Change{Intent: cart.IntentAddItem, State: cart.Empty()}),
		cart.NewUpdatedEvent(session, cart.Change{Intent: cart.IntentToggleCart, State: cart.Empty()}),
		&checkout.OrderPlacedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(checkout.EventTypeOrderPlaced, checkout.AggregateTypeOrder, uuid.New()),
		},
		&checkout.OrderPaidEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(checkout.EventTypeOrderPaid, checkout.AggregateTypeOrder, uuid.New()),
			Total:           decimal.NewFromInt(950000),
		},
		&checkout.OrderPaymentFailedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(checkout.EventTypeOrderPaymentFailed, checkout.AggregateTypeOrder, uuid.New()),
		},
	}
	for _, e := range events {
		require.NoError(t, m.Handle(ctx, e))
	}

	got := collect(t, reader)

	intents := sumByAttr(t, got["storefront_cart_intents_total"], AttrIntent)
	assert.Equal(t, int64(2), intents["add_item"])
	assert.Equal(t, int64(1), intents["toggle_cart"])

	checkouts := sumByAttr(t, got["storefront_checkouts_total"], AttrPaymentStatus)
	assert.Equal(t, map[string]int64{"initiated": 1, "paid": 1, "failed": 1}, checkouts)

	hist, ok := got["storefront_order_amount"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 950000.0, hist.DataPoints[0].Sum, 0.001)
}

func TestCartMetrics_PersistFailuresAndActiveCarts(t *testing.T) {
	ctx := context.Background()
	m, reader := newTestMetrics(t)

	m.RecordPersistFailure(ctx, errors.New("redis down"))
	m.RecordPersistFailure(ctx, errors.New("redis down"))
	m.RecordActiveCarts(ctx, 7)

	got := collect(t, reader)

	failures := sumByAttr(t, got["storefront_cart_persist_failures_total"], AttrBackend)
	assert.Equal(t, map[string]int64{"redis": 2}, failures)

	gauge, ok := got["storefront_active_carts"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(7), gauge.DataPoints[0].Value)
}

func TestCartMetrics_EventTypes(t *testing.T) {
	m, _ := newTestMetrics(t)
	assert.ElementsMatch(t, []string{
		"cart.updated",
		"checkout.order_placed",
		"checkout.order_paid",
		"checkout.order_payment_failed",
	}, m.EventTypes())
}
