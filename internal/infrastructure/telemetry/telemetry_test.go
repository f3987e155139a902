package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// withRecorder installs a recording tracer provider for the test
func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	out := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		out[string(a.Key)] = a.Value
	}
	return out
}

func TestProviders_Disabled(t *testing.T) {
	ctx := context.Background()

	t.Run("tracer", func(t *testing.T) {
		tp, err := NewTracerProvider(ctx, Config{Enabled: false}, nil)
		require.NoError(t, err)
		assert.False(t, tp.IsEnabled())
		assert.NotNil(t, tp.Tracer("x"))
		require.NoError(t, tp.EnableSpanProfiles())
		assert.False(t, tp.IsSpanProfilesEnabled())
		assert.NoError(t, tp.Shutdown(ctx))
	})

	t.Run("meter", func(t *testing.T) {
		mp, err := NewMeterProvider(ctx, MetricsConfig{Enabled: false}, nil)
		require.NoError(t, err)
		assert.False(t, mp.IsEnabled())
		assert.NotNil(t, mp.Meter(MeterName))
		assert.NoError(t, mp.Shutdown(ctx))
	})

	t.Run("logs", func(t *testing.T) {
		lp, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false}, nil)
		require.NoError(t, err)
		assert.False(t, lp.IsEnabled())
		assert.NoError(t, lp.Shutdown(ctx))

		core := NewZapOTELCore(lp, "jhk-storefront", zapcore.InfoLevel)
		assert.False(t, core.Enabled(zapcore.ErrorLevel))
	})

	t.Run("profiler", func(t *testing.T) {
		p, err := NewProfiler(ProfilerConfig{Enabled: false}, nil)
		require.NoError(t, err)
		assert.False(t, p.IsEnabled())
		assert.NoError(t, p.Stop())
		assert.NoError(t, p.Stop())
	})
}

func TestNewProfiler_Validation(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "jhk"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://pyroscope:4040"}, zap.NewNop())
	assert.Error(t, err)
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestStartServiceSpan(t *testing.T) {
	rec := withRecorder(t)

	ctx, span := StartServiceSpan(context.Background(), "checkout", "begin",
		SpanAttrOrderNumber, "100000001",
		SpanAttrAmount, 950000,
		42, "skipped",
		"dangling",
	)
	assert.NotEmpty(t, TraceID(ctx))
	SetAttributes(span, SpanAttrGateway, "simulated")
	RecordError(span, errors.New("gateway down"))
	RecordError(span, nil)
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "checkout.begin", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)

	attrs := attrMap(ended[0].Attributes())
	assert.Equal(t, "100000001", attrs[SpanAttrOrderNumber].AsString())
	assert.Equal(t, int64(950000), attrs[SpanAttrAmount].AsInt64())
	assert.Equal(t, "simulated", attrs[SpanAttrGateway].AsString())
	assert.Len(t, attrs, 3)
}

func TestTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(&levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel})

	logger.Info("cart opened")
	logger.With(zap.String("session", "abc")).Warn("snapshot write failed")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "snapshot write failed", entry.Message)
	assert.Equal(t, "abc", entry.ContextMap()["session"])
}

type tracedRow struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func openTracedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestRegisterDBTracing(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		db := openTracedDB(t)
		assert.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: false}, nil))
	})

	t.Run("enabled records spans", func(t *testing.T) {
		rec := withRecorder(t)
		db := openTracedDB(t)

		require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: true, DBSystem: "sqlite"}, zap.NewNop()))
		require.NoError(t, db.WithContext(context.Background()).Create(&tracedRow{Name: "sofa"}).Error)

		assert.NotEmpty(t, rec.Ended())
	})
}

func TestMarkSlowQuery(t *testing.T) {
	rec := withRecorder(t)
	db := openTracedDB(t)

	ctx, span := otel.Tracer("test").Start(context.Background(), "query")
	ctx = context.WithValue(ctx, queryStartKey{}, time.Now().Add(-time.Second))

	tx := db.WithContext(ctx)
	tx.Statement.Table = "cart_snapshots"
	tx.Error = errors.New("disk I/O error")
	markSlowQuery(tx, 10*time.Millisecond)
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	attrs := attrMap(ended[0].Attributes())
	assert.Equal(t, "cart_snapshots", attrs["db.sql.table"].AsString())
	assert.True(t, attrs["db.slow_query"].AsBool())
	assert.GreaterOrEqual(t, attrs["db.query_duration_ms"].AsInt64(), int64(1000))
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}
