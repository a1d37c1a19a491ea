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
)

func recordingTracer(t *testing.T) (*BusinessTracer, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return NewBusinessTracer(), recorder
}

func attrMap(kvs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestNewBusinessTracer(t *testing.T) {
	bt := NewBusinessTracer()
	require.NotNil(t, bt)
	require.NotNil(t, bt.tracer)
}

func TestBusinessTracer_DetectionPass(t *testing.T) {
	bt, recorder := recordingTracer(t)

	_, span := bt.TraceDetectionPass(context.Background(), []string{"nba"}, []string{"h2h", "totals"})
	bt.RecordDetectionPass(span, DetectionMetrics{
		Rows:              120,
		Snapshots:         30,
		Opportunities:     2,
		Rejected:          1,
		BestMarginPercent: 3.73,
		Duration:          1500 * time.Millisecond,
	})
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "arbitrage.detection_pass", spans[0].Name())

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, []string{"nba"}, attrs["arbitrage.leagues"].AsStringSlice())
	assert.Equal(t, int64(30), attrs["arbitrage.snapshots"].AsInt64())
	assert.Equal(t, int64(2), attrs["arbitrage.opportunities"].AsInt64())
	assert.Equal(t, int64(1500), attrs["arbitrage.duration_ms"].AsInt64())
	assert.Equal(t, 3.73, attrs["arbitrage.best_margin_percent"].AsFloat64())
}

func TestBusinessTracer_OddsCollection(t *testing.T) {
	bt, recorder := recordingTracer(t)

	_, span := bt.TraceOddsCollection(context.Background(), "basketball_nba")
	bt.RecordCollectionMetrics(span, CollectionMetrics{Events: 8, Rows: 412, QuotaRemaining: 480})
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "basketball_nba", attrs["odds.sport"].AsString())
	assert.Equal(t, int64(412), attrs["odds.rows"].AsInt64())
	assert.Equal(t, int64(480), attrs["odds.quota_remaining"].AsInt64())
}

func TestBusinessTracer_NotificationResult(t *testing.T) {
	bt, recorder := recordingTracer(t)

	_, ok := bt.TraceNotification(context.Background(), "arbitrage", "telegram")
	bt.RecordNotificationResult(ok, 3, nil)
	ok.End()

	_, failed := bt.TraceNotification(context.Background(), "arbitrage", "telegram")
	bt.RecordNotificationResult(failed, 0, errors.New("chat not found"))
	failed.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "chat not found", spans[1].Status().Description)
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "exception", spans[1].Events()[0].Name)
}
