package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// BusinessTracer provides utilities for tracing business logic operations.
// It allows detailed tracking of domain-specific activities like odds collection and arbitrage detection.
type BusinessTracer struct {
	tracer trace.Tracer
}

// NewBusinessTracer creates a new instance of BusinessTracer.
//
// Returns:
//   - A pointer to an initialized BusinessTracer.
func NewBusinessTracer() *BusinessTracer {
	return &BusinessTracer{tracer: GetBusinessTracer()}
}

// TraceDetectionPass starts a span covering one arbitrage detection pass.
//
// Parameters:
//   - ctx: The context to attach the span to.
//   - leagues: The leagues included in the pass, empty for all.
//   - markets: The markets included in the pass, empty for all.
//
// Returns:
//   - A context containing the new span.
//   - The created span.
func (bt *BusinessTracer) TraceDetectionPass(ctx context.Context, leagues, markets []string) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "arbitrage.detection_pass", trace.WithAttributes(
		attribute.StringSlice("arbitrage.leagues", leagues),
		attribute.StringSlice("arbitrage.markets", markets),
	))
}

// RecordDetectionPass adds the outcome of a detection pass to a span.
//
// Parameters:
//   - span: The span to update.
//   - metrics: The pass statistics to record.
func (bt *BusinessTracer) RecordDetectionPass(span trace.Span, metrics DetectionMetrics) {
	span.SetAttributes(
		attribute.Int("arbitrage.rows", metrics.Rows),
		attribute.Int("arbitrage.snapshots", metrics.Snapshots),
		attribute.Int("arbitrage.opportunities", metrics.Opportunities),
		attribute.Int("arbitrage.rejected", metrics.Rejected),
		attribute.Float64("arbitrage.best_margin_percent", metrics.BestMarginPercent),
		attribute.Int64("arbitrage.duration_ms", metrics.Duration.Milliseconds()),
	)
}

// TraceOddsCollection starts a span for one sport's odds fetch.
func (bt *BusinessTracer) TraceOddsCollection(ctx context.Context, sportKey string) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "odds.collection", trace.WithAttributes(
		attribute.String("odds.sport", sportKey),
	))
}

// RecordCollectionMetrics records what a collection run fetched and stored.
func (bt *BusinessTracer) RecordCollectionMetrics(span trace.Span, metrics CollectionMetrics) {
	span.SetAttributes(
		attribute.Int("odds.events", metrics.Events),
		attribute.Int("odds.rows", metrics.Rows),
		attribute.Int("odds.failed_sports", metrics.FailedSports),
		attribute.Int("odds.quota_remaining", metrics.QuotaRemaining),
		attribute.Int64("odds.duration_ms", metrics.Duration.Milliseconds()),
	)
}

// TraceNotification starts a span for tracing notification delivery.
//
// Parameters:
//   - ctx: The context to attach the span to.
//   - notificationType: The type of notification being sent.
//   - channel: The delivery channel (e.g., "telegram").
//
// Returns:
//   - A context containing the new span.
//   - The created span.
func (bt *BusinessTracer) TraceNotification(ctx context.Context, notificationType string, channel string) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "notification", trace.WithAttributes(
		attribute.String("notification.type", notificationType),
		attribute.String("notification.channel", channel),
	))
}

// RecordNotificationResult records the outcome of a notification attempt onto a span.
func (bt *BusinessTracer) RecordNotificationResult(span trace.Span, sent int, err error) {
	span.SetAttributes(attribute.Int("notification.sent", sent))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// DetectionMetrics summarizes a detection pass for tracing.
type DetectionMetrics struct {
	Rows              int
	Snapshots         int
	Opportunities     int
	Rejected          int
	BestMarginPercent float64
	Duration          time.Duration
}

// CollectionMetrics summarizes an odds collection run for tracing.
type CollectionMetrics struct {
	Events         int
	Rows           int
	FailedSports   int
	QuotaRemaining int
	Duration       time.Duration
}
