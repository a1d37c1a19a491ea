package database

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/celebrum-odds/internal/telemetry"
)

// TracedDB wraps a DatabasePool and records a span per statement.
type TracedDB struct {
	pool   DatabasePool
	tracer trace.Tracer
}

// NewTracedDB wraps pool using the global tracer provider.
func NewTracedDB(pool DatabasePool) *TracedDB {
	return &TracedDB{
		pool:   pool,
		tracer: telemetry.GetDatabaseTracer(),
	}
}

// Query executes a query that returns rows.
func (db *TracedDB) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span := db.start(ctx, "db.query", sql)
	defer span.End()

	rows, err := db.pool.Query(ctx, sql, args...)
	RecordDatabaseError(span, err)
	return rows, err
}

// QueryRow executes a query that is expected to return at most one row.
func (db *TracedDB) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	ctx, span := db.start(ctx, "db.query_row", sql)
	defer span.End()

	return db.pool.QueryRow(ctx, sql, args...)
}

// Exec executes a statement without returning rows.
func (db *TracedDB) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ctx, span := db.start(ctx, "db.exec", sql)
	defer span.End()

	tag, err := db.pool.Exec(ctx, sql, args...)
	RecordDatabaseError(span, err)
	if err == nil {
		span.SetAttributes(attribute.Int64("db.rows_affected", tag.RowsAffected()))
	}
	return tag, err
}

// Begin starts a transaction whose statements are traced as well.
func (db *TracedDB) Begin(ctx context.Context) (pgx.Tx, error) {
	ctx, span := db.start(ctx, "db.begin", "")
	defer span.End()

	tx, err := db.pool.Begin(ctx)
	RecordDatabaseError(span, err)
	if err != nil {
		return nil, err
	}
	return &TracedTx{Tx: tx, tracer: db.tracer}, nil
}

func (db *TracedDB) start(ctx context.Context, name, sql string) (context.Context, trace.Span) {
	return startSpan(ctx, db.tracer, name, sql)
}

// TracedTx wraps a transaction; methods not overridden pass straight through.
type TracedTx struct {
	pgx.Tx
	tracer trace.Tracer
}

// Exec executes a statement within the transaction.
func (tx *TracedTx) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ctx, span := startSpan(ctx, tx.tracer, "db.tx.exec", sql)
	defer span.End()

	tag, err := tx.Tx.Exec(ctx, sql, args...)
	RecordDatabaseError(span, err)
	return tag, err
}

// Query executes a query within the transaction.
func (tx *TracedTx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span := startSpan(ctx, tx.tracer, "db.tx.query", sql)
	defer span.End()

	rows, err := tx.Tx.Query(ctx, sql, args...)
	RecordDatabaseError(span, err)
	return rows, err
}

// Commit commits the transaction.
func (tx *TracedTx) Commit(ctx context.Context) error {
	_, span := startSpan(ctx, tx.tracer, "db.tx.commit", "")
	defer span.End()

	err := tx.Tx.Commit(ctx)
	RecordDatabaseError(span, err)
	return err
}

func startSpan(ctx context.Context, tracer trace.Tracer, name, sql string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("db.system", "postgresql")}
	if sql != "" {
		attrs = append(attrs,
			attribute.String("db.statement", compactSQL(sql)),
			attribute.String("db.operation", operation(sql)),
		)
	}
	return tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}

// RecordDatabaseError marks span as failed when err is set. pgx.ErrNoRows is
// an expected outcome and is not recorded.
func RecordDatabaseError(span trace.Span, err error) {
	if err == nil || err == pgx.ErrNoRows {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func compactSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

func operation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}
