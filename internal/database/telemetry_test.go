package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func TestTracedDB_ExecRecordsSpan(t *testing.T) {
	recorder := withRecorder(t)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM odds WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	db := NewTracedDB(mock)
	tag, err := db.Exec(context.Background(), "DELETE FROM odds WHERE id = $1", int64(7))
	require.NoError(t, err)
	assert.Equal(t, int64(1), tag.RowsAffected())

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.exec", spans[0].Name())

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "postgresql", attrs["db.system"])
	assert.Equal(t, "DELETE", attrs["db.operation"])
	assert.Equal(t, "DELETE FROM odds WHERE id = $1", attrs["db.statement"])
	assert.Equal(t, "1", attrs["db.rows_affected"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTracedDB_QueryErrorMarksSpan(t *testing.T) {
	recorder := withRecorder(t)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("connection reset"))

	_, err = NewTracedDB(mock).Query(context.Background(), "SELECT 1")
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "connection reset", spans[0].Status().Description)
}

func TestTracedDB_TransactionSpans(t *testing.T) {
	recorder := withRecorder(t)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE odds").WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := NewTracedDB(mock).Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, "UPDATE odds SET odds_decimal = 2")
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"db.begin", "db.tx.exec", "db.tx.commit"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOperation(t *testing.T) {
	assert.Equal(t, "SELECT", operation("  select * from odds"))
	assert.Equal(t, "", operation(""))
	assert.Equal(t, "A B C", compactSQL("A\n\tB   C "))
}
