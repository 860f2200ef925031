package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := Tracer
	Tracer = tp.Tracer("observability-test")
	t.Cleanup(func() {
		Tracer = prev
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func hasException(s sdktrace.ReadOnlySpan) bool {
	for _, ev := range s.Events() {
		if ev.Name == "exception" {
			return true
		}
	}
	return false
}

func TestRepoLogger_LogErrorRecordsOnSpan(t *testing.T) {
	sr := useRecorder(t)

	ctx, span := GetTraceLayer().TraceRepositoryMethod(context.Background(), "List", "splits")
	NewRepoLogger("splits").LogError(ctx, errors.New("connection reset"), "list")
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "repository.List", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("db.table", "splits"))
	assert.True(t, hasException(ended[0]))
}

func TestRepoLogger_LogErrorIgnoresNil(t *testing.T) {
	sr := useRecorder(t)

	ctx, span := GetTraceLayer().TraceRepositoryMethod(context.Background(), "Create", "comments")
	NewRepoLogger("comments").LogError(ctx, nil, "create")
	span.End()

	require.Len(t, sr.Ended(), 1)
	assert.False(t, hasException(sr.Ended()[0]))
}

func TestAddTraceAttributesToContext(t *testing.T) {
	sr := useRecorder(t)

	span, ctx := NewSpan(context.Background(), "http.request", WithSpanKind(SpanKindServer))
	AddTraceAttributesToContext(ctx, attribute.Int64("user.id", 42))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Contains(t, ended[0].Attributes(), attribute.Int64("user.id", 42))
}

func TestSpan_SetError(t *testing.T) {
	sr := useRecorder(t)

	span, _ := NewSpan(context.Background(), "splits.upload")
	assert.NotEmpty(t, span.TraceID())
	assert.NotEmpty(t, span.SpanID())
	span.SetError(errors.New("encode failed"))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.True(t, hasException(ended[0]))
}

func TestContextHelpersWithoutSpan(t *testing.T) {
	// No span in the context: both helpers must be no-ops.
	AddTraceAttributesToContext(context.Background(), attribute.String("k", "v"))
	RecordErrorInContext(context.Background(), errors.New("x"))
}
