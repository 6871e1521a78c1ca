package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thehub/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs an in-memory span recorder as the global provider.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	out := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		out[string(a.Key)] = a.Value
	}
	return out
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)
	sessionID := uuid.New()

	_, span := telemetry.StartServiceSpan(context.Background(), "session", "settle",
		telemetry.WithAttribute(telemetry.SpanAttrSessionID, sessionID),
		telemetry.WithAttribute(telemetry.SpanAttrMemberCount, 3),
		telemetry.WithSpanKind(trace.SpanKindServer),
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "session.settle", spans[0].Name())
	assert.Equal(t, trace.SpanKindServer, spans[0].SpanKind())

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, sessionID.String(), attrs[telemetry.SpanAttrSessionID].AsString())
	assert.Equal(t, int64(3), attrs[telemetry.SpanAttrMemberCount].AsInt64())
}

func TestSetAttributesAndEvents(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "wallet.credit")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrAmount, 12.5,
		"confirmed", true,
		42, "non-string key is skipped",
		"dangling",
	)
	telemetry.AddEvent(span, "ledger_written", "type", "CREDIT")
	span.End()

	recorded := sr.Ended()[0]
	attrs := attrMap(recorded.Attributes())
	assert.Len(t, attrs, 2)
	assert.Equal(t, 12.5, attrs[telemetry.SpanAttrAmount].AsFloat64())
	assert.True(t, attrs["confirmed"].AsBool())

	require.Len(t, recorded.Events(), 1)
	assert.Equal(t, "ledger_written", recorded.Events()[0].Name)
}

func TestEndSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, ok := telemetry.StartSpan(context.Background(), "ok")
	telemetry.EndSpan(ok, nil)
	_, failed := telemetry.StartSpan(context.Background(), "failed")
	telemetry.EndSpan(failed, errors.New("insufficient balance"))

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "insufficient balance", spans[1].Status().Description)
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "exception", spans[1].Events()[0].Name)
}

func TestNilSpanHelpers(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "k", "v")
		telemetry.AddEvent(nil, "e")
		telemetry.RecordError(nil, errors.New("x"))
		telemetry.EndSpan(nil, nil)
	})
}

func TestTraceAndSpanIDs(t *testing.T) {
	setupTestTracer(t)

	assert.Empty(t, telemetry.GetTraceID(context.Background()))
	assert.Empty(t, telemetry.GetSpanID(context.Background()))

	ctx, span := telemetry.StartSpan(context.Background(), "ids")
	defer span.End()
	assert.Equal(t, span.SpanContext().TraceID().String(), telemetry.GetTraceID(ctx))
	assert.Equal(t, span.SpanContext().SpanID().String(), telemetry.GetSpanID(ctx))
}
