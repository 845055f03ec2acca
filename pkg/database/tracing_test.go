package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func spanAttrs(span tracetest.SpanStub) map[string]string {
	attrs := make(map[string]string, len(span.Attributes))
	for _, a := range span.Attributes {
		attrs[string(a.Key)] = a.Value.Emit()
	}
	return attrs
}

func TestTraceQuery_Success(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceQuery(context.Background(), "GetReminder", "SELECT id FROM reminders WHERE id = $1 AND user_id = $2")
	end(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "db.GetReminder", span.Name)
	assert.Equal(t, codes.Unset, span.Status.Code)

	attrs := spanAttrs(span)
	assert.Equal(t, "postgresql", attrs["db.system"])
	assert.Equal(t, "GetReminder", attrs["db.operation"])
	assert.Contains(t, attrs["db.statement"], "user_id = $2")
}

func TestTraceQuery_Error(t *testing.T) {
	exporter := setupTestTracer(t)

	_, end := TraceQuery(context.Background(), "UpdateReminder", "UPDATE reminders SET title = $1")
	end(errors.New("connection refused"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.NotEmpty(t, spans[0].Events, "error should be recorded as a span event")
}

func TestTraceQuery_ChildOfParentSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	ctx, parent := otel.Tracer("test").Start(context.Background(), "parent")
	_, end := TraceQuery(ctx, "ListReminders", "SELECT 1")
	end(nil)
	parent.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}

func TestSlowQueryLogging(t *testing.T) {
	tests := []struct {
		name      string
		threshold time.Duration
		queryErr  error
		wantLog   bool
	}{
		{"slow query", time.Nanosecond, nil, true},
		{"slow failing query", time.Nanosecond, errors.New("unique constraint violation"), true},
		{"fast query", time.Hour, nil, false},
		{"disabled", 0, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestTracer(t)
			var buf bytes.Buffer
			SetSlowQueryLogging(tt.threshold, slog.New(slog.NewJSONHandler(&buf, nil)))
			t.Cleanup(func() { SetSlowQueryLogging(0, nil) })

			_, end := TraceQuery(context.Background(), "ListUpcoming", "SELECT * FROM reminders")
			end(tt.queryErr)

			if !tt.wantLog {
				assert.Empty(t, buf.String())
				return
			}
			out := buf.String()
			assert.Contains(t, out, "slow query detected")
			assert.Contains(t, out, "ListUpcoming")
			if tt.queryErr != nil {
				assert.Contains(t, out, tt.queryErr.Error())
			}
		})
	}
}

func TestSetSlowQueryLogging_Concurrent(t *testing.T) {
	setupTestTracer(t)
	t.Cleanup(func() { SetSlowQueryLogging(0, nil) })
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			SetSlowQueryLogging(time.Duration(i)*time.Hour, logger)
		}
	}()
	for i := 0; i < 100; i++ {
		_, end := TraceQuery(context.Background(), "Op", "SELECT 1")
		end(nil)
	}
	<-done
}
