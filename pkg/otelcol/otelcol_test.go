package otelcol

import (
	"context"
	"testing"

	"incentiva-engine/pkg/config"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestProvideTraceRecordsRealSpans(t *testing.T) {
	cfg := &config.Config{AppName: "incentiva-engine", AppEnv: "test"}

	exporter := tracetest.NewInMemoryExporter()
	tp := ProvideTrace(cfg, exporter)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("settlement").Start(context.Background(), "apply-outcome")

	// The span in the context is the one the services read their trace_id
	// from; it must carry a real, non-zero trace ID.
	fromCtx := trace.SpanFromContext(ctx)
	require.True(t, fromCtx.SpanContext().TraceID().IsValid())
	require.Equal(t, span.SpanContext().TraceID(), fromCtx.SpanContext().TraceID())

	span.End()
	require.NoError(t, tp.ForceFlush(context.Background()))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Equal(t, "apply-outcome", spans[0].Name)
}
