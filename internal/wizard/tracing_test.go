package wizard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/petrijr/stepform/internal/catalog"
	"github.com/petrijr/stepform/pkg/api"
)

func withRecorder(sr *tracetest.SpanRecorder) func(*Config) {
	return func(cfg *Config) {
		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
		cfg.Tracer = tp.Tracer("test")
	}
}

func attrMap(attrs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func TestTracing_RenderSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	f := newFixture(t, withRecorder(sr))

	_, err := f.c.Render(context.Background(), api.RequestContext{ParentID: "p"})
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, spanRender, spans[0].Name())
	require.Equal(t, codes.Ok, spans[0].Status().Code)

	attrs := attrMap(spans[0].Attributes())
	require.Equal(t, "contact", attrs["stepform.wizard.id"])
	require.Equal(t, "p", attrs["stepform.parent.id"])
	require.Equal(t, api.NewSubmissionID, attrs["stepform.submission.id"])
	require.Equal(t, int64(1), attrs["stepform.step"])
	require.Equal(t, int64(3), attrs["stepform.total_steps"])
}

func TestTracing_SubmitSpanRecordsError(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	f := newFixture(t, withRecorder(sr), func(cfg *Config) {
		cfg.Catalog = catalog.NewStatic("contact")
	})

	_, err := f.c.HandleSubmit(context.Background(), "42", api.RequestContext{PostedWizardID: "contact"})
	require.Error(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, spanSubmit, spans[0].Name())
	require.Equal(t, codes.Error, spans[0].Status().Code)
	require.NotEmpty(t, spans[0].Events())
}
