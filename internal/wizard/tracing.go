package wizard

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petrijr/stepform/pkg/api"
)

// tracerName is the instrumentation scope name used when no tracer is
// configured.
const tracerName = "github.com/petrijr/stepform"

const (
	spanRender = "stepform.render"
	spanSubmit = "stepform.submit"
)

func (c *Controller) startSpan(ctx context.Context, name string, rc api.RequestContext) (context.Context, trace.Span) {
	return c.tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.String("stepform.wizard.id", c.id),
			attribute.String("stepform.parent.id", rc.ParentID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func annotate(span trace.Span, submissionID string, step, total int) {
	span.SetAttributes(
		attribute.String("stepform.submission.id", submissionID),
		attribute.Int("stepform.step", step),
		attribute.Int("stepform.total_steps", total),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
