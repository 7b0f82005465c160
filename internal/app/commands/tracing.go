// internal/app/commands/tracing.go
package commands

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domainErr "github.com/Alexandr1st/libratio-abfcdf53-sub000/internal/domain/errors"
)

var tracer = otel.Tracer("commands")

// endSpan records err on the span and closes it. Expected outcomes such as a
// deny still mark the span, tagged with their kind.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(domainErr.KindOf(err)))
	}
	span.End()
}
