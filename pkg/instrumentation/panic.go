package instrumentation

import (
	"fmt"

	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// RunCatchingPanic runs f and reports a panic on the span instead of letting
// it take down the invocation. It returns nil when f returned normally.
func RunCatchingPanic(span oteltrace.Span, f func()) *panics.Recovered {
	var catcher panics.Catcher
	catcher.Try(f)
	recovered := catcher.Recovered()
	if recovered == nil {
		return nil
	}

	span.SetStatus(codes.Error, "Panic caught")
	span.RecordError(recovered.AsError())
	fmt.Printf("%s", recovered.Stack)
	_, isError := recovered.Value.(error)
	errorType := "some panic that is not (error)"
	if isError {
		errorType = "legit (error)"
	}
	span.SetAttributes(attribute.String("error.stack", string(recovered.Stack)),
		attribute.String("error.type", errorType))
	return recovered
}
