package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"connect_evaluation_lambda/pkg/dispatcher"
	"connect_evaluation_lambda/pkg/instrumentation"
)

type connectHandler func(context.Context, events.ConnectEvent) (dispatcher.Result, error)

// newHandler never returns an error to the Lambda runtime; the contact flow
// branches on the status code in the result instead.
func newHandler(evaluationDispatcher *dispatcher.Dispatcher) connectHandler {
	return func(currentContext context.Context, event events.ConnectEvent) (result dispatcher.Result, err error) {
		lambdaSpan := oteltrace.SpanFromContext(currentContext)
		instrumentation.AddConnectEventAttributesToSpan(lambdaSpan, event)
		setSpanAttributesFromStringMap(lambdaSpan, "app.connect.parameters", event.Details.Parameters)
		setSpanAttributesFromStringMap(lambdaSpan, "app.connect.attributes", event.Details.ContactData.Attributes)

		contactId := event.Details.ContactData.ContactID
		if contactId != "" {
			withBaggage, baggageErr := instrumentation.SetContactIdInBaggage(currentContext, contactId)
			if baggageErr != nil {
				lambdaSpan.RecordError(baggageErr, oteltrace.WithAttributes(attribute.String("error.message", "failed at setting contact id in baggage")))
			} else {
				currentContext = withBaggage
			}
		}

		recovered := instrumentation.RunCatchingPanic(lambdaSpan, func() {
			result = evaluationDispatcher.Dispatch(currentContext, contactId)
		})
		if recovered != nil {
			result = dispatcher.Panicked(recovered.AsError(), recovered.Stack)
		}

		lambdaSpan.SetAttributes(
			attribute.Int("app.result.status_code", result.StatusCode),
			attribute.String("app.result.outcome", string(result.Outcome)),
		)
		return result, nil
	}
}
