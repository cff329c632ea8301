package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingProvider() (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewContactIdProcessor()),
		sdktrace.WithSpanProcessor(recorder),
	)
	return provider, recorder
}

func attributeValue(attributes []attribute.KeyValue, key string) (string, bool) {
	for _, kv := range attributes {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func TestContactIdFromBaggageLandsOnChildSpans(t *testing.T) {
	provider, recorder := newRecordingProvider()
	ctx, err := SetContactIdInBaggage(context.Background(), "contact-1")
	if err != nil {
		t.Fatal(err)
	}

	ctx, parent := provider.Tracer("test").Start(ctx, "parent")
	_, child := provider.Tracer("test").Start(ctx, "child")
	child.End()
	parent.End()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	for _, span := range spans {
		if got, _ := attributeValue(span.Attributes(), CONTACT_ID_ATTRIBUTE_KEY); got != "contact-1" {
			t.Fatalf("span %s: expected contact id, got %q", span.Name(), got)
		}
	}
}

func TestSpansWithoutBaggageAreLeftAlone(t *testing.T) {
	provider, recorder := newRecordingProvider()
	_, span := provider.Tracer("test").Start(context.Background(), "plain")
	span.End()

	if _, found := attributeValue(recorder.Ended()[0].Attributes(), CONTACT_ID_ATTRIBUTE_KEY); found {
		t.Fatalf("no contact id expected without baggage")
	}
}

func TestConnectEventAttributes(t *testing.T) {
	provider, recorder := newRecordingProvider()
	_, span := provider.Tracer("test").Start(context.Background(), "event")
	event := events.ConnectEvent{Name: "ContactFlowEvent"}
	event.Details.ContactData.ContactID = "contact-1"
	event.Details.ContactData.Channel = "VOICE"

	AddConnectEventAttributesToSpan(span, event)
	span.End()

	attributes := recorder.Ended()[0].Attributes()
	if got, _ := attributeValue(attributes, "app.connect.channel"); got != "VOICE" {
		t.Fatalf("expected channel, got %q", got)
	}
	if got, _ := attributeValue(attributes, CONTACT_ID_ATTRIBUTE_KEY); got != "contact-1" {
		t.Fatalf("expected contact id, got %q", got)
	}
}

func TestRunCatchingPanicRecordsOnSpan(t *testing.T) {
	provider, recorder := newRecordingProvider()
	_, span := provider.Tracer("test").Start(context.Background(), "handler")

	recovered := RunCatchingPanic(span, func() { panic(errors.New("kaboom")) })
	span.End()

	if recovered == nil {
		t.Fatalf("expected a recovered panic")
	}
	if len(recovered.Stack) == 0 {
		t.Fatalf("recovered panic should carry a stack")
	}
	ended := recorder.Ended()[0]
	if ended.Status().Code != codes.Error {
		t.Fatalf("span should be marked as error")
	}
	if got, _ := attributeValue(ended.Attributes(), "error.type"); got != "legit (error)" {
		t.Fatalf("unexpected error.type %q", got)
	}
}

func TestRunCatchingPanicReturnsNilWhenNothingPanics(t *testing.T) {
	provider, _ := newRecordingProvider()
	_, span := provider.Tracer("test").Start(context.Background(), "handler")
	defer span.End()

	ran := false
	if recovered := RunCatchingPanic(span, func() { ran = true }); recovered != nil || !ran {
		t.Fatalf("expected f to run without panic, got %v", recovered)
	}
}
