package instrumentation

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

var TracerProvider *sdktrace.TracerProvider

func CreateTracerProvider(currentContext context.Context, serviceName string) *sdktrace.TracerProvider {
	resource, _ := resource.Merge(resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("0.0.1"),
		))

	httpExporter, _ := otlptracehttp.New(currentContext)

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(httpExporter),
		sdktrace.WithSpanProcessor(NewContactIdProcessor()),
		sdktrace.WithResource(resource))

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetTracerProvider(tracerProvider)

	TracerProvider = tracerProvider
	return tracerProvider
}

// NewTracedHttpClient is handed to the AWS SDK so every Connect and DynamoDB
// request shows up as a client span.
func NewTracedHttpClient() *http.Client {
	return &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func AddConnectEventAttributesToSpan(span trace.Span, event events.ConnectEvent) {
	contactData := event.Details.ContactData
	span.SetAttributes(
		attribute.String("app.connect.name", event.Name),
		attribute.String(CONTACT_ID_ATTRIBUTE_KEY, contactData.ContactID),
		attribute.String("app.connect.initial_contact_id", contactData.InitialContactID),
		attribute.String("app.connect.previous_contact_id", contactData.PreviousContactID),
		attribute.String("app.connect.channel", contactData.Channel),
		attribute.String("app.connect.initiation_method", contactData.InitiationMethod),
		attribute.String("app.connect.instance_arn", contactData.InstanceARN),
	)
}
