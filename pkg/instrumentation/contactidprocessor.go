package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/sdk/trace"
)

// ContactIdProcessor copies the contact id from baggage onto every span, so the
// SDK client spans can be found by contact as well as the dispatcher's own.
type ContactIdProcessor struct{}

const (
	CONTACT_ID_BAGGAGE_NAME  = "app.connect.contact_id"
	CONTACT_ID_ATTRIBUTE_KEY = "app.contact_id"
)

var _ trace.SpanProcessor = (*ContactIdProcessor)(nil)

func NewContactIdProcessor() trace.SpanProcessor {
	return &ContactIdProcessor{}
}

func (processor ContactIdProcessor) OnStart(ctx context.Context, span trace.ReadWriteSpan) {
	contactId := baggage.FromContext(ctx).Member(CONTACT_ID_BAGGAGE_NAME)
	if contactId.Value() == "" {
		return
	}
	span.SetAttributes(attribute.String(CONTACT_ID_ATTRIBUTE_KEY, contactId.Value()))
}

func (processor ContactIdProcessor) OnEnd(span trace.ReadOnlySpan)    {}
func (processor ContactIdProcessor) Shutdown(context.Context) error   { return nil }
func (processor ContactIdProcessor) ForceFlush(context.Context) error { return nil }

func SetContactIdInBaggage(ctx context.Context, contactId string) (context.Context, error) {
	member, err := baggage.NewMember(CONTACT_ID_BAGGAGE_NAME, contactId)
	if err != nil {
		return ctx, err
	}
	currentBaggage, err := baggage.FromContext(ctx).SetMember(member)
	if err != nil {
		return ctx, err
	}
	return baggage.ContextWithBaggage(ctx, currentBaggage), nil
}
