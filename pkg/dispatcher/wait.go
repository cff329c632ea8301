package dispatcher

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/connect"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type waitOutcome struct {
	ended          bool
	polls          int
	disconnectedAt time.Time
}

// waitForContactEnd sleeps one interval before every status query and stops
// once MaxWaitTime worth of intervals have gone by. It never queries twice in
// one interval.
func (d *Dispatcher) waitForContactEnd(currentContext context.Context, contactId string) (outcome waitOutcome, err error) {
	currentContext, span := tracer.Start(currentContext, "wait for contact to end")
	defer span.End()
	span.SetAttributes(
		attribute.String("app.contact_id", contactId),
		attribute.Int64("app.poll.interval_ms", d.config.PollInterval.Milliseconds()),
		attribute.Int64("app.poll.max_wait_ms", d.config.MaxWaitTime.Milliseconds()),
	)
	defer func() {
		span.SetAttributes(attribute.Int("app.poll.count", outcome.polls), attribute.Bool("app.poll.ended", outcome.ended))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	var elapsed time.Duration
	for elapsed < d.config.MaxWaitTime {
		if err = d.sleep(currentContext, d.config.PollInterval); err != nil {
			return outcome, err
		}
		elapsed += d.config.PollInterval

		outcome.polls++
		var disconnectedAt *time.Time
		disconnectedAt, err = d.describeContact(currentContext, contactId, outcome.polls)
		if err != nil {
			return outcome, err
		}
		if disconnectedAt != nil {
			outcome.ended = true
			outcome.disconnectedAt = *disconnectedAt
			log.Printf("Contact %s ended at %s\n", contactId, disconnectedAt.Format(time.RFC3339))
			if err = d.sleep(currentContext, d.config.SettleDelay); err != nil {
				return outcome, err
			}
			return outcome, nil
		}
	}
	return outcome, nil
}

// describeContact returns the disconnect timestamp, or nil while the contact
// is still going.
func (d *Dispatcher) describeContact(currentContext context.Context, contactId string, poll int) (*time.Time, error) {
	currentContext, span := tracer.Start(currentContext, "describe contact")
	defer span.End()
	span.SetAttributes(attribute.Int("app.poll.number", poll))

	contactInfo, err := d.contactCenter.DescribeContact(currentContext, &connect.DescribeContactInput{
		InstanceId: aws.String(d.config.InstanceId),
		ContactId:  aws.String(contactId),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failure describing contact")
		return nil, err
	}
	if contactInfo == nil || contactInfo.Contact == nil || contactInfo.Contact.DisconnectTimestamp == nil {
		return nil, nil
	}
	span.SetAttributes(attribute.String("app.contact.disconnect_timestamp", contactInfo.Contact.DisconnectTimestamp.Format(time.RFC3339)))
	return contactInfo.Contact.DisconnectTimestamp, nil
}
