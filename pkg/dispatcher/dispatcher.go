// Package dispatcher waits for an Amazon Connect contact to end and then files
// a contact evaluation against it: start the evaluation, then submit the
// configured answers.
package dispatcher

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/connect"
	"github.com/aws/aws-sdk-go-v2/service/connect/types"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"connect_evaluation_lambda/pkg/ledger"
)

var (
	ErrMissingContactId    = errors.New("event is missing Details.ContactData.ContactId")
	ErrMissingEvaluationId = errors.New("contact center response is missing an evaluation id")
)

var tracer = otel.Tracer("connect-evaluation/dispatcher")

// clientTokenNamespace scopes the idempotency tokens sent with StartContactEvaluation.
var clientTokenNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("connect-evaluation-dispatcher"))

type Dispatcher struct {
	config        Config
	contactCenter ContactCenter
	ledger        Ledger
	sleep         SleepFunc
}

type Option func(*Dispatcher)

// WithLedger lets the dispatcher resume an evaluation that an earlier
// invocation started but did not submit.
func WithLedger(evaluationLedger Ledger) Option {
	return func(d *Dispatcher) { d.ledger = evaluationLedger }
}

func WithSleep(sleep SleepFunc) Option {
	return func(d *Dispatcher) { d.sleep = sleep }
}

func New(contactCenter ContactCenter, config Config, opts ...Option) (*Dispatcher, error) {
	config = config.withDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	d := &Dispatcher{config: config, contactCenter: contactCenter, sleep: sleepWithContext}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Dispatcher) Config() Config {
	return d.config
}

// Dispatch never returns an error: every failure is described by the Result.
func (d *Dispatcher) Dispatch(currentContext context.Context, contactId string) Result {
	currentContext, span := tracer.Start(currentContext, "dispatch contact evaluation")
	defer span.End()
	span.SetAttributes(
		attribute.String("app.contact_id", contactId),
		attribute.String("app.connect.instance_id", d.config.InstanceId),
		attribute.String("app.connect.evaluation_form_id", d.config.EvaluationFormId),
	)

	result := d.dispatch(currentContext, contactId)

	span.SetAttributes(
		attribute.Int("app.result.status_code", result.StatusCode),
		attribute.String("app.result.outcome", string(result.Outcome)),
		attribute.String("app.evaluation_id", result.EvaluationId),
	)
	if result.StatusCode >= 500 {
		span.SetStatus(codes.Error, result.Error)
	}
	return result
}

func (d *Dispatcher) dispatch(currentContext context.Context, contactId string) Result {
	if strings.TrimSpace(contactId) == "" {
		log.Printf("Error: %v\n", ErrMissingContactId)
		return InvalidEvent(ErrMissingContactId)
	}

	var evaluationId string
	if entry := d.lookupLedger(currentContext, contactId); entry != nil {
		switch entry.Status {
		case ledger.StatusSubmitted:
			log.Printf("Evaluation %s for contact %s was already submitted\n", entry.EvaluationId, contactId)
			return Success(entry.EvaluationId)
		case ledger.StatusStarted:
			log.Printf("Resuming evaluation %s for contact %s\n", entry.EvaluationId, contactId)
			evaluationId = entry.EvaluationId
		}
	}

	if evaluationId == "" {
		log.Printf("Waiting for contact to end: %s\n", contactId)
		waited, err := d.waitForContactEnd(currentContext, contactId)
		if err != nil {
			log.Printf("Error: %v\n", err)
			return LookupFailed(err)
		}
		if !waited.ended {
			log.Printf("Contact %s did not end within %s (%d polls)\n", contactId, d.config.MaxWaitTime, waited.polls)
			return Timeout()
		}

		evaluationId, err = d.startEvaluation(currentContext, contactId)
		if err != nil {
			log.Printf("Error: %v\n", err)
			return CreateFailed(err)
		}
		log.Printf("Evaluation started: %s\n", evaluationId)
		d.recordLedger(currentContext, ledger.StatusStarted, contactId, evaluationId)
	}

	submittedId, err := d.submitEvaluation(currentContext, evaluationId)
	if err != nil {
		log.Printf("Error submitting evaluation %s: %v\n", evaluationId, err)
		return SubmitFailed(evaluationId, err)
	}
	log.Printf("Evaluation submitted: %s\n", submittedId)
	d.recordLedger(currentContext, ledger.StatusSubmitted, contactId, evaluationId)

	return Success(submittedId)
}

func (d *Dispatcher) clientToken(contactId string) string {
	name := d.config.InstanceId + "/" + contactId + "/" + d.config.EvaluationFormId
	return uuid.NewSHA1(clientTokenNamespace, []byte(name)).String()
}

func (d *Dispatcher) startEvaluation(currentContext context.Context, contactId string) (string, error) {
	currentContext, span := tracer.Start(currentContext, "start contact evaluation")
	defer span.End()
	clientToken := d.clientToken(contactId)
	span.SetAttributes(attribute.String("app.connect.client_token", clientToken))

	startResponse, err := d.contactCenter.StartContactEvaluation(currentContext, &connect.StartContactEvaluationInput{
		InstanceId:       aws.String(d.config.InstanceId),
		ContactId:        aws.String(contactId),
		EvaluationFormId: aws.String(d.config.EvaluationFormId),
		ClientToken:      aws.String(clientToken),
	})
	if err == nil && (startResponse == nil || aws.ToString(startResponse.EvaluationId) == "") {
		err = ErrMissingEvaluationId
	}
	if err != nil {
		recordFailure(span, "Failure starting contact evaluation", err)
		return "", err
	}

	evaluationId := aws.ToString(startResponse.EvaluationId)
	span.SetAttributes(attribute.String("app.evaluation_id", evaluationId),
		attribute.String("app.evaluation_arn", aws.ToString(startResponse.EvaluationArn)))
	return evaluationId, nil
}

func (d *Dispatcher) submitEvaluation(currentContext context.Context, evaluationId string) (string, error) {
	currentContext, span := tracer.Start(currentContext, "submit contact evaluation")
	defer span.End()
	span.SetAttributes(attribute.String("app.evaluation_id", evaluationId),
		attribute.StringSlice("app.evaluation.question_ref_ids", d.config.Answers.QuestionRefIds()))

	input := &connect.SubmitContactEvaluationInput{
		InstanceId:   aws.String(d.config.InstanceId),
		EvaluationId: aws.String(evaluationId),
		Answers:      d.config.Answers.ConnectAnswers(),
		Notes:        d.config.Answers.ConnectNotes(),
		SubmittedBy:  &types.EvaluatorUserUnionMemberConnectUserArn{Value: d.config.SubmitterArn},
	}

	submitResponse, err := d.contactCenter.SubmitContactEvaluation(currentContext, input)
	if err == nil && (submitResponse == nil || aws.ToString(submitResponse.EvaluationId) == "") {
		err = ErrMissingEvaluationId
	}
	if err != nil {
		recordFailure(span, "Failure submitting contact evaluation", err)
		return "", err
	}
	return aws.ToString(submitResponse.EvaluationId), nil
}

func (d *Dispatcher) lookupLedger(currentContext context.Context, contactId string) *ledger.Entry {
	if d.ledger == nil {
		return nil
	}
	entry, err := d.ledger.Lookup(currentContext, contactId)
	if err != nil {
		// carry on as if nothing was recorded; the client token still guards creation
		trace.SpanFromContext(currentContext).RecordError(err, trace.WithAttributes(attribute.String("error.message", "Failure reading evaluation ledger")))
		return nil
	}
	return entry
}

// recordLedger never fails the dispatch: the evaluation in Connect is what counts.
func (d *Dispatcher) recordLedger(currentContext context.Context, status ledger.Status, contactId string, evaluationId string) {
	if d.ledger == nil {
		return
	}
	var err error
	switch status {
	case ledger.StatusStarted:
		err = d.ledger.RecordStarted(currentContext, contactId, evaluationId)
	case ledger.StatusSubmitted:
		err = d.ledger.RecordSubmitted(currentContext, contactId, evaluationId)
	}
	if err != nil {
		log.Printf("Couldn't record %s evaluation %s for %s. Here's why: %v\n", status, evaluationId, contactId, err)
		trace.SpanFromContext(currentContext).RecordError(err, trace.WithAttributes(
			attribute.String("error.message", "Failure writing evaluation ledger"),
			attribute.String("app.ledger.status", string(status))))
	}
}

func recordFailure(span trace.Span, message string, err error) {
	span.RecordError(err, trace.WithAttributes(attribute.String("error.message", message)))
	span.SetAttributes(attribute.String("error.message", message))
	span.SetStatus(codes.Error, err.Error())
}
