package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.opentelemetry.io/otel/trace"
)

// remember which evaluation we created for a contact, so a second invocation
// for the same contact finishes that evaluation instead of creating another

type Status string

const (
	StatusStarted   Status = "started"
	StatusSubmitted Status = "submitted"
)

var ErrConflict = errors.New("ledger entry does not match")

type Entry struct {
	ContactId        string    `dynamodbav:"contact_id" json:"contact_id"`
	EvaluationFormId string    `dynamodbav:"evaluation_form_id" json:"evaluation_form_id"`
	EvaluationId     string    `dynamodbav:"evaluation_id" json:"evaluation_id"`
	Status           Status    `dynamodbav:"status" json:"status"`
	TraceId          string    `dynamodbav:"trace_id" json:"trace_id"`
	UpdatedAt        time.Time `dynamodbav:"updated_at" json:"updated_at"`
}

// DynamoDbAPI is the part of *dynamodb.Client the ledger needs.
type DynamoDbAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

type EvaluationLedger struct {
	TableName        string
	EvaluationFormId string
	DynamoDbClient   DynamoDbAPI
	now              func() time.Time
}

func NewEvaluationLedger(tableName string, evaluationFormId string, dynamoDbClient DynamoDbAPI) EvaluationLedger {
	return EvaluationLedger{TableName: tableName, EvaluationFormId: evaluationFormId, DynamoDbClient: dynamoDbClient, now: time.Now}
}

func (table EvaluationLedger) key(contactId string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"contact_id":         &types.AttributeValueMemberS{Value: contactId},
		"evaluation_form_id": &types.AttributeValueMemberS{Value: table.EvaluationFormId},
	}
}

func (table EvaluationLedger) timestamp() time.Time {
	if table.now == nil {
		return time.Now().UTC()
	}
	return table.now().UTC()
}

// Lookup returns nil and no error when nothing was recorded for the contact.
func (table EvaluationLedger) Lookup(currentContext context.Context, contactId string) (*Entry, error) {
	response, err := table.DynamoDbClient.GetItem(currentContext, &dynamodb.GetItemInput{
		Key: table.key(contactId), TableName: aws.String(table.TableName), ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		log.Printf("Couldn't get ledger entry for %v. Here's why: %v\n", contactId, err)
		return nil, err
	}
	if len(response.Item) == 0 {
		return nil, nil
	}
	var entry Entry
	if err = attributevalue.UnmarshalMap(response.Item, &entry); err != nil {
		log.Printf("Couldn't unmarshal ledger entry. Here's why: %v\n", err)
		return nil, err
	}
	return &entry, nil
}

// RecordStarted fails with ErrConflict if the contact already has an entry.
func (table EvaluationLedger) RecordStarted(currentContext context.Context, contactId string, evaluationId string) error {
	entry := Entry{
		ContactId:        contactId,
		EvaluationFormId: table.EvaluationFormId,
		EvaluationId:     evaluationId,
		Status:           StatusStarted,
		TraceId:          trace.SpanFromContext(currentContext).SpanContext().TraceID().String(),
		UpdatedAt:        table.timestamp(),
	}
	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("error marshalling ledger entry: %w", err)
	}
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("contact_id"))).
		Build()
	if err != nil {
		return fmt.Errorf("error building ledger condition: %w", err)
	}
	_, err = table.DynamoDbClient.PutItem(currentContext, &dynamodb.PutItemInput{
		TableName:                 aws.String(table.TableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return table.translate("add", contactId, err)
}

// RecordSubmitted only moves an entry forward if it holds the same evaluation id.
func (table EvaluationLedger) RecordSubmitted(currentContext context.Context, contactId string, evaluationId string) error {
	update := expression.
		Set(expression.Name("status"), expression.Value(StatusSubmitted)).
		Set(expression.Name("updated_at"), expression.Value(table.timestamp()))
	condition := expression.Name("evaluation_id").Equal(expression.Value(evaluationId))
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(condition).Build()
	if err != nil {
		return fmt.Errorf("error building ledger update: %w", err)
	}
	_, err = table.DynamoDbClient.UpdateItem(currentContext, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table.TableName),
		Key:                       table.key(contactId),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return table.translate("update", contactId, err)
}

func (table EvaluationLedger) translate(action string, contactId string, err error) error {
	if err == nil {
		return nil
	}
	var conditionFailed *types.ConditionalCheckFailedException
	if errors.As(err, &conditionFailed) {
		return fmt.Errorf("%s ledger entry for %s: %w", action, contactId, ErrConflict)
	}
	log.Printf("Couldn't %s ledger entry for %v. Here's why: %v\n", action, contactId, err)
	return err
}
