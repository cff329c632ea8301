package dispatcher

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/connect"

	"connect_evaluation_lambda/pkg/ledger"
)

// ContactCenter is the slice of the Amazon Connect API the dispatcher calls.
// *connect.Client satisfies it.
type ContactCenter interface {
	DescribeContact(ctx context.Context, params *connect.DescribeContactInput, optFns ...func(*connect.Options)) (*connect.DescribeContactOutput, error)
	StartContactEvaluation(ctx context.Context, params *connect.StartContactEvaluationInput, optFns ...func(*connect.Options)) (*connect.StartContactEvaluationOutput, error)
	SubmitContactEvaluation(ctx context.Context, params *connect.SubmitContactEvaluationInput, optFns ...func(*connect.Options)) (*connect.SubmitContactEvaluationOutput, error)
}

// Ledger remembers evaluations across invocations. ledger.EvaluationLedger
// satisfies it.
type Ledger interface {
	Lookup(ctx context.Context, contactId string) (*ledger.Entry, error)
	RecordStarted(ctx context.Context, contactId string, evaluationId string) error
	RecordSubmitted(ctx context.Context, contactId string, evaluationId string) error
}
