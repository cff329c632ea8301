package dispatcher

import (
	"runtime/debug"
)

type Outcome string

const (
	OutcomeSuccess      Outcome = "SUCCESS"
	OutcomeTimeout      Outcome = "TIMEOUT"
	OutcomeInvalidEvent Outcome = "INVALID_EVENT"
	OutcomeLookupFailed Outcome = "LOOKUP_FAILED"
	OutcomeCreateFailed Outcome = "CREATE_FAILED"
	OutcomeSubmitFailed Outcome = "SUBMIT_FAILED"
	OutcomePanic        Outcome = "PANIC"
)

const TimeoutMessage = "Timeout waiting for contact to end"

// Result is what the Lambda hands back to the contact flow. Field names are
// part of the contract with existing flows, so only add to them.
type Result struct {
	StatusCode   int     `json:"statusCode"`
	Outcome      Outcome `json:"outcome"`
	EvaluationId string  `json:"evaluationId,omitempty"`
	Message      string  `json:"message,omitempty"`
	Error        string  `json:"error,omitempty"`
	Stack        string  `json:"stack,omitempty"`
}

func (result Result) Succeeded() bool {
	return result.Outcome == OutcomeSuccess
}

func Success(evaluationId string) Result {
	return Result{StatusCode: 200, Outcome: OutcomeSuccess, EvaluationId: evaluationId}
}

func Timeout() Result {
	return Result{StatusCode: 408, Outcome: OutcomeTimeout, Message: TimeoutMessage}
}

func InvalidEvent(err error) Result {
	return Result{StatusCode: 400, Outcome: OutcomeInvalidEvent, Error: err.Error()}
}

func LookupFailed(err error) Result {
	return failure(OutcomeLookupFailed, "", err)
}

func CreateFailed(err error) Result {
	return failure(OutcomeCreateFailed, "", err)
}

// SubmitFailed keeps the id of the evaluation that was created but not
// submitted so the caller can find it.
func SubmitFailed(evaluationId string, err error) Result {
	return failure(OutcomeSubmitFailed, evaluationId, err)
}

// Panicked is built by the entry point from a recovered panic, which already
// carries the stack of the goroutine that panicked.
func Panicked(err error, stack []byte) Result {
	return Result{StatusCode: 500, Outcome: OutcomePanic, Error: err.Error(), Stack: string(stack)}
}

func failure(outcome Outcome, evaluationId string, err error) Result {
	return Result{
		StatusCode:   500,
		Outcome:      outcome,
		EvaluationId: evaluationId,
		Error:        err.Error(),
		Stack:        string(debug.Stack()),
	}
}
