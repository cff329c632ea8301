// Package answersheet holds the fixed set of answers submitted with every
// contact evaluation. The sheet is configuration: it never depends on what
// happened during the call.
package answersheet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/connect/types"
)

var (
	ErrEmptySheet        = errors.New("answer sheet has no answers")
	ErrMissingQuestionId = errors.New("answer is missing a question ref id")
	ErrDuplicateQuestion = errors.New("question answered more than once")
	ErrAnswerValue       = errors.New("answer must set exactly one of stringValue, numericValue, notApplicable")
)

type Answer struct {
	QuestionRefId string   `json:"questionRefId"`
	StringValue   *string  `json:"stringValue,omitempty"`
	NumericValue  *float64 `json:"numericValue,omitempty"`
	NotApplicable bool     `json:"notApplicable,omitempty"`
	Note          string   `json:"note,omitempty"`
}

// Sheet keeps answers in the order they appear on the evaluation form.
type Sheet struct {
	Answers []Answer `json:"answers"`
}

func StringAnswer(questionRefId, value, note string) Answer {
	return Answer{QuestionRefId: questionRefId, StringValue: aws.String(value), Note: note}
}

func NumericAnswer(questionRefId string, value float64, note string) Answer {
	return Answer{QuestionRefId: questionRefId, NumericValue: aws.Float64(value), Note: note}
}

// Default is the sheet for the quality form the dispatcher was first built for:
// two sections (call quality, transaction quality) with one yes/no and one
// -5..5 score question each.
func Default() Sheet {
	return Sheet{Answers: []Answer{
		// Call quality
		StringAnswer("q9345a455", "Yes", "Agent greeted professionally"), // greeted the customer
		NumericAnswer("q4d82f393", 4, ""),                                // politeness
		// Transaction quality
		StringAnswer("q7fa884c4", "Yes", "Agent showed good understanding"), // acknowledged the problem
		NumericAnswer("q60e41709", 3, ""),                                   // satisfied with resolution
	}}
}

func Parse(data []byte) (Sheet, error) {
	var sheet Sheet
	if err := json.Unmarshal(data, &sheet); err != nil {
		return Sheet{}, fmt.Errorf("error unmarshalling answer sheet: %w", err)
	}
	if err := sheet.Validate(); err != nil {
		return Sheet{}, err
	}
	return sheet, nil
}

func Load(path string) (Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Sheet{}, fmt.Errorf("error reading answer sheet %s: %w", path, err)
	}
	return Parse(data)
}

func (sheet Sheet) Validate() error {
	if len(sheet.Answers) == 0 {
		return ErrEmptySheet
	}
	seen := make(map[string]bool, len(sheet.Answers))
	for i, answer := range sheet.Answers {
		if answer.QuestionRefId == "" {
			return fmt.Errorf("answer %d: %w", i, ErrMissingQuestionId)
		}
		if seen[answer.QuestionRefId] {
			return fmt.Errorf("%s: %w", answer.QuestionRefId, ErrDuplicateQuestion)
		}
		seen[answer.QuestionRefId] = true

		kinds := 0
		if answer.StringValue != nil {
			kinds++
		}
		if answer.NumericValue != nil {
			kinds++
		}
		if answer.NotApplicable {
			kinds++
		}
		if kinds != 1 {
			return fmt.Errorf("%s: %w", answer.QuestionRefId, ErrAnswerValue)
		}
	}
	return nil
}

// ConnectAnswers converts the sheet into the Answers map of SubmitContactEvaluation.
func (sheet Sheet) ConnectAnswers() map[string]types.EvaluationAnswerInput {
	answers := make(map[string]types.EvaluationAnswerInput, len(sheet.Answers))
	for _, answer := range sheet.Answers {
		var value types.EvaluationAnswerData
		switch {
		case answer.StringValue != nil:
			value = &types.EvaluationAnswerDataMemberStringValue{Value: *answer.StringValue}
		case answer.NumericValue != nil:
			value = &types.EvaluationAnswerDataMemberNumericValue{Value: *answer.NumericValue}
		default:
			value = &types.EvaluationAnswerDataMemberNotApplicable{Value: true}
		}
		answers[answer.QuestionRefId] = types.EvaluationAnswerInput{Value: value}
	}
	return answers
}

// ConnectNotes returns nil when no answer carries a note.
func (sheet Sheet) ConnectNotes() map[string]types.EvaluationNote {
	var notes map[string]types.EvaluationNote
	for _, answer := range sheet.Answers {
		if answer.Note == "" {
			continue
		}
		if notes == nil {
			notes = make(map[string]types.EvaluationNote)
		}
		notes[answer.QuestionRefId] = types.EvaluationNote{Value: aws.String(answer.Note)}
	}
	return notes
}

func (sheet Sheet) QuestionRefIds() []string {
	ids := make([]string, 0, len(sheet.Answers))
	for _, answer := range sheet.Answers {
		ids = append(ids, answer.QuestionRefId)
	}
	return ids
}
