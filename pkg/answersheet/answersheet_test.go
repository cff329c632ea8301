package answersheet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/connect/types"
)

func TestDefaultSheetIsValid(t *testing.T) {
	sheet := Default()
	if err := sheet.Validate(); err != nil {
		t.Fatalf("default sheet should validate, got %v", err)
	}
	want := []string{"q9345a455", "q4d82f393", "q7fa884c4", "q60e41709"}
	got := sheet.QuestionRefIds()
	if len(got) != len(want) {
		t.Fatalf("expected %d questions, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("question %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestConnectAnswersTagsEachValueKind(t *testing.T) {
	sheet := Sheet{Answers: []Answer{
		StringAnswer("qs", "Yes", ""),
		NumericAnswer("qn", -2, ""),
		{QuestionRefId: "qna", NotApplicable: true},
	}}

	answers := sheet.ConnectAnswers()

	if v, ok := answers["qs"].Value.(*types.EvaluationAnswerDataMemberStringValue); !ok || v.Value != "Yes" {
		t.Fatalf("qs should be string value Yes, got %#v", answers["qs"].Value)
	}
	if v, ok := answers["qn"].Value.(*types.EvaluationAnswerDataMemberNumericValue); !ok || v.Value != -2 {
		t.Fatalf("qn should be numeric value -2, got %#v", answers["qn"].Value)
	}
	if v, ok := answers["qna"].Value.(*types.EvaluationAnswerDataMemberNotApplicable); !ok || !v.Value {
		t.Fatalf("qna should be not applicable, got %#v", answers["qna"].Value)
	}
}

func TestConnectNotesOnlyIncludesAnnotatedQuestions(t *testing.T) {
	notes := Default().ConnectNotes()
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if got := *notes["q9345a455"].Value; got != "Agent greeted professionally" {
		t.Fatalf("unexpected note %q", got)
	}
	if _, ok := notes["q4d82f393"]; ok {
		t.Fatalf("numeric question without a note should not appear in notes")
	}

	bare := Sheet{Answers: []Answer{NumericAnswer("q1", 1, "")}}
	if bare.ConnectNotes() != nil {
		t.Fatalf("sheet without notes should produce nil notes")
	}
}

func TestValidateRejectsBadSheets(t *testing.T) {
	cases := []struct {
		name  string
		sheet Sheet
		want  error
	}{
		{"empty", Sheet{}, ErrEmptySheet},
		{"missing id", Sheet{Answers: []Answer{NumericAnswer("", 1, "")}}, ErrMissingQuestionId},
		{"duplicate", Sheet{Answers: []Answer{NumericAnswer("q1", 1, ""), StringAnswer("q1", "No", "")}}, ErrDuplicateQuestion},
		{"no value", Sheet{Answers: []Answer{{QuestionRefId: "q1"}}}, ErrAnswerValue},
		{"two values", Sheet{Answers: []Answer{{QuestionRefId: "q1", NotApplicable: true, StringValue: StringAnswer("q1", "Yes", "").StringValue}}}, ErrAnswerValue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.sheet.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadReadsJsonFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheet.json")
	body := `{"answers":[
		{"questionRefId":"qa","stringValue":"No","note":"missed greeting"},
		{"questionRefId":"qb","numericValue":-5}
	]}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	sheet, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(sheet.Answers) != 2 || *sheet.Answers[0].StringValue != "No" || *sheet.Answers[1].NumericValue != -5 {
		t.Fatalf("unexpected sheet %+v", sheet)
	}
	if sheet.Answers[0].Note != "missed greeting" {
		t.Fatalf("note not loaded: %+v", sheet.Answers[0])
	}
}

func TestParseRejectsInvalidJson(t *testing.T) {
	if _, err := Parse([]byte(`{"answers":`)); err == nil {
		t.Fatalf("expected error for truncated json")
	}
	if _, err := Parse([]byte(`{"answers":[]}`)); !errors.Is(err, ErrEmptySheet) {
		t.Fatalf("expected ErrEmptySheet, got %v", err)
	}
}
