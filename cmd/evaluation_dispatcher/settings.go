package main

import (
	"fmt"
	"time"

	"connect_evaluation_lambda/pkg/answersheet"
	"connect_evaluation_lambda/pkg/dispatcher"
)

// Settings come from the Lambda environment. The identifiers default to the
// placeholder the deployment template ships with, which dispatcher.New rejects.
type Settings struct {
	Region           string `env:"AWS_REGION" long:"region" default:"us-east-1"`
	InstanceId       string `env:"INSTANCE_ID" long:"instance-id" default:"xxxx"`
	EvaluationFormId string `env:"EVALUATION_FORM_ID" long:"evaluation-form-id" default:"xxxx"`
	UserArn          string `env:"USER_ARN" long:"user-arn" default:"xxxx"`

	PollInterval time.Duration `env:"POLL_INTERVAL" long:"poll-interval" default:"5s"`
	MaxWaitTime  time.Duration `env:"MAX_WAIT_TIME" long:"max-wait-time" default:"300s"`
	SettleDelay  time.Duration `env:"SETTLE_DELAY" long:"settle-delay" default:"10s"`

	AnswerSheetPath string `env:"ANSWER_SHEET_PATH" long:"answer-sheet"`
	LedgerTableName string `env:"LEDGER_TABLE_NAME" long:"ledger-table" short:"t"`
	UseLocalStack   bool   `env:"USE_LOCAL_STACK" long:"use-local-stack" short:"l"`
}

func (settings Settings) dispatcherConfig() (dispatcher.Config, error) {
	sheet := answersheet.Default()
	if settings.AnswerSheetPath != "" {
		var err error
		sheet, err = answersheet.Load(settings.AnswerSheetPath)
		if err != nil {
			return dispatcher.Config{}, fmt.Errorf("error loading answer sheet: %w", err)
		}
	}
	return dispatcher.Config{
		InstanceId:       settings.InstanceId,
		EvaluationFormId: settings.EvaluationFormId,
		SubmitterArn:     settings.UserArn,
		PollInterval:     settings.PollInterval,
		MaxWaitTime:      settings.MaxWaitTime,
		SettleDelay:      settings.SettleDelay,
		Answers:          sheet,
	}, nil
}
