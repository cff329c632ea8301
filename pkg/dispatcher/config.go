package dispatcher

import (
	"errors"
	"fmt"
	"time"

	"connect_evaluation_lambda/pkg/answersheet"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultMaxWaitTime  = 300 * time.Second
	DefaultSettleDelay  = 10 * time.Second

	// placeholderValue is what the deployment template ships with until
	// someone fills in their own instance.
	placeholderValue = "xxxx"
)

var ErrPlaceholderConfig = errors.New("configuration still holds a placeholder value")

type Config struct {
	InstanceId       string
	EvaluationFormId string
	SubmitterArn     string

	PollInterval time.Duration
	MaxWaitTime  time.Duration
	// SettleDelay gives the contact center time to finish writing the
	// contact record after the disconnect is observed.
	SettleDelay time.Duration

	Answers answersheet.Sheet
}

func (config Config) withDefaults() Config {
	if config.PollInterval == 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.MaxWaitTime == 0 {
		config.MaxWaitTime = DefaultMaxWaitTime
	}
	if config.SettleDelay == 0 {
		config.SettleDelay = DefaultSettleDelay
	}
	if len(config.Answers.Answers) == 0 {
		config.Answers = answersheet.Default()
	}
	return config
}

func (config Config) Validate() error {
	identifiers := []struct {
		name  string
		value string
	}{
		{"instance id", config.InstanceId},
		{"evaluation form id", config.EvaluationFormId},
		{"submitter arn", config.SubmitterArn},
	}
	for _, id := range identifiers {
		if id.value == "" {
			return fmt.Errorf("%s is required", id.name)
		}
		if id.value == placeholderValue {
			return fmt.Errorf("%s: %w", id.name, ErrPlaceholderConfig)
		}
	}
	if config.PollInterval < 0 || config.MaxWaitTime < 0 || config.SettleDelay < 0 {
		return errors.New("poll interval, max wait time and settle delay must not be negative")
	}
	if config.PollInterval > config.MaxWaitTime {
		return fmt.Errorf("poll interval %s is longer than max wait time %s", config.PollInterval, config.MaxWaitTime)
	}
	return config.Answers.Validate()
}
