package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/connect"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jessevdk/go-flags"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-lambda-go/otellambda"

	"connect_evaluation_lambda/pkg/dispatcher"
	"connect_evaluation_lambda/pkg/instrumentation"
	"connect_evaluation_lambda/pkg/ledger"
)

const localStackEndpoint = "http://localstack:4566"

var settings Settings

func main() {
	fmt.Print("Starting evaluation dispatcher\n")
	if _, err := flags.Parse(&settings); err != nil {
		panic("unable to parse settings, " + err.Error())
	}
	currentContext := context.Background()

	tracerProvider := instrumentation.CreateTracerProvider(currentContext, "connect-evaluation-dispatcher")

	var err error
	var sdkConfig aws.Config
	if settings.UseLocalStack {
		sdkConfig, err = getLocalStackConfig(currentContext)
	} else {
		sdkConfig, err = config.LoadDefaultConfig(currentContext,
			config.WithRegion(settings.Region),
			config.WithHTTPClient(instrumentation.NewTracedHttpClient()))
	}
	if err != nil {
		panic("unable to load SDK config, " + err.Error())
	}

	dispatcherConfig, err := settings.dispatcherConfig()
	if err != nil {
		panic(err.Error())
	}
	var options []dispatcher.Option
	if settings.LedgerTableName != "" {
		options = append(options, dispatcher.WithLedger(
			ledger.NewEvaluationLedger(settings.LedgerTableName, settings.EvaluationFormId, getDynamoDbClient(sdkConfig))))
	}
	evaluationDispatcher, err := dispatcher.New(getConnectClient(sdkConfig), dispatcherConfig, options...)
	if err != nil {
		panic("invalid dispatcher configuration, " + err.Error())
	}

	lambda.StartWithOptions(
		otellambda.InstrumentHandler(newHandler(evaluationDispatcher),
			otellambda.WithFlusher(tracerProvider),
			otellambda.WithTracerProvider(tracerProvider)),
		lambda.WithContext(currentContext),
	)
}

func getLocalStackConfig(currentContext context.Context) (aws.Config, error) {
	return config.LoadDefaultConfig(currentContext,
		config.WithRegion(settings.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
		config.WithHTTPClient(instrumentation.NewTracedHttpClient()),
	)
}

func getConnectClient(sdkConfig aws.Config) *connect.Client {
	return connect.NewFromConfig(sdkConfig, func(o *connect.Options) {
		if settings.UseLocalStack {
			o.BaseEndpoint = aws.String(localStackEndpoint)
		}
	})
}

func getDynamoDbClient(sdkConfig aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(sdkConfig, func(o *dynamodb.Options) {
		if settings.UseLocalStack {
			o.BaseEndpoint = aws.String(localStackEndpoint)
		}
	})
}
