// Function artifacts starts the AWS sessions and hands S3 notifications over to package artifacts.
package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/timestreamwrite"
	"github.com/go-kit/kit/log"

	"github.com/HERMES-SOC/artifacts/internal/audit"
	"github.com/HERMES-SOC/artifacts/internal/config"
	"github.com/HERMES-SOC/artifacts/internal/logging"
	"github.com/HERMES-SOC/artifacts/internal/mission"
	"github.com/HERMES-SOC/artifacts/internal/notify"
	"github.com/HERMES-SOC/artifacts/internal/secrets"
	"github.com/HERMES-SOC/artifacts/internal/storage"
	"github.com/HERMES-SOC/artifacts/internal/tracker"
	"github.com/HERMES-SOC/artifacts/pkg/artifacts"
)

var sess *session.Session
var logger log.Logger
var h *artifacts.Handler

func init() {
	sess = session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))

	cfg, err := config.Load()
	if err != nil {
		logging.Error(logging.New(os.Stdout, "info"), err.Error())
		os.Exit(1)
	}
	logger = logging.New(os.Stdout, cfg.LogLevel)

	m, err := cfg.Mission()
	if err != nil {
		logging.Error(logger, err.Error(), "config_file", cfg.MissionFile)
		os.Exit(1)
	}

	ctx := context.Background()
	store := secrets.NewStore(secretsmanager.New(sess))

	proc := &artifacts.Processor{
		Mission:     m,
		Environment: cfg.Environment,
		DryRun:      cfg.DryRun,
		Fetcher:     storage.NewFetcher(s3manager.NewDownloader(sess), cfg.DownloadDir, logger),
		Channel:     cfg.SlackChannel,
		Auditor:     audit.NewLogger(timestreamwrite.New(sess, &aws.Config{Region: aws.String(cfg.TSDRegion)})),
		Logger:      logger,
	}

	sc, err := notify.NewSlackClient(ctx, cfg.SlackToken, store)
	if err != nil {
		logging.Error(logger, "Error when initializing slack client: "+err.Error())
	}
	if sc != nil {
		proc.Notifier = notify.NewNotifier(sc)
	}

	reg, err := registrar(ctx, cfg, m, store)
	if err != nil {
		logging.Error(logger, "Error when initializing tracker: "+err.Error())
	}
	proc.Registrar = reg

	h = artifacts.NewHandler(proc, logger)
}

// registrar picks the tracker backend, RDS first
func registrar(ctx context.Context, cfg *config.Config, m *mission.Mission, store *secrets.Store) (tracker.Registrar, error) {

	switch {
	case cfg.RDSSecretARN != "":
		var creds secrets.DBCredentials
		if err := store.JSON(ctx, cfg.RDSSecretARN, &creds); err != nil {
			return nil, err
		}
		db, err := tracker.OpenSQL(creds.DSN(), m)
		if err != nil {
			return nil, err
		}
		return db, nil
	case cfg.TrackerTable != "":
		return tracker.NewDynamo(dynamodb.New(sess), cfg.TrackerTable, m), nil
	}
	return nil, nil
}

func handler(ctx context.Context, payload json.RawMessage) (events.APIGatewayProxyResponse, error) {
	return h.Handle(ctx, payload)
}

func main() {
	lambda.Start(handler)
}
