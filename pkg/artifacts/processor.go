package artifacts

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	"github.com/HERMES-SOC/artifacts/internal/audit"
	"github.com/HERMES-SOC/artifacts/internal/filekey"
	"github.com/HERMES-SOC/artifacts/internal/logging"
	"github.com/HERMES-SOC/artifacts/internal/mission"
	"github.com/HERMES-SOC/artifacts/internal/notify"
	"github.com/HERMES-SOC/artifacts/internal/tracker"
)

// Fetcher places a science file on local disk
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key, filename string, dryRun bool) (string, error)
}

// Notifier sends Slack notifications
type Notifier interface {
	Send(ctx context.Context, channel, filePath, alertType string) error
}

// Auditor writes time-series audit entries
type Auditor interface {
	Log(ctx context.Context, e audit.Entry) error
}

// Processor generates the artifacts for one science file at a time.
// Notifier, Auditor and Registrar are optional.
type Processor struct {
	Mission     *mission.Mission
	Environment string
	DryRun      bool
	Fetcher     Fetcher
	Notifier    Notifier
	Channel     string
	Auditor     Auditor
	Registrar   tracker.Registrar
	Logger      log.Logger

	setupOnce sync.Once
	setupErr  error
	now       func() time.Time
}

func (p *Processor) logger() log.Logger {
	if p.Logger == nil {
		return log.NewNopLogger()
	}
	return p.Logger
}

func (p *Processor) clock() time.Time {
	if p.now == nil {
		return time.Now()
	}
	return p.now()
}

// Process handles one uploaded object. Parsing and download failures are
// returned; failures of the Slack, Timestream and tracker artifacts are
// logged so that one cannot stop the others.
func (p *Processor) Process(ctx context.Context, bucket, key string) error {

	logger := logging.WithRequest(ctx, p.logger())
	logging.Debug(logger, "Generating Artifacts", "instrument_bucket_name", bucket,
		"file_key", key, "environment", p.Environment, "dry_run", p.DryRun)

	filename, err := filekey.ParseFileKey(key)
	if err != nil {
		return errors.Wrap(err, "failed to parse file key")
	}

	sf, err := filekey.Parse(p.Mission, filename)
	if err != nil {
		return errors.Wrap(err, "failed to parse science file name")
	}

	inst, ok := p.Mission.Instrument(sf.Instrument)
	if !ok {
		return errors.Errorf("no instrument named %s", sf.Instrument)
	}
	destination := p.Mission.InstrumentBucket(inst.Name, p.Environment)

	path, err := p.Fetcher.Fetch(ctx, bucket, key, filename, p.DryRun)
	if err != nil {
		return errors.Wrap(err, "failed to get science file")
	}
	logging.Debug(logger, "science file ready", "file_path", path, "destination_bucket", destination)

	p.slackArtifacts(ctx, logger, filename)
	p.timestreamArtifacts(ctx, logger, audit.Entry{
		ActionType:        "PUT",
		FileKey:           key,
		NewFileKey:        filename,
		SourceBucket:      bucket,
		DestinationBucket: destination,
		Level:             sf.Level,
		Instrument:        inst.Name,
		Environment:       p.Environment,
	})
	p.trackerArtifacts(ctx, logger, key, destination, inst, sf)

	logging.Info(logger, "Artifacts Processed", "file_key", key, "instrument", inst.Name, "level", sf.Level)
	return nil
}

func (p *Processor) slackArtifacts(ctx context.Context, logger log.Logger, filename string) {

	if p.Notifier == nil || p.Channel == "" {
		return
	}

	err := p.Notifier.Send(ctx, p.Channel, filename, notify.Processed)
	if err == nil {
		return
	}
	if errors.Cause(err) == notify.ErrInvalidToken {
		logging.Error(logger, "Slack Token is invalid")
		return
	}
	logging.Error(logger, "Error when sending slack notification: "+err.Error())
}

func (p *Processor) timestreamArtifacts(ctx context.Context, logger log.Logger, e audit.Entry) {

	if p.Auditor == nil {
		return
	}
	if err := p.Auditor.Log(ctx, e); err != nil {
		logging.Error(logger, "Error when logging to timestream: "+err.Error(), "file_key", e.FileKey)
	}
}

func (p *Processor) trackerArtifacts(ctx context.Context, logger log.Logger, key, bucket string, inst mission.Instrument, sf filekey.ScienceFile) {

	if p.Registrar == nil {
		return
	}

	p.setupOnce.Do(func() {
		p.setupErr = p.Registrar.Setup(ctx)
	})
	if p.setupErr != nil {
		logging.Error(logger, "Error when setting up tracker: "+p.setupErr.Error())
		return
	}

	cfg, _ := mission.ConfigurationFor(p.Mission.Configurations(), inst.ID)
	rec := tracker.FileRecord{
		FileKey:         key,
		Filename:        sf.Filename,
		Bucket:          bucket,
		Instrument:      inst.Name,
		InstrumentID:    inst.ID,
		ConfigurationID: cfg.ID,
		Level:           sf.Level,
		Mode:            sf.Mode,
		Version:         sf.Version,
		FileTime:        sf.Time,
		ProcessedAt:     p.clock().UTC(),
	}

	if err := p.Registrar.Register(ctx, rec); err != nil {
		logging.Error(logger, "Error when registering file in tracker: "+err.Error(), "file_key", key)
	}
}
