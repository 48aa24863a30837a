// Package config reads the function settings from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/HERMES-SOC/artifacts/internal/audit"
	"github.com/HERMES-SOC/artifacts/internal/mission"
)

// Config holds the function settings
type Config struct {
	Environment  string
	MissionFile  string
	SlackToken   string
	SlackChannel string
	TSDRegion    string
	RDSSecretARN string
	TrackerTable string
	DownloadDir  string
	DryRun       bool
	LogLevel     string
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// Load builds a Config from the environment
func Load() (*Config, error) {

	c := &Config{
		Environment:  getEnv("LAMBDA_ENVIRONMENT", mission.Development),
		MissionFile:  os.Getenv("SDC_AWS_CONFIG_FILE_PATH"),
		SlackToken:   os.Getenv("SDC_AWS_SLACK_TOKEN"),
		SlackChannel: os.Getenv("SDC_AWS_SLACK_CHANNEL"),
		TSDRegion:    getEnv("TSD_REGION", audit.DefaultRegion),
		RDSSecretARN: os.Getenv("RDS_SECRET_ARN"),
		TrackerTable: os.Getenv("TRACKER_TABLE"),
		DownloadDir:  getEnv("DOWNLOAD_DIR", os.TempDir()),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	if v, ok := os.LookupEnv("DRY_RUN"); ok && v != "" {
		dr, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.Wrap(err, "invalid DRY_RUN")
		}
		c.DryRun = dr
	}

	return c, nil
}

// Mission loads the configured mission, or the default one
func (c *Config) Mission() (*mission.Mission, error) {
	if c.MissionFile == "" {
		return mission.Default(), nil
	}
	return mission.Load(c.MissionFile)
}
