// Package audit records file movements in Amazon Timestream.
package audit

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/timestreamwrite"
	"github.com/pkg/errors"

	"github.com/HERMES-SOC/artifacts/internal/mission"
)

// Timestream resources
const (
	Database      = "sdc_aws_logs"
	Table         = "sdc_aws_s3_bucket_log_table"
	DefaultRegion = "us-east-1"
)

const notAvailable = "N/A"

// Writer is an abstraction (helpful for testing)
type Writer interface {
	WriteRecordsWithContext(aws.Context, *timestreamwrite.WriteRecordsInput, ...request.Option) (*timestreamwrite.WriteRecordsOutput, error)
}

// Entry describes one file action
type Entry struct {
	ActionType        string
	FileKey           string
	NewFileKey        string
	SourceBucket      string
	DestinationBucket string
	Level             string
	Instrument        string
	Environment       string
}

// Logger writes audit entries
type Logger struct {
	ts  Writer
	now func() time.Time
}

// NewLogger returns a new Logger
func NewLogger(w Writer) *Logger {
	return &Logger{ts: w, now: time.Now}
}

// Names returns the database and table for an environment
func Names(environment string) (string, string) {
	if environment == mission.Development {
		return "dev-" + Database, "dev-" + Table
	}
	return Database, Table
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

// Record converts an entry to a Timestream record
func (l *Logger) Record(e Entry) *timestreamwrite.Record {

	now := l.now().UTC()
	dims := []*timestreamwrite.Dimension{
		{Name: aws.String("action_type"), Value: aws.String(orNA(e.ActionType))},
		{Name: aws.String("source_bucket"), Value: aws.String(orNA(e.SourceBucket))},
		{Name: aws.String("destination_bucket"), Value: aws.String(orNA(e.DestinationBucket))},
		{Name: aws.String("file_key"), Value: aws.String(orNA(e.FileKey))},
		{Name: aws.String("new_file_key"), Value: aws.String(orNA(e.NewFileKey))},
		{Name: aws.String("level"), Value: aws.String(orNA(e.Level))},
		{Name: aws.String("instrument"), Value: aws.String(orNA(e.Instrument))},
	}

	ms := now.UnixNano() / int64(time.Millisecond)
	return &timestreamwrite.Record{
		Dimensions:       dims,
		MeasureName:      aws.String("timestamp"),
		MeasureValue:     aws.String(strconv.FormatFloat(float64(now.UnixNano())/1e9, 'f', 3, 64)),
		MeasureValueType: aws.String(timestreamwrite.MeasureValueTypeDouble),
		Time:             aws.String(strconv.FormatInt(ms, 10)),
		TimeUnit:         aws.String(timestreamwrite.TimeUnitMilliseconds),
	}
}

// Log writes one entry
func (l *Logger) Log(ctx context.Context, e Entry) error {

	if e.SourceBucket == "" && e.DestinationBucket == "" {
		return errors.New("a source or destination bucket is required")
	}

	db, table := Names(e.Environment)
	input := &timestreamwrite.WriteRecordsInput{
		DatabaseName: aws.String(db),
		TableName:    aws.String(table),
		Records:      []*timestreamwrite.Record{l.Record(e)},
	}

	_, err := l.ts.WriteRecordsWithContext(ctx, input)
	if err != nil {
		return errors.Wrap(err, "failed to write to timestream")
	}
	return nil
}
