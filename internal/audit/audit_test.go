package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/timestreamwrite"
	"github.com/aws/aws-sdk-go/service/timestreamwrite/timestreamwriteiface"
	"github.com/google/go-cmp/cmp"
)

type mockTimestream struct {
	timestreamwriteiface.TimestreamWriteAPI
	err   error
	input *timestreamwrite.WriteRecordsInput
}

func (m *mockTimestream) WriteRecordsWithContext(ctx aws.Context, in *timestreamwrite.WriteRecordsInput, opts ...request.Option) (*timestreamwrite.WriteRecordsOutput, error) {
	m.input = in
	if m.err != nil {
		return nil, m.err
	}
	return &timestreamwrite.WriteRecordsOutput{}, nil
}

func fixedNow() time.Time {
	return time.Date(2023, 2, 11, 12, 30, 0, 500*int(time.Millisecond), time.UTC)
}

func TestLog(t *testing.T) {

	tt := []struct {
		name        string
		entry       Entry
		writeErr    error
		database    string
		table       string
		destination string
		err         string
	}{
		{name: "production", entry: Entry{ActionType: "PUT", FileKey: "a.bin", NewFileKey: "a.bin",
			SourceBucket: "hermes-eea", DestinationBucket: "hermes-eea", Environment: "PRODUCTION"},
			database: "sdc_aws_logs", table: "sdc_aws_s3_bucket_log_table", destination: "hermes-eea"},
		{name: "development", entry: Entry{ActionType: "PUT", FileKey: "a.bin", DestinationBucket: "dev-hermes-eea", Environment: "DEVELOPMENT"},
			database: "dev-sdc_aws_logs", table: "dev-sdc_aws_s3_bucket_log_table", destination: "dev-hermes-eea"},
		{name: "no_buckets", entry: Entry{ActionType: "PUT", FileKey: "a.bin"}, err: "a source or destination bucket is required"},
		{name: "write_error", entry: Entry{ActionType: "PUT", SourceBucket: "b"}, writeErr: errors.New("AccessDeniedException"),
			err: "failed to write to timestream: AccessDeniedException"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			ts := &mockTimestream{err: tc.writeErr}
			l := NewLogger(ts)
			l.now = fixedNow

			err := l.Log(context.Background(), tc.entry)
			if err != nil {
				if msg := err.Error(); tc.err == "" || !strings.Contains(msg, tc.err) {
					t.Errorf("expected error %q, got: %q", tc.err, msg)
				}
				return
			}
			if tc.err != "" {
				t.Fatalf("expected error %q, got none", tc.err)
			}

			if db := aws.StringValue(ts.input.DatabaseName); db != tc.database {
				t.Errorf("expected database %v, got %v", tc.database, db)
			}
			if table := aws.StringValue(ts.input.TableName); table != tc.table {
				t.Errorf("expected table %v, got %v", tc.table, table)
			}
			if len(ts.input.Records) != 1 {
				t.Fatalf("expected 1 record, got %v", len(ts.input.Records))
			}

			dims := map[string]string{}
			for _, d := range ts.input.Records[0].Dimensions {
				dims[aws.StringValue(d.Name)] = aws.StringValue(d.Value)
			}
			if dims["destination_bucket"] != tc.destination {
				t.Errorf("expected destination %v, got %v", tc.destination, dims["destination_bucket"])
			}
		})
	}
}

func TestRecord(t *testing.T) {

	l := NewLogger(&mockTimestream{})
	l.now = fixedNow

	got := l.Record(Entry{ActionType: "PUT", FileKey: "a.bin", DestinationBucket: "hermes-eea", Level: "l0", Instrument: "eea"})

	want := &timestreamwrite.Record{
		Dimensions: []*timestreamwrite.Dimension{
			{Name: aws.String("action_type"), Value: aws.String("PUT")},
			{Name: aws.String("source_bucket"), Value: aws.String("N/A")},
			{Name: aws.String("destination_bucket"), Value: aws.String("hermes-eea")},
			{Name: aws.String("file_key"), Value: aws.String("a.bin")},
			{Name: aws.String("new_file_key"), Value: aws.String("N/A")},
			{Name: aws.String("level"), Value: aws.String("l0")},
			{Name: aws.String("instrument"), Value: aws.String("eea")},
		},
		MeasureName:      aws.String("timestamp"),
		MeasureValue:     aws.String("1676118600.500"),
		MeasureValueType: aws.String("DOUBLE"),
		Time:             aws.String("1676118600500"),
		TimeUnit:         aws.String("MILLISECONDS"),
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected record (-want +got):\n%s", diff)
	}
}
