// Package artifacts handles S3 object-created notifications for science
// files and generates the Slack, Timestream and tracker artifacts for them.
package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/HERMES-SOC/artifacts/internal/logging"
)

// SuccessBody is returned when every record was processed
const SuccessBody = "Artifacts Processed Successfully"

// ObjectProcessor processes a single uploaded object
type ObjectProcessor interface {
	Process(ctx context.Context, bucket, key string) error
}

// Handler respresents the handler type
type Handler struct {
	proc   ObjectProcessor
	logger log.Logger
}

// NewHandler returns a new Handler
func NewHandler(p ObjectProcessor, logger log.Logger) *Handler {
	return &Handler{proc: p, logger: logger}
}

// Records extracts the S3 records from an SNS wrapped or a direct S3 event
func Records(payload []byte) ([]events.S3EventRecord, error) {

	if !gjson.ValidBytes(payload) {
		return nil, errors.New("event is not valid JSON")
	}

	var records []events.S3EventRecord
	switch {
	case gjson.GetBytes(payload, "Records.0.Sns").Exists():
		for _, sns := range gjson.GetBytes(payload, "Records.#.Sns.Message").Array() {
			msg := sns.String()
			if !gjson.Valid(msg) {
				return nil, errors.New("SNS message is not valid JSON")
			}
			rs, err := decodeRecords(gjson.Get(msg, "Records"))
			if err != nil {
				return nil, err
			}
			records = append(records, rs...)
		}
	case gjson.GetBytes(payload, "Records.0.s3").Exists():
		rs, err := decodeRecords(gjson.GetBytes(payload, "Records"))
		if err != nil {
			return nil, err
		}
		records = rs
	}

	if len(records) == 0 {
		return nil, errors.New("no S3 records in event")
	}
	return records, nil
}

func decodeRecords(g gjson.Result) ([]events.S3EventRecord, error) {

	if !g.IsArray() {
		return nil, errors.New("missing Records in message")
	}
	var rs []events.S3EventRecord
	if err := json.Unmarshal([]byte(g.Raw), &rs); err != nil {
		return nil, errors.Wrap(err, "failed to decode S3 records")
	}
	return rs, nil
}

func failure(err error) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(fmt.Sprintf("Error Processing Artifacts: %v", err))
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       string(body),
	}
}

// Handle deals with the incoming event
func (h *Handler) Handle(ctx context.Context, payload json.RawMessage) (events.APIGatewayProxyResponse, error) {

	logger := logging.WithRequest(ctx, h.logger)

	records, err := Records(payload)
	if err != nil {
		logging.Error(logger, err.Error())
		return failure(err), nil
	}

	for _, r := range records {
		bucket := r.S3.Bucket.Name
		key := r.S3.Object.Key
		if err := h.proc.Process(ctx, bucket, key); err != nil {
			logging.Error(logger, err.Error(), "bucket", bucket, "file_key", key)
			return failure(err), nil
		}
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       SuccessBody,
	}, nil
}
