// Package logging builds the logfmt logger shared by the function.
package logging

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// New returns a logfmt logger writing to w, filtered at the named level.
// Unknown levels fall back to info.
func New(w io.Writer, lvl string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	return level.NewFilter(logger, Option(lvl))
}

// Option maps a level name to a go-kit filter option
func Option(lvl string) level.Option {
	switch strings.ToLower(lvl) {
	case "debug":
		return level.AllowDebug()
	case "warn", "warning":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

// WithRequest adds the Lambda request id when ctx carries one
func WithRequest(ctx context.Context, logger log.Logger) log.Logger {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return log.With(logger, "request_id", lc.AwsRequestID)
	}
	return logger
}

// Error logs an ERROR status entry
func Error(logger log.Logger, msg string, keyvals ...interface{}) {
	level.Error(logger).Log(append([]interface{}{"status", "ERROR", "message", msg}, keyvals...)...)
}

// Info logs an INFO status entry
func Info(logger log.Logger, msg string, keyvals ...interface{}) {
	level.Info(logger).Log(append([]interface{}{"status", "INFO", "message", msg}, keyvals...)...)
}

// Debug logs a DEBUG status entry
func Debug(logger log.Logger, msg string, keyvals ...interface{}) {
	level.Debug(logger).Log(append([]interface{}{"status", "DEBUG", "message", msg}, keyvals...)...)
}
