// Package storage fetches science files from S3.
package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"

	"github.com/HERMES-SOC/artifacts/internal/logging"
)

// ErrEmptyObject is returned for zero length science files
var ErrEmptyObject = errors.New("object is empty")

// Downloader is an abstraction (helpful for testing)
type Downloader interface {
	DownloadWithContext(aws.Context, io.WriterAt, *s3.GetObjectInput, ...func(*s3manager.Downloader)) (int64, error)
}

// Fetcher places science files in a local directory
type Fetcher struct {
	dl     Downloader
	dir    string
	logger log.Logger
}

// NewFetcher returns a new Fetcher writing under dir
func NewFetcher(d Downloader, dir string, logger log.Logger) *Fetcher {
	return &Fetcher{dl: d, dir: dir, logger: logger}
}

// Fetch downloads bucket/key to {dir}/{filename} and returns the local path.
// In a dry run nothing is downloaded and the path is returned as is.
func (f *Fetcher) Fetch(ctx context.Context, bucket, key, filename string, dryRun bool) (string, error) {

	path := filepath.Join(f.dir, filename)
	if dryRun {
		logging.Debug(f.logger, "dry run, skipping download", "file_path", path)
		return path, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to create local file")
	}
	defer file.Close()

	start := time.Now()
	n, err := f.dl.DownloadWithContext(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		os.Remove(path)
		return "", errors.Wrapf(err, "failed to download s3://%s/%s", bucket, key)
	}

	if n == 0 {
		os.Remove(path)
		return "", errors.Wrapf(ErrEmptyObject, "s3://%s/%s", bucket, key)
	}

	logging.Info(f.logger, "downloaded science file", "bucket", bucket, "file_key", key,
		"file_path", path, "bytes", n, "seconds", time.Since(start).Seconds())
	return path, nil
}
