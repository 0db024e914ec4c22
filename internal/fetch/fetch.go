// Package fetch resolves a source document reference to a local file before
// the pipeline touches it. Scans may live on disk, behind http(s), or in an
// S3 bucket; remote sources are downloaded to a temp file that the caller
// removes through the returned cleanup.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// ErrSourceNotFound marks a local source path that does not exist.
var ErrSourceNotFound = errors.New("source document not found")

// ErrNotPDF marks a resolved file whose magic bytes are not a PDF.
var ErrNotPDF = errors.New("source is not a PDF")

// Resolve turns ref into a local filesystem path and verifies it is a PDF.
// Supported forms: plain paths, file://path, http(s):// URLs and
// s3://bucket/key. An optional #fragment is stripped. The cleanup removes
// any temp download and is always safe to call.
func Resolve(ctx context.Context, ref string) (string, func(), error) {
	if i := strings.Index(ref, "#"); i >= 0 {
		ref = ref[:i]
	}

	cleanup := func() {}
	var localPath string
	var err error

	switch {
	case strings.HasPrefix(ref, "s3://"):
		localPath, err = downloadS3ToTemp(ctx, ref)
		cleanup = removeFunc(localPath)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		localPath, err = downloadHTTPToTemp(ctx, ref)
		cleanup = removeFunc(localPath)
	case strings.HasPrefix(ref, "file://"):
		localPath = strings.TrimPrefix(ref, "file://")
	default:
		localPath = ref
	}
	if err != nil {
		cleanup()
		return "", func() {}, err
	}

	if _, err := os.Stat(localPath); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("%w: %s", ErrSourceNotFound, localPath)
	}

	if err := verifyPDF(localPath); err != nil {
		cleanup()
		return "", func() {}, err
	}

	return localPath, cleanup, nil
}

func removeFunc(path string) func() {
	return func() {
		if path != "" {
			os.Remove(path)
		}
	}
}

// verifyPDF checks magic bytes, not the filename; scans arrive with all
// kinds of extensions.
func verifyPDF(path string) error {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("detect file type: %w", err)
	}
	if !mtype.Is("application/pdf") {
		return fmt.Errorf("%w: detected %s", ErrNotPDF, mtype.String())
	}
	return nil
}

func downloadHTTPToTemp(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d fetching %s", resp.StatusCode, url)
	}

	f, err := os.CreateTemp("", "finnlo-src-*.pdf")
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	log.Info().Str("url", url).Str("file", f.Name()).Msg("downloaded source pdf")
	return f.Name(), nil
}

func downloadS3ToTemp(ctx context.Context, s3url string) (string, error) {
	path := strings.TrimPrefix(s3url, "s3://")
	slash := strings.Index(path, "/")
	if slash <= 0 {
		return "", fmt.Errorf("invalid s3 url: %s", s3url)
	}
	bucket := path[:slash]
	key := path[slash+1:]

	var opts []func(*awscfg.LoadOptions) error
	// Static credentials cover MinIO-style endpoints where the default
	// chain has nothing to offer.
	if id, secret := os.Getenv("S3_ACCESS_KEY"), os.Getenv("S3_SECRET_KEY"); id != "" && secret != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(id, secret, "")))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return "", err
	}

	cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if ep := os.Getenv("S3_ENDPOINT"); ep != "" {
			o.BaseEndpoint = aws.String(ep)
			o.UsePathStyle = true
		}
	})

	f, err := os.CreateTemp("", "finnlo-src-*.pdf")
	if err != nil {
		return "", err
	}
	defer f.Close()

	dl := manager.NewDownloader(cli)
	if _, err := dl.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("s3 download failed: %w", err)
	}

	log.Info().Str("bucket", bucket).Str("key", key).Str("file", f.Name()).Msg("downloaded source pdf from s3")
	return f.Name(), nil
}
