// Package archive mirrors the benchmark data directory to an S3-compatible
// object store, so histories and reports survive the machine they were
// produced on.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/aristath/optibench/internal/config"
)

// ErrNotConfigured is returned when no archive bucket has been configured.
var ErrNotConfigured = errors.New("the archive is not configured")

// Client pushes and pulls benchmark data against one bucket.
type Client struct {
	s3         *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	bucket     string
	log        zerolog.Logger
}

// New builds an archive client from the archive configuration. The standard
// AWS credential chain applies unless static keys are configured; a custom
// endpoint switches the client to path-style addressing, which
// S3-compatible stores such as MinIO and R2 expect.
func New(ctx context.Context, cfg *config.ArchiveConfig, log zerolog.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Client{
		s3:         client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
		bucket:     cfg.Bucket,
		log:        log.With().Str("component", "archive").Logger(),
	}, nil
}

// Push uploads every file under localDir to the bucket below prefix.
// It returns the number of files uploaded.
func (c *Client) Push(ctx context.Context, localDir, prefix string) (int, error) {
	uploaded := 0

	err := filepath.WalkDir(localDir, func(filePath string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		relative, err := filepath.Rel(localDir, filePath)
		if err != nil {
			return fmt.Errorf("failed to resolve path %q: %w", filePath, err)
		}
		key := objectKey(prefix, relative)

		file, err := os.Open(filePath)
		if err != nil {
			return fmt.Errorf("failed to open %q: %w", filePath, err)
		}
		defer file.Close()

		if _, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: aws.String(c.bucket),
			Key:    aws.String(key),
			Body:   file,
		}); err != nil {
			return fmt.Errorf("failed to upload %q: %w", key, err)
		}

		c.log.Debug().Str("key", key).Msg("Uploaded file")
		uploaded++
		return nil
	})
	if err != nil {
		return uploaded, err
	}

	c.log.Info().Int("files", uploaded).Str("prefix", prefix).Msg("Archive push complete")
	return uploaded, nil
}

// Pull downloads every object below prefix into localDir, recreating the
// directory layout. It returns the number of files downloaded.
func (c *Client) Pull(ctx context.Context, prefix, localDir string) (int, error) {
	downloaded := 0

	paginator := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(strings.TrimSuffix(prefix, "/") + "/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return downloaded, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, object := range page.Contents {
			key := aws.ToString(object.Key)
			target, err := localPath(localDir, prefix, key)
			if err != nil {
				c.log.Warn().Str("key", key).Err(err).Msg("Skipping object")
				continue
			}

			if err := c.downloadObject(ctx, key, target); err != nil {
				return downloaded, err
			}
			downloaded++
		}
	}

	c.log.Info().Int("files", downloaded).Str("prefix", prefix).Msg("Archive pull complete")
	return downloaded, nil
}

func (c *Client) downloadObject(ctx context.Context, key, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %q: %w", target, err)
	}

	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", target, err)
	}
	defer file.Close()

	if _, err := c.downloader.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to download %q: %w", key, err)
	}

	c.log.Debug().Str("key", key).Msg("Downloaded file")
	return nil
}

// objectKey maps a local relative path to an object key below prefix.
// Keys always use forward slashes.
func objectKey(prefix, relative string) string {
	return path.Join(prefix, filepath.ToSlash(relative))
}

// localPath maps an object key back to a path under localDir. Keys that
// escape the directory are rejected.
func localPath(localDir, prefix, key string) (string, error) {
	relative := strings.TrimPrefix(key, strings.TrimSuffix(prefix, "/")+"/")
	if relative == "" || relative == key && prefix != "" {
		return "", fmt.Errorf("object key %q is outside prefix %q", key, prefix)
	}

	cleaned := path.Clean(relative)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned) {
		return "", fmt.Errorf("object key %q escapes the target directory", key)
	}

	return filepath.Join(localDir, filepath.FromSlash(cleaned)), nil
}
