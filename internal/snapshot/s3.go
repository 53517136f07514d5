// Package snapshot stores and retrieves the indicator index's SQLite file
// in S3, so a process restart can warm-start the index from the stored
// copy. The SDMX DSD cache is held in memory only and is not persisted
// here. Wiring
// follows the AWS SDK's own documented idiom: config.LoadDefaultConfig,
// s3.NewFromConfig, manager.Uploader/Downloader.
package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Config names the bucket/prefix snapshots live under. An empty Bucket
// disables snapshot persistence entirely (local-only operation).
type Config struct {
	Bucket string
	Prefix string
	Region string
}

func (c Config) Enabled() bool { return c.Bucket != "" }

// Store wraps an S3 client with the uploader/downloader pair the manager
// package provides for multipart-safe transfer.
type Store struct {
	cfg Config
	client *s3.Client
	uploader *manager.Uploader
	downloader *manager.Downloader
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if !cfg.Enabled() {
 return &Store{cfg: cfg}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
 return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	return &Store{
 cfg: cfg,
 client: client,
 uploader: manager.NewUploader(client),
 downloader: manager.NewDownloader(client),
	}, nil
}

func (s *Store) key(name string) string {
	if s.cfg.Prefix == "" {
 return name
	}
	return s.cfg.Prefix + "/" + name
}

// UploadFile pushes a local file (the index's SQLite db) up under the given
// name. It adds no generation tag itself; GenerationName builds dated names
// for callers that want them.
func (s *Store) UploadFile(ctx context.Context, name, localPath string) error {
	if !s.cfg.Enabled() {
 return nil
	}
	f, err := os.Open(localPath)
	if err != nil {
 return fmt.Errorf("opening %s for snapshot upload: %w", localPath, err)
	}
	defer f.Close()

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
 Bucket: &s.cfg.Bucket,
 Key: strPtr(s.key(name)),
 Body: f,
	})
	if err != nil {
 return fmt.Errorf("uploading snapshot %s: %w", name, err)
	}
	log.Info().Str("name", name).Str("bucket", s.cfg.Bucket).Msg("snapshot uploaded")
	return nil
}

// DownloadFile retrieves the named snapshot to a local path, used at
// startup to warm-start the index instead of rebuilding cold.
func (s *Store) DownloadFile(ctx context.Context, name, localPath string) error {
	if !s.cfg.Enabled() {
 return fmt.Errorf("snapshot store not configured")
	}
	f, err := os.Create(localPath)
	if err != nil {
 return fmt.Errorf("creating %s for snapshot download: %w", localPath, err)
	}
	defer f.Close()

	_, err = s.downloader.Download(ctx, f, &s3.GetObjectInput{
 Bucket: &s.cfg.Bucket,
 Key: strPtr(s.key(name)),
	})
	if err != nil {
 return fmt.Errorf("downloading snapshot %s: %w", name, err)
	}
	return nil
}

// Exists reports whether a named snapshot is present in the store, so
// startup warm-start can fall back to a cold build when there is none yet.
func (s *Store) Exists(ctx context.Context, name string) bool {
	if !s.cfg.Enabled() {
 return false
	}
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
 Bucket: &s.cfg.Bucket,
 Key: strPtr(s.key(name)),
	})
	return err == nil
}

// UploadBytes uploads an in-memory byte slice under the given name, with no
// local file.
func (s *Store) UploadBytes(ctx context.Context, name string, data []byte) error {
	if !s.cfg.Enabled() {
 return nil
	}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
 Bucket: &s.cfg.Bucket,
 Key: strPtr(s.key(name)),
 Body: bytes.NewReader(data),
	})
	return err
}

func (s *Store) DownloadBytes(ctx context.Context, name string) ([]byte, error) {
	if !s.cfg.Enabled() {
 return nil, fmt.Errorf("snapshot store not configured")
	}
	obj, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.cfg.Bucket, Key: strPtr(s.key(name))})
	if err != nil {
 return nil, err
	}
	defer obj.Body.Close()
	return io.ReadAll(obj.Body)
}

func strPtr(s string) *string { return &s }

// GenerationName builds the dated object key a periodic rebuild publishes,
// mirroring the index's own Generation counter (internal/index.Index).
func GenerationName(base string, gen int64, at time.Time) string {
	return fmt.Sprintf("%s-gen%d-%s", base, gen, at.UTC().Format("20060102T150405Z"))
}
