package objectstorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/omex-backend/internal/platform/logger"
)

type gcsBucket struct {
	log           *logger.Logger
	client        *storage.Client
	mode          Mode
	buckets       map[Category]string
	publicBaseURL string
}

// NewGCSBucket connects to Cloud Storage, or to a fake-gcs emulator in ModeGCSEmulator.
func NewGCSBucket(ctx context.Context, log *logger.Logger, cfg Config) (Bucket, error) {
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	client, err := newStorageClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base == "" && cfg.Mode == ModeGCSEmulator {
		base = strings.TrimRight(cfg.EmulatorHost, "/") + "/storage/v1/b"
	}
	if base == "" {
		base = "https://storage.googleapis.com"
	}
	serviceLog := log.With("service", "GCSBucket")
	serviceLog.Info("Object storage initialized",
		"mode", cfg.Mode,
		"emulator_host", cfg.EmulatorHost,
		"avatar_bucket", cfg.Buckets[CategoryAvatar],
		"upload_bucket", cfg.Buckets[CategoryUpload],
	)
	return &gcsBucket{
		log:           serviceLog,
		client:        client,
		mode:          cfg.Mode,
		buckets:       cfg.Buckets,
		publicBaseURL: base,
	}, nil
}

func newStorageClient(ctx context.Context, cfg Config) (*storage.Client, error) {
	switch cfg.Mode {
	case ModeGCS:
		return storage.NewClient(ctx, option.WithScopes(storage.ScopeReadWrite))
	case ModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx,
			option.WithoutAuthentication(),
			option.WithEndpoint(endpoint+"/storage/v1/"),
		)
	default:
		return nil, &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

func (b *gcsBucket) Mode() Mode { return b.mode }

func (b *gcsBucket) object(category Category, key string) (*storage.ObjectHandle, string, error) {
	name, ok := b.buckets[category]
	if !ok || name == "" {
		return nil, "", fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	k, err := cleanKey(key)
	if err != nil {
		return nil, "", err
	}
	return b.client.Bucket(name).Object(k), name, nil
}

func (b *gcsBucket) Upload(ctx context.Context, category Category, key string, r io.Reader) error {
	obj, _, err := b.object(category, key)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := obj.NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (b *gcsBucket) Download(ctx context.Context, category Category, key string) (io.ReadCloser, error) {
	obj, _, err := b.object(category, key)
	if err != nil {
		return nil, err
	}
	rc, err := obj.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object: %w", err)
	}
	return rc, nil
}

func (b *gcsBucket) Delete(ctx context.Context, category Category, key string) error {
	obj, bucket, err := b.object(category, key)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := obj.Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, bucket, err)
	}
	return nil
}

func (b *gcsBucket) PublicURL(category Category, key string) string {
	name := b.buckets[category]
	k, err := cleanKey(key)
	if name == "" || err != nil {
		return ""
	}
	return b.publicBaseURL + "/" + name + "/" + k
}

func (b *gcsBucket) Close() error {
	return b.client.Close()
}
