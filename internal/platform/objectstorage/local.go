package objectstorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/omex-backend/internal/platform/logger"
)

type localBucket struct {
	log           *logger.Logger
	root          string
	publicBaseURL string
}

// NewLocalBucket stores objects as files under root/<category>/<key>.
func NewLocalBucket(log *logger.Logger, root, publicBaseURL string) (Bucket, error) {
	if strings.TrimSpace(root) == "" {
		return nil, &ConfigError{Code: ConfigErrorMissingLocalDir, Mode: string(ModeLocal)}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &localBucket{
		log:           log.With("service", "LocalBucket"),
		root:          abs,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

func (b *localBucket) Mode() Mode { return ModeLocal }

func (b *localBucket) path(category Category, key string) (string, error) {
	switch category {
	case CategoryAvatar, CategoryUpload:
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(b.root, string(category), filepath.FromSlash(k)), nil
}

func (b *localBucket) Upload(ctx context.Context, category Category, key string, r io.Reader) error {
	dst, err := b.path(category, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp object: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("commit object: %w", err)
	}
	return nil
}

func (b *localBucket) Download(ctx context.Context, category Category, key string) (io.ReadCloser, error) {
	src, err := b.path(category, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(src)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	return f, nil
}

func (b *localBucket) Delete(ctx context.Context, category Category, key string) error {
	p, err := b.path(category, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (b *localBucket) PublicURL(category Category, key string) string {
	k, err := cleanKey(key)
	if err != nil {
		return ""
	}
	if b.publicBaseURL == "" {
		return "/" + string(category) + "/" + k
	}
	return b.publicBaseURL + "/" + url.PathEscape(string(category)) + "/" + k
}
