package objectstorage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

type Category string

const (
	CategoryAvatar Category = "avatar"
	CategoryUpload Category = "upload"
)

var (
	ErrObjectNotFound  = errors.New("object not found")
	ErrInvalidKey      = errors.New("invalid object key")
	ErrUnknownCategory = errors.New("unknown bucket category")
)

// Bucket stores opaque blobs addressed by (category, key).
type Bucket interface {
	Upload(ctx context.Context, category Category, key string, r io.Reader) error
	Download(ctx context.Context, category Category, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, category Category, key string) error
	PublicURL(category Category, key string) string
	Mode() Mode
}

// cleanKey rejects absolute keys and any key that escapes its category via "..".
func cleanKey(key string) (string, error) {
	k := strings.TrimSpace(key)
	if k == "" || strings.HasPrefix(k, "/") || strings.Contains(k, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean(k)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	default:
		return ""
	}
}
