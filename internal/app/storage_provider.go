package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/omex-backend/internal/platform/logger"
	"github.com/yungbote/omex-backend/internal/platform/objectstorage"
)

var (
	newLocalBucket = objectstorage.NewLocalBucket
	newGCSBucket   = objectstorage.NewGCSBucket
)

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingLocalDir     StorageProviderBootstrapErrorCode = "missing_local_dir"
	StorageProviderBootstrapErrorMissingBucket       StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf("object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code, e.Mode, e.EmulatorHost, e.Cause)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func storageConfig(cfg Config) objectstorage.Config {
	return objectstorage.Config{
		Mode:         objectstorage.Mode(cfg.ObjectStorageMode),
		LocalDir:     cfg.UploadDir,
		EmulatorHost: cfg.StorageEmulatorHost,
		Buckets: map[objectstorage.Category]string{
			objectstorage.CategoryAvatar: cfg.AvatarGCSBucket,
			objectstorage.CategoryUpload: cfg.UploadGCSBucket,
		},
		PublicBaseURL: cfg.PublicBaseURL,
	}
}

// resolveBucket validates the object storage settings and opens the selected backend.
func resolveBucket(ctx context.Context, log *logger.Logger, cfg Config) (objectstorage.Bucket, error) {
	storageCfg := storageConfig(cfg)
	if err := objectstorage.ValidateConfig(&storageCfg); err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error("Object storage provider selection failed",
			"mode", storageCfg.Mode,
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", err,
		)
		return nil, classified
	}

	log.Info("Selecting object storage provider", "mode", storageCfg.Mode, "emulator_host", storageCfg.EmulatorHost)

	var (
		bucket objectstorage.Bucket
		err    error
	)
	if storageCfg.Mode == objectstorage.ModeLocal {
		bucket, err = newLocalBucket(log, storageCfg.LocalDir, storageCfg.PublicBaseURL)
	} else {
		bucket, err = newGCSBucket(ctx, log, storageCfg)
	}
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error("Object storage provider bootstrap failed",
			"mode", storageCfg.Mode,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", err,
		)
		return nil, classified
	}
	return bucket, nil
}

func classifyStorageProviderBootstrapError(storageCfg objectstorage.Config, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *objectstorage.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case objectstorage.ConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case objectstorage.ConfigErrorMissingLocalDir:
			code = StorageProviderBootstrapErrorMissingLocalDir
		case objectstorage.ConfigErrorMissingBucket:
			code = StorageProviderBootstrapErrorMissingBucket
		case objectstorage.ConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case objectstorage.ConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		}
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         string(storageCfg.Mode),
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return StorageProviderBootstrapErrorConnectFailed
}
