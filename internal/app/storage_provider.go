package app

import (
	"errors"
	"fmt"

	"github.com/yungbote/materials-registry/internal/platform/gcp"
	"github.com/yungbote/materials-registry/internal/platform/logger"
)

// Swapped in tests.
var newBucketService = gcp.NewBucketService

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorMissingBucket       StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

var configErrorCodes = map[gcp.ObjectStorageConfigErrorCode]StorageProviderBootstrapErrorCode{
	gcp.ObjectStorageConfigErrorInvalidMode:         StorageProviderBootstrapErrorInvalidMode,
	gcp.ObjectStorageConfigErrorMissingEmulatorHost: StorageProviderBootstrapErrorMissingEmulatorHost,
	gcp.ObjectStorageConfigErrorInvalidEmulatorHost: StorageProviderBootstrapErrorInvalidEmulatorHost,
	gcp.ObjectStorageConfigErrorMissingBucket:       StorageProviderBootstrapErrorMissingBucket,
}

// StorageProviderBootstrapError is returned when the attachment bucket cannot
// be configured or reached at startup.
type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Bucket       string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	return fmt.Sprintf("attachment storage %s (mode=%q emulator_host=%q bucket=%q): %v",
		e.Code, e.Mode, e.EmulatorHost, e.Bucket, e.Cause)
}

func (e *StorageProviderBootstrapError) Unwrap() error { return e.Cause }

// resolveBucketService picks GCS or the fake-gcs emulator and connects to
// the attachment bucket.
func resolveBucketService(log *logger.Logger, cfg Config) (gcp.BucketService, error) {
	storageCfg, err := gcp.ResolveObjectStorageConfig(cfg.ObjectStorageMode, cfg.StorageEmulatorHost)
	if err == nil {
		log.Info("Attachment storage selected",
			"mode", storageCfg.Mode,
			"mode_source", storageCfg.ModeSource(),
			"emulator_host", storageCfg.EmulatorHost,
			"bucket", cfg.AttachmentBucket,
		)
		var bucket gcp.BucketService
		bucket, err = newBucketService(log, gcp.BucketConfig{
			Name:          cfg.AttachmentBucket,
			CDNDomain:     cfg.AttachmentCDNDomain,
			PublicBaseURL: cfg.AttachmentBaseURL,
			Storage:       storageCfg,
		})
		if err == nil {
			return bucket, nil
		}
	}

	bootErr := classifyStorageProviderBootstrapError(storageCfg, cfg.AttachmentBucket, err)
	log.Error("Attachment storage unavailable",
		"mode", cfg.ObjectStorageMode,
		"emulator_host", cfg.StorageEmulatorHost,
		"bucket", cfg.AttachmentBucket,
		"error_code", storageProviderBootstrapErrorCode(bootErr),
		"error", err,
	)
	return nil, bootErr
}

func classifyStorageProviderBootstrapError(storageCfg gcp.ObjectStorageConfig, bucket string, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *gcp.ObjectStorageConfigError
	if errors.As(err, &cfgErr) {
		if mapped, ok := configErrorCodes[cfgErr.Code]; ok {
			code = mapped
		}
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         string(storageCfg.Mode),
		EmulatorHost: storageCfg.EmulatorHost,
		Bucket:       bucket,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootErr *StorageProviderBootstrapError
	if errors.As(err, &bootErr) && bootErr.Code != "" {
		return bootErr.Code
	}
	return StorageProviderBootstrapErrorConnectFailed
}
