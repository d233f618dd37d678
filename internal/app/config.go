package app

import (
	"strings"
	"time"

	"github.com/yungbote/materials-registry/internal/data/db"
	"github.com/yungbote/materials-registry/internal/observability"
	"github.com/yungbote/materials-registry/internal/platform/envutil"
	"github.com/yungbote/materials-registry/internal/platform/logger"
	"github.com/yungbote/materials-registry/internal/services"
)

const serviceName = "materials-registry"

type Config struct {
	Port        string
	LogMode     string
	Environment string
	Version     string

	Postgres    db.PostgresConfig
	AutoMigrate bool

	ObjectStorageMode   string
	StorageEmulatorHost string
	AttachmentBucket    string
	AttachmentCDNDomain string
	AttachmentBaseURL   string

	Attachments   services.AttachmentLimits
	NameMinLength int
	Snapshots     services.SnapshotQueueConfig

	RedisAddr    string
	RedisChannel string

	MetricsAddr string
	CORSOrigins []string
	Otel        observability.OtelConfig
}

func LoadConfig(log *logger.Logger) Config {
	environment := envutil.String("ENVIRONMENT", "development")
	version := envutil.String("SERVICE_VERSION", "dev")

	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		LogMode:     envutil.String("LOG_MODE", "development"),
		Environment: environment,
		Version:     version,

		Postgres: db.PostgresConfig{
			DSN:             envutil.String("POSTGRES_DSN", ""),
			Host:            envutil.String("POSTGRES_HOST", "localhost"),
			Port:            envutil.String("POSTGRES_PORT", "5432"),
			User:            envutil.String("POSTGRES_USER", "postgres"),
			Password:        envutil.String("POSTGRES_PASSWORD", "postgres"),
			Name:            envutil.String("POSTGRES_NAME", "materials"),
			MaxOpenConns:    envutil.Int("POSTGRES_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    envutil.Int("POSTGRES_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: envutil.Duration("POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		AutoMigrate: envutil.Bool("AUTO_MIGRATE", true),

		ObjectStorageMode:   envutil.String("OBJECT_STORAGE_MODE", ""),
		StorageEmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", ""),
		AttachmentBucket:    envutil.String("ATTACHMENT_GCS_BUCKET_NAME", ""),
		AttachmentCDNDomain: envutil.String("ATTACHMENT_CDN_DOMAIN", ""),
		AttachmentBaseURL:   envutil.String("ATTACHMENT_PUBLIC_BASE_URL", ""),

		Attachments: services.AttachmentLimits{
			MaxFileBytes:  envutil.Int64("ATTACHMENT_MAX_FILE_BYTES", services.DefaultMaxFileBytes),
			MaxBatchBytes: envutil.Int64("ATTACHMENT_MAX_BATCH_BYTES", services.DefaultMaxBatchBytes),
			Concurrency:   envutil.Int("ATTACHMENT_UPLOAD_CONCURRENCY", services.DefaultUploadConcurrency),
		},
		NameMinLength: envutil.Int("MATERIAL_NAME_MIN_LENGTH", services.DefaultNameMinLength),
		Snapshots: services.SnapshotQueueConfig{
			Workers:    envutil.Int("SNAPSHOT_WORKERS", 2),
			QueueSize:  envutil.Int("SNAPSHOT_QUEUE_SIZE", 256),
			Timeout:    envutil.Duration("SNAPSHOT_TIMEOUT", 30*time.Second),
			SubmitWait: envutil.Duration("SNAPSHOT_SUBMIT_WAIT", 250*time.Millisecond),
		},

		RedisAddr:    envutil.String("REDIS_ADDR", ""),
		RedisChannel: envutil.String("REDIS_CHANNEL", "material-events"),

		MetricsAddr: envutil.String("METRICS_ADDR", ""),
		CORSOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", serviceName),
			Environment: environment,
			Version:     version,
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", false),
			Headers:     envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ""),
			SampleRatio: envutil.Float64("OTEL_SAMPLER_RATIO", 1.0),
		},
	}

	if log != nil {
		log.Info("Config loaded",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"auto_migrate", cfg.AutoMigrate,
			"object_storage_mode", cfg.ObjectStorageMode,
			"attachment_bucket", cfg.AttachmentBucket,
			"max_file_bytes", cfg.Attachments.MaxFileBytes,
			"max_batch_bytes", cfg.Attachments.MaxBatchBytes,
			"snapshot_workers", cfg.Snapshots.Workers,
			"redis_enabled", cfg.RedisAddr != "",
			"otel_enabled", cfg.Otel.Enabled,
		)
	}
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
