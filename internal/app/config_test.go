package app

import (
	"testing"
	"time"

	"github.com/yungbote/materials-registry/internal/services"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, name := range []string{
		"PORT", "POSTGRES_DSN", "ATTACHMENT_MAX_FILE_BYTES", "ATTACHMENT_MAX_BATCH_BYTES",
		"MATERIAL_NAME_MIN_LENGTH", "SNAPSHOT_WORKERS", "SNAPSHOT_TIMEOUT", "SNAPSHOT_SUBMIT_WAIT", "REDIS_CHANNEL",
		"CORS_ALLOWED_ORIGINS", "OTEL_SAMPLER_RATIO", "AUTO_MIGRATE",
	} {
		t.Setenv(name, "")
	}

	cfg := LoadConfig(nil)

	if cfg.Port != "8080" {
		t.Fatalf("port: want=8080 got=%q", cfg.Port)
	}
	if cfg.Attachments.MaxFileBytes != services.DefaultMaxFileBytes {
		t.Fatalf("max file bytes: want=%d got=%d", services.DefaultMaxFileBytes, cfg.Attachments.MaxFileBytes)
	}
	if cfg.Attachments.MaxBatchBytes != services.DefaultMaxBatchBytes {
		t.Fatalf("max batch bytes: want=%d got=%d", services.DefaultMaxBatchBytes, cfg.Attachments.MaxBatchBytes)
	}
	if cfg.NameMinLength != 3 {
		t.Fatalf("name min length: want=3 got=%d", cfg.NameMinLength)
	}
	if cfg.Snapshots.Workers != 2 || cfg.Snapshots.QueueSize != 256 || cfg.Snapshots.Timeout != 30*time.Second || cfg.Snapshots.SubmitWait != 250*time.Millisecond {
		t.Fatalf("snapshots: got=%+v", cfg.Snapshots)
	}
	if cfg.RedisChannel != "material-events" {
		t.Fatalf("redis channel: want=material-events got=%q", cfg.RedisChannel)
	}
	if !cfg.AutoMigrate {
		t.Fatalf("auto migrate: want=true")
	}
	if len(cfg.CORSOrigins) != 0 {
		t.Fatalf("cors origins: want none got=%v", cfg.CORSOrigins)
	}
	if cfg.Otel.SampleRatio != 1 || cfg.Otel.ServiceName != serviceName {
		t.Fatalf("otel: got=%+v", cfg.Otel)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("POSTGRES_DSN", "postgres://u:p@db:5432/materials")
	t.Setenv("ATTACHMENT_MAX_FILE_BYTES", "1024")
	t.Setenv("ATTACHMENT_MAX_BATCH_BYTES", "4096")
	t.Setenv("ATTACHMENT_UPLOAD_CONCURRENCY", "8")
	t.Setenv("MATERIAL_NAME_MIN_LENGTH", "5")
	t.Setenv("SNAPSHOT_WORKERS", "6")
	t.Setenv("SNAPSHOT_TIMEOUT", "5s")
	t.Setenv("SNAPSHOT_SUBMIT_WAIT", "1s")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, ,https://b.example.com ")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLER_RATIO", "0.1")

	cfg := LoadConfig(nil)

	if cfg.Port != "9090" {
		t.Fatalf("port: want=9090 got=%q", cfg.Port)
	}
	if got := cfg.Postgres.DataSourceName(); got != "postgres://u:p@db:5432/materials" {
		t.Fatalf("dsn: got=%q", got)
	}
	if cfg.Attachments.MaxFileBytes != 1024 || cfg.Attachments.MaxBatchBytes != 4096 || cfg.Attachments.Concurrency != 8 {
		t.Fatalf("attachments: got=%+v", cfg.Attachments)
	}
	if cfg.NameMinLength != 5 {
		t.Fatalf("name min length: want=5 got=%d", cfg.NameMinLength)
	}
	if cfg.Snapshots.Workers != 6 || cfg.Snapshots.Timeout != 5*time.Second || cfg.Snapshots.SubmitWait != time.Second {
		t.Fatalf("snapshots: got=%+v", cfg.Snapshots)
	}
	if cfg.AutoMigrate {
		t.Fatalf("auto migrate: want=false")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("cors origins: got=%v", cfg.CORSOrigins)
	}
	if !cfg.Otel.Enabled || cfg.Otel.SampleRatio != 0.1 {
		t.Fatalf("otel: got=%+v", cfg.Otel)
	}
}
