package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/materials-registry/internal/data/repos/testutil"
	domainagg "github.com/yungbote/materials-registry/internal/domain/aggregates"
	"github.com/yungbote/materials-registry/internal/domain/characteristics"
	domainmaterials "github.com/yungbote/materials-registry/internal/domain/materials"
	"github.com/yungbote/materials-registry/internal/platform/gcp/gcptest"
)

func TestResolveComputesNewRefs(t *testing.T) {
	bucket := gcptest.NewMemoryBucket()
	svc := NewAttachmentService(testutil.Logger(t), bucket, AttachmentLimits{}, nil)
	materialID, charID := uuid.New(), uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	plan, err := svc.Resolve(context.Background(), materialID, charID, []uuid.UUID{a, b, c}, characteristics.FileSubmission{
		Add:    []characteristics.Upload{textUpload("d.txt", "D")},
		Delete: []uuid.UUID{b},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(plan.Refs) != 3 || plan.Refs[0] != a || plan.Refs[1] != c {
		t.Fatalf("refs: got=%v", plan.Refs)
	}
	if len(plan.Removed) != 1 || plan.Removed[0] != b {
		t.Fatalf("removed: got=%v", plan.Removed)
	}
	if len(plan.Added) != 1 || plan.Refs[2] != plan.Added[0].ID {
		t.Fatalf("added: got=%+v", plan.Added)
	}
	att := plan.Added[0]
	if att.MaterialID != materialID || att.CharacteristicID != charID {
		t.Fatalf("ownership: got=%+v", att)
	}
	if !strings.HasPrefix(att.Path, domainmaterials.AttachmentPrefix(materialID, charID)) || !strings.HasSuffix(att.Path, ".txt") {
		t.Fatalf("path layout: got=%q", att.Path)
	}
	if !bucket.Has(att.Path) {
		t.Fatalf("blob not stored")
	}
	if got := svc.PublicURL(att); !strings.HasSuffix(got, att.Path) {
		t.Fatalf("public url: got=%q", got)
	}
}

func TestResolveBatchLimitIsInclusive(t *testing.T) {
	bucket := gcptest.NewMemoryBucket()
	svc := NewAttachmentService(testutil.Logger(t), bucket, AttachmentLimits{MaxFileBytes: 10, MaxBatchBytes: 20}, nil)

	plan, err := svc.Resolve(context.Background(), uuid.New(), uuid.New(), nil, characteristics.FileSubmission{
		Add: []characteristics.Upload{sizedUpload("a", 10), sizedUpload("b", 10)},
	})
	if err != nil {
		t.Fatalf("batch at the limit should pass: %v", err)
	}
	if len(plan.Added) != 2 || bucket.Len() != 2 {
		t.Fatalf("stored: plan=%d bucket=%d", len(plan.Added), bucket.Len())
	}

	existing := plan.Refs
	plan, err = svc.Resolve(context.Background(), uuid.New(), uuid.New(), existing, characteristics.FileSubmission{
		Add: []characteristics.Upload{sizedUpload("c", 10), sizedUpload("d", 10), sizedUpload("e", 1)},
	})
	if plan != nil {
		t.Fatalf("rejected batch should return no plan")
	}
	var batch *domainagg.BatchTooLargeError
	if !errors.As(err, &batch) || batch.Total != 21 || batch.Limit != 20 {
		t.Fatalf("want BatchTooLargeError got=%v", err)
	}
	if !domainagg.IsCode(err, domainagg.CodeResourceLimit) {
		t.Fatalf("code: got=%s", domainagg.CodeOf(err))
	}
	if bucket.Len() != 2 {
		t.Fatalf("rejected batch stored blobs: got=%d", bucket.Len())
	}
}

func TestResolveDropsOversizedFiles(t *testing.T) {
	bucket := gcptest.NewMemoryBucket()
	svc := NewAttachmentService(testutil.Logger(t), bucket, AttachmentLimits{MaxFileBytes: 5, MaxBatchBytes: 100}, nil)

	plan, err := svc.Resolve(context.Background(), uuid.New(), uuid.New(), nil, characteristics.FileSubmission{
		Add: []characteristics.Upload{sizedUpload("ok", 5), sizedUpload("big", 6)},
	})
	if !errors.Is(err, domainagg.ErrFileTooLarge) {
		t.Fatalf("want ErrFileTooLarge got=%v", err)
	}
	if plan == nil || len(plan.Added) != 1 || plan.Added[0].Name != "ok" {
		t.Fatalf("plan: got=%+v", plan)
	}
	if len(plan.Dropped) != 1 || plan.Dropped[0] != "big" {
		t.Fatalf("dropped: got=%v", plan.Dropped)
	}
}

func TestResolveStorageFailureStoresNothing(t *testing.T) {
	bucket := gcptest.NewMemoryBucket()
	calls := 0
	bucket.FailUpload = func(string) bool {
		calls++
		return calls == 2
	}
	svc := NewAttachmentService(testutil.Logger(t), bucket, AttachmentLimits{Concurrency: 1}, nil)

	plan, err := svc.Resolve(context.Background(), uuid.New(), uuid.New(), nil, characteristics.FileSubmission{
		Add: []characteristics.Upload{textUpload("good.txt", "g"), textUpload("bad.txt", "b")},
	})
	if plan != nil {
		t.Fatalf("failed upload should return no plan")
	}
	if !errors.Is(err, domainagg.ErrStorageWriteFailed) || !domainagg.IsCode(err, domainagg.CodeStorage) {
		t.Fatalf("want storage failure got=%v", err)
	}
	if bucket.Len() != 0 {
		t.Fatalf("partial uploads should be discarded, got=%d", bucket.Len())
	}
}

func TestPurgeToleratesDeleteFailures(t *testing.T) {
	bucket := gcptest.NewMemoryBucket()
	svc := NewAttachmentService(testutil.Logger(t), bucket, AttachmentLimits{}, nil)
	plan, err := svc.Resolve(context.Background(), uuid.New(), uuid.New(), nil, characteristics.FileSubmission{
		Add: []characteristics.Upload{textUpload("a.txt", "a"), textUpload("b.txt", "b")},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	stuck := plan.Added[0].Path
	bucket.FailDelete = func(key string) bool { return key == stuck }
	svc.Purge(context.Background(), plan.Added)
	if bucket.Len() != 1 || !bucket.Has(stuck) {
		t.Fatalf("remaining blobs: want=1 got=%d", bucket.Len())
	}
}
