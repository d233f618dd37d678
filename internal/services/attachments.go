package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	types "github.com/yungbote/materials-registry/internal/domain"
	domainagg "github.com/yungbote/materials-registry/internal/domain/aggregates"
	"github.com/yungbote/materials-registry/internal/domain/characteristics"
	domainmaterials "github.com/yungbote/materials-registry/internal/domain/materials"
	"github.com/yungbote/materials-registry/internal/observability"
	"github.com/yungbote/materials-registry/internal/platform/dbctx"
	"github.com/yungbote/materials-registry/internal/platform/gcp"
	"github.com/yungbote/materials-registry/internal/platform/logger"
)

const (
	DefaultMaxFileBytes      int64 = 10 << 20
	DefaultMaxBatchBytes     int64 = 50 << 20
	DefaultUploadConcurrency       = 4
)

type AttachmentLimits struct {
	MaxFileBytes  int64
	MaxBatchBytes int64
	Concurrency   int
}

func (l AttachmentLimits) withDefaults() AttachmentLimits {
	if l.MaxFileBytes <= 0 {
		l.MaxFileBytes = DefaultMaxFileBytes
	}
	if l.MaxBatchBytes <= 0 {
		l.MaxBatchBytes = DefaultMaxBatchBytes
	}
	if l.Concurrency < 1 {
		l.Concurrency = DefaultUploadConcurrency
	}
	return l
}

// AttachmentPlan is the resolved file state of one characteristic. Added blobs
// are already stored; Removed refs are still stored until Purge.
type AttachmentPlan struct {
	Refs    []uuid.UUID
	Added   []types.FileAttachment
	Removed []uuid.UUID
	// Dropped names files rejected for exceeding the per-file limit.
	Dropped []string
}

// AttachmentService manages the stored binaries behind file values.
type AttachmentService interface {
	// Resolve computes existing - sub.Delete + uploaded(sub.Add). Per-file
	// oversize drops the file and reports it in the plan with a
	// *FileTooLargeError; batch oversize or a storage failure stores nothing.
	Resolve(ctx context.Context, materialID, characteristicID uuid.UUID, existing []uuid.UUID, sub characteristics.FileSubmission) (*AttachmentPlan, error)
	// Discard deletes blobs of attachments whose rows were never committed.
	Discard(ctx context.Context, atts []types.FileAttachment)
	// Purge deletes blobs of attachments whose rows were removed. Failures leak
	// storage and are logged.
	Purge(ctx context.Context, atts []types.FileAttachment)
	PublicURL(att types.FileAttachment) string
}

type attachmentService struct {
	log     *logger.Logger
	bucket  gcp.BucketService
	limits  AttachmentLimits
	metrics *observability.Metrics
}

func NewAttachmentService(baseLog *logger.Logger, bucket gcp.BucketService, limits AttachmentLimits, metrics *observability.Metrics) AttachmentService {
	return &attachmentService{
		log:     baseLog.With("service", "AttachmentService"),
		bucket:  bucket,
		limits:  limits.withDefaults(),
		metrics: metrics,
	}
}

func (s *attachmentService) Resolve(ctx context.Context, materialID, characteristicID uuid.UUID, existing []uuid.UUID, sub characteristics.FileSubmission) (*AttachmentPlan, error) {
	plan := &AttachmentPlan{}

	toDelete := make(map[uuid.UUID]struct{}, len(sub.Delete))
	for _, id := range sub.Delete {
		toDelete[id] = struct{}{}
	}
	for _, id := range existing {
		if _, ok := toDelete[id]; ok {
			plan.Removed = append(plan.Removed, id)
			continue
		}
		plan.Refs = append(plan.Refs, id)
	}

	accepted := make([]characteristics.Upload, 0, len(sub.Add))
	var total int64
	for _, up := range sub.Add {
		if up.Size > s.limits.MaxFileBytes {
			plan.Dropped = append(plan.Dropped, up.Name)
			s.metrics.IncRejectedFile("file_too_large")
			continue
		}
		accepted = append(accepted, up)
		total += up.Size
	}

	var dropErr error
	if len(plan.Dropped) > 0 {
		s.log.Warn("Dropped oversized files",
			"material_id", materialID,
			"characteristic_id", characteristicID,
			"files", plan.Dropped,
			"limit", s.limits.MaxFileBytes,
		)
		dropErr = &domainagg.FileTooLargeError{
			CharacteristicID: characteristicID,
			Limit:            s.limits.MaxFileBytes,
			Files:            plan.Dropped,
		}
	}

	if total > s.limits.MaxBatchBytes {
		names := make([]string, 0, len(accepted))
		for _, up := range accepted {
			names = append(names, up.Name)
		}
		s.metrics.IncRejectedFile("batch_too_large")
		return nil, domainagg.NewError(domainagg.CodeResourceLimit, "Attachments.Resolve",
			fmt.Sprintf("characteristic %s file batch rejected", characteristicID),
			&domainagg.BatchTooLargeError{
				CharacteristicID: characteristicID,
				Limit:            s.limits.MaxBatchBytes,
				Total:            total,
				Files:            names,
			})
	}

	added, err := s.upload(ctx, materialID, characteristicID, accepted)
	if err != nil {
		return nil, err
	}
	plan.Added = added
	for _, att := range added {
		plan.Refs = append(plan.Refs, att.ID)
	}

	s.metrics.AddReconciledFiles("added", len(plan.Added))
	s.metrics.AddReconciledFiles("kept", len(plan.Refs)-len(plan.Added))
	s.metrics.AddReconciledFiles("removed", len(plan.Removed))

	if dropErr != nil {
		return plan, domainagg.NewError(domainagg.CodeResourceLimit, "Attachments.Resolve", dropErr.Error(), dropErr)
	}
	return plan, nil
}

// upload stores every file or none of them.
func (s *attachmentService) upload(ctx context.Context, materialID, characteristicID uuid.UUID, uploads []characteristics.Upload) ([]types.FileAttachment, error) {
	if len(uploads) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	atts := make([]types.FileAttachment, len(uploads))
	for i, up := range uploads {
		id := uuid.New()
		atts[i] = types.FileAttachment{
			ID:               id,
			MaterialID:       materialID,
			CharacteristicID: characteristicID,
			Name:             strings.TrimSpace(up.Name),
			Type:             strings.TrimSpace(up.ContentType),
			SizeBytes:        up.Size,
			Path:             domainmaterials.AttachmentPath(materialID, characteristicID, id, up.Name),
			CreatedAt:        now,
		}
	}

	var (
		mu     sync.Mutex
		stored []types.FileAttachment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limits.Concurrency)
	for i := range uploads {
		up, att := uploads[i], atts[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			rc, err := up.Open()
			if err != nil {
				return fmt.Errorf("open %q: %w", up.Name, err)
			}
			defer rc.Close()
			if err := s.bucket.UploadFile(dbctx.Context{Ctx: gctx}, att.Path, rc, att.Type); err != nil {
				s.metrics.ObserveUpload("failure", 0)
				return fmt.Errorf("upload %q: %w", up.Name, err)
			}
			s.metrics.ObserveUpload("success", att.SizeBytes)
			mu.Lock()
			stored = append(stored, att)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("Attachment upload failed",
			"material_id", materialID,
			"characteristic_id", characteristicID,
			"error", err,
		)
		s.Discard(context.WithoutCancel(ctx), stored)
		return nil, domainagg.NewError(domainagg.CodeStorage, "Attachments.Resolve", err.Error(),
			errors.Join(domainagg.ErrStorageWriteFailed, err))
	}
	return atts, nil
}

func (s *attachmentService) Discard(ctx context.Context, atts []types.FileAttachment) {
	s.deleteBlobs(ctx, atts, "discard")
}

func (s *attachmentService) Purge(ctx context.Context, atts []types.FileAttachment) {
	s.deleteBlobs(ctx, atts, "purge")
}

func (s *attachmentService) deleteBlobs(ctx context.Context, atts []types.FileAttachment, action string) {
	for _, att := range atts {
		if strings.TrimSpace(att.Path) == "" {
			continue
		}
		if err := s.bucket.DeleteFile(dbctx.Context{Ctx: ctx}, att.Path); err != nil {
			s.metrics.IncPurgeFailure()
			s.log.Warn("Attachment blob delete failed",
				"action", action,
				"attachment_id", att.ID,
				"path", att.Path,
				"error", err,
			)
		}
	}
}

func (s *attachmentService) PublicURL(att types.FileAttachment) string {
	if strings.TrimSpace(att.Path) == "" {
		return ""
	}
	return s.bucket.GetPublicURL(att.Path)
}
