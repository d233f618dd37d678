package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dataagg "github.com/yungbote/materials-registry/internal/data/aggregates"
	"github.com/yungbote/materials-registry/internal/data/repos"
	types "github.com/yungbote/materials-registry/internal/domain"
	domainagg "github.com/yungbote/materials-registry/internal/domain/aggregates"
	domainmaterials "github.com/yungbote/materials-registry/internal/domain/materials"
	"github.com/yungbote/materials-registry/internal/platform/dbctx"
	"github.com/yungbote/materials-registry/internal/platform/logger"
)

type TagService interface {
	// UpdateTag applies the given fields. A changed name schedules one history
	// snapshot per material referencing the tag, built before commit.
	UpdateTag(ctx context.Context, in UpdateTagInput) (*UpdateTagResult, error)
}

// UpdateTagInput leaves nil fields unchanged.
type UpdateTagInput struct {
	ActorID   uuid.UUID
	TagID     uuid.UUID
	Name      *string
	Color     *string
	FontColor *string
}

type UpdateTagResult struct {
	Tag               *types.Tag `json:"tag"`
	SnapshotsQueued   int        `json:"snapshots_queued"`
	SnapshotsDropped  int        `json:"snapshots_dropped"`
	AffectedMaterials int        `json:"affected_materials"`
}

type tagService struct {
	db        *gorm.DB
	log       *logger.Logger
	repos     repos.Set
	build     dataagg.SnapshotBuilder
	snapshots SnapshotSubmitter
}

func NewTagService(db *gorm.DB, baseLog *logger.Logger, set repos.Set, build dataagg.SnapshotBuilder, snapshots SnapshotSubmitter) TagService {
	return &tagService{
		db:        db,
		log:       baseLog.With("service", "TagService"),
		repos:     set,
		build:     build,
		snapshots: snapshots,
	}
}

func (s *tagService) UpdateTag(ctx context.Context, in UpdateTagInput) (*UpdateTagResult, error) {
	const op = "Tags.Update"
	if in.TagID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing tag id", nil)
	}

	var (
		tag       *types.Tag
		renamed   bool
		materials []uuid.UUID
		records   []*types.MaterialHistory
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		current, err := s.repos.Tag.GetByID(dbc, in.TagID)
		if err != nil {
			return err
		}
		if current == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("tag not found: %s", in.TagID), domainagg.ErrTagNotFound)
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return domainagg.NewError(domainagg.CodeValidation, op, "tag name cannot be empty", nil)
			}
			if name != current.Name {
				updates["name"] = name
				current.Name = name
				renamed = true
			}
		}
		if in.Color != nil {
			updates["color"] = strings.TrimSpace(*in.Color)
			current.Color = strings.TrimSpace(*in.Color)
		}
		if in.FontColor != nil {
			updates["font_color"] = strings.TrimSpace(*in.FontColor)
			current.FontColor = strings.TrimSpace(*in.FontColor)
		}
		if len(updates) > 0 {
			updates["updated_at"] = time.Now().UTC()
			if err := s.repos.Tag.UpdateFields(dbc, current.ID, updates); err != nil {
				return err
			}
		}
		if renamed {
			materials, err = s.repos.MaterialLink.MaterialIDsForTag(dbc, current.ID)
			if err != nil {
				return err
			}
			records = s.buildSnapshots(dbc, materials)
		}
		tag = current
		return nil
	})
	if err != nil {
		return nil, dataagg.MapError(op, err)
	}

	out := &UpdateTagResult{Tag: tag, AffectedMaterials: len(materials)}
	now := time.Now().UTC()
	for _, rec := range records {
		rec.ActorID = in.ActorID
		rec.Reason = domainmaterials.HistoryReasonTagRenamed
		rec.CreatedAt = now
		if s.snapshots != nil && s.snapshots.Submit(SnapshotJob{Record: rec}) {
			out.SnapshotsQueued++
		} else {
			out.SnapshotsDropped++
		}
	}
	out.SnapshotsDropped += len(materials) - len(records)
	if renamed {
		s.log.Info("Tag renamed", "tag_id", tag.ID, "actor_id", in.ActorID, "materials", len(materials), "queued", out.SnapshotsQueued)
	}
	return out, nil
}

// buildSnapshots renders one record per material from the uncommitted rename.
// Materials whose record cannot be built are logged and skipped.
func (s *tagService) buildSnapshots(dbc dbctx.Context, materialIDs []uuid.UUID) []*types.MaterialHistory {
	if s.build == nil {
		return nil
	}
	out := make([]*types.MaterialHistory, 0, len(materialIDs))
	for _, id := range materialIDs {
		rec, err := s.build.InSavepoint(dbc, id)
		if err != nil {
			s.log.Warn("Snapshot build failed", "material_id", id, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out
}
