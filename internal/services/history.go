package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/materials-registry/internal/data/repos"
	types "github.com/yungbote/materials-registry/internal/domain"
	domainagg "github.com/yungbote/materials-registry/internal/domain/aggregates"
	"github.com/yungbote/materials-registry/internal/domain/characteristics"
	domainmaterials "github.com/yungbote/materials-registry/internal/domain/materials"
	"github.com/yungbote/materials-registry/internal/observability"
	"github.com/yungbote/materials-registry/internal/platform/dbctx"
	"github.com/yungbote/materials-registry/internal/platform/logger"
	"github.com/yungbote/materials-registry/internal/realtime"
	"github.com/yungbote/materials-registry/internal/realtime/bus"
)

const defaultHistoryLimit = 50

// HistoryService builds and reads the append-only material history.
type HistoryService interface {
	// BuildSnapshot reads the current denormalized state without writing it.
	BuildSnapshot(dbc dbctx.Context, materialID uuid.UUID) (*types.MaterialHistory, error)
	// AppendSnapshot builds and writes a new history record from the current state.
	AppendSnapshot(ctx context.Context, materialID, actorID uuid.UUID, reason types.HistoryReason) (*types.MaterialHistory, error)
	// AppendRecord writes a record built earlier, typically inside the
	// transaction that produced the material version it describes.
	AppendRecord(ctx context.Context, rec *types.MaterialHistory) (*types.MaterialHistory, error)
	ListHistory(ctx context.Context, materialID uuid.UUID, limit int) ([]*types.MaterialHistory, error)
	GetHistoryRecord(ctx context.Context, id uuid.UUID) (*types.MaterialHistory, error)
	// Backfill appends a snapshot for the selected materials, or for the
	// oldest Limit materials when none are selected.
	Backfill(ctx context.Context, in BackfillInput) (*BackfillReport, error)
}

type BackfillInput struct {
	ActorID     uuid.UUID
	MaterialIDs []uuid.UUID
	Limit       int
	DryRun      bool
}

type BackfillReport struct {
	Selected int
	Written  int
	Failed   int
	Failures map[uuid.UUID]string
}

type historyService struct {
	db    *gorm.DB
	log   *logger.Logger
	repos repos.Set
	bus   bus.Bus
}

func NewHistoryService(db *gorm.DB, baseLog *logger.Logger, set repos.Set, eventBus bus.Bus) HistoryService {
	if eventBus == nil {
		eventBus = bus.Noop()
	}
	return &historyService{
		db:    db,
		log:   baseLog.With("service", "HistoryService"),
		repos: set,
		bus:   eventBus,
	}
}

func (s *historyService) BuildSnapshot(dbc dbctx.Context, materialID uuid.UUID) (*types.MaterialHistory, error) {
	m, err := s.repos.Material.GetByID(dbc, materialID)
	if err != nil {
		return nil, fmt.Errorf("load material: %w", err)
	}
	if m == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, "History.BuildSnapshot",
			fmt.Sprintf("material not found: %s", materialID), domainagg.ErrMaterialNotFound)
	}

	tagRows, err := s.repos.MaterialLink.TagsForMaterial(dbc, m.ID)
	if err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	tagSnaps := make([]types.TagSnapshot, 0, len(tagRows))
	for _, t := range tagRows {
		tagSnaps = append(tagSnaps, types.TagSnapshot{Name: t.Name, Color: t.Color, FontColor: t.FontColor})
	}

	order := []uuid.UUID(m.OrderedCharacteristicIDs)
	defs, err := s.repos.Characteristic.GetByIDsIncludingDeleted(dbc, order)
	if err != nil {
		return nil, fmt.Errorf("load characteristics: %w", err)
	}
	defByID := make(map[uuid.UUID]*types.Characteristic, len(defs))
	for _, d := range defs {
		defByID[d.ID] = d
	}

	valueRows, err := s.repos.CharacteristicValue.GetByMaterialID(dbc, m.ID)
	if err != nil {
		return nil, fmt.Errorf("load values: %w", err)
	}
	valueByID := make(map[uuid.UUID]*types.CharacteristicValue, len(valueRows))
	for _, v := range valueRows {
		valueByID[v.CharacteristicID] = v
	}

	attRows, err := s.repos.FileAttachment.GetByMaterialID(dbc, m.ID)
	if err != nil {
		return nil, fmt.Errorf("load attachments: %w", err)
	}
	attByID := make(map[uuid.UUID]*types.FileAttachment, len(attRows))
	for _, a := range attRows {
		attByID[a.ID] = a
	}

	charSnaps := make([]types.CharacteristicSnapshot, 0, len(order))
	for _, id := range order {
		snap := types.CharacteristicSnapshot{CharacteristicID: id, Value: json.RawMessage("null")}
		def := defByID[id]
		if def != nil {
			snap.Name = def.Name
			snap.Type = def.Type
			snap.Units = def.Units
		}
		if row := valueByID[id]; row != nil && def != nil {
			raw, err := snapshotValue(def.Type, row, attByID)
			if err != nil {
				return nil, fmt.Errorf("characteristic %s: %w", id, err)
			}
			snap.Value = raw
		}
		charSnaps = append(charSnaps, snap)
	}

	return &types.MaterialHistory{
		MaterialID:      m.ID,
		Name:            m.Name,
		Description:     m.Description,
		MaterialVersion: m.Version,
		Tags:            datatypes.JSONSlice[types.TagSnapshot](tagSnaps),
		Characteristics: datatypes.JSONSlice[types.CharacteristicSnapshot](charSnaps),
	}, nil
}

// snapshotValue renders the stored value, flattening file refs to
// {file: [{type, name, path}]} in ref order.
func snapshotValue(t characteristics.Type, row *types.CharacteristicValue, atts map[uuid.UUID]*types.FileAttachment) (json.RawMessage, error) {
	v, err := row.Decode(t)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return json.RawMessage("null"), nil
	}
	files, ok := v.(characteristics.Files)
	if !ok {
		return characteristics.Encode(v)
	}
	out := domainmaterials.FilesSnapshot{File: make([]domainmaterials.FileSnapshot, 0, len(files.Refs))}
	for _, ref := range files.Refs {
		att := atts[ref]
		if att == nil {
			continue
		}
		out.File = append(out.File, domainmaterials.FileSnapshot{Type: att.Type, Name: att.Name, Path: att.Path})
	}
	return json.Marshal(out)
}

func (s *historyService) AppendSnapshot(ctx context.Context, materialID, actorID uuid.UUID, reason types.HistoryReason) (*types.MaterialHistory, error) {
	ctx, span := observability.Tracer().Start(ctx, "history.append_snapshot")
	defer span.End()
	span.SetAttributes(
		attribute.String("material_id", materialID.String()),
		attribute.String("reason", string(reason)),
	)

	var rec *types.MaterialHistory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		built, err := s.BuildSnapshot(dbc, materialID)
		if err != nil {
			return err
		}
		built.ActorID = actorID
		built.Reason = reason
		built.CreatedAt = time.Now().UTC()
		if err := s.repos.MaterialHistory.Create(dbc, built); err != nil {
			return fmt.Errorf("write history: %w", err)
		}
		rec = built
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.publish(ctx, rec)
	return rec, nil
}

func (s *historyService) AppendRecord(ctx context.Context, rec *types.MaterialHistory) (*types.MaterialHistory, error) {
	if rec == nil || rec.MaterialID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, "History.AppendRecord", "missing history record", nil)
	}
	ctx, span := observability.Tracer().Start(ctx, "history.append_record")
	defer span.End()
	span.SetAttributes(
		attribute.String("material_id", rec.MaterialID.String()),
		attribute.Int64("material_version", rec.MaterialVersion),
		attribute.String("reason", string(rec.Reason)),
	)

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if err := s.repos.MaterialHistory.Create(dbctx.Context{Ctx: ctx}, rec); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("write history: %w", err)
	}
	s.publish(ctx, rec)
	return rec, nil
}

func (s *historyService) publish(ctx context.Context, rec *types.MaterialHistory) {
	if err := s.bus.Publish(ctx, realtime.Event{
		Type:       realtime.EventHistoryAppended,
		MaterialID: rec.MaterialID,
		HistoryID:  rec.ID,
		Version:    rec.MaterialVersion,
		Reason:     string(rec.Reason),
		ActorID:    rec.ActorID,
		At:         rec.CreatedAt,
	}); err != nil {
		s.log.Warn("History event publish failed", "material_id", rec.MaterialID, "history_id", rec.ID, "error", err)
	}
}

func (s *historyService) ListHistory(ctx context.Context, materialID uuid.UUID, limit int) ([]*types.MaterialHistory, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.repos.MaterialHistory.ListByMaterialID(dbctx.Context{Ctx: ctx}, materialID, limit)
}

func (s *historyService) GetHistoryRecord(ctx context.Context, id uuid.UUID) (*types.MaterialHistory, error) {
	rec, err := s.repos.MaterialHistory.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, "History.GetRecord",
			fmt.Sprintf("history record not found: %s", id), domainagg.ErrHistoryNotFound)
	}
	return rec, nil
}

func (s *historyService) Backfill(ctx context.Context, in BackfillInput) (*BackfillReport, error) {
	ids := in.MaterialIDs
	if len(ids) == 0 {
		var err error
		ids, err = s.repos.Material.ListIDs(dbctx.Context{Ctx: ctx}, in.Limit)
		if err != nil {
			return nil, fmt.Errorf("list materials: %w", err)
		}
	}

	report := &BackfillReport{Selected: len(ids), Failures: map[uuid.UUID]string{}}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		var err error
		if in.DryRun {
			_, err = s.BuildSnapshot(dbctx.Context{Ctx: ctx}, id)
		} else {
			_, err = s.AppendSnapshot(ctx, id, in.ActorID, domainmaterials.HistoryReasonBackfill)
		}
		if err != nil {
			report.Failed++
			report.Failures[id] = err.Error()
			s.log.Warn("Backfill snapshot failed", "material_id", id, "dry_run", in.DryRun, "error", err)
			continue
		}
		if !in.DryRun {
			report.Written++
		}
	}
	s.log.Info("Backfill finished", "selected", report.Selected, "written", report.Written, "failed", report.Failed, "dry_run", in.DryRun)
	return report, nil
}
