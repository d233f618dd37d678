package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/materials-registry/internal/data/repos"
	types "github.com/yungbote/materials-registry/internal/domain"
	domainagg "github.com/yungbote/materials-registry/internal/domain/aggregates"
	"github.com/yungbote/materials-registry/internal/domain/characteristics"
	domainmaterials "github.com/yungbote/materials-registry/internal/domain/materials"
	"github.com/yungbote/materials-registry/internal/observability"
	"github.com/yungbote/materials-registry/internal/platform/dbctx"
	"github.com/yungbote/materials-registry/internal/platform/logger"
)

const DefaultNameMinLength = 3

type MaterialService interface {
	CreateMaterial(ctx context.Context, in CreateMaterialInput) (*MaterialResult, error)
	UpdateMaterial(ctx context.Context, in UpdateMaterialInput) (*MaterialResult, error)
	GetMaterial(ctx context.Context, id uuid.UUID) (*MaterialView, error)
	DeleteMaterial(ctx context.Context, in DeleteMaterialInput) error
}

// ValueInput is one submitted characteristic value. Value is either a decoded
// JSON value or an already-built characteristics.Value.
type ValueInput struct {
	CharacteristicID uuid.UUID `json:"characteristicId"`
	Value            any       `json:"value"`
}

type CreateMaterialInput struct {
	ActorID                  uuid.UUID
	Name                     string
	Description              string
	TagIDs                   []uuid.UUID
	OrderedCharacteristicIDs []uuid.UUID
	Values                   []ValueInput
}

type UpdateMaterialInput struct {
	ActorID    uuid.UUID
	MaterialID uuid.UUID
	// Name may repeat the stored name; any other value is rejected.
	Name        string
	Description string
	// ExpectedVersion enables optimistic concurrency when > 0.
	ExpectedVersion          int64
	TagIDs                   []uuid.UUID
	OrderedCharacteristicIDs []uuid.UUID
	Values                   []ValueInput
}

type DeleteMaterialInput struct {
	ActorID         uuid.UUID
	MaterialID      uuid.UUID
	ExpectedVersion int64
}

// CharacteristicIssue reports a file update that was not applied in full.
type CharacteristicIssue struct {
	CharacteristicID uuid.UUID `json:"characteristic_id"`
	Characteristic   string    `json:"characteristic"`
	Code             string    `json:"code"`
	Message          string    `json:"message"`
	Limit            int64     `json:"limit,omitempty"`
	Files            []string  `json:"files,omitempty"`
}

const (
	IssueFileTooLarge       = "file_too_large"
	IssueBatchTooLarge      = "batch_too_large"
	IssueStorageWriteFailed = "storage_write_failed"
)

type MaterialResult struct {
	Material *MaterialView        `json:"material"`
	Issues   []CharacteristicIssue `json:"issues"`
	// Partial is set when the write committed but the full view could not
	// be read back; Material then carries only the material row.
	Partial bool `json:"partial,omitempty"`
}

type AttachmentView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	SizeBytes int64     `json:"size_bytes"`
	Path      string    `json:"path"`
	URL       string    `json:"url,omitempty"`
}

type CharacteristicValueView struct {
	CharacteristicID uuid.UUID            `json:"characteristic_id"`
	Name             string               `json:"name"`
	Type             characteristics.Type `json:"type"`
	Units            string               `json:"units,omitempty"`
	Options          []string             `json:"options,omitempty"`
	Value            json.RawMessage      `json:"value"`
	Files            []AttachmentView     `json:"files,omitempty"`
}

type MaterialView struct {
	ID              uuid.UUID                 `json:"id"`
	Name            string                    `json:"name"`
	Description     string                    `json:"description"`
	Version         int64                     `json:"version"`
	Tags            []types.Tag               `json:"tags"`
	Characteristics []CharacteristicValueView `json:"characteristics"`
	CreatedBy       uuid.UUID                 `json:"created_by"`
	UpdatedBy       uuid.UUID                 `json:"updated_by"`
	CreatedAt       time.Time                 `json:"created_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
}

type MaterialServiceConfig struct {
	NameMinLength int
}

type materialService struct {
	db          *gorm.DB
	log         *logger.Logger
	repos       repos.Set
	aggregate   domainagg.MaterialAggregate
	attachments AttachmentService
	snapshots   SnapshotSubmitter
	cfg         MaterialServiceConfig
}

func NewMaterialService(
	db *gorm.DB,
	baseLog *logger.Logger,
	set repos.Set,
	aggregate domainagg.MaterialAggregate,
	attachments AttachmentService,
	snapshots SnapshotSubmitter,
	cfg MaterialServiceConfig,
) MaterialService {
	if cfg.NameMinLength <= 0 {
		cfg.NameMinLength = DefaultNameMinLength
	}
	return &materialService{
		db:          db,
		log:         baseLog.With("service", "MaterialService"),
		repos:       set,
		aggregate:   aggregate,
		attachments: attachments,
		snapshots:   snapshots,
		cfg:         cfg,
	}
}

type reconcileRequest struct {
	op              string
	create          bool
	materialID      uuid.UUID
	name            string
	description     string
	expectedVersion int64
	actorID         uuid.UUID
	tagIDs          []uuid.UUID
	order           []uuid.UUID
	values          []ValueInput
}

func (s *materialService) CreateMaterial(ctx context.Context, in CreateMaterialInput) (*MaterialResult, error) {
	const op = "Materials.Create"
	name := strings.TrimSpace(in.Name)
	if utf8.RuneCountInString(name) < s.cfg.NameMinLength {
		return nil, domainagg.NewError(domainagg.CodeValidation, op,
			fmt.Sprintf("name must have at least %d characters", s.cfg.NameMinLength), domainagg.ErrNameTooShort)
	}
	return s.reconcile(ctx, reconcileRequest{
		op:          op,
		create:      true,
		materialID:  uuid.New(),
		name:        name,
		description: in.Description,
		actorID:     in.ActorID,
		tagIDs:      in.TagIDs,
		order:       in.OrderedCharacteristicIDs,
		values:      in.Values,
	})
}

func (s *materialService) UpdateMaterial(ctx context.Context, in UpdateMaterialInput) (*MaterialResult, error) {
	const op = "Materials.Update"
	if in.MaterialID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeValidation, op, "missing material id", nil)
	}
	m, err := s.repos.Material.GetByID(dbctx.Context{Ctx: ctx}, in.MaterialID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, errors.Join(domainagg.ErrPersistence, err))
	}
	if m == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op,
			fmt.Sprintf("material not found: %s", in.MaterialID), domainagg.ErrMaterialNotFound)
	}
	if name := strings.TrimSpace(in.Name); name != "" && name != m.Name {
		return nil, domainagg.NewError(domainagg.CodeValidation, op,
			fmt.Sprintf("cannot rename %q to %q", m.Name, name), domainagg.ErrNameImmutable)
	}
	return s.reconcile(ctx, reconcileRequest{
		op:              op,
		materialID:      m.ID,
		name:            m.Name,
		description:     in.Description,
		expectedVersion: in.ExpectedVersion,
		actorID:         in.ActorID,
		tagIDs:          in.TagIDs,
		order:           in.OrderedCharacteristicIDs,
		values:          in.Values,
	})
}

// reconcile validates the whole submission, stores new binaries, replaces the
// persisted value set in one transaction, then purges superseded binaries and
// schedules a history snapshot.
func (s *materialService) reconcile(ctx context.Context, req reconcileRequest) (*MaterialResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "material.reconcile")
	defer span.End()
	span.SetAttributes(
		attribute.String("material_id", req.materialID.String()),
		attribute.Bool("create", req.create),
		attribute.Int("values", len(req.values)),
	)

	dbc := dbctx.Context{Ctx: ctx}
	tagIDs, err := s.checkTags(dbc, req.op, req.tagIDs)
	if err != nil {
		return nil, err
	}
	defs, err := s.loadDefinitions(dbc, req.op, req.values)
	if err != nil {
		return nil, err
	}

	existing := map[uuid.UUID][]uuid.UUID{}
	if !req.create {
		existing, err = s.existingFileRefs(dbc, req.materialID, defs)
		if err != nil {
			return nil, domainagg.Wrap(domainagg.CodeInternal, req.op, errors.Join(domainagg.ErrPersistence, err))
		}
	}

	normalized := make([]characteristics.Value, len(req.values))
	for i, v := range req.values {
		def := defs[v.CharacteristicID]
		val, err := def.Normalize(v.Value)
		if err != nil {
			var shape *characteristics.ShapeError
			if errors.As(err, &shape) {
				return nil, domainagg.NewError(domainagg.CodeValidation, req.op, err.Error(), &domainagg.InvalidValueShapeError{
					CharacteristicID:   def.ID,
					CharacteristicName: def.Name,
					Shape:              shape,
				})
			}
			return nil, domainagg.Wrap(domainagg.CodeValidation, req.op, err)
		}
		normalized[i] = val
	}

	in := domainagg.ReconcileInput{
		MaterialID:      req.materialID,
		Create:          req.create,
		Name:            req.name,
		Description:     req.description,
		ExpectedVersion: req.expectedVersion,
		ActorID:         req.actorID,
		TagIDs:          tagIDs,
		SubmittedOrder:  req.order,
	}
	var issues []CharacteristicIssue
	for i, v := range req.values {
		def := defs[v.CharacteristicID]
		val := normalized[i]
		if def.Type.IsFile() {
			resolved, added, removed, issue := s.resolveFiles(ctx, req.materialID, def, existing[def.ID], val)
			if issue != nil {
				issues = append(issues, *issue)
			}
			in.NewAttachments = append(in.NewAttachments, added...)
			in.RemovedAttachmentIDs = append(in.RemovedAttachmentIDs, removed...)
			val = resolved
		}
		in.Values = append(in.Values, domainagg.ResolvedValue{CharacteristicID: def.ID, Value: val})
	}

	res, err := s.aggregate.Reconcile(ctx, in)
	if err != nil {
		span.RecordError(err)
		if len(in.NewAttachments) > 0 {
			s.attachments.Discard(context.WithoutCancel(ctx), in.NewAttachments)
		}
		s.log.Warn("Reconcile failed", "op", req.op, "material_id", req.materialID, "actor_id", req.actorID, "error", err)
		return nil, err
	}

	if len(res.RemovedAttachments) > 0 {
		s.attachments.Purge(context.WithoutCancel(ctx), res.RemovedAttachments)
	}

	reason := domainmaterials.HistoryReasonUpdate
	if req.create {
		reason = domainmaterials.HistoryReasonCreate
	}
	if rec := res.Snapshot; rec == nil {
		s.log.Warn("Snapshot skipped", "op", req.op, "material_id", res.Material.ID, "version", res.Material.Version)
	} else if s.snapshots != nil {
		rec.ActorID = req.actorID
		rec.Reason = reason
		rec.CreatedAt = res.Material.UpdatedAt
		s.snapshots.Submit(SnapshotJob{Record: rec})
	}

	if issues == nil {
		issues = []CharacteristicIssue{}
	}
	s.log.Info("Material reconciled",
		"op", req.op,
		"material_id", res.Material.ID,
		"version", res.Material.Version,
		"actor_id", req.actorID,
		"issues", len(issues),
	)

	// The write is committed; a failed re-read must not report it as failed.
	view, err := s.GetMaterial(ctx, res.Material.ID)
	if err != nil {
		s.log.Warn("Post-commit read failed", "op", req.op, "material_id", res.Material.ID, "version", res.Material.Version, "error", err)
		return &MaterialResult{Material: summaryView(res.Material), Issues: issues, Partial: true}, nil
	}
	return &MaterialResult{Material: view, Issues: issues}, nil
}

// summaryView renders the committed row without its links or values.
func summaryView(m types.Material) *MaterialView {
	return &MaterialView{
		ID:              m.ID,
		Name:            m.Name,
		Description:     m.Description,
		Version:         m.Version,
		Tags:            []types.Tag{},
		Characteristics: []CharacteristicValueView{},
		CreatedBy:       m.CreatedBy,
		UpdatedBy:       m.UpdatedBy,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// resolveFiles returns the Files value to persist for a file characteristic.
// A rejected batch or storage failure keeps the previous refs.
func (s *materialService) resolveFiles(ctx context.Context, materialID uuid.UUID, def *types.Characteristic, previous []uuid.UUID, val characteristics.Value) (characteristics.Files, []types.FileAttachment, []uuid.UUID, *CharacteristicIssue) {
	unchanged := characteristics.Files{Refs: append([]uuid.UUID{}, previous...)}

	switch v := val.(type) {
	case characteristics.Files:
		has := make(map[uuid.UUID]struct{}, len(previous))
		for _, id := range previous {
			has[id] = struct{}{}
		}
		want := make(map[uuid.UUID]struct{}, len(v.Refs))
		kept := make([]uuid.UUID, 0, len(v.Refs))
		for _, id := range v.Refs {
			if _, ok := has[id]; ok {
				kept = append(kept, id)
				want[id] = struct{}{}
			}
		}
		var removed []uuid.UUID
		for _, id := range previous {
			if _, ok := want[id]; !ok {
				removed = append(removed, id)
			}
		}
		return characteristics.Files{Refs: kept}, nil, removed, nil

	case characteristics.FileSubmission:
		plan, err := s.attachments.Resolve(ctx, materialID, def.ID, previous, v)
		if plan == nil {
			return unchanged, nil, nil, fileIssue(def, err)
		}
		var issue *CharacteristicIssue
		if err != nil {
			issue = fileIssue(def, err)
		}
		return characteristics.Files{Refs: plan.Refs}, plan.Added, plan.Removed, issue
	}
	return unchanged, nil, nil, nil
}

func fileIssue(def *types.Characteristic, err error) *CharacteristicIssue {
	issue := &CharacteristicIssue{
		CharacteristicID: def.ID,
		Characteristic:   def.Name,
		Code:             IssueStorageWriteFailed,
	}
	if err != nil {
		issue.Message = err.Error()
	}
	var tooLarge *domainagg.FileTooLargeError
	var batch *domainagg.BatchTooLargeError
	switch {
	case errors.As(err, &tooLarge):
		issue.Code = IssueFileTooLarge
		issue.Limit = tooLarge.Limit
		issue.Files = tooLarge.Files
		issue.Message = tooLarge.Error()
	case errors.As(err, &batch):
		issue.Code = IssueBatchTooLarge
		issue.Limit = batch.Limit
		issue.Files = batch.Files
		issue.Message = batch.Error()
	}
	return issue
}

func (s *materialService) checkTags(dbc dbctx.Context, op string, ids []uuid.UUID) ([]uuid.UUID, error) {
	ids = uniqueUUIDs(ids)
	if len(ids) == 0 {
		return ids, nil
	}
	rows, err := s.repos.Tag.GetByIDs(dbc, ids)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, errors.Join(domainagg.ErrPersistence, err))
	}
	found := make(map[uuid.UUID]struct{}, len(rows))
	for _, t := range rows {
		found[t.ID] = struct{}{}
	}
	if missing := missingIDs(ids, found); len(missing) > 0 {
		unknown := &domainagg.UnknownIDsError{Kind: domainagg.ErrUnknownTag, IDs: missing}
		return nil, domainagg.NewError(domainagg.CodeValidation, op, unknown.Error(), unknown)
	}
	return ids, nil
}

func (s *materialService) loadDefinitions(dbc dbctx.Context, op string, values []ValueInput) (map[uuid.UUID]*types.Characteristic, error) {
	ids := make([]uuid.UUID, 0, len(values))
	seen := make(map[uuid.UUID]struct{}, len(values))
	for _, v := range values {
		if v.CharacteristicID == uuid.Nil {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, "value without characteristic id", domainagg.ErrUnknownCharacteristic)
		}
		if _, dup := seen[v.CharacteristicID]; dup {
			return nil, domainagg.NewError(domainagg.CodeValidation, op,
				fmt.Sprintf("characteristic %s submitted twice", v.CharacteristicID), nil)
		}
		seen[v.CharacteristicID] = struct{}{}
		ids = append(ids, v.CharacteristicID)
	}
	rows, err := s.repos.Characteristic.GetByIDs(dbc, ids)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, errors.Join(domainagg.ErrPersistence, err))
	}
	defs := make(map[uuid.UUID]*types.Characteristic, len(rows))
	found := make(map[uuid.UUID]struct{}, len(rows))
	for _, d := range rows {
		defs[d.ID] = d
		found[d.ID] = struct{}{}
	}
	if missing := missingIDs(ids, found); len(missing) > 0 {
		unknown := &domainagg.UnknownIDsError{Kind: domainagg.ErrUnknownCharacteristic, IDs: missing}
		return nil, domainagg.NewError(domainagg.CodeValidation, op, unknown.Error(), unknown)
	}
	return defs, nil
}

// existingFileRefs returns the persisted refs of every submitted file
// characteristic.
func (s *materialService) existingFileRefs(dbc dbctx.Context, materialID uuid.UUID, defs map[uuid.UUID]*types.Characteristic) (map[uuid.UUID][]uuid.UUID, error) {
	rows, err := s.repos.CharacteristicValue.GetByMaterialID(dbc, materialID)
	if err != nil {
		return nil, err
	}
	out := map[uuid.UUID][]uuid.UUID{}
	for _, row := range rows {
		def := defs[row.CharacteristicID]
		if def == nil || !def.Type.IsFile() {
			continue
		}
		v, err := row.Decode(def.Type)
		if err != nil {
			return nil, fmt.Errorf("decode value of %s: %w", def.ID, err)
		}
		if files, ok := v.(characteristics.Files); ok {
			out[def.ID] = files.Refs
		}
	}
	return out, nil
}

func (s *materialService) GetMaterial(ctx context.Context, id uuid.UUID) (*MaterialView, error) {
	const op = "Materials.Get"
	dbc := dbctx.Context{Ctx: ctx}
	m, err := s.repos.Material.GetByID(dbc, id)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, errors.Join(domainagg.ErrPersistence, err))
	}
	if m == nil {
		return nil, domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("material not found: %s", id), domainagg.ErrMaterialNotFound)
	}

	view, err := s.buildView(dbc, m)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, errors.Join(domainagg.ErrPersistence, err))
	}
	return view, nil
}

func (s *materialService) buildView(dbc dbctx.Context, m *types.Material) (*MaterialView, error) {
	tagRows, err := s.repos.MaterialLink.TagsForMaterial(dbc, m.ID)
	if err != nil {
		return nil, err
	}
	order := []uuid.UUID(m.OrderedCharacteristicIDs)
	defs, err := s.repos.Characteristic.GetByIDsIncludingDeleted(dbc, order)
	if err != nil {
		return nil, err
	}
	defByID := make(map[uuid.UUID]*types.Characteristic, len(defs))
	for _, d := range defs {
		defByID[d.ID] = d
	}
	values, err := s.repos.CharacteristicValue.GetByMaterialID(dbc, m.ID)
	if err != nil {
		return nil, err
	}
	valueByID := make(map[uuid.UUID]*types.CharacteristicValue, len(values))
	for _, v := range values {
		valueByID[v.CharacteristicID] = v
	}
	atts, err := s.repos.FileAttachment.GetByMaterialID(dbc, m.ID)
	if err != nil {
		return nil, err
	}
	attByID := make(map[uuid.UUID]*types.FileAttachment, len(atts))
	for _, a := range atts {
		attByID[a.ID] = a
	}

	view := &MaterialView{
		ID:              m.ID,
		Name:            m.Name,
		Description:     m.Description,
		Version:         m.Version,
		Tags:            make([]types.Tag, 0, len(tagRows)),
		Characteristics: make([]CharacteristicValueView, 0, len(order)),
		CreatedBy:       m.CreatedBy,
		UpdatedBy:       m.UpdatedBy,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	for _, t := range tagRows {
		view.Tags = append(view.Tags, *t)
	}
	for _, id := range order {
		def, row := defByID[id], valueByID[id]
		if def == nil || row == nil {
			continue
		}
		cv := CharacteristicValueView{
			CharacteristicID: id,
			Name:             def.Name,
			Type:             def.Type,
			Units:            def.Units,
			Options:          []string(def.Options),
			Value:            json.RawMessage(row.Value),
		}
		if def.Type.IsFile() {
			v, err := row.Decode(def.Type)
			if err != nil {
				return nil, fmt.Errorf("decode value of %s: %w", id, err)
			}
			if files, ok := v.(characteristics.Files); ok {
				for _, ref := range files.Refs {
					att := attByID[ref]
					if att == nil {
						continue
					}
					cv.Files = append(cv.Files, AttachmentView{
						ID:        att.ID,
						Name:      att.Name,
						Type:      att.Type,
						SizeBytes: att.SizeBytes,
						Path:      att.Path,
						URL:       s.attachments.PublicURL(*att),
					})
				}
			}
		}
		view.Characteristics = append(view.Characteristics, cv)
	}
	return view, nil
}

func (s *materialService) DeleteMaterial(ctx context.Context, in DeleteMaterialInput) error {
	res, err := s.aggregate.Delete(ctx, domainagg.DeleteMaterialInput{
		MaterialID:      in.MaterialID,
		ExpectedVersion: in.ExpectedVersion,
		ActorID:         in.ActorID,
	})
	if err != nil {
		return err
	}
	if len(res.Attachments) > 0 {
		s.attachments.Purge(context.WithoutCancel(ctx), res.Attachments)
	}
	s.log.Info("Material deleted", "material_id", res.MaterialID, "actor_id", in.ActorID, "attachments", len(res.Attachments))
	return nil
}

func uniqueUUIDs(in []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(in))
	seen := make(map[uuid.UUID]struct{}, len(in))
	for _, id := range in {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func missingIDs(ids []uuid.UUID, found map[uuid.UUID]struct{}) []uuid.UUID {
	var out []uuid.UUID
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
