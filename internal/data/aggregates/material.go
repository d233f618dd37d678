package aggregates

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/materials-registry/internal/data/repos"
	types "github.com/yungbote/materials-registry/internal/domain"
	domainagg "github.com/yungbote/materials-registry/internal/domain/aggregates"
	"github.com/yungbote/materials-registry/internal/domain/characteristics"
	domainmaterials "github.com/yungbote/materials-registry/internal/domain/materials"
	"github.com/yungbote/materials-registry/internal/platform/dbctx"
)

// SnapshotBuilder renders the history record for a material as seen by dbc.
type SnapshotBuilder func(dbc dbctx.Context, materialID uuid.UUID) (*types.MaterialHistory, error)

// InSavepoint runs the builder under a savepoint of dbc.Tx so a failed read
// leaves the enclosing transaction usable.
func (b SnapshotBuilder) InSavepoint(dbc dbctx.Context, materialID uuid.UUID) (*types.MaterialHistory, error) {
	if dbc.Tx == nil {
		return b(dbc, materialID)
	}
	var rec *types.MaterialHistory
	err := dbc.Tx.Transaction(func(sp *gorm.DB) error {
		built, err := b(dbctx.Context{Ctx: dbc.Ctx, Tx: sp}, materialID)
		if err != nil {
			return err
		}
		rec = built
		return nil
	})
	return rec, err
}

type MaterialAggregateDeps struct {
	Base BaseDeps

	Materials   repos.MaterialRepo
	Links       repos.MaterialLinkRepo
	Values      repos.CharacteristicValueRepo
	Attachments repos.FileAttachmentRepo

	// Snapshot is optional. When set, Reconcile builds the history record
	// from the uncommitted state and returns it in ReconcileResult.Snapshot.
	Snapshot SnapshotBuilder
}

type materialAggregate struct {
	deps MaterialAggregateDeps
}

func NewMaterialAggregate(deps MaterialAggregateDeps) domainagg.MaterialAggregate {
	deps.Base = deps.Base.withDefaults()
	return &materialAggregate{deps: deps}
}

func (a *materialAggregate) configured() bool {
	return a.deps.Materials != nil && a.deps.Links != nil && a.deps.Values != nil && a.deps.Attachments != nil
}

func (a *materialAggregate) Reconcile(ctx context.Context, in domainagg.ReconcileInput) (domainagg.ReconcileResult, error) {
	const op = "Materials.Material.Reconcile"
	var out domainagg.ReconcileResult
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "material aggregate repos not configured", nil)
	}
	if !in.Create && in.MaterialID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing material_id", nil)
	}
	if in.Create && strings.TrimSpace(in.Name) == "" {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing name", domainagg.ErrNameTooShort)
	}
	if in.ExpectedVersion < 0 {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "expected_version must be >= 0", nil)
	}

	valued := make([]uuid.UUID, 0, len(in.Values))
	seen := make(map[uuid.UUID]struct{}, len(in.Values))
	for _, v := range in.Values {
		if v.CharacteristicID == uuid.Nil || v.Value == nil {
			return out, domainagg.NewError(domainagg.CodeValidation, op, "value without characteristic or payload", nil)
		}
		if _, dup := seen[v.CharacteristicID]; dup {
			return out, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("duplicate value for characteristic %s", v.CharacteristicID), nil)
		}
		seen[v.CharacteristicID] = struct{}{}
		valued = append(valued, v.CharacteristicID)
	}
	order := domainmaterials.ReconcileOrder(in.SubmittedOrder, valued)

	now := time.Now().UTC()
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		var m *types.Material
		if in.Create {
			name := strings.TrimSpace(in.Name)
			existing, err := a.deps.Materials.GetByName(dbc, name)
			if err != nil {
				return err
			}
			if existing != nil {
				return domainagg.NewError(domainagg.CodeConflict, op, fmt.Sprintf("material name %q already in use", name), domainagg.ErrNameTaken)
			}
			m = &types.Material{
				ID:                       in.MaterialID,
				Name:                     name,
				Description:              in.Description,
				Version:                  1,
				OrderedCharacteristicIDs: datatypes.JSONSlice[uuid.UUID](order),
				CreatedBy:                in.ActorID,
				UpdatedBy:                in.ActorID,
				CreatedAt:                now,
				UpdatedAt:                now,
			}
			if m.ID == uuid.Nil {
				m.ID = uuid.New()
			}
			if err := a.deps.Materials.Create(dbc, m); err != nil {
				return err
			}
		} else {
			var err error
			m, err = a.deps.Materials.GetByID(dbc, in.MaterialID)
			if err != nil {
				return err
			}
			if m == nil {
				return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("material not found: %s", in.MaterialID), domainagg.ErrMaterialNotFound)
			}
			if in.ExpectedVersion > 0 && in.ExpectedVersion != m.Version {
				return versionConflict(op, m.Version, in.ExpectedVersion)
			}
		}

		removed, err := a.replaceAttachments(dbc, m.ID, in)
		if err != nil {
			return err
		}

		if err := a.deps.Values.DeleteByMaterialID(dbc, m.ID); err != nil {
			return err
		}
		rows := make([]*types.CharacteristicValue, 0, len(in.Values))
		for _, v := range in.Values {
			row, err := domainmaterials.NewCharacteristicValue(m.ID, v.CharacteristicID, v.Value)
			if err != nil {
				return ValidationError(fmt.Sprintf("characteristic %s: %v", v.CharacteristicID, err))
			}
			row.CreatedAt = now
			rows = append(rows, row)
		}
		if _, err := a.deps.Values.Create(dbc, rows); err != nil {
			return err
		}

		orphans, err := a.purgeOrphanAttachments(dbc, m.ID, in.Values)
		if err != nil {
			return err
		}
		removed = append(removed, orphans...)

		if err := a.deps.Links.ReplaceTags(dbc, m.ID, in.TagIDs); err != nil {
			return err
		}
		if err := a.deps.Links.ReplaceCharacteristics(dbc, m.ID, valued); err != nil {
			return err
		}

		if !in.Create {
			err := bumpMaterialVersion(dbc, a.deps.Base.DB, op, m.ID, m.Version, map[string]any{
				"description":                in.Description,
				"ordered_characteristic_ids": datatypes.JSONSlice[uuid.UUID](order),
				"updated_by":                 in.ActorID,
				"updated_at":                 now,
			})
			if err != nil {
				return err
			}
			m.Description = in.Description
			m.OrderedCharacteristicIDs = datatypes.JSONSlice[uuid.UUID](order)
			m.Version++
			m.UpdatedBy = in.ActorID
			m.UpdatedAt = now
		}

		if !domainmaterials.SameOrderSet(order, valued) {
			return InvariantError("ordered characteristic ids drifted from value rows")
		}

		out = domainagg.ReconcileResult{
			Material:                 *m,
			OrderedCharacteristicIDs: order,
			RemovedAttachments:       removed,
			Snapshot:                 a.snapshot(dbc, op, m.ID),
		}
		return nil
	})
	if err != nil {
		return domainagg.ReconcileResult{}, err
	}
	return out, nil
}

// snapshot returns the history record of the version being written, or nil
// when no builder is configured or the build fails.
func (a *materialAggregate) snapshot(dbc dbctx.Context, op string, materialID uuid.UUID) *types.MaterialHistory {
	if a.deps.Snapshot == nil {
		return nil
	}
	rec, err := a.deps.Snapshot.InSavepoint(dbc, materialID)
	if err != nil {
		if a.deps.Base.Log != nil {
			a.deps.Base.Log.Warn("Snapshot build failed", "op", op, "material_id", materialID, "error", err)
		}
		return nil
	}
	return rec
}

// replaceAttachments deletes the requested attachment rows owned by the
// material and inserts the new ones. Ids owned by other materials are ignored.
func (a *materialAggregate) replaceAttachments(dbc dbctx.Context, materialID uuid.UUID, in domainagg.ReconcileInput) ([]types.FileAttachment, error) {
	var removed []types.FileAttachment
	if len(in.RemovedAttachmentIDs) > 0 {
		rows, err := a.deps.Attachments.GetByIDs(dbc, in.RemovedAttachmentIDs)
		if err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			if row == nil || row.MaterialID != materialID {
				continue
			}
			ids = append(ids, row.ID)
			removed = append(removed, *row)
		}
		if err := a.deps.Attachments.DeleteByIDs(dbc, ids); err != nil {
			return nil, err
		}
	}

	if len(in.NewAttachments) > 0 {
		rows := make([]*types.FileAttachment, 0, len(in.NewAttachments))
		for i := range in.NewAttachments {
			att := in.NewAttachments[i]
			att.MaterialID = materialID
			rows = append(rows, &att)
		}
		if _, err := a.deps.Attachments.Create(dbc, rows); err != nil {
			return nil, err
		}
	}
	return removed, nil
}

// purgeOrphanAttachments removes attachment rows no value references and fails
// when a value references a missing attachment.
func (a *materialAggregate) purgeOrphanAttachments(dbc dbctx.Context, materialID uuid.UUID, values []domainagg.ResolvedValue) ([]types.FileAttachment, error) {
	rows, err := a.deps.Attachments.GetByMaterialID(dbc, materialID)
	if err != nil {
		return nil, err
	}
	owner := make(map[uuid.UUID]uuid.UUID, len(rows))
	for _, row := range rows {
		owner[row.ID] = row.CharacteristicID
	}

	referenced := map[uuid.UUID]struct{}{}
	for _, v := range values {
		files, ok := v.Value.(characteristics.Files)
		if !ok {
			continue
		}
		for _, ref := range files.Refs {
			cid, exists := owner[ref]
			if !exists || cid != v.CharacteristicID {
				return nil, InvariantError(fmt.Sprintf("characteristic %s references missing attachment %s", v.CharacteristicID, ref))
			}
			referenced[ref] = struct{}{}
		}
	}

	var orphans []types.FileAttachment
	var ids []uuid.UUID
	for _, row := range rows {
		if _, ok := referenced[row.ID]; ok {
			continue
		}
		orphans = append(orphans, *row)
		ids = append(ids, row.ID)
	}
	if len(ids) > 0 {
		if err := a.deps.Attachments.DeleteByIDs(dbc, ids); err != nil {
			return nil, err
		}
	}
	return orphans, nil
}

func (a *materialAggregate) Delete(ctx context.Context, in domainagg.DeleteMaterialInput) (domainagg.DeleteMaterialResult, error) {
	const op = "Materials.Material.Delete"
	var out domainagg.DeleteMaterialResult
	if !a.configured() {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "material aggregate repos not configured", nil)
	}
	if in.MaterialID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing material_id", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		m, err := a.deps.Materials.GetByID(dbc, in.MaterialID)
		if err != nil {
			return err
		}
		if m == nil {
			return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("material not found: %s", in.MaterialID), domainagg.ErrMaterialNotFound)
		}
		if in.ExpectedVersion > 0 && in.ExpectedVersion != m.Version {
			return versionConflict(op, m.Version, in.ExpectedVersion)
		}

		atts, err := a.deps.Attachments.GetByMaterialID(dbc, m.ID)
		if err != nil {
			return err
		}
		if err := a.deps.Values.DeleteByMaterialID(dbc, m.ID); err != nil {
			return err
		}
		if err := a.deps.Attachments.DeleteByMaterialID(dbc, m.ID); err != nil {
			return err
		}
		if err := a.deps.Links.DeleteByMaterialID(dbc, m.ID); err != nil {
			return err
		}
		if err := a.deps.Materials.Delete(dbc, m.ID); err != nil {
			return err
		}

		out.MaterialID = m.ID
		for _, att := range atts {
			if att != nil {
				out.Attachments = append(out.Attachments, *att)
			}
		}
		return nil
	})
	if err != nil {
		return domainagg.DeleteMaterialResult{}, err
	}
	return out, nil
}

func versionConflict(op string, current, expected int64) error {
	return domainagg.NewError(domainagg.CodeConflict, op,
		fmt.Sprintf("material version is %d, expected %d", current, expected), domainagg.ErrVersionConflict)
}
