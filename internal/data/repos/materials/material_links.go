package materials

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/materials-registry/internal/domain"
	"github.com/yungbote/materials-registry/internal/platform/dbctx"
	"github.com/yungbote/materials-registry/internal/platform/logger"
)

// MaterialLinkRepo manages the material_tag and material_characteristic joins.
type MaterialLinkRepo interface {
	ReplaceTags(dbc dbctx.Context, materialID uuid.UUID, tagIDs []uuid.UUID) error
	ReplaceCharacteristics(dbc dbctx.Context, materialID uuid.UUID, characteristicIDs []uuid.UUID) error
	TagsForMaterial(dbc dbctx.Context, materialID uuid.UUID) ([]*types.Tag, error)
	CharacteristicIDsForMaterial(dbc dbctx.Context, materialID uuid.UUID) ([]uuid.UUID, error)
	MaterialIDsForTag(dbc dbctx.Context, tagID uuid.UUID) ([]uuid.UUID, error)
	DeleteByMaterialID(dbc dbctx.Context, materialID uuid.UUID) error
}

type materialLinkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialLinkRepo(db *gorm.DB, baseLog *logger.Logger) MaterialLinkRepo {
	repoLog := baseLog.With("repo", "MaterialLinkRepo")
	return &materialLinkRepo{db: db, log: repoLog}
}

func (r *materialLinkRepo) ReplaceTags(dbc dbctx.Context, materialID uuid.UUID, tagIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(dbc.Context())
	if err := q.Where("material_id = ?", materialID).Delete(&types.MaterialTag{}).Error; err != nil {
		return err
	}
	rows := make([]types.MaterialTag, 0, len(tagIDs))
	for _, id := range uniqueIDs(tagIDs) {
		rows = append(rows, types.MaterialTag{MaterialID: materialID, TagID: id})
	}
	if len(rows) == 0 {
		return nil
	}
	return q.Create(&rows).Error
}

func (r *materialLinkRepo) ReplaceCharacteristics(dbc dbctx.Context, materialID uuid.UUID, characteristicIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(dbc.Context())
	if err := q.Where("material_id = ?", materialID).Delete(&types.MaterialCharacteristic{}).Error; err != nil {
		return err
	}
	rows := make([]types.MaterialCharacteristic, 0, len(characteristicIDs))
	for _, id := range uniqueIDs(characteristicIDs) {
		rows = append(rows, types.MaterialCharacteristic{MaterialID: materialID, CharacteristicID: id})
	}
	if len(rows) == 0 {
		return nil
	}
	return q.Create(&rows).Error
}

func (r *materialLinkRepo) TagsForMaterial(dbc dbctx.Context, materialID uuid.UUID) ([]*types.Tag, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Tag
	if err := transaction.WithContext(dbc.Context()).
		Joins("JOIN material_tag ON material_tag.tag_id = tag.id").
		Where("material_tag.material_id = ?", materialID).
		Order("tag.name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *materialLinkRepo) CharacteristicIDsForMaterial(dbc dbctx.Context, materialID uuid.UUID) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(dbc.Context()).
		Model(&types.MaterialCharacteristic{}).
		Where("material_id = ?", materialID).
		Pluck("characteristic_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *materialLinkRepo) MaterialIDsForTag(dbc dbctx.Context, tagID uuid.UUID) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(dbc.Context()).
		Model(&types.MaterialTag{}).
		Where("tag_id = ?", tagID).
		Order("material_id ASC").
		Pluck("material_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *materialLinkRepo) DeleteByMaterialID(dbc dbctx.Context, materialID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(dbc.Context())
	if err := q.Where("material_id = ?", materialID).Delete(&types.MaterialTag{}).Error; err != nil {
		return err
	}
	return q.Where("material_id = ?", materialID).Delete(&types.MaterialCharacteristic{}).Error
}

func uniqueIDs(in []uuid.UUID) []uuid.UUID {
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
