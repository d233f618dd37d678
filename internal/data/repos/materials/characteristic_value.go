package materials

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/materials-registry/internal/domain"
	"github.com/yungbote/materials-registry/internal/platform/dbctx"
	"github.com/yungbote/materials-registry/internal/platform/logger"
)

type CharacteristicValueRepo interface {
	Create(dbc dbctx.Context, rows []*types.CharacteristicValue) ([]*types.CharacteristicValue, error)
	GetByMaterialID(dbc dbctx.Context, materialID uuid.UUID) ([]*types.CharacteristicValue, error)
	DeleteByMaterialID(dbc dbctx.Context, materialID uuid.UUID) error
}

type characteristicValueRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCharacteristicValueRepo(db *gorm.DB, baseLog *logger.Logger) CharacteristicValueRepo {
	repoLog := baseLog.With("repo", "CharacteristicValueRepo")
	return &characteristicValueRepo{db: db, log: repoLog}
}

func (r *characteristicValueRepo) Create(dbc dbctx.Context, rows []*types.CharacteristicValue) ([]*types.CharacteristicValue, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.CharacteristicValue{}, nil
	}

	if err := transaction.WithContext(dbc.Context()).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *characteristicValueRepo) GetByMaterialID(dbc dbctx.Context, materialID uuid.UUID) ([]*types.CharacteristicValue, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.CharacteristicValue
	if err := transaction.WithContext(dbc.Context()).
		Where("material_id = ?", materialID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *characteristicValueRepo) DeleteByMaterialID(dbc dbctx.Context, materialID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(dbc.Context()).
		Where("material_id = ?", materialID).
		Delete(&types.CharacteristicValue{}).Error
}
