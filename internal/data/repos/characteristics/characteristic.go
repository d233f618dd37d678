package characteristics

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/materials-registry/internal/domain"
	"github.com/yungbote/materials-registry/internal/platform/dbctx"
	"github.com/yungbote/materials-registry/internal/platform/logger"
)

type CharacteristicRepo interface {
	Create(dbc dbctx.Context, rows []*types.Characteristic) ([]*types.Characteristic, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Characteristic, error)
	// GetByIDsIncludingDeleted also resolves soft-deleted definitions, which
	// history snapshots of older values still need.
	GetByIDsIncludingDeleted(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Characteristic, error)
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type characteristicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCharacteristicRepo(db *gorm.DB, baseLog *logger.Logger) CharacteristicRepo {
	repoLog := baseLog.With("repo", "CharacteristicRepo")
	return &characteristicRepo{db: db, log: repoLog}
}

func (r *characteristicRepo) Create(dbc dbctx.Context, rows []*types.Characteristic) ([]*types.Characteristic, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.Characteristic{}, nil
	}

	if err := transaction.WithContext(dbc.Context()).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *characteristicRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Characteristic, error) {
	return r.getByIDs(dbc, ids, false)
}

func (r *characteristicRepo) GetByIDsIncludingDeleted(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Characteristic, error) {
	return r.getByIDs(dbc, ids, true)
}

func (r *characteristicRepo) getByIDs(dbc dbctx.Context, ids []uuid.UUID, unscoped bool) ([]*types.Characteristic, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Characteristic
	if len(ids) == 0 {
		return results, nil
	}

	q := transaction.WithContext(dbc.Context())
	if unscoped {
		q = q.Unscoped()
	}
	if err := q.Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *characteristicRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	return transaction.WithContext(dbc.Context()).
		Where("id IN ?", ids).
		Delete(&types.Characteristic{}).Error
}
