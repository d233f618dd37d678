package materials

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/materials-registry/internal/domain"
	"github.com/yungbote/materials-registry/internal/platform/dbctx"
	"github.com/yungbote/materials-registry/internal/platform/logger"
)

// MaterialHistoryRepo is append-only: there is no update or delete.
type MaterialHistoryRepo interface {
	Create(dbc dbctx.Context, rec *types.MaterialHistory) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.MaterialHistory, error)
	// ListByMaterialID returns records newest first; limit <= 0 means all.
	ListByMaterialID(dbc dbctx.Context, materialID uuid.UUID, limit int) ([]*types.MaterialHistory, error)
	CountByMaterialID(dbc dbctx.Context, materialID uuid.UUID) (int64, error)
}

type materialHistoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialHistoryRepo(db *gorm.DB, baseLog *logger.Logger) MaterialHistoryRepo {
	repoLog := baseLog.With("repo", "MaterialHistoryRepo")
	return &materialHistoryRepo{db: db, log: repoLog}
}

func (r *materialHistoryRepo) Create(dbc dbctx.Context, rec *types.MaterialHistory) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Context()).Create(rec).Error
}

func (r *materialHistoryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.MaterialHistory, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var rec types.MaterialHistory
	err := transaction.WithContext(dbc.Context()).Where("id = ?", id).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *materialHistoryRepo) ListByMaterialID(dbc dbctx.Context, materialID uuid.UUID, limit int) ([]*types.MaterialHistory, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(dbc.Context()).
		Where("material_id = ?", materialID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var results []*types.MaterialHistory
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *materialHistoryRepo) CountByMaterialID(dbc dbctx.Context, materialID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var n int64
	err := transaction.WithContext(dbc.Context()).
		Model(&types.MaterialHistory{}).
		Where("material_id = ?", materialID).
		Count(&n).Error
	return n, err
}
