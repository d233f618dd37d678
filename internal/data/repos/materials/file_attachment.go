package materials

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/materials-registry/internal/domain"
	"github.com/yungbote/materials-registry/internal/platform/dbctx"
	"github.com/yungbote/materials-registry/internal/platform/logger"
)

type FileAttachmentRepo interface {
	Create(dbc dbctx.Context, rows []*types.FileAttachment) ([]*types.FileAttachment, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.FileAttachment, error)
	GetByMaterialID(dbc dbctx.Context, materialID uuid.UUID) ([]*types.FileAttachment, error)
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	DeleteByMaterialID(dbc dbctx.Context, materialID uuid.UUID) error
}

type fileAttachmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFileAttachmentRepo(db *gorm.DB, baseLog *logger.Logger) FileAttachmentRepo {
	repoLog := baseLog.With("repo", "FileAttachmentRepo")
	return &fileAttachmentRepo{db: db, log: repoLog}
}

func (r *fileAttachmentRepo) Create(dbc dbctx.Context, rows []*types.FileAttachment) ([]*types.FileAttachment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.FileAttachment{}, nil
	}

	if err := transaction.WithContext(dbc.Context()).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *fileAttachmentRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.FileAttachment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.FileAttachment
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Context()).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *fileAttachmentRepo) GetByMaterialID(dbc dbctx.Context, materialID uuid.UUID) ([]*types.FileAttachment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.FileAttachment
	if err := transaction.WithContext(dbc.Context()).
		Where("material_id = ?", materialID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *fileAttachmentRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	return transaction.WithContext(dbc.Context()).
		Where("id IN ?", ids).
		Delete(&types.FileAttachment{}).Error
}

func (r *fileAttachmentRepo) DeleteByMaterialID(dbc dbctx.Context, materialID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(dbc.Context()).
		Where("material_id = ?", materialID).
		Delete(&types.FileAttachment{}).Error
}
