package materials

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/materials-registry/internal/domain"
	"github.com/yungbote/materials-registry/internal/platform/dbctx"
	"github.com/yungbote/materials-registry/internal/platform/logger"
)

type MaterialRepo interface {
	Create(dbc dbctx.Context, m *types.Material) error
	// GetByID returns nil without error when the material does not exist.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Material, error)
	GetByName(dbc dbctx.Context, name string) (*types.Material, error)
	ListIDs(dbc dbctx.Context, limit int) ([]uuid.UUID, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type materialRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialRepo(db *gorm.DB, baseLog *logger.Logger) MaterialRepo {
	repoLog := baseLog.With("repo", "MaterialRepo")
	return &materialRepo{db: db, log: repoLog}
}

func (r *materialRepo) Create(dbc dbctx.Context, m *types.Material) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Context()).Create(m).Error
}

func (r *materialRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Material, error) {
	return r.first(dbc, "id = ?", id)
}

func (r *materialRepo) GetByName(dbc dbctx.Context, name string) (*types.Material, error) {
	return r.first(dbc, "name = ?", name)
}

func (r *materialRepo) first(dbc dbctx.Context, query string, arg interface{}) (*types.Material, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var m types.Material
	err := transaction.WithContext(dbc.Context()).Where(query, arg).Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListIDs returns material ids oldest first; limit <= 0 means all.
func (r *materialRepo) ListIDs(dbc dbctx.Context, limit int) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(dbc.Context()).Model(&types.Material{}).Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var ids []uuid.UUID
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *materialRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Context()).
		Where("id = ?", id).
		Delete(&types.Material{}).Error
}
