package aggregates

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/materials-registry/internal/domain/aggregates"
	domainmaterials "github.com/yungbote/materials-registry/internal/domain/materials"
	"github.com/yungbote/materials-registry/internal/platform/dbctx"
)

// bumpMaterialVersion applies updates and advances the version from seen to
// seen+1 in one statement. Zero affected rows means another writer committed
// first.
func bumpMaterialVersion(dbc dbctx.Context, fallback *gorm.DB, op string, id uuid.UUID, seen int64, updates map[string]any) error {
	if dbc.Tx == nil && fallback == nil {
		return ValidationError("no transaction for version update")
	}
	if id == uuid.Nil || seen < 0 {
		return ValidationError(fmt.Sprintf("invalid version update id=%s version=%d", id, seen))
	}

	cols := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		cols[k] = v
	}
	cols["version"] = seen + 1

	res := dbc.DB(fallback).
		Model(&domainmaterials.Material{}).
		Where("id = ? AND version = ?", id, seen).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainagg.NewError(domainagg.CodeConflict, op, "material changed concurrently", domainagg.ErrVersionConflict)
	}
	return nil
}
