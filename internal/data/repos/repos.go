package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/materials-registry/internal/data/repos/characteristics"
	"github.com/yungbote/materials-registry/internal/data/repos/materials"
	"github.com/yungbote/materials-registry/internal/data/repos/tags"
	"github.com/yungbote/materials-registry/internal/platform/logger"
)

type CharacteristicRepo = characteristics.CharacteristicRepo
type TagRepo = tags.TagRepo

type MaterialRepo = materials.MaterialRepo
type MaterialLinkRepo = materials.MaterialLinkRepo
type CharacteristicValueRepo = materials.CharacteristicValueRepo
type FileAttachmentRepo = materials.FileAttachmentRepo
type MaterialHistoryRepo = materials.MaterialHistoryRepo

// Set bundles every table repo over one database handle.
type Set struct {
	Characteristic      CharacteristicRepo
	Tag                 TagRepo
	Material            MaterialRepo
	MaterialLink        MaterialLinkRepo
	CharacteristicValue CharacteristicValueRepo
	FileAttachment      FileAttachmentRepo
	MaterialHistory     MaterialHistoryRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Characteristic:      characteristics.NewCharacteristicRepo(db, log),
		Tag:                 tags.NewTagRepo(db, log),
		Material:            materials.NewMaterialRepo(db, log),
		MaterialLink:        materials.NewMaterialLinkRepo(db, log),
		CharacteristicValue: materials.NewCharacteristicValueRepo(db, log),
		FileAttachment:      materials.NewFileAttachmentRepo(db, log),
		MaterialHistory:     materials.NewMaterialHistoryRepo(db, log),
	}
}
