package domain

import (
	"github.com/yungbote/materials-registry/internal/domain/characteristics"
	"github.com/yungbote/materials-registry/internal/domain/materials"
	"github.com/yungbote/materials-registry/internal/domain/tags"
)

type (
	Characteristic         = characteristics.Characteristic
	CharacteristicType     = characteristics.Type
	Tag                    = tags.Tag
	Material               = materials.Material
	MaterialTag            = materials.MaterialTag
	MaterialCharacteristic = materials.MaterialCharacteristic
	CharacteristicValue    = materials.CharacteristicValue
	FileAttachment         = materials.FileAttachment
	MaterialHistory        = materials.MaterialHistory
	TagSnapshot            = materials.TagSnapshot
	CharacteristicSnapshot = materials.CharacteristicSnapshot
	HistoryReason          = materials.HistoryReason
)

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&Characteristic{},
		&Tag{},
		&Material{},
		&MaterialTag{},
		&MaterialCharacteristic{},
		&CharacteristicValue{},
		&FileAttachment{},
		&MaterialHistory{},
	}
}
