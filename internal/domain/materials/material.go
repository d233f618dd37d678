package materials

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/materials-registry/internal/domain/characteristics"
	"github.com/yungbote/materials-registry/internal/domain/tags"
)

type Material struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	Version     int64     `gorm:"column:version;not null;default:1" json:"version"`

	// OrderedCharacteristicIDs holds exactly the ids that have a value row.
	OrderedCharacteristicIDs datatypes.JSONSlice[uuid.UUID] `gorm:"column:ordered_characteristic_ids" json:"ordered_characteristic_ids"`

	CreatedBy uuid.UUID `gorm:"type:uuid;column:created_by" json:"created_by"`
	UpdatedBy uuid.UUID `gorm:"type:uuid;column:updated_by" json:"updated_by"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	// Loaded from the join tables by the repo.
	Tags            []tags.Tag                       `gorm:"-" json:"tags,omitempty"`
	Characteristics []characteristics.Characteristic `gorm:"-" json:"characteristics,omitempty"`
}

func (Material) TableName() string { return "material" }

func (m *Material) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Version == 0 {
		m.Version = 1
	}
	return nil
}

// MaterialTag links a material to a tag.
type MaterialTag struct {
	MaterialID uuid.UUID `gorm:"type:uuid;primaryKey" json:"material_id"`
	TagID      uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"tag_id"`
}

func (MaterialTag) TableName() string { return "material_tag" }

// MaterialCharacteristic links a material to a characteristic configured on it.
type MaterialCharacteristic struct {
	MaterialID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"material_id"`
	CharacteristicID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"characteristic_id"`
}

func (MaterialCharacteristic) TableName() string { return "material_characteristic" }
