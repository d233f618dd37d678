package materials

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/materials-registry/internal/domain/characteristics"
)

// CharacteristicValue is the single value of one characteristic on one material.
type CharacteristicValue struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	MaterialID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_material_characteristic_value,priority:1" json:"material_id"`
	CharacteristicID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_material_characteristic_value,priority:2;index" json:"characteristic_id"`
	Value            datatypes.JSON `gorm:"column:value" json:"value"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (CharacteristicValue) TableName() string { return "material_characteristic_value" }

func (v *CharacteristicValue) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// NewCharacteristicValue encodes a normalized value into a row.
func NewCharacteristicValue(materialID, characteristicID uuid.UUID, v characteristics.Value) (*CharacteristicValue, error) {
	raw, err := characteristics.Encode(v)
	if err != nil {
		return nil, err
	}
	return &CharacteristicValue{
		ID:               uuid.New(),
		MaterialID:       materialID,
		CharacteristicID: characteristicID,
		Value:            datatypes.JSON(raw),
	}, nil
}

// Decode reads the row back as the variant for t.
func (v *CharacteristicValue) Decode(t characteristics.Type) (characteristics.Value, error) {
	if v == nil {
		return nil, nil
	}
	return characteristics.Decode(t, v.Value)
}
