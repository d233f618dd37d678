package characteristics

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Characteristic is a characteristic definition. Definitions are administered
// elsewhere; this service only reads them.
type Characteristic struct {
	ID          uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string                      `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description string                      `gorm:"column:description" json:"description"`
	Type        Type                        `gorm:"column:type;not null;index" json:"type"`
	Options     datatypes.JSONSlice[string] `gorm:"column:options" json:"options"`
	Units       string                      `gorm:"column:units" json:"units,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Characteristic) TableName() string { return "characteristic" }

func (c *Characteristic) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Normalize validates raw against this definition's type and options.
func (c *Characteristic) Normalize(raw any) (Value, error) {
	if c == nil {
		return nil, &ShapeError{Reason: "missing characteristic definition"}
	}
	return Normalize(c.Type, c.Options, raw)
}
