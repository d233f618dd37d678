package materials

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/materials-registry/internal/domain/characteristics"
)

var ErrHistoryImmutable = errors.New("material history records are immutable")

type HistoryReason string

const (
	HistoryReasonCreate     HistoryReason = "create"
	HistoryReasonUpdate     HistoryReason = "update"
	HistoryReasonTagRenamed HistoryReason = "tag_renamed"
	HistoryReasonBackfill   HistoryReason = "backfill"
)

type TagSnapshot struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	FontColor string `json:"fontColor"`
}

// CharacteristicSnapshot carries the definition fields as of write time so the
// record stays readable after definitions change. Value is null when the
// material had no value for the characteristic.
type CharacteristicSnapshot struct {
	CharacteristicID uuid.UUID            `json:"characteristicId"`
	Name             string               `json:"name"`
	Type             characteristics.Type `json:"type"`
	Units            string               `json:"units,omitempty"`
	Value            json.RawMessage      `json:"value"`
}

type FileSnapshot struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// FilesSnapshot is always rendered with the file key, even when empty.
type FilesSnapshot struct {
	File []FileSnapshot `json:"file"`
}

// MaterialHistory is an append-only snapshot of a material.
type MaterialHistory struct {
	ID              uuid.UUID                                  `gorm:"type:uuid;primaryKey" json:"id"`
	MaterialID      uuid.UUID                                  `gorm:"type:uuid;not null;index:idx_material_history_material_created,priority:1" json:"material_id"`
	Name            string                                     `gorm:"column:name;not null" json:"name"`
	Description     string                                     `gorm:"column:description" json:"description"`
	MaterialVersion int64                                      `gorm:"column:material_version" json:"material_version"`
	Tags            datatypes.JSONSlice[TagSnapshot]            `gorm:"column:tags" json:"tags"`
	Characteristics datatypes.JSONSlice[CharacteristicSnapshot] `gorm:"column:characteristics" json:"characteristics"`
	ActorID         uuid.UUID                                  `gorm:"type:uuid;column:actor_id" json:"actor_id"`
	Reason          HistoryReason                              `gorm:"column:reason;not null" json:"reason"`

	CreatedAt time.Time `gorm:"not null;index:idx_material_history_material_created,priority:2" json:"created_at"`
}

func (MaterialHistory) TableName() string { return "material_history" }

func (h *MaterialHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

func (h *MaterialHistory) BeforeUpdate(tx *gorm.DB) error { return ErrHistoryImmutable }

func (h *MaterialHistory) BeforeDelete(tx *gorm.DB) error { return ErrHistoryImmutable }
