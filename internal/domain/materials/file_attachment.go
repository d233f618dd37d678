package materials

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FileAttachment is a stored binary referenced by a file-typed value.
type FileAttachment struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MaterialID       uuid.UUID `gorm:"type:uuid;not null;index" json:"material_id"`
	CharacteristicID uuid.UUID `gorm:"type:uuid;not null;index" json:"characteristic_id"`
	Name             string    `gorm:"column:name;not null" json:"name"`
	Type             string    `gorm:"column:type" json:"type"`
	SizeBytes        int64     `gorm:"column:size_bytes" json:"size_bytes"`
	Path             string    `gorm:"column:path;not null" json:"path"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (FileAttachment) TableName() string { return "file_attachment" }

func (f *FileAttachment) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// AttachmentPrefix is the storage folder for one characteristic of one material.
func AttachmentPrefix(materialID, characteristicID uuid.UUID) string {
	return fmt.Sprintf("materials/%s/characteristics/%s/", materialID, characteristicID)
}

// MaterialPrefix is the storage folder for all attachments of a material.
func MaterialPrefix(materialID uuid.UUID) string {
	return fmt.Sprintf("materials/%s/", materialID)
}

// AttachmentPath keeps the original extension so content type survives downloads.
func AttachmentPath(materialID, characteristicID, fileID uuid.UUID, name string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(name)))
	if len(ext) > 16 || strings.ContainsAny(ext, "/\\ ") {
		ext = ""
	}
	return AttachmentPrefix(materialID, characteristicID) + fileID.String() + ext
}
