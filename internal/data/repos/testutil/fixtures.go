package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/materials-registry/internal/domain"
	"github.com/yungbote/materials-registry/internal/domain/characteristics"
)

// Unique appends a short random suffix so fixtures can share a database.
func Unique(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func SeedCharacteristic(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, typ characteristics.Type, options ...string) *types.Characteristic {
	tb.Helper()
	c := &types.Characteristic{
		ID:      uuid.New(),
		Name:    Unique(name),
		Type:    typ,
		Options: datatypes.JSONSlice[string](options),
	}
	if typ == characteristics.TypeNumber || typ == characteristics.TypeFloat {
		c.Units = "mm"
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed characteristic: %v", err)
	}
	return c
}

func SeedTag(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Tag {
	tb.Helper()
	tag := &types.Tag{
		ID:        uuid.New(),
		Name:      Unique(name),
		Color:     "#ff0000",
		FontColor: "#ffffff",
	}
	if err := tx.WithContext(ctx).Create(tag).Error; err != nil {
		tb.Fatalf("seed tag: %v", err)
	}
	return tag
}

// SeedMaterial inserts a bare material with tag links and no values.
func SeedMaterial(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, tagIDs ...uuid.UUID) *types.Material {
	tb.Helper()
	m := &types.Material{
		ID:      uuid.New(),
		Name:    Unique(name),
		Version: 1,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed material: %v", err)
	}
	for _, tagID := range tagIDs {
		link := &types.MaterialTag{MaterialID: m.ID, TagID: tagID}
		if err := tx.WithContext(ctx).Create(link).Error; err != nil {
			tb.Fatalf("seed material tag: %v", err)
		}
	}
	return m
}
