package materials

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/materials-registry/internal/data/repos/testutil"
	types "github.com/yungbote/materials-registry/internal/domain"
	"github.com/yungbote/materials-registry/internal/domain/characteristics"
	domainmaterials "github.com/yungbote/materials-registry/internal/domain/materials"
	"github.com/yungbote/materials-registry/internal/platform/dbctx"
)

func TestMaterialRepoAndLinks(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)
	materialRepo := NewMaterialRepo(db, log)
	links := NewMaterialLinkRepo(db, log)
	values := NewCharacteristicValueRepo(db, log)
	files := NewFileAttachmentRepo(db, log)

	red := testutil.SeedTag(t, ctx, tx, "red")
	blue := testutil.SeedTag(t, ctx, tx, "blue")
	hardness := testutil.SeedCharacteristic(t, ctx, tx, "hardness", characteristics.TypeNumber)

	m := &types.Material{Name: testutil.Unique("steel"), Description: "d"}
	if err := materialRepo.Create(dbc, m); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if m.ID == uuid.Nil || m.Version != 1 {
		t.Fatalf("Create: id=%s version=%d", m.ID, m.Version)
	}
	if got, err := materialRepo.GetByName(dbc, m.Name); err != nil || got == nil || got.ID != m.ID {
		t.Fatalf("GetByName: got=%v err=%v", got, err)
	}
	if got, err := materialRepo.GetByID(dbc, uuid.New()); err != nil || got != nil {
		t.Fatalf("GetByID(missing): got=%v err=%v", got, err)
	}

	if err := links.ReplaceTags(dbc, m.ID, []uuid.UUID{red.ID, blue.ID, red.ID}); err != nil {
		t.Fatalf("ReplaceTags: %v", err)
	}
	if ids, err := links.MaterialIDsForTag(dbc, red.ID); err != nil || len(ids) != 1 || ids[0] != m.ID {
		t.Fatalf("MaterialIDsForTag: ids=%v err=%v", ids, err)
	}
	if err := links.ReplaceTags(dbc, m.ID, []uuid.UUID{blue.ID}); err != nil {
		t.Fatalf("ReplaceTags again: %v", err)
	}
	tagsOut, err := links.TagsForMaterial(dbc, m.ID)
	if err != nil || len(tagsOut) != 1 || tagsOut[0].ID != blue.ID {
		t.Fatalf("TagsForMaterial: tags=%v err=%v", tagsOut, err)
	}
	if ids, err := links.MaterialIDsForTag(dbc, red.ID); err != nil || len(ids) != 0 {
		t.Fatalf("MaterialIDsForTag after replace: ids=%v err=%v", ids, err)
	}

	if err := links.ReplaceCharacteristics(dbc, m.ID, []uuid.UUID{hardness.ID}); err != nil {
		t.Fatalf("ReplaceCharacteristics: %v", err)
	}
	row, err := domainmaterials.NewCharacteristicValue(m.ID, hardness.ID, characteristics.Text{Text: "120"})
	if err != nil {
		t.Fatalf("NewCharacteristicValue: %v", err)
	}
	if _, err := values.Create(dbc, []*types.CharacteristicValue{row}); err != nil {
		t.Fatalf("values.Create: %v", err)
	}
	att := &types.FileAttachment{MaterialID: m.ID, CharacteristicID: hardness.ID, Name: "a.pdf", Path: "p"}
	if _, err := files.Create(dbc, []*types.FileAttachment{att}); err != nil {
		t.Fatalf("files.Create: %v", err)
	}

	if err := links.DeleteByMaterialID(dbc, m.ID); err != nil {
		t.Fatalf("links.DeleteByMaterialID: %v", err)
	}
	if err := values.DeleteByMaterialID(dbc, m.ID); err != nil {
		t.Fatalf("values.DeleteByMaterialID: %v", err)
	}
	if err := files.DeleteByMaterialID(dbc, m.ID); err != nil {
		t.Fatalf("files.DeleteByMaterialID: %v", err)
	}
	if err := materialRepo.Delete(dbc, m.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ids, err := links.CharacteristicIDsForMaterial(dbc, m.ID); err != nil || len(ids) != 0 {
		t.Fatalf("CharacteristicIDsForMaterial: ids=%v err=%v", ids, err)
	}
	if rows, err := values.GetByMaterialID(dbc, m.ID); err != nil || len(rows) != 0 {
		t.Fatalf("values after delete: rows=%d err=%v", len(rows), err)
	}
	if rows, err := files.GetByMaterialID(dbc, m.ID); err != nil || len(rows) != 0 {
		t.Fatalf("files after delete: rows=%d err=%v", len(rows), err)
	}
	if got, err := materialRepo.GetByID(dbc, m.ID); err != nil || got != nil {
		t.Fatalf("GetByID after delete: got=%v err=%v", got, err)
	}
}
