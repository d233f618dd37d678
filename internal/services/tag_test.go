package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/materials-registry/internal/data/repos/testutil"
	domainagg "github.com/yungbote/materials-registry/internal/domain/aggregates"
	domainmaterials "github.com/yungbote/materials-registry/internal/domain/materials"
)

func strPtr(s string) *string { return &s }

func TestUpdateTagRenameSnapshotsReferencingMaterials(t *testing.T) {
	env := newTestEnv(t, AttachmentLimits{})
	tag := testutil.SeedTag(t, env.ctx, env.db, "eco")
	other := testutil.SeedTag(t, env.ctx, env.db, "misc")
	m1 := testutil.SeedMaterial(t, env.ctx, env.db, "cork", tag.ID)
	m2 := testutil.SeedMaterial(t, env.ctx, env.db, "hemp", tag.ID, other.ID)
	m3 := testutil.SeedMaterial(t, env.ctx, env.db, "vinyl", other.ID)

	newName := testutil.Unique("green")
	res, err := env.tags.UpdateTag(env.ctx, UpdateTagInput{ActorID: env.actor, TagID: tag.ID, Name: &newName})
	if err != nil {
		t.Fatalf("UpdateTag: %v", err)
	}
	if res.AffectedMaterials != 2 || res.SnapshotsQueued != 2 || res.SnapshotsDropped != 0 {
		t.Fatalf("result: got=%+v", res)
	}
	if res.Tag.Name != newName {
		t.Fatalf("tag name: want=%q got=%q", newName, res.Tag.Name)
	}

	for _, id := range []uuid.UUID{m1.ID, m2.ID} {
		records, err := env.history.ListHistory(env.ctx, id, 10)
		if err != nil {
			t.Fatalf("ListHistory: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("material %s records: want=1 got=%d", id, len(records))
		}
		rec := records[0]
		if rec.Reason != domainmaterials.HistoryReasonTagRenamed || rec.ActorID != env.actor {
			t.Fatalf("record attribution: got reason=%s actor=%s", rec.Reason, rec.ActorID)
		}
		found := false
		for _, ts := range rec.Tags {
			if ts.Name == newName {
				found = true
			}
		}
		if !found {
			t.Fatalf("snapshot should carry the new tag name, got=%+v", rec.Tags)
		}
	}
	if n := env.historyCount(t, m3.ID); n != 0 {
		t.Fatalf("unrelated material records: want=0 got=%d", n)
	}
}

func TestUpdateTagColorOnlyWritesNoHistory(t *testing.T) {
	env := newTestEnv(t, AttachmentLimits{})
	tag := testutil.SeedTag(t, env.ctx, env.db, "warm")
	m := testutil.SeedMaterial(t, env.ctx, env.db, "oak", tag.ID)

	res, err := env.tags.UpdateTag(env.ctx, UpdateTagInput{TagID: tag.ID, Name: strPtr(tag.Name), Color: strPtr("#00ff00")})
	if err != nil {
		t.Fatalf("UpdateTag: %v", err)
	}
	if res.Tag.Color != "#00ff00" || res.AffectedMaterials != 0 {
		t.Fatalf("result: got=%+v", res)
	}
	if n := env.historyCount(t, m.ID); n != 0 {
		t.Fatalf("records: want=0 got=%d", n)
	}
	stored, err := env.set.Tag.GetByID(env.dbc(), tag.ID)
	if err != nil || stored == nil || stored.Color != "#00ff00" {
		t.Fatalf("stored tag: got=%+v err=%v", stored, err)
	}
}

func TestUpdateTagErrors(t *testing.T) {
	env := newTestEnv(t, AttachmentLimits{})
	tag := testutil.SeedTag(t, env.ctx, env.db, "cold")

	_, err := env.tags.UpdateTag(env.ctx, UpdateTagInput{TagID: uuid.New(), Name: strPtr("x")})
	if !errors.Is(err, domainagg.ErrTagNotFound) || !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("want ErrTagNotFound got=%v", err)
	}
	_, err = env.tags.UpdateTag(env.ctx, UpdateTagInput{TagID: tag.ID, Name: strPtr("   ")})
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("want validation error got=%v", err)
	}
}

type refusingSubmitter struct{}

func (refusingSubmitter) Submit(SnapshotJob) bool { return false }

func TestUpdateTagReportsDroppedSnapshots(t *testing.T) {
	env := newTestEnv(t, AttachmentLimits{})
	tag := testutil.SeedTag(t, env.ctx, env.db, "dense")
	testutil.SeedMaterial(t, env.ctx, env.db, "lead", tag.ID)

	svc := NewTagService(env.db, testutil.Logger(t), env.set, env.history.BuildSnapshot, refusingSubmitter{})
	res, err := svc.UpdateTag(env.ctx, UpdateTagInput{TagID: tag.ID, Name: strPtr(testutil.Unique("heavy"))})
	if err != nil {
		t.Fatalf("rename must succeed even when snapshots are dropped: %v", err)
	}
	if res.SnapshotsDropped != 1 || res.SnapshotsQueued != 0 {
		t.Fatalf("result: got=%+v", res)
	}
}
