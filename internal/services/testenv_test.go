package services

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dataagg "github.com/yungbote/materials-registry/internal/data/aggregates"
	"github.com/yungbote/materials-registry/internal/data/repos"
	"github.com/yungbote/materials-registry/internal/data/repos/testutil"
	types "github.com/yungbote/materials-registry/internal/domain"
	domainagg "github.com/yungbote/materials-registry/internal/domain/aggregates"
	"github.com/yungbote/materials-registry/internal/domain/characteristics"
	"github.com/yungbote/materials-registry/internal/platform/dbctx"
	"github.com/yungbote/materials-registry/internal/platform/gcp/gcptest"
	"github.com/yungbote/materials-registry/internal/realtime"
)

type testEnv struct {
	ctx         context.Context
	db          *gorm.DB
	set         repos.Set
	bucket      *gcptest.MemoryBucket
	attachments AttachmentService
	history     HistoryService
	aggregate   domainagg.MaterialAggregate
	materials   MaterialService
	tags        TagService
	events      *recordingBus
	actor       uuid.UUID
}

func newTestEnv(t *testing.T, limits AttachmentLimits) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	bucket := gcptest.NewMemoryBucket()
	events := &recordingBus{}

	attachments := NewAttachmentService(log, bucket, limits, nil)
	history := NewHistoryService(db, log, set, events)
	snapshots := &inlineSnapshots{history: history}
	agg := dataagg.NewMaterialAggregate(dataagg.MaterialAggregateDeps{
		Base:        dataagg.BaseDeps{DB: db, Log: log},
		Materials:   set.Material,
		Links:       set.MaterialLink,
		Values:      set.CharacteristicValue,
		Attachments: set.FileAttachment,
		Snapshot:    history.BuildSnapshot,
	})

	return &testEnv{
		ctx:         context.Background(),
		db:          db,
		set:         set,
		bucket:      bucket,
		attachments: attachments,
		history:     history,
		aggregate:   agg,
		materials:   NewMaterialService(db, log, set, agg, attachments, snapshots, MaterialServiceConfig{}),
		tags:        NewTagService(db, log, set, history.BuildSnapshot, snapshots),
		events:      events,
		actor:       uuid.New(),
	}
}

func (e *testEnv) dbc() dbctx.Context { return dbctx.Context{Ctx: e.ctx} }

func (e *testEnv) historyCount(t *testing.T, materialID uuid.UUID) int64 {
	t.Helper()
	n, err := e.set.MaterialHistory.CountByMaterialID(e.dbc(), materialID)
	if err != nil {
		t.Fatalf("CountByMaterialID: %v", err)
	}
	return n
}

func (e *testEnv) attachmentsOf(t *testing.T, materialID uuid.UUID) []*types.FileAttachment {
	t.Helper()
	rows, err := e.set.FileAttachment.GetByMaterialID(e.dbc(), materialID)
	if err != nil {
		t.Fatalf("GetByMaterialID: %v", err)
	}
	return rows
}

func textUpload(name, body string) characteristics.Upload {
	return characteristics.Upload{
		Name:        name,
		ContentType: "text/plain",
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func sizedUpload(name string, size int) characteristics.Upload {
	return textUpload(name, strings.Repeat("x", size))
}

// inlineSnapshots writes each record before Submit returns.
type inlineSnapshots struct {
	history HistoryService
	mu      sync.Mutex
	jobs    []SnapshotJob
}

func (s *inlineSnapshots) Submit(job SnapshotJob) bool {
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()
	_, err := s.history.AppendRecord(context.Background(), job.Record)
	return err == nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (b *recordingBus) Publish(_ context.Context, ev realtime.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}

func (b *recordingBus) Subscribe(context.Context, func(realtime.Event)) error { return nil }
func (b *recordingBus) Close() error                                          { return nil }

func (b *recordingBus) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
