package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/materials-registry/internal/data/repos/testutil"
	types "github.com/yungbote/materials-registry/internal/domain"
	domainmaterials "github.com/yungbote/materials-registry/internal/domain/materials"
	"github.com/yungbote/materials-registry/internal/observability"
)

// fakeWriter records AppendRecord calls; release gates them when set.
type fakeWriter struct {
	mu      sync.Mutex
	calls   []*types.MaterialHistory
	release chan struct{}
	fail    map[uuid.UUID]bool
	panicOn uuid.UUID
}

func (f *fakeWriter) AppendRecord(ctx context.Context, rec *types.MaterialHistory) (*types.MaterialHistory, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if rec.MaterialID == f.panicOn {
		panic("boom")
	}
	f.mu.Lock()
	f.calls = append(f.calls, rec)
	f.mu.Unlock()
	if f.fail[rec.MaterialID] {
		return nil, errors.New("write failed")
	}
	out := *rec
	out.ID = uuid.New()
	return &out, nil
}

func (f *fakeWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func recordJob(materialID uuid.UUID) SnapshotJob {
	return SnapshotJob{Record: &types.MaterialHistory{
		MaterialID:      materialID,
		MaterialVersion: 1,
		Reason:          domainmaterials.HistoryReasonUpdate,
	}}
}

func TestSnapshotQueueDrainsOnClose(t *testing.T) {
	hist := &fakeWriter{fail: map[uuid.UUID]bool{}}
	q := NewSnapshotQueue(testutil.Logger(t), hist, SnapshotQueueConfig{Workers: 3, QueueSize: 16}, observability.NewMetrics())

	failing := uuid.New()
	hist.fail[failing] = true
	for i := 0; i < 9; i++ {
		if !q.Submit(recordJob(uuid.New())) {
			t.Fatalf("submit %d rejected", i)
		}
	}
	q.Submit(recordJob(failing))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := hist.count(); got != 10 {
		t.Fatalf("appended: want=10 got=%d", got)
	}
	if q.Submit(recordJob(uuid.New())) {
		t.Fatalf("closed queue accepted a job")
	}
	if err := q.Close(ctx); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestSnapshotQueueDropsWhenFull(t *testing.T) {
	hist := &fakeWriter{release: make(chan struct{})}
	q := NewSnapshotQueue(testutil.Logger(t), hist, SnapshotQueueConfig{Workers: 1, QueueSize: 1}, nil)

	// One job is held by the worker, one fills the buffer.
	q.Submit(recordJob(uuid.New()))
	deadline := time.Now().Add(2 * time.Second)
	for !q.Submit(recordJob(uuid.New())) {
		if time.Now().After(deadline) {
			t.Fatalf("queue never accepted a second job")
		}
		time.Sleep(5 * time.Millisecond)
	}
	accepted := 2
	dropped := 0
	for i := 0; i < 5; i++ {
		if q.Submit(recordJob(uuid.New())) {
			accepted++
		} else {
			dropped++
		}
	}
	if dropped == 0 {
		t.Fatalf("full queue should drop jobs")
	}

	close(hist.release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := hist.count(); got != accepted {
		t.Fatalf("appended: want=%d got=%d", accepted, got)
	}
}

func TestSnapshotQueueSurvivesPanics(t *testing.T) {
	bad := uuid.New()
	hist := &fakeWriter{panicOn: bad}
	q := NewSnapshotQueue(testutil.Logger(t), hist, SnapshotQueueConfig{Workers: 1, QueueSize: 4}, nil)

	q.Submit(recordJob(bad))
	q.Submit(recordJob(uuid.New()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := hist.count(); got != 1 {
		t.Fatalf("appended after panic: want=1 got=%d", got)
	}
}

func TestSnapshotQueueCloseHonorsDeadline(t *testing.T) {
	hist := &fakeWriter{release: make(chan struct{})}
	q := NewSnapshotQueue(testutil.Logger(t), hist, SnapshotQueueConfig{Workers: 1, QueueSize: 1, Timeout: time.Minute}, nil)
	q.Submit(recordJob(uuid.New()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline error got=%v", err)
	}
	close(hist.release)
}

func TestSnapshotQueueRejectsJobWithoutRecord(t *testing.T) {
	hist := &fakeWriter{}
	q := NewSnapshotQueue(testutil.Logger(t), hist, SnapshotQueueConfig{Workers: 1, QueueSize: 1}, nil)
	if q.Submit(SnapshotJob{}) {
		t.Fatalf("job without record accepted")
	}
	if err := q.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := hist.count(); got != 0 {
		t.Fatalf("appended: want=0 got=%d", got)
	}
}

func TestSnapshotQueueSubmitWaitsForRoom(t *testing.T) {
	hist := &fakeWriter{release: make(chan struct{})}
	q := NewSnapshotQueue(testutil.Logger(t), hist, SnapshotQueueConfig{Workers: 1, QueueSize: 1, SubmitWait: 5 * time.Second}, nil)

	// The worker holds the first job and the second fills the buffer.
	if !q.Submit(recordJob(uuid.New())) || !q.Submit(recordJob(uuid.New())) {
		t.Fatalf("initial jobs rejected")
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(hist.release)
	}()
	if !q.Submit(recordJob(uuid.New())) {
		t.Fatalf("submit should wait for the worker to free a slot")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := hist.count(); got != 3 {
		t.Fatalf("appended: want=3 got=%d", got)
	}
}
