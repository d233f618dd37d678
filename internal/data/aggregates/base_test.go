package aggregates

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	domainagg "github.com/yungbote/materials-registry/internal/domain/aggregates"
	"github.com/yungbote/materials-registry/internal/platform/dbctx"
)

func directRunner() TxRunner {
	return TxRunnerFunc(func(ctx context.Context, fn func(dbc dbctx.Context) error) error {
		return fn(dbctx.Context{Ctx: ctx})
	})
}

func collect(into *[]WriteOutcome) WriteObserver {
	return WriteObserverFunc(func(o WriteOutcome) { *into = append(*into, o) })
}

func TestExecuteWriteStatuses(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		status    string
		conflict  bool
		retryable bool
	}{
		{"success", nil, "success", false, false},
		{"invariant", InvariantError("order drift"), string(domainagg.CodeInvariantViolation), false, false},
		{"conflict", ConflictError("stale"), string(domainagg.CodeConflict), true, false},
		{"version conflict", domainagg.NewError(domainagg.CodeConflict, "x", "stale", domainagg.ErrVersionConflict), string(domainagg.CodeConflict), true, false},
		{"serialization", &pgconn.PgError{Code: "40001"}, string(domainagg.CodeRetryable), false, true},
		{"deadline", context.DeadlineExceeded, string(domainagg.CodeRetryable), false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen []WriteOutcome
			err := executeWrite(context.Background(), BaseDeps{
				Runner:   directRunner(),
				Observer: collect(&seen),
			}, "materials.test", func(_ dbctx.Context) error { return tc.err })

			if (err == nil) != (tc.err == nil) {
				t.Fatalf("error: want=%v got=%v", tc.err, err)
			}
			if len(seen) != 1 {
				t.Fatalf("outcomes: want=1 got=%d", len(seen))
			}
			o := seen[0]
			if o.Op != "materials.test" || o.Status != tc.status {
				t.Fatalf("outcome: want=%s got=%+v", tc.status, o)
			}
			if o.Conflict() != tc.conflict || o.Retryable() != tc.retryable {
				t.Fatalf("flags: conflict=%v retryable=%v", o.Conflict(), o.Retryable())
			}
		})
	}
}

func TestExecuteWriteDefaultsOpName(t *testing.T) {
	var seen []WriteOutcome
	_ = executeWrite(context.Background(), BaseDeps{Runner: directRunner(), Observer: collect(&seen)}, "  ", func(_ dbctx.Context) error { return nil })
	if len(seen) != 1 || seen[0].Op != "aggregate.write" {
		t.Fatalf("op: got=%+v", seen)
	}
}

func TestGormTxRunnerWithoutDB(t *testing.T) {
	err := GormTxRunner(nil).InTx(context.Background(), func(_ dbctx.Context) error {
		t.Fatalf("body must not run without a database")
		return nil
	})
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("code: want=internal got=%v", err)
	}
}

func TestRunnerErrorIsMapped(t *testing.T) {
	boom := errors.New("connection reset by peer")
	runner := TxRunnerFunc(func(context.Context, func(dbctx.Context) error) error { return boom })
	err := executeWrite(context.Background(), BaseDeps{Runner: runner}, "materials.test", func(_ dbctx.Context) error { return nil })
	if !errors.Is(err, domainagg.ErrPersistence) || !errors.Is(err, boom) {
		t.Fatalf("want persistence error wrapping cause, got=%v", err)
	}
}
