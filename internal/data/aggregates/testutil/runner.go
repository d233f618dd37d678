package testutil

import (
	"context"
	"sync/atomic"

	"gorm.io/gorm"

	"github.com/yungbote/materials-registry/internal/data/aggregates"
	"github.com/yungbote/materials-registry/internal/platform/dbctx"
)

// CommitFailRunner runs the body in a real gorm transaction and rolls it back
// with CommitErr when the body succeeds, as if the commit itself failed.
type CommitFailRunner struct {
	DB        *gorm.DB
	CommitErr error

	calls atomic.Int32
}

var _ aggregates.TxRunner = (*CommitFailRunner)(nil)

func (r *CommitFailRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.calls.Add(1)
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(dbctx.Context{Ctx: ctx, Tx: tx}); err != nil {
			return err
		}
		return r.CommitErr
	})
}

func (r *CommitFailRunner) Calls() int {
	return int(r.calls.Load())
}
