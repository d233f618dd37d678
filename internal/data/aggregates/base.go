package aggregates

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/materials-registry/internal/domain/aggregates"
	"github.com/yungbote/materials-registry/internal/observability"
	"github.com/yungbote/materials-registry/internal/platform/dbctx"
	"github.com/yungbote/materials-registry/internal/platform/logger"
)

type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Observer WriteObserver
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = GormTxRunner(d.DB)
	}
	if d.Observer == nil {
		d.Observer = discardObserver
	}
	return d
}

// executeWrite runs fn in one transaction, maps the failure to an aggregate
// error and reports the outcome.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	if op = strings.TrimSpace(op); op == "" {
		op = "aggregate.write"
	}

	ctx, span := observability.Tracer().Start(ctx, op)
	defer span.End()

	start := time.Now()
	err := MapError(op, deps.Runner.InTx(ctx, fn))
	outcome := WriteOutcome{Op: op, Status: writeStatus(err), Duration: time.Since(start), Err: err}

	span.SetAttributes(attribute.String("aggregate.status", outcome.Status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome.Status)
		if deps.Log != nil && !outcome.Conflict() {
			deps.Log.Debug("Aggregate write failed", "op", op, "status", outcome.Status, "error", err)
		}
	}
	deps.Observer.WriteFinished(outcome)
	return err
}

func writeStatus(err error) string {
	if err == nil {
		return "success"
	}
	if code := domainagg.CodeOf(err); code != "" {
		return string(code)
	}
	return "failure"
}
