package testutil

import (
	"errors"
	"testing"

	"github.com/yungbote/materials-registry/internal/data/aggregates"
	domainagg "github.com/yungbote/materials-registry/internal/domain/aggregates"
)

func TestRecorderCountsConflicts(t *testing.T) {
	r := &Recorder{}
	r.WriteFinished(aggregates.WriteOutcome{Op: "a", Status: "success"})
	r.WriteFinished(aggregates.WriteOutcome{Op: "a", Status: "conflict", Err: domainagg.NewError(domainagg.CodeConflict, "a", "stale", nil)})
	r.WriteFinished(aggregates.WriteOutcome{Op: "a", Status: "internal", Err: errors.New("boom")})

	if got := len(r.Outcomes()); got != 3 {
		t.Fatalf("outcomes: want=3 got=%d", got)
	}
	if got := r.Conflicts(); got != 1 {
		t.Fatalf("conflicts: want=1 got=%d", got)
	}
}
