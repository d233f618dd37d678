package testutil

import (
	"sync"

	"github.com/yungbote/materials-registry/internal/data/aggregates"
)

// Recorder keeps every write outcome it is handed.
type Recorder struct {
	mu       sync.Mutex
	outcomes []aggregates.WriteOutcome
}

var _ aggregates.WriteObserver = (*Recorder)(nil)

func (r *Recorder) WriteFinished(o aggregates.WriteOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *Recorder) Outcomes() []aggregates.WriteOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]aggregates.WriteOutcome(nil), r.outcomes...)
}

// Conflicts counts outcomes that ended in a conflict.
func (r *Recorder) Conflicts() int {
	n := 0
	for _, o := range r.Outcomes() {
		if o.Conflict() {
			n++
		}
	}
	return n
}
