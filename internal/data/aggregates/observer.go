package aggregates

import (
	"time"

	domainagg "github.com/yungbote/materials-registry/internal/domain/aggregates"
	"github.com/yungbote/materials-registry/internal/observability"
)

// WriteOutcome describes one finished aggregate write.
type WriteOutcome struct {
	Op       string
	Status   string
	Duration time.Duration
	Err      error
}

func (o WriteOutcome) Conflict() bool {
	return domainagg.IsCode(o.Err, domainagg.CodeConflict)
}

func (o WriteOutcome) Retryable() bool {
	return domainagg.IsCode(o.Err, domainagg.CodeRetryable)
}

// WriteObserver is notified after every aggregate write, committed or not.
type WriteObserver interface {
	WriteFinished(WriteOutcome)
}

type WriteObserverFunc func(WriteOutcome)

func (f WriteObserverFunc) WriteFinished(o WriteOutcome) {
	if f != nil {
		f(o)
	}
}

var discardObserver = WriteObserverFunc(func(WriteOutcome) {})

// MetricsObserver records write latency and conflict/retryable counters.
func MetricsObserver(metrics *observability.Metrics) WriteObserver {
	if metrics == nil {
		return discardObserver
	}
	return WriteObserverFunc(func(o WriteOutcome) {
		metrics.ObserveAggregateOperation(o.Op, o.Status, o.Duration)
		switch {
		case o.Conflict():
			metrics.IncAggregateConflict(o.Op)
		case o.Retryable():
			metrics.IncAggregateRetry(o.Op)
		}
	})
}
