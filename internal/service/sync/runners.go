package sync

import (
	"context"
	"sync"
)

// runnerRegistry tracks the cancellation function of every live executor,
// keyed by job ID. Cancellation is advisory: cancelling a runner's context
// asks the executor to stop at its next checkpoint, it never kills it.
type runnerRegistry struct {
	mu      sync.Mutex
	cancels map[int64]context.CancelFunc
}

func newRunnerRegistry() *runnerRegistry {
	return &runnerRegistry{cancels: make(map[int64]context.CancelFunc)}
}

// register creates a cancellable context for the job's executor and records
// its cancel function. The returned release func must be called when the
// executor exits.
func (r *runnerRegistry) register(jobID int64) (ctx context.Context, release func()) {
	ctx, cancel := context.WithCancel(context.Background())

	r.mu.Lock()
	r.cancels[jobID] = cancel
	r.mu.Unlock()

	return ctx, func() {
		r.mu.Lock()
		delete(r.cancels, jobID)
		r.mu.Unlock()
		cancel()
	}
}

// cancel signals the job's executor, if one is live. It reports whether a
// runner was found; a pending job whose goroutine has not started yet, or a
// job owned by another process, has none.
func (r *runnerRegistry) cancel(jobID int64) bool {
	r.mu.Lock()
	cancel, ok := r.cancels[jobID]
	r.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}
