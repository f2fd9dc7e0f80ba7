// Package worker runs the two background jobs an external caller drives a
// restoration session through — analyze and process — and reports their
// progress as a single monotonic integer per session.
package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// JobKind distinguishes an analyze job from a process job.
type JobKind int

const (
	JobAnalyze JobKind = iota
	JobProcess
)

// Job is a unit of work the Worker runs. Run performs the staged work and
// reports progress through the callback it is handed; it must honor ctx
// cancellation at stage boundaries.
type Job struct {
	SessionID string
	Kind      JobKind
	Run       func(ctx context.Context, progress func(int)) error
}

// Worker runs at most one job per session id at a time and exposes each
// running job's progress as a [0,100] integer, via Start plus atomic
// progress counters and cooperative cancellation through context.Context.
// There is no goroutine pool, no pause/resume channel pair, and no
// playback-aware throttle here: a batch DSP job has no independent tracks
// to fan out across and nothing analogous to "is audio currently playing".
type Worker struct {
	inFlight sync.Map // sessionID string -> *atomic.Int64
}

// New returns an idle Worker.
func New() *Worker {
	return &Worker{}
}

// Start runs job to completion, rejecting a second concurrent job on the
// same session id. Start itself blocks; a caller wanting background
// progress reporting runs Start in its own goroutine and polls Progress
// from another — safe since progress is backed by atomic.Int64.
func (w *Worker) Start(ctx context.Context, job Job) error {
	progress := new(atomic.Int64)
	if _, loaded := w.inFlight.LoadOrStore(job.SessionID, progress); loaded {
		return fmt.Errorf("worker: a job is already running for session %q", job.SessionID)
	}
	defer w.inFlight.Delete(job.SessionID)

	report := func(pct int) {
		defer func() { recover() }()
		progress.Store(int64(pct))
	}
	return job.Run(ctx, report)
}

// Progress returns the most recently reported milestone for sessionID's
// running job, or -1 if no job is currently running for it.
func (w *Worker) Progress(sessionID string) int {
	v, ok := w.inFlight.Load(sessionID)
	if !ok {
		return -1
	}
	return int(v.(*atomic.Int64).Load())
}
