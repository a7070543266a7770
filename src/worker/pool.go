package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"flash-insight/src/region"
)

// Answerer runs capture-and-infer for one rectangle.
type Answerer interface {
	Answer(ctx context.Context, r region.Rect) (string, error)
}

// ResultCallback is invoked on completion (from a worker goroutine).
// The event loop should pass a closure that posts back into the event loop safely.
type ResultCallback func(res Result)

// Result is the outcome of one job.
type Result struct {
	ID      string
	Rect    region.Rect
	Text    string
	Err     error
	Elapsed time.Duration
}

// Pool runs at most one capture-and-infer job at a time. Submissions made
// while a job is in flight are rejected, not queued.
type Pool struct {
	svc      Answerer
	deadline time.Duration
	sem      *semaphore.Weighted
	wg       sync.WaitGroup
}

// New creates a single-flight pool. A deadline <= 0 disables the per-job timeout.
func New(svc Answerer, deadline time.Duration) *Pool {
	return &Pool{svc: svc, deadline: deadline, sem: semaphore.NewWeighted(1)}
}

// Submit starts a job for r if no other job is running. Returns false if dropped.
// r is captured by value, so later store edits do not affect the job.
func (p *Pool) Submit(ctx context.Context, r region.Rect, cb ResultCallback) bool {
	if !p.sem.TryAcquire(1) {
		return false
	}
	id := uuid.NewString()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		jobCtx := ctx
		if p.deadline > 0 {
			var cancel context.CancelFunc
			jobCtx, cancel = context.WithTimeout(ctx, p.deadline)
			defer cancel()
		}

		log.Printf("Worker[%s]: starting capture for region %s", id, r)
		start := time.Now()
		text, err := p.answerWithContext(jobCtx, id, r)
		res := Result{ID: id, Rect: r, Text: text, Err: err, Elapsed: time.Since(start)}
		log.Printf("Worker[%s]: completed in %v, answer length=%d, err=%v", id, res.Elapsed.Round(time.Millisecond), len(text), err)
		cb(res)
	}()
	return true
}

// Busy reports whether a job is in flight.
func (p *Pool) Busy() bool {
	if p.sem.TryAcquire(1) {
		p.sem.Release(1)
		return false
	}
	return true
}

// Close waits for the in-flight job, including an answerer that outlived
// its deadline.
func (p *Pool) Close() {
	p.wg.Wait()
}

// answerWithContext returns when ctx ends even if the answerer ignores it.
// The permit is released only once the answerer has returned, so a late
// answerer still counts as in flight.
func (p *Pool) answerWithContext(ctx context.Context, id string, r region.Rect) (string, error) {
	type outcome struct {
		text string
		err  error
	}
	resCh := make(chan outcome, 1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		text, err := p.svc.Answer(ctx, r)
		// Free the slot before reporting so the result's receiver can trigger again.
		p.sem.Release(1)
		resCh <- outcome{text, err}
	}()
	select {
	case o := <-resCh:
		return o.text, o.err
	case <-ctx.Done():
		log.Printf("Worker[%s]: deadline reached, answerer still running", id)
		return "", ctx.Err()
	}
}
