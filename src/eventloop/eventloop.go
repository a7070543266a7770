package eventloop

import (
	"context"
	"errors"
	"log"

	"flash-insight/src/overlay"
	"flash-insight/src/region"
	"flash-insight/src/worker"
)

var (
	// ErrBusy is reported when a capture is requested while one is in flight.
	ErrBusy = errors.New("busy, please retry")
	// ErrNoSelection is replied when a select-and-capture ends without a
	// committed area.
	ErrNoSelection = errors.New("no area selected")
)

// Presenter receives the loop's state changes. Calls come from the loop
// goroutine; UI implementations must hop to their own thread.
type Presenter interface {
	SelectionStarted()
	SelectionEnded(r region.Rect, committed bool)
	Busy(busy bool)
	Answer(text string)
	Failure(err error)
	Notice(msg string)
}

// Submitter runs capture-and-infer jobs. worker.Pool satisfies it.
type Submitter interface {
	Submit(ctx context.Context, r region.Rect, cb worker.ResultCallback) bool
}

type Options struct {
	Store     *region.Store
	Selector  overlay.Selector
	Pool      Submitter
	Presenter Presenter
	// Display resolves the display selections are bound to.
	Display func() (region.Display, error)
}

type requestKind int

const (
	reqSelect requestKind = iota
	reqCapture
	reqSelectAndCapture
	reqEdit
)

type request struct {
	kind  requestKind
	rect  region.Rect
	reply worker.ResultCallback
}

// Loop is the single-goroutine actor that owns the store and serializes
// selections, edits and capture triggers.
type Loop struct {
	store     *region.Store
	selector  overlay.Selector
	pool      Submitter
	presenter Presenter
	display   func() (region.Display, error)

	busy     bool
	pending  worker.ResultCallback
	requests chan request
	results  chan worker.Result
}

func New(opts Options) *Loop {
	return &Loop{
		store:     opts.Store,
		selector:  opts.Selector,
		pool:      opts.Pool,
		presenter: opts.Presenter,
		display:   opts.Display,
		requests:  make(chan request, 8),
		results:   make(chan worker.Result, 1),
	}
}

// RequestSelect asks for an interactive selection. It never blocks and
// returns false if the request queue is full.
func (l *Loop) RequestSelect() bool { return l.post(request{kind: reqSelect}) }

// RequestCapture asks for capture-and-infer of the committed rectangle.
func (l *Loop) RequestCapture() bool { return l.post(request{kind: reqCapture}) }

// RequestSelectAndCapture selects an area and, if one is committed,
// captures it straight away.
func (l *Loop) RequestSelectAndCapture() bool { return l.post(request{kind: reqSelectAndCapture}) }

// RequestSelectAndCaptureFor is RequestSelectAndCapture with a reply that
// receives exactly one outcome. reply runs on the loop goroutine and must not
// block.
func (l *Loop) RequestSelectAndCaptureFor(reply worker.ResultCallback) bool {
	return l.post(request{kind: reqSelectAndCapture, reply: reply})
}

// RequestEdit asks to commit a manually entered rectangle.
func (l *Loop) RequestEdit(r region.Rect) bool { return l.post(request{kind: reqEdit, rect: r}) }

func (l *Loop) post(r request) bool {
	select {
	case l.requests <- r:
		return true
	default:
		log.Printf("eventloop: request queue full, dropping request kind=%d", r.kind)
		return false
	}
}

// Run processes requests and results until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-l.requests:
			l.handle(ctx, req)
		case res := <-l.results:
			l.handleResult(res)
		}
	}
}

func (l *Loop) handle(ctx context.Context, req request) {
	switch req.kind {
	case reqSelect:
		l.selectArea(ctx)
	case reqCapture:
		l.capture(ctx, nil)
	case reqSelectAndCapture:
		if l.selectArea(ctx) {
			l.capture(ctx, req.reply)
		} else {
			notify(req.reply, worker.Result{Rect: l.store.Get(), Err: ErrNoSelection})
		}
	case reqEdit:
		l.edit(req.rect)
	}
}

// selectArea runs one interactive session and reports whether a new
// rectangle was committed.
func (l *Loop) selectArea(ctx context.Context) bool {
	d, err := l.display()
	if err != nil {
		l.presenter.Failure(err)
		return false
	}

	l.presenter.SelectionStarted()
	rect, cancelled, err := l.selector.Select(ctx, d)
	switch {
	case err != nil && errors.Is(err, region.ErrDegenerate):
		log.Printf("eventloop: selection discarded: %v", err)
		l.presenter.SelectionEnded(l.store.Get(), false)
		l.presenter.Notice("Selection too small, area unchanged")
		return false
	case err != nil:
		l.presenter.SelectionEnded(l.store.Get(), false)
		l.presenter.Failure(err)
		return false
	case cancelled:
		log.Printf("eventloop: selection cancelled")
		l.presenter.SelectionEnded(l.store.Get(), false)
		return false
	}

	if err := l.store.Set(rect); err != nil {
		l.presenter.SelectionEnded(l.store.Get(), false)
		l.presenter.Notice("Selection rejected: " + err.Error())
		return false
	}
	committed := l.store.Get()
	log.Printf("eventloop: committed area %s", committed)
	l.presenter.SelectionEnded(committed, true)
	return true
}

func (l *Loop) edit(r region.Rect) {
	if err := l.store.Set(r); err != nil {
		l.presenter.Notice("Invalid area: " + err.Error())
	}
}

// capture snapshots the store once and hands the value to the pool.
func (l *Loop) capture(ctx context.Context, reply worker.ResultCallback) {
	rect := l.store.Get()
	if l.busy {
		l.presenter.Failure(ErrBusy)
		notify(reply, worker.Result{Rect: rect, Err: ErrBusy})
		return
	}
	l.setBusy(true)
	submitted := l.pool.Submit(ctx, rect, func(res worker.Result) {
		l.results <- res
	})
	if !submitted {
		l.setBusy(false)
		l.presenter.Failure(ErrBusy)
		notify(reply, worker.Result{Rect: rect, Err: ErrBusy})
		return
	}
	l.pending = reply
}

func (l *Loop) handleResult(res worker.Result) {
	l.setBusy(false)
	reply := l.pending
	l.pending = nil
	if res.Err != nil {
		log.Printf("eventloop: job %s failed: %v", res.ID, res.Err)
		l.presenter.Failure(res.Err)
	} else {
		l.presenter.Answer(res.Text)
	}
	notify(reply, res)
}

func notify(reply worker.ResultCallback, res worker.Result) {
	if reply != nil {
		reply(res)
	}
}

func (l *Loop) setBusy(b bool) {
	l.busy = b
	l.presenter.Busy(b)
}
