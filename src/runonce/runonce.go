// Package runonce selects an area, answers it and exits, for scripted use.
package runonce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"flash-insight/src/clipboard"
	"flash-insight/src/overlay"
	"flash-insight/src/region"
)

var ErrSelectionCancelled = errors.New("selection cancelled")

const defaultDeadline = 20 * time.Second

// AnswerFunc runs capture-and-infer for one rectangle.
type AnswerFunc func(ctx context.Context, r region.Rect) (string, error)

type ResultTarget interface {
	OnSuccess(r region.Rect, text string) error
	OnFailure(err error) error
}

type Options struct {
	Display  region.Display
	Bounds   region.Rect
	Deadline time.Duration
	Selector overlay.Selector
	Answer   AnswerFunc
	Target   ResultTarget
}

type Result struct {
	Rect region.Rect
	Text string
}

// Execute runs one select-capture-answer cycle against a private store.
func Execute(ctx context.Context, opts Options) (Result, error) {
	if opts.Selector == nil {
		return Result{}, errors.New("Selector is required")
	}
	if opts.Answer == nil {
		return Result{}, errors.New("Answer is required")
	}
	if opts.Target == nil {
		return Result{}, errors.New("Target is required")
	}

	store := region.NewStore(region.DefaultFor(opts.Display), opts.Bounds)

	rect, cancelled, err := opts.Selector.Select(ctx, opts.Display)
	if err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}
	if cancelled {
		_ = opts.Target.OnFailure(ErrSelectionCancelled)
		return Result{}, ErrSelectionCancelled
	}
	if err := store.Set(rect); err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}
	committed := store.Get()

	deadline := opts.Deadline
	if deadline <= 0 {
		deadline = defaultDeadline
	}
	jobCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	text, err := opts.Answer(jobCtx, committed)
	if err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}

	if err := opts.Target.OnSuccess(committed, text); err != nil {
		_ = opts.Target.OnFailure(err)
		return Result{}, err
	}
	return Result{Rect: committed, Text: text}, nil
}

// StdoutTarget prints the answer, or a JSON object when JSON is set.
type StdoutTarget struct {
	Writer io.Writer
	JSON   bool
}

type jsonResult struct {
	Answer string       `json:"answer,omitempty"`
	Rect   *region.Rect `json:"rect,omitempty"`
	Error  string       `json:"error,omitempty"`
}

func (t StdoutTarget) writer() io.Writer {
	if t.Writer == nil {
		return os.Stdout
	}
	return t.Writer
}

func (t StdoutTarget) OnSuccess(r region.Rect, text string) error {
	if t.JSON {
		res := jsonResult{Answer: text}
		if !r.Empty() {
			res.Rect = &r
		}
		return json.NewEncoder(t.writer()).Encode(res)
	}
	_, err := fmt.Fprintln(t.writer(), text)
	return err
}

func (t StdoutTarget) OnFailure(err error) error {
	if !t.JSON || err == nil {
		return nil
	}
	return json.NewEncoder(t.writer()).Encode(jsonResult{Error: err.Error()})
}

// ClipboardTarget copies the answer to the clipboard.
type ClipboardTarget struct{}

func (ClipboardTarget) OnSuccess(_ region.Rect, text string) error {
	if err := clipboard.Write(text); err != nil {
		return fmt.Errorf("clipboard error: %w", err)
	}
	return nil
}

func (ClipboardTarget) OnFailure(err error) error { return nil }
