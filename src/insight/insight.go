// Package insight captures a screen region and asks the oracle about it.
package insight

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"flash-insight/src/llm"
	"flash-insight/src/logutil"
	"flash-insight/src/region"
	"flash-insight/src/screenshot"
)

// CaptureError wraps a failure to grab or encode the region.
type CaptureError struct {
	Rect region.Rect
	Err  error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture %s failed: %v", e.Rect, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// OracleError wraps a failure reported by the model or its transport.
type OracleError struct {
	Err error
}

func (e *OracleError) Error() string { return fmt.Sprintf("model request failed: %v", e.Err) }

func (e *OracleError) Unwrap() error { return e.Err }

// Service runs capture-and-infer.
type Service struct {
	Grabber screenshot.Grabber
	Oracle  llm.Oracle
	// Display restricts captures to one display; screenshot.AnyDisplay allows all.
	Display int
	// DebugDir, when set, receives a copy of every captured PNG.
	DebugDir string
}

// Answer grabs r, sends it to the oracle and returns the normalized answer.
func (s *Service) Answer(ctx context.Context, r region.Rect) (string, error) {
	log.Printf("Capturing region %s on display %d", r, s.Display)

	img, err := s.Grabber.Grab(ctx, r, s.Display)
	if err != nil {
		return "", &CaptureError{Rect: r, Err: err}
	}
	data, err := screenshot.EncodePNG(img)
	if err != nil {
		return "", &CaptureError{Rect: r, Err: err}
	}
	s.saveDebug(r, data)

	return s.AnswerImage(ctx, data)
}

// AnswerImage sends already encoded PNG bytes to the oracle.
func (s *Service) AnswerImage(ctx context.Context, png []byte) (string, error) {
	start := time.Now()
	raw, err := s.Oracle.Ask(ctx, png)
	if err != nil {
		return "", &OracleError{Err: err}
	}
	answer, err := Normalize(raw)
	if err != nil {
		return "", &OracleError{Err: err}
	}
	log.Printf("Answer received in %v: %q", time.Since(start).Round(time.Millisecond), logutil.SanitizeForLog(answer))
	return answer, nil
}

// Normalize trims and upper-cases an answer.
func Normalize(raw string) (string, error) {
	answer := strings.ToUpper(strings.TrimSpace(raw))
	if answer == "" {
		return "", llm.ErrEmptyAnswer
	}
	return answer, nil
}

func (s *Service) saveDebug(r region.Rect, data []byte) {
	if s.DebugDir == "" {
		return
	}
	name := filepath.Join(s.DebugDir, fmt.Sprintf("debug_captured_region_%dx%d.png", r.Width, r.Height))
	if err := os.WriteFile(name, data, 0600); err != nil {
		log.Printf("Warning: Could not save debug image: %v", err)
		return
	}
	log.Printf("DEBUG: Saved captured region to %s (size: %d bytes)", name, len(data))
}
