// Command stress-once fires concurrent "once" delegations at a running tray
// resident and tallies how many were answered, rejected as busy, or failed.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"flash-insight/src/singleinstance"
)

type stressOptions struct {
	n        int
	mode     string
	deadline time.Duration
}

type delegator interface {
	Delegate(ctx context.Context, mode singleinstance.Mode) (bool, string, error)
}

// tally counts delegation outcomes.
type tally struct {
	mu                           sync.Mutex
	ok, busy, failed, noResident int
}

func (t *tally) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fmt.Sprintf("ok=%d busy=%d err=%d no-resident=%d", t.ok, t.busy, t.failed, t.noResident)
}

func (t *tally) record(delegated bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case !delegated:
		t.noResident++
	case err == nil:
		t.ok++
	case strings.Contains(strings.ToLower(err.Error()), "busy"):
		t.busy++
	default:
		t.failed++
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	return newRootCmd(opts).Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-once",
		Short:         "Stress test once delegation to the tray resident",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := parseMode(opts.mode)
			if err != nil {
				return err
			}
			return stress(cmd.Context(), singleinstance.Client{}, mode, *opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().StringVar(&opts.mode, "mode", "std", "std|clip: answer on stdout or in the resident's clipboard")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

func parseMode(s string) (singleinstance.Mode, error) {
	switch s {
	case "std":
		return singleinstance.ModeStdout, nil
	case "clip":
		return singleinstance.ModeClipboard, nil
	}
	return "", fmt.Errorf("unknown mode %q, want std or clip", s)
}

func stress(ctx context.Context, client delegator, mode singleinstance.Mode, opts stressOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var wg sync.WaitGroup
	t := &tally{}

	start := time.Now()
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, opts.deadline)
			defer cancel()
			delegated, _, err := client.Delegate(cctx, mode)
			t.record(delegated, err)
		}()
	}
	wg.Wait()
	_, err := fmt.Fprintf(out, "launched=%d %s elapsed=%s\n", opts.n, t, time.Since(start).Round(time.Millisecond))
	return err
}
