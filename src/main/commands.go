package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"flash-insight/src/clipboard"
	"flash-insight/src/config"
	"flash-insight/src/overlay"
	"flash-insight/src/region"
	"flash-insight/src/runonce"
	"flash-insight/src/screenshot"
	"flash-insight/src/singleinstance"
)

const (
	maxFileSizeMB = 10
	maxFileSize   = maxFileSizeMB * 1024 * 1024
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

type onceOptions struct {
	json      bool
	clipboard bool
}

func newOnceCmd(opts *mainOptions) *cobra.Command {
	o := onceOptions{}
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Select an area, print the answer and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd.Context(), opts, o, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&o.json, "json", false, "Output the answer as JSON")
	cmd.Flags().BoolVar(&o.clipboard, "clipboard", false, "Copy the answer to the clipboard instead of printing it")
	return cmd
}

func runOnce(ctx context.Context, opts *mainOptions, o onceOptions, out io.Writer) error {
	enableDPIAwareness()

	cfg, closer, err := loadConfig(opts)
	if err != nil {
		return err
	}
	defer closer.Close()

	mode := singleinstance.ModeStdout
	if o.clipboard {
		mode = singleinstance.ModeClipboard
	}
	return runOnceWithDelegation(ctx, singleinstance.Client{}, mode, runonce.StdoutTarget{Writer: out, JSON: o.json}, func() error {
		return runOnceStandalone(ctx, cfg, o, out)
	})
}

type delegator interface {
	Delegate(ctx context.Context, mode singleinstance.Mode) (bool, string, error)
}

// runOnceWithDelegation lets a running tray resident do the selection and
// falls back to a standalone run when there is none.
func runOnceWithDelegation(ctx context.Context, client delegator, mode singleinstance.Mode, out runonce.StdoutTarget, fallback func() error) error {
	delegated, text, err := client.Delegate(ctx, mode)
	if !delegated {
		log.Printf("No resident detected, running standalone")
		return fallback()
	}
	if err != nil {
		_ = out.OnFailure(err)
		return fmt.Errorf("resident: %w", err)
	}
	log.Printf("Delegated to resident")
	if mode == singleinstance.ModeStdout {
		return out.OnSuccess(region.Rect{}, text)
	}
	return nil
}

func runOnceStandalone(ctx context.Context, cfg *config.Config, o onceOptions, out io.Writer) error {
	oracle, err := newOracle(ctx, cfg)
	if err != nil {
		return err
	}
	defer oracle.Close()

	var target runonce.ResultTarget = runonce.StdoutTarget{Writer: out, JSON: o.json}
	if o.clipboard {
		if err := clipboard.Init(); err != nil {
			return fmt.Errorf("failed to initialize clipboard: %w", err)
		}
		target = runonce.ClipboardTarget{}
	}

	ds, err := screenshot.Displays()
	if err != nil {
		return err
	}
	display, err := pickDisplay(ds, cfg.DisplayIndex)
	if err != nil {
		return err
	}

	svc := newService(cfg, oracle, display.Index)
	log.Printf("Running once on display %d with deadline %ds", display.Index, cfg.CaptureDeadlineSec)
	_, err = runonce.Execute(ctx, runonce.Options{
		Display:  display,
		Bounds:   region.Union(ds),
		Deadline: deadline(cfg),
		Selector: overlay.NewNative(overlayOptions(cfg)),
		Answer:   svc.Answer,
		Target:   target,
	})
	return err
}

type askOptions struct {
	file string
	json bool
}

func newAskCmd(opts *mainOptions) *cobra.Command {
	o := askOptions{}
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Answer the question in an existing PNG image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), opts, o, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&o.file, "file", "", "Path to PNG file (use '-' for stdin)")
	cmd.Flags().BoolVar(&o.json, "json", false, "Output results as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runAsk(ctx context.Context, opts *mainOptions, o askOptions, in io.Reader, out io.Writer) error {
	cfg, closer, err := loadConfig(opts)
	if err != nil {
		return err
	}
	defer closer.Close()

	data, err := readImage(o.file, in)
	if err != nil {
		return err
	}

	oracle, err := newOracle(ctx, cfg)
	if err != nil {
		return err
	}
	defer oracle.Close()

	ctx, cancel := context.WithTimeout(ctx, deadline(cfg))
	defer cancel()

	start := time.Now()
	answer, err := newService(cfg, oracle, screenshot.AnyDisplay).AnswerImage(ctx, data)
	if err != nil {
		return err
	}
	return writeAskResult(out, answer, o.file, time.Since(start), o.json)
}

func readImage(path string, in io.Reader) ([]byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(io.LimitReader(in, maxFileSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
	}

	if len(data) == 0 {
		return nil, errors.New("input file is empty")
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("input file exceeds maximum size of %d MB", maxFileSizeMB)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		return nil, errors.New("input is not a valid PNG file (invalid magic number)")
	}
	return data, nil
}

type askResult struct {
	Answer    string  `json:"answer"`
	Source    string  `json:"source"`
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration_seconds"`
}

func writeAskResult(out io.Writer, answer, source string, elapsed time.Duration, asJSON bool) error {
	if !asJSON {
		_, err := fmt.Fprintln(out, answer)
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(askResult{
		Answer:    answer,
		Source:    source,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Duration:  elapsed.Seconds(),
	}); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

func newDisplaysCmd(opts *mainOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "displays",
		Short: "List attached displays and the virtual desktop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := screenshot.Displays()
			if err != nil {
				return err
			}
			printDisplays(cmd.OutOrStdout(), ds)
			return nil
		},
	}
}

func printDisplays(out io.Writer, ds []region.Display) {
	for _, d := range ds {
		mark := ""
		if d.Primary {
			mark = " (primary)"
		}
		fmt.Fprintf(out, "%d: %s%s\n", d.Index, d.Bounds(), mark)
	}
	fmt.Fprintf(out, "virtual desktop: %s\n", region.Union(ds))
}

func newKeyCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the API key stored in the OS keyring",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set",
			Short: "Read an API key from stdin and store it",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				key, err := readKey(cmd.InOrStdin())
				if err != nil {
					return err
				}
				provider := keyProvider(opts)
				if err := config.StoreAPIKey(provider, key); err != nil {
					return fmt.Errorf("failed to store key: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored %s key for %s\n", keyHint(key), provider)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Remove the stored API key",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				provider := keyProvider(opts)
				if err := config.DeleteAPIKey(provider); err != nil {
					return fmt.Errorf("failed to delete key: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted key for %s\n", provider)
				return nil
			},
		},
	)
	return cmd
}

func keyProvider(opts *mainOptions) string {
	if p := strings.ToLower(strings.TrimSpace(opts.provider)); p != "" {
		return p
	}
	if p := strings.ToLower(strings.TrimSpace(os.Getenv("PROVIDER"))); p != "" {
		return p
	}
	return config.ProviderGemini
}

func readKey(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read key: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return "", errors.New("no key given on stdin")
	}
	return key, nil
}

// keyHint shows only the key length so the secret never reaches the terminal.
func keyHint(key string) string {
	return fmt.Sprintf("%d-character", len(key))
}
