package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"flash-insight/src/config"
	"flash-insight/src/insight"
	"flash-insight/src/llm"
	"flash-insight/src/logutil"
	"flash-insight/src/overlay"
	"flash-insight/src/region"
	"flash-insight/src/screenshot"
)

type mainOptions struct {
	apiKeyPath string
	provider   string
	model      string
	display    int
	verbose    bool
	runOnce    bool
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return runWithArgs(normalizeLegacyArgs(os.Args))
}

func runWithArgs(args []string) error {
	if len(args) == 0 {
		args = []string{"flash-insight"}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(args[1:])
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "flash-insight",
		Short:         "Answer the question shown in a screen area",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.runOnce {
				return runOnce(cmd.Context(), opts, onceOptions{clipboard: true}, cmd.OutOrStdout())
			}
			return runGUI(cmd.Context(), opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	pf.StringVar(&opts.provider, "provider", "", "Model provider: gemini or openrouter")
	pf.StringVar(&opts.model, "model", "", "Model name")
	pf.IntVar(&opts.display, "display", -1, "Display index to select on (default from DISPLAY_INDEX)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")

	cmd.Flags().BoolVar(&opts.runOnce, "run-once", false, "Select once, copy the answer to the clipboard and exit")
	_ = cmd.Flags().MarkHidden("run-once")

	cmd.AddCommand(
		newTrayCmd(opts),
		newOnceCmd(opts),
		newAskCmd(opts),
		newDisplaysCmd(opts),
		newKeyCmd(opts),
	)
	return cmd
}

// legacyFlags are accepted with a single dash for compatibility with older
// scripts.
var legacyFlags = []string{"run-once", "api-key-path", "provider", "model", "display", "verbose", "file", "json", "clipboard"}

func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
			continue
		}
		for _, name := range legacyFlags {
			if arg == "-"+name || strings.HasPrefix(arg, "-"+name+"=") {
				normalized[i] = "-" + arg
				break
			}
		}
	}

	return normalized
}

// loadConfig reads configuration and routes the standard logger. The
// returned closer flushes the log file, if any.
func loadConfig(opts *mainOptions) (*config.Config, io.Closer, error) {
	cfg, err := config.LoadWithOptions(config.LoadOptions{
		APIKeyPathOverride: opts.apiKeyPath,
		ProviderOverride:   opts.provider,
		ModelOverride:      opts.model,
		DisplayOverride:    opts.display,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var closer io.Closer = io.NopCloser(nil)
	if opts.verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		log.SetOutput(os.Stderr)
	} else {
		closer = logutil.Setup(cfg.EnableFileLogging)
	}

	log.Printf("Config loaded: provider=%s model=%s key=%s (source %s) display=%d",
		cfg.Provider, cfg.Model, logutil.RedactKey(cfg.APIKey), cfg.APIKeySource, cfg.DisplayIndex)
	return cfg, closer, nil
}

func newOracle(ctx context.Context, cfg *config.Config) (llm.Oracle, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key found. Checked key file %s, the %s keyring entry and the environment",
			llm.ErrNotConfigured, cfg.APIKeyPath, cfg.Provider)
	}
	return llm.New(ctx, cfg.LLMConfig())
}

func newService(cfg *config.Config, oracle llm.Oracle, display int) *insight.Service {
	svc := &insight.Service{
		Grabber: screenshot.Screen{},
		Oracle:  oracle,
		Display: display,
	}
	if cfg.DebugSaveImages {
		svc.DebugDir = "."
	}
	return svc
}

// overlayOptions carries the configured minimum span to every selection driver.
func overlayOptions(cfg *config.Config) overlay.Options {
	return overlay.Options{MinSpan: cfg.MinSelectionSpan}
}

func deadline(cfg *config.Config) time.Duration {
	return time.Duration(cfg.CaptureDeadlineSec) * time.Second
}

// displayResolver returns a func that re-enumerates displays on every call,
// keeps the store's clamp bound current and picks the configured display.
func displayResolver(src screenshot.DisplaySource, index int, store *region.Store) func() (region.Display, error) {
	return func() (region.Display, error) {
		ds, err := src.Displays()
		if err != nil {
			return region.Display{}, err
		}
		if store != nil {
			store.SetBounds(region.Union(ds))
		}
		return pickDisplay(ds, index)
	}
}

func pickDisplay(ds []region.Display, index int) (region.Display, error) {
	if d, ok := region.Find(ds, index); ok {
		return d, nil
	}
	d, ok := region.Primary(ds)
	if !ok {
		return region.Display{}, screenshot.ErrNoDisplays
	}
	log.Printf("Display %d not found, using primary display %d", index, d.Index)
	return d, nil
}
