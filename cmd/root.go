package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/device-patrol/internal/config"
	telem "github.com/timvw/device-patrol/internal/otel"
	"github.com/timvw/device-patrol/internal/probe"
	"github.com/timvw/device-patrol/internal/procfd"
	"github.com/timvw/device-patrol/internal/usage"
)

// Version is set at build time via -ldflags "-X github.com/timvw/device-patrol/cmd.Version=...".
var Version = "dev"

var (
	// Global flags.
	flagIgnore  []string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:     "device-patrol",
	Short:   "Detect when a webcam or microphone is in use",
	Version: Version,
	Long: `device-patrol tells you whether a capture device (webcam or microphone)
is currently being used by another process.

Video devices are probed with V4L2: if a set of capture buffers cannot be
reserved, someone else is streaming. Busy devices are then attributed to
processes on the ignored-apps list by reading /proc/<pid>/fd, so expected
use (your video call app) can be told apart from unexpected use.

Microphones are probed by opening the ALSA PCM capture node.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&flagIgnore, "ignore", nil, "process name whose use of a device is expected (repeatable; overrides ignore_apps)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "print extra diagnostics, such as skipped descriptors")
}

// loadConfig loads configuration and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if len(flagIgnore) > 0 {
		cfg.IgnoreApps = flagIgnore
	}
	if flagVerbose && cfg.ConfigFile != "" {
		fmt.Fprintf(os.Stderr, "config: loaded %s\n", cfg.ConfigFile)
	}
	return cfg, nil
}

// newResolver returns the /proc descriptor resolver, counting skipped
// descriptors and, with --verbose, reporting them.
func newResolver(metrics *telem.Metrics) *procfd.Resolver {
	r := procfd.NewResolver()
	r.OnSkip = func(link string, err error) {
		metrics.RecordSkippedDescriptor(context.Background())
		if flagVerbose {
			fmt.Fprintf(os.Stderr, "warning: skipped descriptor %s: %v\n", link, err)
		}
	}
	return r
}

// newClassifier wires the prober and resolver together.
func newClassifier(metrics *telem.Metrics) *usage.Classifier {
	prober := probe.New()
	return &usage.Classifier{
		Video:   prober,
		Audio:   prober,
		Holders: newResolver(metrics),
		Metrics: metrics,
	}
}
