package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/timvw/device-patrol/internal/devices"
	"github.com/timvw/device-patrol/internal/monitor"
	telem "github.com/timvw/device-patrol/internal/otel"
)

var (
	flagTUI   bool
	flagTheme string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep checking capture devices and notify on unexpected use",
	Long: `Scan all capture devices every interval and print one line whenever a
device changes state.

When a device becomes busy and no ignored app holds it, a desktop
notification is sent through notify-send (disable with notify: false).
Use --tui for a live dashboard instead of line output.

Configuration is loaded from .device-patrol.yaml or environment variables.
An interval of 0 scans once and exits.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd)
	},
}

func init() {
	watchCmd.Flags().BoolVar(&flagTUI, "tui", false, "show an interactive dashboard")
	watchCmd.Flags().StringVar(&flagTheme, "theme", "dark", "dashboard color theme: dark, light")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration: defaults -> config file -> env vars -> flags.
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// One id per run groups its scans in traces.
	runID := uuid.NewString()

	// Wire build version into OTEL service metadata
	telem.Version = Version

	// Initialize OTEL (no-op if no endpoint configured)
	tel, err := telem.Init(ctx, telem.OTELConfig{
		Endpoint: cfg.OTELEndpoint,
		Headers:  cfg.OTELHeaders,
		RunID:    runID,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: otel init failed: %v\n", err)
	}
	var metrics *telem.Metrics
	if tel != nil {
		// Flush on a fresh context: ctx is already cancelled on Ctrl-C.
		defer tel.Shutdown(context.Background())
		metrics = tel.Metrics
	}

	scanner := &monitor.Scanner{
		Classifier:   newClassifier(metrics),
		Lister:       devices.NewLister(),
		VideoDevices: cfg.VideoDevices,
		Microphone:   cfg.Microphone,
		IgnoreApps:   cfg.IgnoreApps,
		RunID:        runID,
	}

	var notifier *monitor.Notifier
	if cfg.NotificationsEnabled() {
		notifier = &monitor.Notifier{
			Timeout: cfg.NotificationTimeoutDuration,
			Metrics: metrics,
		}
	}

	if flagTUI {
		tui := &monitor.TUI{
			Scanner:         scanner,
			Tracker:         monitor.NewStateTracker(),
			Notifier:        notifier,
			RefreshInterval: cfg.IntervalDuration,
			ThemeName:       flagTheme,
		}
		return tui.Run(ctx)
	}

	w := &monitor.Watcher{
		Scanner:  scanner,
		Tracker:  monitor.NewStateTracker(),
		Notifier: notifier,
		Interval: cfg.IntervalDuration,
	}
	return w.Run(ctx)
}
