package monitor

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// Watcher polls the scanner and reports state changes.
type Watcher struct {
	Scanner  *Scanner
	Tracker  *StateTracker
	Notifier *Notifier // nil disables notifications
	Interval time.Duration
	Out      io.Writer // one line per transition; defaults to stdout
}

// Run scans until ctx is cancelled. With a zero Interval it scans once.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Step(ctx); err != nil {
		return err
	}
	if w.Interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.Step(ctx); err != nil {
				// A failed pass does not stop the loop.
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
			}
		}
	}
}

// Step runs one scan, prints the transitions and notifies on alerts.
func (w *Watcher) Step(ctx context.Context) error {
	result, err := w.Scanner.Scan(ctx)
	if err != nil {
		return err
	}

	transitions := w.Tracker.Observe(result.Reports)
	for _, t := range transitions {
		fmt.Fprintf(w.out(), "%s %s\n", t.Report.CheckedAt.Local().Format(time.TimeOnly), t.Report.Summary())
	}

	if w.Notifier != nil {
		for _, err := range w.Notifier.NotifyTransitions(ctx, transitions) {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
	return nil
}

func (w *Watcher) out() io.Writer {
	if w.Out == nil {
		return os.Stdout
	}
	return w.Out
}
