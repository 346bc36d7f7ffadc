package monitor

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/timvw/device-patrol/internal/model"
	ppotel "github.com/timvw/device-patrol/internal/otel"
)

const notifyTitle = "device-patrol"

// Notifier shows desktop notifications through notify-send.
type Notifier struct {
	// Timeout is how long the notification stays up. 0 leaves it to the
	// notification server.
	Timeout time.Duration
	// Run executes a command. Defaults to running it via os/exec.
	Run     func(ctx context.Context, name string, args ...string) error
	Metrics *ppotel.Metrics // nil-safe
}

// Notify announces a report to the user.
func (n *Notifier) Notify(ctx context.Context, r model.Report) error {
	err := n.run(ctx, "notify-send", notifyArgs(r, n.Timeout)...)
	n.Metrics.RecordNotification(ctx, err == nil)
	if err != nil {
		return fmt.Errorf("notify %s: %w", r.Device, err)
	}
	return nil
}

// NotifyTransitions sends one notification per alerting transition and
// returns the errors of those that failed.
func (n *Notifier) NotifyTransitions(ctx context.Context, ts []Transition) []error {
	var errs []error
	for _, t := range ts {
		if !t.Alert() {
			continue
		}
		if err := n.Notify(ctx, t.Report); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func notifyArgs(r model.Report, timeout time.Duration) []string {
	args := []string{"-a", notifyTitle, "-u", "critical"}
	if timeout > 0 {
		args = append(args, "-t", strconv.FormatInt(timeout.Milliseconds(), 10))
	}
	return append(args, notifyTitle, r.Summary())
}

func (n *Notifier) run(ctx context.Context, name string, args ...string) error {
	if n.Run != nil {
		return n.Run(ctx, name, args...)
	}
	return execCommand(ctx, name, args...)
}

// execCommand runs a command and folds its output into the error.
func execCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w (output: %s)", name, err, string(out))
	}
	return nil
}
