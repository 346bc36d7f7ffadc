package monitor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/timvw/device-patrol/internal/model"
)

// sequenceClassifier returns the next usage from a script on each call.
type sequenceClassifier struct {
	script []model.State
	calls  int
}

func (c *sequenceClassifier) Classify(context.Context, string, []string) model.Usage {
	s := c.script[min(c.calls, len(c.script)-1)]
	c.calls++
	return model.Usage{State: s}
}

func (c *sequenceClassifier) ClassifyAudio(context.Context, string) model.Usage {
	return model.Usage{State: model.StateNotInUse}
}

func TestWatcher_StepReportsTransitionsAndNotifies(t *testing.T) {
	classifier := &sequenceClassifier{script: []model.State{
		model.StateNotInUse,
		model.StateInUseByUnknown,
		model.StateInUseByUnknown,
	}}
	notifier, calls := recordingNotifier(time.Second, nil)
	var out bytes.Buffer
	w := &Watcher{
		Scanner:  &Scanner{Classifier: classifier, VideoDevices: []string{"/dev/video0"}},
		Tracker:  NewStateTracker(),
		Notifier: notifier,
		Out:      &out,
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := w.Step(ctx); err != nil {
			t.Fatalf("Step() #%d error: %v", i, err)
		}
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 transition lines, got %d:\n%s", len(lines), out.String())
	}
	if !strings.HasSuffix(lines[0], "/dev/video0 is not being used") {
		t.Errorf("line 0: %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "/dev/video0 is being used") {
		t.Errorf("line 1: %q", lines[1])
	}
	if len(*calls) != 1 {
		t.Errorf("expected exactly 1 notification, got %d", len(*calls))
	}
}

func TestWatcher_ZeroIntervalScansOnce(t *testing.T) {
	classifier := &sequenceClassifier{script: []model.State{model.StateNotInUse}}
	w := &Watcher{
		Scanner: &Scanner{Classifier: classifier, VideoDevices: []string{"/dev/video0"}},
		Tracker: NewStateTracker(),
		Out:     &bytes.Buffer{},
	}

	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if classifier.calls != 1 {
		t.Errorf("expected 1 probe, got %d", classifier.calls)
	}
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	classifier := &sequenceClassifier{script: []model.State{model.StateNotInUse}}
	w := &Watcher{
		Scanner:  &Scanner{Classifier: classifier, VideoDevices: []string{"/dev/video0"}},
		Tracker:  NewStateTracker(),
		Interval: time.Millisecond,
		Out:      &bytes.Buffer{},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := w.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if classifier.calls < 2 {
		t.Errorf("expected repeated scans, got %d", classifier.calls)
	}
}

func TestWatcher_FirstScanErrorIsReturned(t *testing.T) {
	w := &Watcher{
		Scanner: &Scanner{Classifier: &mockClassifier{}, Lister: &mockLister{err: errors.New("boom")}},
		Tracker: NewStateTracker(),
	}

	if err := w.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
