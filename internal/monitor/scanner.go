// Package monitor provides the scan loop, state tracking, desktop
// notifications and dashboard for the watch command.
//
// Devices are probed one at a time, in the order they are listed. A device
// that fails to probe is reported with the error state and the scan moves on.
package monitor

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/device-patrol/internal/model"
)

var tracer = otel.Tracer("device-patrol")

// Classifier decides the usage state of one device.
type Classifier interface {
	Classify(ctx context.Context, devicePath string, ignoredApps []string) model.Usage
	ClassifyAudio(ctx context.Context, name string) model.Usage
}

// VideoLister discovers video capture candidates.
type VideoLister interface {
	Video() ([]string, error)
}

// Scanner probes the configured devices.
type Scanner struct {
	Classifier   Classifier
	Lister       VideoLister // used when VideoDevices is empty
	VideoDevices []string    // explicit device list, probed in order
	Microphone   string      // ALSA device name; empty skips audio
	IgnoreApps   []string
	RunID        string    // groups all scans from one watch run
	Warnings     io.Writer // per-device failures; defaults to stderr
}

// ScanResult contains the reports from one pass over all devices.
type ScanResult struct {
	Reports []model.Report
}

// Busy returns the number of devices held by some process.
func (r *ScanResult) Busy() int {
	n := 0
	for _, rep := range r.Reports {
		if rep.State.Busy() {
			n++
		}
	}
	return n
}

// Scan probes every device once. It only fails when the device list itself
// cannot be determined.
func (s *Scanner) Scan(ctx context.Context) (*ScanResult, error) {
	ctx, span := tracer.Start(ctx, "scan",
		trace.WithAttributes(
			attribute.String("watch.run_id", s.RunID),
			attribute.StringSlice("ignore_apps", s.IgnoreApps),
		))
	defer span.End()

	devices, err := s.videoDevices()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "device discovery failed")
		return nil, fmt.Errorf("failed to list video devices: %w", err)
	}

	result := &ScanResult{Reports: make([]model.Report, 0, len(devices)+1)}
	for _, dev := range devices {
		result.Reports = append(result.Reports, s.probeDevice(ctx, dev, model.KindVideo))
	}
	if s.Microphone != "" {
		result.Reports = append(result.Reports, s.probeDevice(ctx, s.Microphone, model.KindAudio))
	}

	span.SetAttributes(
		attribute.Int("devices.total", len(result.Reports)),
		attribute.Int("devices.busy", result.Busy()),
	)
	return result, nil
}

func (s *Scanner) videoDevices() ([]string, error) {
	if len(s.VideoDevices) > 0 {
		return s.VideoDevices, nil
	}
	if s.Lister == nil {
		return nil, nil
	}
	return s.Lister.Video()
}

func (s *Scanner) probeDevice(ctx context.Context, device string, kind model.Kind) model.Report {
	ctx, span := tracer.Start(ctx, "probe_device",
		trace.WithAttributes(
			attribute.String("device.path", device),
			attribute.String("device.kind", string(kind)),
		))
	defer span.End()

	start := time.Now()
	var u model.Usage
	if kind == model.KindAudio {
		u = s.Classifier.ClassifyAudio(ctx, device)
	} else {
		u = s.Classifier.Classify(ctx, device, s.IgnoreApps)
	}
	r := model.NewReport(device, kind, u, start)

	if u.Err != nil {
		span.RecordError(u.Err)
		span.SetStatus(codes.Error, "probe failed")
		fmt.Fprintf(s.warnings(), "warning: %s: %v\n", device, u.Err)
	}
	for _, w := range u.Warnings {
		fmt.Fprintf(s.warnings(), "warning: %s: %s\n", device, w)
	}

	span.SetAttributes(
		attribute.String("usage.state", string(r.State)),
		attribute.String("usage.ignored_app", r.IgnoredApp),
	)
	return r
}

func (s *Scanner) warnings() io.Writer {
	if s.Warnings == nil {
		return os.Stderr
	}
	return s.Warnings
}
