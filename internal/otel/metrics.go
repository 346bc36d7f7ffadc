package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "device-patrol"

// Metrics holds all OTEL metric instruments for device-patrol.
// All counters are cumulative (monotonic) and safe for concurrent use.
// A nil *Metrics is valid: every Record method is a no-op on it.
type Metrics struct {
	// Probe outcomes (partitioned by device kind and resulting state)
	Probes metric.Int64Counter

	// Holder lookups (partitioned by result: held, not_held, error)
	HolderLookups metric.Int64Counter

	// Descriptors that vanished or could not be read during an fd scan
	DescriptorsSkipped metric.Int64Counter

	// Desktop notifications (partitioned by delivery outcome)
	Notifications metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Probes, err = meter.Int64Counter("probes.total",
		metric.WithDescription("Total device probes partitioned by kind (video, audio) and resulting state"))
	if err != nil {
		return nil, err
	}

	m.HolderLookups, err = meter.Int64Counter("holder_lookups.total",
		metric.WithDescription("Total ignored-app descriptor scans partitioned by result (held, not_held, error)"))
	if err != nil {
		return nil, err
	}

	m.DescriptorsSkipped, err = meter.Int64Counter("descriptors.skipped",
		metric.WithDescription("Descriptors skipped because they closed or could not be read mid-scan"),
		metric.WithUnit("{descriptor}"))
	if err != nil {
		return nil, err
	}

	m.Notifications, err = meter.Int64Counter("notifications.total",
		metric.WithDescription("Desktop notifications sent, partitioned by outcome (sent, failed)"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordProbe records one classified probe.
func (m *Metrics) RecordProbe(ctx context.Context, kind, state string) {
	if m == nil {
		return
	}
	m.Probes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("device.kind", kind),
		attribute.String("usage.state", state),
	))
}

// RecordHolderLookup records one ignored-app descriptor scan.
func (m *Metrics) RecordHolderLookup(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.HolderLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("lookup.result", result),
	))
}

// RecordSkippedDescriptor records a descriptor skipped during a scan.
func (m *Metrics) RecordSkippedDescriptor(ctx context.Context) {
	if m == nil {
		return
	}
	m.DescriptorsSkipped.Add(ctx, 1)
}

// RecordNotification records a desktop notification attempt.
func (m *Metrics) RecordNotification(ctx context.Context, sent bool) {
	if m == nil {
		return
	}
	outcome := "sent"
	if !sent {
		outcome = "failed"
	}
	m.Notifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("notification.outcome", outcome),
	))
}
