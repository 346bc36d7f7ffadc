// Package usage turns a probe result into a usage verdict, crediting busy
// devices to ignored applications when one of them holds the device.
package usage

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/device-patrol/internal/model"
	ppotel "github.com/timvw/device-patrol/internal/otel"
	"github.com/timvw/device-patrol/internal/probe"
)

var tracer = otel.Tracer("device-patrol")

// VideoProber probes a V4L2 capture device for contention.
type VideoProber interface {
	ProbeVideo(path string) (probe.Signal, error)
}

// AudioProber probes an ALSA capture device for contention.
type AudioProber interface {
	ProbeAudio(name string) (probe.Signal, error)
}

// HolderResolver reports whether a named process holds a device open.
type HolderResolver interface {
	HoldsDevice(ctx context.Context, devicePath, processName string) (bool, error)
}

// Classifier combines a prober with a holder resolver.
type Classifier struct {
	Video   VideoProber
	Audio   AudioProber
	Holders HolderResolver
	Metrics *ppotel.Metrics // nil-safe
}

// Classify probes the video device at devicePath and, when it is busy, walks
// ignoredApps in order; the first app holding the device is credited.
func (c *Classifier) Classify(ctx context.Context, devicePath string, ignoredApps []string) model.Usage {
	sig, err := c.Video.ProbeVideo(devicePath)
	if err != nil {
		c.Metrics.RecordProbe(ctx, string(model.KindVideo), string(model.StateError))
		return model.Usage{State: model.StateError, Err: err}
	}

	u := c.attribute(ctx, devicePath, sig, ignoredApps)
	c.Metrics.RecordProbe(ctx, string(model.KindVideo), string(u.State))
	return u
}

// ClassifyAudio probes an ALSA capture device. Audio has no attribution step:
// a busy microphone is always reported as held by an unknown process.
func (c *Classifier) ClassifyAudio(ctx context.Context, name string) model.Usage {
	var u model.Usage
	sig, err := c.Audio.ProbeAudio(name)
	switch {
	case err != nil:
		u = model.Usage{State: model.StateError, Err: err}
	case sig == probe.Busy:
		u = model.Usage{State: model.StateInUseByUnknown}
	default:
		u = model.Usage{State: model.StateNotInUse}
	}
	c.Metrics.RecordProbe(ctx, string(model.KindAudio), string(u.State))
	return u
}

func (c *Classifier) attribute(ctx context.Context, devicePath string, sig probe.Signal, ignoredApps []string) model.Usage {
	if sig != probe.Busy {
		return model.Usage{State: model.StateNotInUse}
	}
	if len(ignoredApps) == 0 || c.Holders == nil {
		return model.Usage{State: model.StateInUseByUnknown}
	}

	u := model.Usage{State: model.StateInUseByUnknown}
	for _, app := range ignoredApps {
		held, err := c.resolve(ctx, devicePath, app)
		if err != nil {
			u.Warnings = append(u.Warnings, fmt.Sprintf("%s: %v", app, err))
			continue
		}
		if held {
			u.State = model.StateInUseByIgnoredApp
			u.IgnoredApp = app
			return u
		}
	}
	return u
}

func (c *Classifier) resolve(ctx context.Context, devicePath, app string) (bool, error) {
	ctx, span := tracer.Start(ctx, "resolve_holder",
		trace.WithAttributes(
			attribute.String("device.path", devicePath),
			attribute.String("process.name", app),
		))
	defer span.End()

	held, err := c.Holders.HoldsDevice(ctx, devicePath, app)
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "descriptor scan failed")
		c.Metrics.RecordHolderLookup(ctx, "error")
	case held:
		c.Metrics.RecordHolderLookup(ctx, "held")
	default:
		c.Metrics.RecordHolderLookup(ctx, "not_held")
	}
	span.SetAttributes(attribute.Bool("holder.match", held))
	return held, err
}
