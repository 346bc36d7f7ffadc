package model

import (
	"fmt"
	"time"
)

// State is the usage verdict for a single capture device.
type State string

const (
	// StateNotInUse means the device could be reserved: nobody holds it.
	StateNotInUse State = "not_in_use"
	// StateInUseByIgnoredApp means the device is held by a process on the
	// ignored-app list.
	StateInUseByIgnoredApp State = "in_use_by_ignored_app"
	// StateInUseByUnknown means the device is held and no ignored app could
	// be credited for it.
	StateInUseByUnknown State = "in_use_by_unknown"
	// StateError means the device could not be probed.
	StateError State = "error"
)

// Busy reports whether the state means another process holds the device.
func (s State) Busy() bool {
	return s == StateInUseByIgnoredApp || s == StateInUseByUnknown
}

// Alerting reports whether the state should be brought to the user's attention.
func (s State) Alerting() bool {
	return s == StateInUseByUnknown
}

// Kind is the device family a report belongs to.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

// Usage is the outcome of classifying one device.
type Usage struct {
	State State
	// IgnoredApp is the ignored-app entry credited with holding the device.
	// Only set when State is StateInUseByIgnoredApp.
	IgnoredApp string
	// Err is the probe failure. Only set when State is StateError.
	Err error
	// Warnings lists attribution lookups that could not be completed
	// (e.g. an ignored app's descriptor table was unreadable).
	Warnings []string
}

// Report is a Usage rendered for output.
type Report struct {
	// Device is the device path (video) or ALSA device name (audio).
	Device string `json:"device"`
	// Kind is the device family.
	Kind Kind `json:"kind"`
	// State is the usage verdict.
	State State `json:"state"`
	// IgnoredApp is the ignored application holding the device, if any.
	IgnoredApp string `json:"ignored_app,omitempty"`
	// Error is the probe failure message.
	Error string `json:"error,omitempty"`
	// Warnings are non-fatal attribution problems.
	Warnings []string `json:"warnings,omitempty"`
	// CheckedAt is when the probe started.
	CheckedAt time.Time `json:"checked_at"`
	// DurationMs is the wall-clock time of probe + attribution.
	DurationMs int64 `json:"duration_ms"`
}

// NewReport builds a report for a device from a classification result.
func NewReport(device string, kind Kind, u Usage, start time.Time) Report {
	r := Report{
		Device:     device,
		Kind:       kind,
		State:      u.State,
		IgnoredApp: u.IgnoredApp,
		Warnings:   u.Warnings,
		CheckedAt:  start.UTC(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if u.Err != nil {
		r.Error = u.Err.Error()
	}
	return r
}

// Summary returns a one-line human description of the report.
func (r Report) Summary() string {
	switch r.State {
	case StateNotInUse:
		return fmt.Sprintf("%s is not being used", r.Device)
	case StateInUseByIgnoredApp:
		return fmt.Sprintf("%s is being used by ignored app %s", r.Device, r.IgnoredApp)
	case StateInUseByUnknown:
		return fmt.Sprintf("%s is being used", r.Device)
	default:
		return fmt.Sprintf("%s: %s", r.Device, r.Error)
	}
}
