package probe

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"
)

// ProbeVideo reports whether the V4L2 capture device at path is free or busy.
//
// Paths that do not exist or are not character devices are rejected before
// anything is opened. Once opened, the handle is closed on every return.
func (p *Prober) ProbeVideo(path string) (Signal, error) {
	isChar, err := p.ops.stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Unknown, fmt.Errorf("cannot identify %s: %w", path, ErrNotFound)
		}
		return Unknown, &DeviceError{Path: path, Op: "stat", Err: err}
	}
	if !isChar {
		return Unknown, fmt.Errorf("%s: %w", path, ErrNotADevice)
	}

	fd, err := p.ops.open(path)
	if err != nil {
		if errors.Is(err, syscall.EBUSY) {
			return Busy, nil
		}
		return Unknown, &DeviceError{Path: path, Op: "open", Err: err}
	}
	defer func() {
		_ = p.ops.close(fd)
	}()

	caps, err := p.ops.queryCapabilities(fd)
	if err != nil {
		if errors.Is(err, syscall.EINVAL) {
			return Unknown, fmt.Errorf("%s is no V4L2 device: %w", path, ErrNotCaptureDevice)
		}
		return Unknown, &DeviceError{Path: path, Op: "VIDIOC_QUERYCAP", Err: err}
	}
	if !caps.VideoCapture() {
		return Unknown, fmt.Errorf("%s is no video capture device: %w", path, ErrNotCaptureDevice)
	}

	return p.reserve(fd, path)
}

// Identify returns the driver, card and bus names the device at path reports.
// It does not reserve buffers, so it works on busy devices too.
func (p *Prober) Identify(path string) (Capability, error) {
	fd, err := p.ops.open(path)
	if err != nil {
		return Capability{}, &DeviceError{Path: path, Op: "open", Err: err}
	}
	defer func() {
		_ = p.ops.close(fd)
	}()

	caps, err := p.ops.queryCapabilities(fd)
	if err != nil {
		return Capability{}, &DeviceError{Path: path, Op: "VIDIOC_QUERYCAP", Err: err}
	}
	return caps, nil
}

// String formats the identity as "Card (driver, bus)".
func (c Capability) String() string {
	var parts []string
	for _, s := range []string{c.Driver, c.BusInfo} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return c.Card
	}
	return fmt.Sprintf("%s (%s)", c.Card, strings.Join(parts, ", "))
}

// reserve attempts the buffer reservation on an opened capture device.
func (p *Prober) reserve(fd int, path string) (Signal, error) {
	count := p.Buffers
	if count == 0 {
		count = defaultBufferCount
	}

	if err := p.ops.requestBuffers(fd, count); err != nil {
		if errors.Is(err, syscall.EINVAL) {
			return Unknown, fmt.Errorf("%s: %w", path, ErrMappingUnsupported)
		}
		return Busy, nil
	}

	// Hand the buffers back; closing would free them too.
	_ = p.ops.requestBuffers(fd, 0)
	return Free, nil
}
