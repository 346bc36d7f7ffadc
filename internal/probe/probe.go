// Package probe decides whether a capture device is busy.
//
// Video devices are probed with V4L2: the device is opened non-blocking,
// QUERYCAP confirms it is a video capture node, and REQBUFS asks for a set
// of memory-mapped buffers. Drivers hand buffers to one consumer at a time,
// so a refused reservation means some other process is streaming.
//
// Audio devices are probed by opening the ALSA PCM capture node. The kernel
// refuses a second opener of a hardware substream.
//
// The syscall layer sits behind deviceOps so the decision logic runs against
// fakes in tests. Only Linux has a real implementation.
package probe

import (
	"errors"
	"fmt"
	"syscall"
)

// Signal is the raw contention result of a probe.
type Signal int

const (
	// Unknown is returned alongside an error.
	Unknown Signal = iota
	// Free means the probe could take the device.
	Free
	// Busy means another consumer holds the device.
	Busy
)

func (s Signal) String() string {
	switch s {
	case Free:
		return "free"
	case Busy:
		return "busy"
	default:
		return "unknown"
	}
}

var (
	// ErrNotADevice means the path is not a character special file.
	ErrNotADevice = errors.New("not a character device")
	// ErrNotFound means the path does not exist. It matches ErrNotADevice.
	ErrNotFound = fmt.Errorf("%w: no such file", ErrNotADevice)
	// ErrNotCaptureDevice means the device does not speak V4L2 video capture.
	ErrNotCaptureDevice = errors.New("not a video capture device")
	// ErrMappingUnsupported means the device rejects memory-mapped buffers,
	// so it cannot be probed for contention.
	ErrMappingUnsupported = errors.New("memory mapping not supported")
	// ErrAudioNotFound means an ALSA name did not resolve to a PCM capture node.
	ErrAudioNotFound = errors.New("audio capture device not found")
)

// DeviceError is a syscall failure against a device.
type DeviceError struct {
	Path string
	Op   string
	Err  error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// Capability is the subset of struct v4l2_capability the prober needs.
type Capability struct {
	Driver       string
	Card         string
	BusInfo      string
	Capabilities uint32
	DeviceCaps   uint32
}

const (
	capVideoCapture uint32 = 0x00000001
	capDeviceCaps   uint32 = 0x80000000
)

// Effective returns the capability bits of the opened node. Drivers that set
// V4L2_CAP_DEVICE_CAPS describe the whole physical device in Capabilities and
// the node itself in DeviceCaps.
func (c Capability) Effective() uint32 {
	if c.Capabilities&capDeviceCaps != 0 {
		return c.DeviceCaps
	}
	return c.Capabilities
}

// VideoCapture reports whether the node can capture video.
func (c Capability) VideoCapture() bool {
	return c.Effective()&capVideoCapture != 0
}

// deviceOps is the syscall surface used by the prober.
type deviceOps interface {
	// stat reports whether path is a character special file.
	stat(path string) (bool, error)
	// open opens path read-write and non-blocking.
	open(path string) (int, error)
	close(fd int) error
	queryCapabilities(fd int) (Capability, error)
	// requestBuffers asks for count mmap capture buffers; 0 releases them.
	requestBuffers(fd int, count uint32) error
}

const defaultBufferCount = 4

// Prober probes video and audio capture devices.
type Prober struct {
	ops deviceOps

	// Buffers is the number of buffers requested by the reservation probe.
	Buffers uint32
	// ASoundDir is the procfs ALSA directory used to resolve card ids.
	ASoundDir string
	// SoundDevDir holds the ALSA device nodes.
	SoundDevDir string
}

// New returns a Prober backed by the operating system.
func New() *Prober {
	return &Prober{
		ops:         systemOps(),
		Buffers:     defaultBufferCount,
		ASoundDir:   "/proc/asound",
		SoundDevDir: "/dev/snd",
	}
}

// retryEINTR calls fn until it fails with something other than EINTR.
func retryEINTR(fn func() error) error {
	for {
		err := fn()
		if !errors.Is(err, syscall.EINTR) {
			return err
		}
	}
}
