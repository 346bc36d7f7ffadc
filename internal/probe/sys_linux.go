//go:build linux

package probe

import (
	"bytes"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ioctl request numbers from <linux/videodev2.h>.
const (
	vidiocQuerycap = 0x80685600 // _IOR('V', 0, struct v4l2_capability)
	vidiocReqbufs  = 0xc0145608 // _IOWR('V', 8, struct v4l2_requestbuffers)

	bufTypeVideoCapture = 1
	memoryMmap          = 1
)

// v4l2Capability mirrors struct v4l2_capability (104 bytes).
type v4l2Capability struct {
	Driver       [16]byte
	Card         [32]byte
	BusInfo      [32]byte
	Version      uint32
	Capabilities uint32
	DeviceCaps   uint32
	Reserved     [3]uint32
}

// v4l2RequestBuffers mirrors struct v4l2_requestbuffers (20 bytes).
type v4l2RequestBuffers struct {
	Count        uint32
	Type         uint32
	Memory       uint32
	Capabilities uint32
	Flags        uint8
	Reserved     [3]uint8
}

type unixOps struct{}

func systemOps() deviceOps {
	return unixOps{}
}

func (unixOps) stat(path string) (bool, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return false, err
	}
	return st.Mode&unix.S_IFMT == unix.S_IFCHR, nil
}

func (unixOps) open(path string) (int, error) {
	return unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
}

func (unixOps) close(fd int) error {
	return unix.Close(fd)
}

func (unixOps) queryCapabilities(fd int) (Capability, error) {
	var c v4l2Capability
	if err := xioctl(fd, vidiocQuerycap, unsafe.Pointer(&c)); err != nil {
		return Capability{}, err
	}
	return Capability{
		Driver:       cstring(c.Driver[:]),
		Card:         cstring(c.Card[:]),
		BusInfo:      cstring(c.BusInfo[:]),
		Capabilities: c.Capabilities,
		DeviceCaps:   c.DeviceCaps,
	}, nil
}

func (unixOps) requestBuffers(fd int, count uint32) error {
	req := v4l2RequestBuffers{
		Count:  count,
		Type:   bufTypeVideoCapture,
		Memory: memoryMmap,
	}
	return xioctl(fd, vidiocReqbufs, unsafe.Pointer(&req))
}

// xioctl issues an ioctl, retrying when a signal interrupts it.
func xioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	return retryEINTR(func() error {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg))
		if errno != 0 {
			return errno
		}
		return nil
	})
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
